package sensibo

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/smartac/internal/logging"
	"github.com/muurk/smartac/internal/version"
)

const (
	// DefaultBaseURL is the Sensibo cloud API root
	DefaultBaseURL = "https://home.sensibo.com/api/v2/"

	// DefaultTimeout bounds every request
	DefaultTimeout = 5 * time.Second

	// RequestIDHeader carries the id that ties a request to its log lines
	RequestIDHeader = "X-Request-ID"

	contentTypeJSON = "application/json; charset=UTF-8"
)

// Method is an HTTP method the transport knows how to send.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodPatch  Method = http.MethodPatch
	MethodDelete Method = http.MethodDelete
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// HasBody reports whether requests with this method carry a JSON body.
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut || m == MethodPatch
}

// TrustPolicy decides how the server certificate is verified.
type TrustPolicy interface {
	// TLSConfig returns the client TLS configuration, or nil for the Go defaults.
	TLSConfig() (*tls.Config, error)
}

// SystemTrust verifies the server against the system root pool.
type SystemTrust struct{}

func (SystemTrust) TLSConfig() (*tls.Config, error) { return nil, nil }

// CAFileTrust verifies the server against the PEM certificates in Path only.
type CAFileTrust struct {
	Path string
}

func (t CAFileTrust) TLSConfig() (*tls.Config, error) {
	pem, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", t.Path)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// InsecureTrust accepts any server certificate. Only meant for local mocks.
type InsecureTrust struct{}

func (InsecureTrust) TLSConfig() (*tls.Config, error) {
	return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // opt-in for local mock servers
}

// RequestObserver is told about every completed request. statusCode is 0
// when no response was received.
type RequestObserver interface {
	ObserveRequest(method Method, statusCode int, elapsed time.Duration)
}

// TransportOptions configures a Transport.
type TransportOptions struct {
	BaseURL  string          // Defaults to DefaultBaseURL
	Timeout  time.Duration   // Defaults to DefaultTimeout
	Trust    TrustPolicy     // Defaults to SystemTrust
	Logger   *zap.Logger     // Defaults to the global logger
	Observer RequestObserver // Optional
}

// Transport performs one HTTP exchange per call and classifies the outcome.
// It never retries.
type Transport struct {
	client   *resty.Client
	baseURL  string
	logger   *zap.Logger
	observer RequestObserver
}

// NewTransport builds a Transport from opts.
func NewTransport(opts TransportOptions) (*Transport, error) {
	baseURL := opts.BaseURL
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	trust := opts.Trust
	if trust == nil {
		trust = SystemTrust{}
	}
	tlsConfig, err := trust.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to apply trust policy: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetLogger(logger.Sugar()).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent())
	if tlsConfig != nil {
		client.SetTLSClientConfig(tlsConfig)
	}

	return &Transport{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		observer: opts.Observer,
	}, nil
}

// Execute sends one request and returns the body of a 2xx response.
//
// query is appended as URL-encoded query items. body is sent as a JSON object
// for POST, PUT and PATCH and ignored otherwise. Failures are *APIError:
// ErrTypeParams when the request cannot be built, ErrTypeUnauthorized for 401
// and 403, ErrTypeDecode for an empty 2xx body and ErrTypeMessage for
// everything else.
func (t *Transport) Execute(ctx context.Context, path string, method Method, query map[string]string, body map[string]any) ([]byte, error) {
	if !method.Valid() {
		return nil, NewParamsError(fmt.Sprintf("unsupported HTTP method %q", method), nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	requestID := uuid.NewString()
	req := t.client.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	var payload []byte
	if method.HasBody() {
		if body == nil {
			body = map[string]any{}
		}
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, NewParamsError("failed to encode request body", err)
		}
		req.SetHeader("Content-Type", contentTypeJSON).SetBody(payload)
	}

	logging.LogAPIRequest(t.logger, requestID, string(method), BuildURL(t.baseURL, path, query), payload)

	start := time.Now()
	resp, err := req.Execute(string(method), path)
	elapsed := time.Since(start)

	if err != nil {
		redactURLError(err, logging.RedactURL)
		t.observe(method, 0, elapsed)
		t.logger.Warn("API request failed",
			zap.String("request_id", requestID),
			zap.String("method", string(method)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, NewNetworkError(fmt.Sprintf("%s %s failed", method, path), err)
	}

	status := resp.StatusCode()
	data := resp.Body()
	t.observe(method, status, elapsed)
	logging.LogAPIResponse(t.logger, requestID, string(method), status, elapsed, data)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, NewUnauthorizedError(status, httpErrorMessage(status, data))
	case !resp.IsSuccess():
		return nil, NewHTTPError(status, httpErrorMessage(status, data))
	case len(bytes.TrimSpace(data)) == 0:
		return nil, NewDecodeError("empty response body", nil)
	}

	return data, nil
}

func (t *Transport) observe(method Method, status int, elapsed time.Duration) {
	if t.observer != nil {
		t.observer.ObserveRequest(method, status, elapsed)
	}
}

// BuildURL joins base and path and appends query. It mirrors the URL the
// transport sends and is used for logging.
func BuildURL(base, path string, query map[string]string) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) == 0 {
		return u
	}
	values := make(url.Values, len(query))
	for k, v := range query {
		values.Set(k, v)
	}
	return u + "?" + values.Encode()
}

// httpErrorMessage builds the text for a non-2xx response, including the
// server's reason when the body is a JSON error object.
func httpErrorMessage(status int, data []byte) string {
	msg := fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))

	var body struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		switch {
		case body.Message != "" && body.Reason != "" && body.Message != body.Reason:
			return fmt.Sprintf("%s: %s (%s)", msg, body.Message, body.Reason)
		case body.Message != "":
			return msg + ": " + body.Message
		case body.Reason != "":
			return msg + ": " + body.Reason
		}
	}
	return msg
}
