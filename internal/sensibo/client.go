package sensibo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const apiKeyParam = "apiKey"

// Options configures a Client. APIKey is required.
type Options struct {
	BaseURL  string
	APIKey   string
	Trust    TrustPolicy
	Timeout  time.Duration
	Logger   *zap.Logger
	Observer RequestObserver
}

// Client exposes one method per Sensibo API capability. A Client carries its
// own configuration; the API key is fixed for its lifetime. Methods are safe
// for concurrent use.
type Client struct {
	transport *Transport
	apiKey    string
}

// NewClient creates a Client.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("an API key is required")
	}

	transport, err := NewTransport(TransportOptions{
		BaseURL:  opts.BaseURL,
		Timeout:  opts.Timeout,
		Trust:    opts.Trust,
		Logger:   opts.Logger,
		Observer: opts.Observer,
	})
	if err != nil {
		return nil, err
	}

	return &Client{transport: transport, apiKey: apiKey}, nil
}

// ListDevices returns every pod on the account.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	data, err := c.call(ctx, "users/me/pods", MethodGet, map[string]string{"fields": "*"}, nil)
	if err != nil {
		return nil, err
	}
	env, err := Decode[[]Device](data)
	if err != nil {
		return nil, err
	}
	return env.Result, nil
}

// GetDevice returns one pod. Unknown ids surface as whatever error the
// server's response maps to.
func (c *Client) GetDevice(ctx context.Context, id string) (Device, error) {
	data, err := c.call(ctx, podPath(id), MethodGet, map[string]string{"fields": "*"}, nil)
	if err != nil {
		return Device{}, err
	}
	env, err := Decode[Device](data)
	if err != nil {
		return Device{}, err
	}
	return env.Result, nil
}

// GetACState returns the most recent AC state of a pod.
func (c *Client) GetACState(ctx context.Context, id string) (MutationResponse, error) {
	data, err := c.call(ctx, podPath(id)+"/acStates", MethodGet, map[string]string{"limit": "1"}, nil)
	if err != nil {
		return MutationResponse{}, err
	}
	return DecodeMutation(data)
}

// SetACState writes a complete AC state.
func (c *Client) SetACState(ctx context.Context, id string, state ACState) (MutationResponse, error) {
	if err := state.Validate(); err != nil {
		return MutationResponse{}, NewParamsError(err.Error(), err)
	}

	data, err := c.call(ctx, podPath(id)+"/acStates", MethodPost, nil, map[string]any{"acState": state})
	if err != nil {
		return MutationResponse{}, err
	}
	return DecodeMutation(data)
}

// SetACStateProperty writes a single AC state property. The value must have
// the property's type; otherwise nothing is sent.
func (c *Client) SetACStateProperty(ctx context.Context, id string, prop Property, value any) (MutationResponse, error) {
	if !prop.Valid() {
		return MutationResponse{}, NewParamsError(fmt.Sprintf("unknown property %q", prop), nil)
	}
	newValue, err := prop.NormalizeValue(value)
	if err != nil {
		return MutationResponse{}, err
	}

	path := podPath(id) + "/acStates/" + string(prop)
	data, err := c.call(ctx, path, MethodPatch, nil, map[string]any{"newValue": newValue})
	if err != nil {
		return MutationResponse{}, err
	}
	return DecodeMutation(data)
}

func (c *Client) call(ctx context.Context, path string, method Method, query map[string]string, body map[string]any) ([]byte, error) {
	params := make(map[string]string, len(query)+1)
	for k, v := range query {
		params[k] = v
	}
	params[apiKeyParam] = c.apiKey

	return c.transport.Execute(ctx, path, method, params, body)
}

func podPath(id string) string {
	return "pods/" + url.PathEscape(id)
}
