package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartac/internal/config"
	"github.com/muurk/smartac/internal/remote"
	"github.com/muurk/smartac/internal/sensibo"
)

const testKey = "key-1234567890"

// fakeSensibo serves the pod endpoints from an in-memory pod table.
type fakeSensibo struct {
	mu       sync.Mutex
	pods     map[string]*sensibo.Device
	order    []string
	requests []string
	bodies   []map[string]json.RawMessage
}

func newFakeSensibo(t *testing.T, pods ...sensibo.Device) (*fakeSensibo, *httptest.Server) {
	t.Helper()
	f := &fakeSensibo{pods: make(map[string]*sensibo.Device)}
	for i := range pods {
		pod := pods[i]
		f.pods[pod.ID] = &pod
		f.order = append(f.order, pod.ID)
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSensibo) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Query().Get("apiKey") != testKey {
		respond(w, http.StatusUnauthorized, map[string]any{"status": "error", "reason": "Unauthorized"})
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v2/")
	f.requests = append(f.requests, r.Method+" "+path)

	var body map[string]json.RawMessage
	if r.Method != http.MethodGet {
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.bodies = append(f.bodies, body)
	}

	if path == "users/me/pods" {
		list := make([]sensibo.Device, 0, len(f.order))
		for _, id := range f.order {
			list = append(list, *f.pods[id])
		}
		respond(w, http.StatusOK, map[string]any{"status": "success", "result": list})
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] != "pods" {
		respond(w, http.StatusNotFound, map[string]any{"status": "error", "reason": "no such endpoint"})
		return
	}
	pod, ok := f.pods[parts[1]]
	if !ok {
		respond(w, http.StatusNotFound, map[string]any{"status": "error", "reason": "pod not found"})
		return
	}

	switch {
	case len(parts) == 2:
		respond(w, http.StatusOK, map[string]any{"status": "success", "result": pod})

	case len(parts) == 3 && r.Method == http.MethodGet:
		respond(w, http.StatusOK, map[string]any{"status": "success", "result": []sensibo.MutationResponse{mutation(pod.ACState)}})

	case len(parts) == 3 && r.Method == http.MethodPost:
		var state sensibo.ACState
		if err := json.Unmarshal(body["acState"], &state); err != nil {
			respond(w, http.StatusBadRequest, map[string]any{"status": "error", "reason": err.Error()})
			return
		}
		pod.ACState = state
		respond(w, http.StatusOK, mutation(state))

	case len(parts) == 4 && r.Method == http.MethodPatch:
		var value any
		_ = json.Unmarshal(body["newValue"], &value)
		state, err := pod.ACState.With(sensibo.Property(parts[3]), value)
		if err != nil {
			respond(w, http.StatusBadRequest, map[string]any{"status": "error", "reason": err.Error()})
			return
		}
		pod.ACState = state
		respond(w, http.StatusOK, mutation(state))

	default:
		respond(w, http.StatusMethodNotAllowed, map[string]any{"status": "error", "reason": "method not allowed"})
	}
}

func (f *fakeSensibo) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeSensibo) LastBody() map[string]json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return nil
	}
	return f.bodies[len(f.bodies)-1]
}

func (f *fakeSensibo) State(id string) sensibo.ACState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pods[id].ACState
}

func mutation(state sensibo.ACState) sensibo.MutationResponse {
	return sensibo.MutationResponse{Status: "Success", Reason: "UserRequest", ACState: state}
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pod(id, room string, alive, on bool) sensibo.Device {
	return sensibo.Device{
		ID:               id,
		Room:             sensibo.Room{Name: room},
		ConnectionStatus: sensibo.ConnectionStatus{IsAlive: alive, LastSeenSecondsAgo: 4, LastSeenTimestamp: "2024-03-01T10:00:00Z"},
		ACState: sensibo.ACState{
			IsPowerOn:  on,
			FanLevel:   sensibo.FanAuto,
			TempUnit:   "C",
			TempDegree: 22,
			ACMode:     sensibo.ModeCool,
		},
	}
}

// writeConfig points the CLI at srv through a config file in a temp dir.
func writeConfig(t *testing.T, srv *httptest.Server, edit func(*config.Config)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.New()
	cfg.BaseURL = srv.URL + "/api/v2/"
	cfg.APIKey = testKey
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, cfg.SaveFile(path))

	t.Setenv(config.PathEnvVar, path)
	t.Setenv(config.APIKeyEnvVar, "")
	return path
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResolveDeviceID(t *testing.T) {
	cfg := config.New()
	cfg.SetNickname("p1", "Bed")

	id, err := resolveDeviceID(cfg, "bed")
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	id, err = resolveDeviceID(cfg, "p9")
	require.NoError(t, err)
	assert.Equal(t, "p9", id)

	_, err = resolveDeviceID(cfg, "")
	assert.ErrorContains(t, err, "no default device")

	cfg.Preferences.DefaultDevice = "p2"
	id, err = resolveDeviceID(cfg, " ")
	require.NoError(t, err)
	assert.Equal(t, "p2", id)
}

func TestTrustPolicy(t *testing.T) {
	cfg := config.New()
	assert.Equal(t, sensibo.SystemTrust{}, trustPolicy(cfg))

	cfg.TLS = &config.TLSConfig{Policy: config.TrustCAFile, CAFile: "/etc/ca.pem"}
	assert.Equal(t, sensibo.CAFileTrust{Path: "/etc/ca.pem"}, trustPolicy(cfg))

	cfg.TLS = &config.TLSConfig{Policy: config.TrustInsecure}
	assert.Equal(t, sensibo.InsecureTrust{}, trustPolicy(cfg))

	cfg.TLS = nil
	assert.Equal(t, sensibo.SystemTrust{}, trustPolicy(cfg))
}

func TestRequestTimeout(t *testing.T) {
	t.Cleanup(func() { timeoutFlag = 0 })

	cfg := config.New()
	assert.Equal(t, sensibo.DefaultTimeout, requestTimeout(cfg))

	cfg.Preferences.TimeoutSeconds = 9
	assert.Equal(t, 9*time.Second, requestTimeout(cfg))

	timeoutFlag = 2 * time.Second
	assert.Equal(t, 2*time.Second, requestTimeout(cfg))
}

func TestResolveFormat(t *testing.T) {
	t.Cleanup(func() { outputFormat = "" })

	cfg := config.New()
	format, err := resolveFormat(cfg)
	require.NoError(t, err)
	assert.Equal(t, "detailed", format)

	cfg.Preferences.OutputFormat = "compact"
	format, err = resolveFormat(cfg)
	require.NoError(t, err)
	assert.Equal(t, "compact", format)

	outputFormat = "json"
	format, err = resolveFormat(cfg)
	require.NoError(t, err)
	assert.Equal(t, "json", format)

	outputFormat = "xml"
	_, err = resolveFormat(cfg)
	assert.Error(t, err)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", maskKey(""))
	assert.Equal(t, "***", maskKey("abc"))
	assert.Equal(t, "******cdef", maskKey("123456cdef"))
}

func TestDevicesCommand(t *testing.T) {
	_, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true), pod("p2", "Office", false, false))
	writeConfig(t, srv, func(cfg *config.Config) { cfg.SetNickname("p1", "bed") })

	out, err := run(t, "devices")
	require.NoError(t, err)
	assert.Contains(t, out, "bed (Bedroom)")
	assert.Contains(t, out, "Office")
	assert.Contains(t, out, "Offline")

	out, err = run(t, "devices", "--format", "json")
	require.NoError(t, err)
	var devices []sensibo.Device
	require.NoError(t, json.Unmarshal([]byte(out), &devices))
	require.Len(t, devices, 2)
	assert.Equal(t, "p2", devices[1].ID)
	assert.False(t, devices[1].ConnectionStatus.IsAlive)
}

func TestShowCommand_ByNickname(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, func(cfg *config.Config) { cfg.SetNickname("p1", "bed") })

	out, err := run(t, "show", "bed")
	require.NoError(t, err)
	assert.Contains(t, out, "Nickname:  bed")
	assert.Contains(t, out, "Bedroom")
	assert.Contains(t, out, "22°C")
	assert.Equal(t, []string{"GET pods/p1"}, api.Requests())
}

func TestShowCommand_UnknownDevice(t *testing.T) {
	_, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, nil)

	_, err := run(t, "show", "nope")
	require.Error(t, err)
	var apiErr *sensibo.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.NotContains(t, err.Error(), testKey)
}

func TestStateCommand_Compact(t *testing.T) {
	_, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, func(cfg *config.Config) { cfg.Preferences.DefaultDevice = "p1" })

	out, err := run(t, "state", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, "22°C On, Cool, fan auto\n", out)
}

func TestSetCommand_WritesFullState(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, nil)

	out, err := run(t, "set", "p1", "--mode", "heat", "--temp", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "AC state updated")
	assert.Contains(t, out, "25°C")

	assert.Equal(t, []string{"GET pods/p1/acStates", "POST pods/p1/acStates"}, api.Requests())

	var written map[string]any
	require.NoError(t, json.Unmarshal(api.LastBody()["acState"], &written))
	assert.Equal(t, map[string]any{
		"on":                true,
		"fanLevel":          "auto",
		"temperatureUnit":   "C",
		"targetTemperature": float64(25),
		"mode":              "heat",
	}, written)
}

func TestSetCommand_NothingToChange(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, nil)

	_, err := run(t, "set", "p1")
	assert.ErrorContains(t, err, "nothing to change")
	assert.Empty(t, api.Requests())
}

func TestSetCommand_InvalidFlag(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, nil)

	_, err := run(t, "set", "p1", "--temp", "40")
	require.Error(t, err)
	assert.True(t, sensibo.IsParamsError(err))
	assert.Empty(t, api.Requests())
}

func TestSetPropertyCommand(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, func(cfg *config.Config) { cfg.Preferences.DefaultDevice = "p1" })

	out, err := run(t, "set-property", "fanLevel", "high", "--format", "compact")
	require.NoError(t, err)
	assert.Equal(t, "22°C On, Cool, fan high\n", out)
	assert.Equal(t, []string{"PATCH pods/p1/acStates/fanLevel"}, api.Requests())
	assert.JSONEq(t, `"high"`, string(api.LastBody()["newValue"]))

	_, err = run(t, "set-property", "p1", "swing", "on")
	assert.True(t, sensibo.IsParamsError(err))
}

func TestPowerCommand_Toggle(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, nil)

	out, err := run(t, "power", "p1", "toggle", "--format", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "Off")
	assert.False(t, api.State("p1").IsPowerOn)
	assert.Equal(t, []string{"GET pods/p1", "PATCH pods/p1/acStates/on"}, api.Requests())
	assert.JSONEq(t, `false`, string(api.LastBody()["newValue"]))

	_, err = run(t, "power", "p1", "sideways")
	assert.ErrorContains(t, err, "unknown power action")
}

func TestTempCommand(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	writeConfig(t, srv, nil)

	_, err := run(t, "temp", "p1", "up")
	require.NoError(t, err)
	assert.Equal(t, 23, api.State("p1").TempDegree)
}

func TestTempCommand_OfflineSendsNothing(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p2", "Office", false, true))
	writeConfig(t, srv, nil)

	_, err := run(t, "temp", "p2", "down")
	assert.ErrorIs(t, err, remote.ErrOffline)
	assert.Equal(t, []string{"GET pods/p2"}, api.Requests())
}

func TestTempCommand_PoweredOff(t *testing.T) {
	api, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, false))
	writeConfig(t, srv, nil)

	_, err := run(t, "temp", "p1", "up")
	assert.ErrorIs(t, err, remote.ErrPoweredOff)
	assert.Equal(t, []string{"GET pods/p1"}, api.Requests())
}

func TestConfigSetAPIKey_Verify(t *testing.T) {
	_, srv := newFakeSensibo(t, pod("p1", "Bedroom", true, true))
	path := writeConfig(t, srv, func(cfg *config.Config) { cfg.APIKey = "" })

	_, err := run(t, "config", "set-api-key", "wrong-key")
	require.Error(t, err)
	assert.True(t, sensibo.IsUnauthorized(err))
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)

	out, err := run(t, "config", "set-api-key", testKey)
	require.NoError(t, err)
	assert.Contains(t, out, "API key saved")
	assert.NotContains(t, out, testKey)
	cfg, err = config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testKey, cfg.APIKey)
}

func TestConfigSetAPIKey_NoVerify(t *testing.T) {
	api, srv := newFakeSensibo(t)
	path := writeConfig(t, srv, nil)

	_, err := run(t, "config", "set-api-key", "other-key", "--verify=false")
	require.NoError(t, err)
	assert.Empty(t, api.Requests())

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "other-key", cfg.APIKey)
}

func TestConfigNicknameAndDefault(t *testing.T) {
	_, srv := newFakeSensibo(t)
	path := writeConfig(t, srv, nil)

	_, err := run(t, "config", "set-nickname", "p1", "bed")
	require.NoError(t, err)
	_, err = run(t, "config", "set-default", "bed")
	require.NoError(t, err)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bed", cfg.Nickname("p1"))
	assert.Equal(t, "p1", cfg.Preferences.DefaultDevice)

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "default_device: p1")
	assert.Contains(t, out, "**********7890")
	assert.NotContains(t, out, testKey)

	out, err = run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "smartac "))
}
