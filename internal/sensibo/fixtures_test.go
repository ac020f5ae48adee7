package sensibo

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key-123"

// mockMutationResponse is the bare mutation body the API returns for a PATCH.
const mockMutationResponse = `{"status":"success","reason":"","acState":{"on":true,"fanLevel":"auto","temperatureUnit":"C","targetTemperature":24,"mode":"cool"}}`

func mockDeviceJSON(id, room string, alive bool, secondsAgo int) string {
	return fmt.Sprintf(`{"id":%q,"room":{"name":%q,"icon":"lounge"},"connectionStatus":{"isAlive":%t,"lastSeen":{"secondsAgo":%d,"time":"2024-03-01T10:00:00.000000Z"}},"acState":{"on":true,"fanLevel":"auto","temperatureUnit":"C","targetTemperature":22,"mode":"cool"},"productModel":"skyv2"}`,
		id, room, alive, secondsAgo)
}

func testDevice() Device {
	return Device{
		ID:   "d1",
		Room: Room{Name: "Room A", Icon: "lounge"},
		ConnectionStatus: ConnectionStatus{
			IsAlive:            true,
			LastSeenSecondsAgo: 12,
			LastSeenTimestamp:  "2024-03-01T10:00:00.000000Z",
		},
		ACState: ACState{
			IsPowerOn:  true,
			FanLevel:   FanAuto,
			TempUnit:   "C",
			TempDegree: 22,
			ACMode:     ModeCool,
		},
	}
}

// countingServer wraps handler and counts the requests it receives.
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient(Options{
		BaseURL: srv.URL + "/api/v2/",
		APIKey:  testAPIKey,
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
