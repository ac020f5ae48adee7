package logging

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "api key redacted",
			in:   "https://home.sensibo.com/api/v2/users/me/pods?apiKey=secret&fields=%2A",
			want: "https://home.sensibo.com/api/v2/users/me/pods?apiKey=REDACTED&fields=%2A",
		},
		{
			name: "no api key",
			in:   "https://home.sensibo.com/api/v2/pods/abc?limit=1",
			want: "https://home.sensibo.com/api/v2/pods/abc?limit=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactURL(tt.in)
			if got != tt.want {
				t.Errorf("RedactURL() = %v, want %v", got, tt.want)
			}
			if strings.Contains(got, "secret") {
				t.Errorf("RedactURL() leaked key: %v", got)
			}
		})
	}
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op when no level is configured")
	}
}

func TestInitialize_Level(t *testing.T) {
	if err := Initialize("warn"); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer SetLogger(nil)

	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestLogAPIRequest_RedactsKey(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	LogAPIRequest(l, "req-1", "GET", "https://example.test/api/v2/pods/x?apiKey=hunter2", nil)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["url"] != "https://example.test/api/v2/pods/x?apiKey=REDACTED" {
		t.Errorf("url field = %v", fields["url"])
	}
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id field = %v", fields["request_id"])
	}
}

func TestLogAPIResponse_BodyOnlyAtDebug(t *testing.T) {
	body := []byte(`{"status":"success"}`)

	core, logs := observer.New(zapcore.InfoLevel)
	LogAPIResponse(zap.New(core), "req-2", "PATCH", 200, 15*time.Millisecond, body)
	if _, ok := logs.All()[0].ContextMap()["body"]; ok {
		t.Error("body should not be logged at info level")
	}

	core, logs = observer.New(zapcore.DebugLevel)
	LogAPIResponse(zap.New(core), "req-2", "PATCH", 200, 15*time.Millisecond, body)
	if got := logs.All()[0].ContextMap()["body"]; got != string(body) {
		t.Errorf("body field = %v, want %s", got, body)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", maxBodyLog+10)
	got := truncate([]byte(long))
	if len(got) != maxBodyLog+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate() length = %d, want %d with ellipsis", len(got), maxBodyLog+3)
	}
	if truncate([]byte("short")) != "short" {
		t.Error("truncate() should not change short bodies")
	}
}
