// Package logging provides structured logging for smartac.
//
// This package wraps a global zap logger. Logging is silent by default so
// the CLI and the terminal UI own the terminal; set SMARTAC_LOG_LEVEL to
// "debug", "info", "warn" or "error" to see output on stderr.
//
// # Structured Logging
//
//	logging.Info("Device state updated",
//	    zap.String("device_id", "abc123"),
//	    zap.Int("target_temperature", 24),
//	)
//
// # API Logging
//
// The API transport records every request and response:
//
//	logging.LogAPIRequest(l, requestID, "PATCH", url, body)
//	logging.LogAPIResponse(l, requestID, "PATCH", 200, elapsed, body)
//
// The apiKey query parameter is always redacted before a URL is logged.
//
// # Configuration
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
package logging
