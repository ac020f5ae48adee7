// Package exporter serves Sensibo pod state as Prometheus metrics.
//
// Every scrape of the metrics path lists the account's pods through the
// API client, so the exporter holds no state of its own between scrapes.
// The registry also carries the API request counters and the Go and
// process collectors.
//
// # Usage
//
//	srv, err := exporter.New(exporter.Config{Listen: ":9864"}, client, requests)
//	if err != nil {
//	    return err
//	}
//	// Start blocks until shutdown signal or error
//	return srv.Start(ctx)
//
// # Graceful Shutdown
//
// The server stops on SIGINT, SIGTERM or when the context passed to Start is
// done. In-flight scrapes get ten seconds to finish.
//
// # TLS
//
// When both a certificate and a key are configured the exporter serves HTTPS
// with TLS 1.2 or later.
package exporter
