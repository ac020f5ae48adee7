// Package urls holds the external links smartac prints in help text and
// troubleshooting hints.
package urls
