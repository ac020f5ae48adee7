// Package config manages the smartac YAML configuration file.
//
// The file holds the Sensibo API key, an optional base URL override, the TLS
// trust policy for the API connection, per-pod nicknames and a few
// preferences. Device state is never written here: every session starts
// from a fresh fetch.
//
// # Configuration File Location
//
//   - $SMARTAC_CONFIG when set
//   - Linux: $XDG_CONFIG_HOME/smartac/config.yaml or $HOME/.config/smartac/config.yaml
//   - macOS: $HOME/.config/smartac/config.yaml
//   - Windows: %LOCALAPPDATA%\smartac\config.yaml
//
// # Example
//
//	version: 1
//	api_key: "0123456789abcdef"
//	tls:
//	  policy: system
//	devices:
//	  "Ab3dE9xQ":
//	    nickname: Bedroom
//	preferences:
//	  default_device: "Ab3dE9xQ"
//	  output_format: compact
//
// The API key may also come from SMARTAC_API_KEY, which takes precedence.
// Once a client is built the key is fixed for the life of the process.
package config
