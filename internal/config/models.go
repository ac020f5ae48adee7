package config

import (
	"fmt"
	"os"
	"strings"
)

// CurrentVersion is the config file schema version.
const CurrentVersion = 1

// DefaultBaseURL is the Sensibo cloud API root.
const DefaultBaseURL = "https://home.sensibo.com/api/v2/"

// APIKeyEnvVar overrides the API key stored in the config file.
const APIKeyEnvVar = "SMARTAC_API_KEY"

// Trust policy names accepted in the config file.
const (
	TrustSystem   = "system"
	TrustCAFile   = "ca_file"
	TrustInsecure = "insecure"
)

// Config represents the entire user configuration file.
type Config struct {
	Version     int                `yaml:"version"`
	APIKey      string             `yaml:"api_key,omitempty"`
	BaseURL     string             `yaml:"base_url,omitempty"` // Override for staging or local mocks
	TLS         *TLSConfig         `yaml:"tls,omitempty"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by pod id
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// TLSConfig selects how the API server certificate is trusted.
type TLSConfig struct {
	Policy string `yaml:"policy"`            // system, ca_file or insecure
	CAFile string `yaml:"ca_file,omitempty"` // PEM bundle for the ca_file policy
}

// Device holds user metadata for a pod. Device state itself is never stored.
type Device struct {
	Nickname string `yaml:"nickname,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultDevice  string `yaml:"default_device,omitempty"`  // Pod id used when a command omits one
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Per-request timeout, 0 = default
	OutputFormat   string `yaml:"output_format,omitempty"`   // detailed, compact or json
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Version: CurrentVersion,
		BaseURL: DefaultBaseURL,
		TLS:     &TLSConfig{Policy: TrustSystem},
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			OutputFormat: "detailed",
		},
	}
}

// ResolveAPIKey returns the API key to use: the environment wins over the file.
func (c *Config) ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnvVar)); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no API key configured (set %s or run 'smartac config set-api-key')", APIKeyEnvVar)
}

// ResolveBaseURL returns the configured base URL or the Sensibo default.
func (c *Config) ResolveBaseURL() string {
	if strings.TrimSpace(c.BaseURL) == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// Validate checks values that cannot be caught by the YAML decoder.
func (c *Config) Validate() error {
	if c.TLS != nil {
		switch c.TLS.Policy {
		case "", TrustSystem, TrustInsecure:
		case TrustCAFile:
			if c.TLS.CAFile == "" {
				return fmt.Errorf("tls.policy %q requires tls.ca_file", TrustCAFile)
			}
		default:
			return fmt.Errorf("unknown tls.policy %q (want %s, %s or %s)", c.TLS.Policy, TrustSystem, TrustCAFile, TrustInsecure)
		}
	}
	if c.Preferences != nil {
		switch c.Preferences.OutputFormat {
		case "", "detailed", "compact", "json":
		default:
			return fmt.Errorf("unknown preferences.output_format %q", c.Preferences.OutputFormat)
		}
		if c.Preferences.TimeoutSeconds < 0 {
			return fmt.Errorf("preferences.timeout_seconds must not be negative")
		}
	}
	return nil
}

// EnsureDevice returns the metadata entry for a pod, creating it if needed.
func (c *Config) EnsureDevice(id string) *Device {
	if c.Devices == nil {
		c.Devices = make(map[string]*Device)
	}
	if device, ok := c.Devices[id]; ok {
		return device
	}
	device := &Device{}
	c.Devices[id] = device
	return device
}

// SetNickname sets a user-facing nickname for a pod.
func (c *Config) SetNickname(id, nickname string) {
	c.EnsureDevice(id).Nickname = nickname
}

// Nickname returns the nickname for a pod, or "" if none is set.
func (c *Config) Nickname(id string) string {
	if device, ok := c.Devices[id]; ok && device != nil {
		return device.Nickname
	}
	return ""
}

// Nicknames returns the pod id to nickname map for pods that have one.
func (c *Config) Nicknames() map[string]string {
	out := make(map[string]string, len(c.Devices))
	for id, device := range c.Devices {
		if device != nil && device.Nickname != "" {
			out[id] = device.Nickname
		}
	}
	return out
}
