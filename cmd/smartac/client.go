package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muurk/smartac/internal/config"
	"github.com/muurk/smartac/internal/logging"
	"github.com/muurk/smartac/internal/sensibo"
)

// Global flags
var (
	outputFormat string
	apiKeyFlag   string
	timeoutFlag  time.Duration
	configFlag   string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&outputFormat, "format", "", "Output format (detailed, compact, json); defaults to the config preference")
	pf.StringVar(&apiKeyFlag, "api-key", "", "Sensibo API key (overrides "+config.APIKeyEnvVar+" and the config file)")
	pf.DurationVar(&timeoutFlag, "timeout", 0, "Per-request timeout (defaults to the config preference, then 5s)")
	pf.StringVar(&configFlag, "config", "", "Config file path (overrides "+config.PathEnvVar+")")
}

func configPath() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	return config.GetConfigPath()
}

// loadConfig reads the config file. A missing file yields the defaults.
func loadConfig() (*config.Config, string, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// trustPolicy maps the config's tls section to a transport trust policy.
func trustPolicy(cfg *config.Config) sensibo.TrustPolicy {
	if cfg.TLS == nil {
		return sensibo.SystemTrust{}
	}
	switch cfg.TLS.Policy {
	case config.TrustCAFile:
		return sensibo.CAFileTrust{Path: cfg.TLS.CAFile}
	case config.TrustInsecure:
		logging.Warn("TLS certificate verification is disabled by config")
		return sensibo.InsecureTrust{}
	}
	return sensibo.SystemTrust{}
}

// requestTimeout picks the flag, then the config preference, then the default.
func requestTimeout(cfg *config.Config) time.Duration {
	if timeoutFlag > 0 {
		return timeoutFlag
	}
	if cfg.Preferences != nil && cfg.Preferences.TimeoutSeconds > 0 {
		return time.Duration(cfg.Preferences.TimeoutSeconds) * time.Second
	}
	return sensibo.DefaultTimeout
}

// resolveAPIKey picks the flag, then the environment, then the config file.
func resolveAPIKey(cfg *config.Config) (string, error) {
	if key := strings.TrimSpace(apiKeyFlag); key != "" {
		return key, nil
	}
	return cfg.ResolveAPIKey()
}

func newClient(cfg *config.Config, observer sensibo.RequestObserver) (*sensibo.Client, error) {
	key, err := resolveAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	return newClientWithKey(cfg, key, observer)
}

func newClientWithKey(cfg *config.Config, key string, observer sensibo.RequestObserver) (*sensibo.Client, error) {
	return sensibo.NewClient(sensibo.Options{
		BaseURL:  cfg.ResolveBaseURL(),
		APIKey:   key,
		Trust:    trustPolicy(cfg),
		Timeout:  requestTimeout(cfg),
		Logger:   logging.GetLogger(),
		Observer: observer,
	})
}

// setup loads the config and builds a client from it.
func setup() (*config.Config, *sensibo.Client, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

// resolveDeviceID returns the pod id named by arg, which may be a nickname,
// or the configured default device when arg is empty.
func resolveDeviceID(cfg *config.Config, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		if cfg.Preferences != nil && cfg.Preferences.DefaultDevice != "" {
			return cfg.Preferences.DefaultDevice, nil
		}
		return "", fmt.Errorf("no device given and no default device configured (list pods with 'smartac devices', then run 'smartac config set-default <id>')")
	}
	for id, nickname := range cfg.Nicknames() {
		if strings.EqualFold(nickname, arg) {
			return id, nil
		}
	}
	return arg, nil
}

// resolveFormat picks the flag, then the config preference, then detailed.
func resolveFormat(cfg *config.Config) (string, error) {
	format := outputFormat
	if format == "" && cfg.Preferences != nil {
		format = cfg.Preferences.OutputFormat
	}
	switch format {
	case "":
		return "detailed", nil
	case "detailed", "compact", "json":
		return format, nil
	}
	return "", fmt.Errorf("unknown format %q (use detailed, compact or json)", format)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// displayName returns "nickname (room)" when the pod has a nickname.
func displayName(cfg *config.Config, d sensibo.Device) string {
	name := d.Name()
	if nickname := cfg.Nickname(d.ID); nickname != "" {
		name = nickname + " (" + name + ")"
	}
	return name
}
