package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/muurk/smartac/internal/config"
	"github.com/muurk/smartac/internal/ui"
	"github.com/muurk/smartac/internal/urls"
)

var verifyKey bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(setAPIKeyCmd)
	configCmd.AddCommand(setDefaultCmd)
	configCmd.AddCommand(setNicknameCmd)

	setAPIKeyCmd.Flags().BoolVar(&verifyKey, "verify", true, "Check the key by listing devices before saving it")
}

// configCmd groups the config file commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the smartac configuration file",
	Long: `Manage the configuration file holding the API key, the default device,
device nicknames and preferences.

The file lives at $XDG_CONFIG_HOME/smartac/config.yaml unless ` + config.PathEnvVar + `
or --config points elsewhere.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration with the API key masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		shown := *cfg
		shown.APIKey = maskKey(cfg.APIKey)
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", path)
		fmt.Fprint(out, string(data))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var setAPIKeyCmd = &cobra.Command{
	Use:   "set-api-key [key]",
	Short: "Store the Sensibo API key",
	Long: `Store the Sensibo API key in the configuration file. Without an argument
the key is read from the terminal without echo, or from stdin when it is not a
terminal.

Create a key at ` + urls.APIKeys + `. By default the key is checked
by listing the account's pods before it is saved.`,
	Example: `  smartac config set-api-key
  smartac config set-api-key abcDEF123 --verify=false`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetAPIKey,
}

func runSetAPIKey(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	key := firstArg(args)
	if key == "" {
		key, err = readKey(cmd)
		if err != nil {
			return err
		}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key must not be empty")
	}
	cfg.APIKey = key

	details := []ui.Detail{{Key: "Key", Value: maskKey(key)}, {Key: "File", Value: path}}
	if verifyKey {
		client, err := newClientWithKey(cfg, key, nil)
		if err != nil {
			return err
		}
		devices, err := client.ListDevices(cmd.Context())
		if err != nil {
			return fmt.Errorf("API key check failed, not saved: %w", err)
		}
		details = append(details, ui.Detail{Key: "Pods", Value: fmt.Sprint(len(devices))})
	}

	if err := cfg.SaveFile(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("API key saved", details...))
	return nil
}

// readKey prompts for the key without echo on a terminal and reads one line
// otherwise.
func readKey(cmd *cobra.Command) (string, error) {
	if ui.IsTerminal(os.Stdin) {
		fmt.Fprint(cmd.ErrOrStderr(), "Sensibo API key: ")
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return line, nil
}

var setDefaultCmd = &cobra.Command{
	Use:   "set-default <device>",
	Short: "Set the device used when a command omits one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := resolveDeviceID(cfg, args[0])
		if err != nil {
			return err
		}

		cfg.Preferences.DefaultDevice = id
		if err := cfg.SaveFile(path); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess("Default device set", ui.Detail{Key: "Device", Value: id}))
		return nil
	},
}

var setNicknameCmd = &cobra.Command{
	Use:   "set-nickname <device> <nickname>",
	Short: "Name a pod; an empty nickname clears it",
	Example: `  smartac config set-nickname abc123 bedroom
  smartac config set-nickname abc123 ""`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		id, err := resolveDeviceID(cfg, args[0])
		if err != nil {
			return err
		}

		nickname := strings.TrimSpace(args[1])
		cfg.SetNickname(id, nickname)
		if err := cfg.SaveFile(path); err != nil {
			return err
		}

		title := "Nickname set"
		if nickname == "" {
			title = "Nickname cleared"
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess(title,
			ui.Detail{Key: "Device", Value: id},
			ui.Detail{Key: "Nickname", Value: nickname},
		))
		return nil
	},
}

// maskKey keeps the last four characters of a key.
func maskKey(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 4:
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
