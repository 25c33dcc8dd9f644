package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"mangasaver/pkg/config"
	"mangasaver/pkg/platform"
	"mangasaver/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Mangasaver configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (MANGASAVER_*)
  - Configuration file
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'mangasaver.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and resolved directories",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# Mangasaver Configuration File
#
# Environment variables prefixed with MANGASAVER_ override these values,
# for example MANGASAVER_API_LEVEL or MANGASAVER_VOLUME_ROOT.

app:
  # Name of the app folder under Pictures
  name: "Mangasaver"

platform:
  # Platform API level. 29 and above store shared pictures through the
  # media index, lower levels write files directly.
  api_level: 29

storage:
  # Private image cache. Default: <user cache dir>/mangasaver/images
  cache_dir: ""

  # Root of the shared volume holding Pictures. Default: home directory
  volume_root: ""

  # Media index file. Default: <user data dir>/mangasaver/media-index.json
  index_file: ""

logging:
  # Log level: debug, info, warn, error, disabled
  level: "info"

  # Log file path (optional). Leave empty to log to stderr only
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "mangasaver.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.Println("\nNext steps:")
	ui.Println("1. Edit the configuration file")
	ui.Println("2. Run 'mangasaver config validate' to check the configuration")
	ui.Println("3. Save images with 'mangasaver save page <file>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandLineFlags())
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	ui.Println()
	ui.Printf("%s", data)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandLineFlags())
	if err != nil {
		return err
	}

	d, err := platform.NewDesktop(cfg)
	if err != nil {
		return err
	}

	var problems []string
	for _, dir := range []string{d.CacheImageDir(), d.PublicPicturesDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("cannot create %s: %v", dir, err))
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			ui.PrintError("  - " + p)
		}
		return fmt.Errorf("configuration has %d problem(s)", len(problems))
	}

	ui.PrintSuccess("Configuration is valid")
	ui.Println("\nConfiguration summary:")
	ui.Printf("  App name: %s\n", d.AppName())
	ui.Printf("  API level: %d (scoped storage: %t)\n", d.APILevel(), d.SupportsScopedStorage())
	ui.Printf("  Cache directory: %s\n", d.CacheImageDir())
	ui.Printf("  Pictures directory: %s\n", d.PublicPicturesDir())
	ui.Printf("  Media index: %s\n", d.IndexFile(cfg))
	ui.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
