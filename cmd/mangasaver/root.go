package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	saveerrors "mangasaver/pkg/errors"
	"mangasaver/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
	apiLevel   int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mangasaver",
	Short: "Save manga covers and pages to the image cache or shared pictures",
	Long: `Mangasaver stores manga covers and pages either in the app's private image
cache or in the shared Pictures collection where other applications can see them.

Pages are copied byte for byte once their format is recognized. Covers are
decoded and re-encoded as JPEG. On hosts with scoped storage (API level 29 and
above) shared pictures go through the media index; older hosts write files
directly.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColorEnabled(false)
		}
		if quiet {
			ui.SetQuietMode(true)
			logLevel = "error"
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps save failures to distinct process exit codes
func exitCode(err error) int {
	switch saveerrors.TypeOf(err) {
	case saveerrors.ErrorTypeUnrecognizedFormat:
		return 2
	case saveerrors.ErrorTypeEntryAllocation, saveerrors.ErrorTypeMissingOutputChannel:
		return 3
	case saveerrors.ErrorTypeIO:
		return 4
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.mangasaver.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().IntVar(&apiLevel, "api-level", 0, "platform API level (29 and above use scoped storage)")

	rootCmd.SetVersionTemplate(`Mangasaver {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
