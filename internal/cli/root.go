// Package cli provides the command-line interface for exoquant.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/exoquant/internal/version"
)

// logLevelEnv overrides the level chosen by --verbose and --quiet.
const logLevelEnv = "EXOQUANT_LOG_LEVEL"

// NewRootCmd builds the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "exoquant",
		Short: "A variance-split colour quantizer",
		Long: `exoquant reduces truecolour images to indexed palettes of up to 256 colours.

It builds a palette by repeatedly splitting the colour cluster with the
largest variance along its principal axis, optionally refines it with
k-means style relaxation, and maps pixels back with or without dithering.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newQuantizeCmd())
	rootCmd.AddCommand(newPaletteCmd())

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the command logger from the global flags. Output goes to
// the command's stderr.
func newLogger(cmd *cobra.Command) hclog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := hclog.Info
	switch {
	case quiet:
		level = hclog.Error
	case verbose:
		level = hclog.Debug
	}
	if env := os.Getenv(logLevelEnv); env != "" {
		if l := hclog.LevelFromString(env); l != hclog.NoLevel {
			level = l
		}
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "exoquant",
		Output: cmd.ErrOrStderr(),
		Level:  level,
	})
}

// rawFlags holds the dimensions of headerless RGBA inputs.
type rawFlags struct {
	width, height int
}

func (r *rawFlags) register(f *pflag.FlagSet) {
	f.IntVar(&r.width, "raw-width", 0, "width of raw .rgba inputs")
	f.IntVar(&r.height, "raw-height", 0, "height of raw .rgba inputs (default: derived from size)")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
