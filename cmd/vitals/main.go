package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vitals",
	Short: "Multi-source biosignal hub",
	Long: `vitals coordinates multiple wearable and phone biosignal sources and
aggregates their live state into a single dashboard:

- Bind a wrist band, a chest strap and the phone's own sensors into fixed slots
- Poll every bound slot on a fixed cadence for status and readings
- Fold record-upload events from the streaming endpoint into per-slot counters
- Render the aggregate as a four-row terminal table

Slots can be pinned to specific devices with a YAML manifest; poll and upload
cadences come from the configuration file or VITALS_ environment overrides.`,
	Version: formatVersion(version),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	// Add subcommands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./vitals.yaml or ~/.config/vitals)")
	rootCmd.PersistentFlags().String("manifest", "", "Per-slot device manifest (YAML)")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
