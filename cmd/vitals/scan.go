package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/vitals/internal/sensor/hrm"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover nearby heart rate monitors",
	Long: `Scans for BLE heart rate monitors and lists them with address, name and
signal strength. Use a listed address with 'watch --chest-address' or pin it
in the slot manifest.`,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanAll      bool
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "How long to scan")
	scanCmd.Flags().BoolP("verbose", "V", false, "Verbose logging")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "List every advertising device, not just heart rate monitors")
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	scanner := hrm.NewScanner(logger)
	opts := &hrm.ScanOptions{
		Duration:      scanDuration,
		HeartRateOnly: !scanAll,
	}

	found, err := scanner.Scan(context.Background(), opts)
	if err != nil {
		return err
	}

	if len(found) == 0 {
		fmt.Println("No devices found.")
		return nil
	}

	devices := make([]hrm.Discovery, 0, len(found))
	for _, d := range found {
		devices = append(devices, d)
	}
	// Strongest signal first.
	sort.Slice(devices, func(i, j int) bool { return devices[i].RSSI > devices[j].RSSI })

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tNAME\tRSSI\tHR")
	for _, d := range devices {
		name := d.Name
		if name == "" {
			name = "(unknown)"
		}
		hr := ""
		if d.HeartRate {
			hr = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.Address, name, d.RSSI, hr)
	}
	return tw.Flush()
}
