package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/vitals/display"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Bind, poll once and print the dashboard",
	Long: `Binds all configured sensor slots, waits for the sources to settle, polls
each slot once and prints the dashboard table. Useful for a quick check
without the full-screen watch loop.`,
	RunE: runStatus,
}

var statusTimeout time.Duration

func init() {
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "How long to wait for a settled frame")
	statusCmd.Flags().BoolP("verbose", "V", false, "Verbose logging")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	setup, err := buildHub(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	setup.hub.Start(ctx)
	defer setup.hub.Stop()

	// The first frame usually still shows sources connecting; give them one
	// extra tick to settle, then print whatever we have.
	var got bool
	var last time.Time
	table := display.NewTable(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			if !got {
				return fmt.Errorf("no frame within %s", statusTimeout)
			}
			return nil
		case frame := <-setup.hub.Frames():
			if got && frame.Taken.Sub(last) > 0 {
				return table.Render(frame)
			}
			got = true
			last = frame.Taken
			setup.hub.PollTick()
		}
	}
}
