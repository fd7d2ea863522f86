package display

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/srg/vitals/orchestrator"
	"golang.org/x/term"
)

// slotLabels are the fixed row labels of the dashboard.
var slotLabels = [orchestrator.NumSlots]string{
	"wrist band",
	"(reserved)",
	"chest strap",
	"phone",
}

var (
	colorConnected    = color.New(color.FgGreen)
	colorDisconnected = color.New(color.FgRed)
	colorSearching    = color.New(color.FgYellow)
)

// iconGlyph maps an icon name to its terminal glyph.
func iconGlyph(icon string) string {
	switch icon {
	case IconConnected:
		return colorConnected.Sprint("●")
	case IconDisconnected:
		return colorDisconnected.Sprint("●")
	default:
		return colorSearching.Sprint("◌")
	}
}

// batteryGlyph maps a battery icon name to its terminal form.
func batteryGlyph(icon string) string {
	switch icon {
	case BatteryFull:
		return "[####]"
	case BatteryFifty:
		return "[##--]"
	case BatteryLow:
		return "[#---]"
	case BatteryEmpty:
		return "[----]"
	default:
		return "[????]"
	}
}

// Table writes dashboard frames to a terminal.
type Table struct {
	w io.Writer
}

// NewTable creates a table writer. Colors are disabled automatically when w
// is not a terminal.
func NewTable(w io.Writer) *Table {
	if w == nil {
		w = os.Stdout
	}
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		color.NoColor = true
	}
	return &Table{w: w}
}

// Render writes one frame as a four-row table plus the server status line.
func (t *Table) Render(f orchestrator.Frame) error {
	rows := Rows(f, time.Now())

	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\t\tDEVICE\tTEMP\tHR\tACCEL\tBATTERY\tRECORDS")
	fmt.Fprintln(tw, strings.Repeat("-", 80))

	for i, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			slotLabels[i],
			iconGlyph(row.StatusIcon),
			row.Name,
			row.Temperature,
			row.HeartRate,
			row.Acceleration,
			batteryGlyph(row.BatteryIcon),
			row.Records)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(t.w, "\nserver %s %s", iconGlyph(ServerIcon(f.Server.Status)), f.Server.Status)
	if msg := ServerMessage(f.Server); msg != "" {
		fmt.Fprintf(t.w, "  %s", msg)
	}
	fmt.Fprintln(t.w)
	return nil
}

// Clear wipes the terminal before a refresh.
func (t *Table) Clear() {
	fmt.Fprint(t.w, "\033[2J\033[H")
}
