package dashboard

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/juanbelieni/highwaysim/internal/etl"
	"github.com/juanbelieni/highwaysim/internal/vehicle"
)

// Renderer draws State onto an ANSI-aware writer. Render reads the
// published snapshot without locking the ETL mutex — the dashboard's
// own mutex is sufficient since publish is a separate swap (spec.md
// §4.9).
type Renderer struct {
	out io.Writer
}

// NewRenderer wraps os.Stdout in a colorable writer so ANSI escapes
// work uniformly across terminals (including legacy Windows consoles),
// following the pack's go-colorable dependency.
func NewRenderer() *Renderer {
	return &Renderer{out: colorable.NewColorable(os.Stdout)}
}

var filterNames = [vehicle.FilterCount]string{
	vehicle.FilterAll:             "ALL",
	vehicle.FilterCollisionRisk:   "COLLISION_RISK",
	vehicle.FilterAboveSpeedLimit: "ABOVE_SPEED_LIMIT",
}

// Draw renders the current header counts, active filter, and selected
// vehicle (spec.md §4.9/§7: missing numeric fields render as "-").
func (r *Renderer) Draw(s *State) {
	counts, filter, absolute, current, hasCurrent := s.Snapshot()

	fmt.Fprintf(r.out, "\x1b[2J\x1b[H") // clear screen, home cursor
	fmt.Fprintf(r.out, "%s\n", pad("vehicles", 12)+pad("collision", 12)+pad("speeding", 12))
	fmt.Fprintf(r.out, "%s\n", pad(itoa(counts.All), 12)+pad(itoa(counts.Collision), 12)+pad(itoa(counts.Speeding), 12))
	fmt.Fprintf(r.out, "\nfilter: %s\n", filterNames[filter])

	if !hasCurrent {
		fmt.Fprintf(r.out, "no vehicle matches the current filter\n")
		return
	}
	fmt.Fprintf(r.out, "entry #%d\n", absolute)
	drawVehicle(r.out, current)
}

func drawVehicle(w io.Writer, pv etl.ProcessedVehicle) {
	v := pv.Vehicle
	fmt.Fprintf(w, "plate:        %s\n", pv.Plate.String())
	fmt.Fprintf(w, "owner:        %s\n", orDash(v.Name))
	fmt.Fprintf(w, "model:        %s\n", orDash(v.Model))
	fmt.Fprintf(w, "year:         %s\n", orDashInt(v.Year))
	fmt.Fprintf(w, "speed:        %s\n", orDashFloat(v.Speed))
	fmt.Fprintf(w, "acceleration: %.3f\n", v.Acceleration)
	fmt.Fprintf(w, "risk:         %s\n", orDashFloat(v.Risk))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orDashInt(n int) string {
	if n < 0 {
		return "-"
	}
	return itoa(n)
}

func orDashFloat(f float64) string {
	if f < 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", f)
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }

// pad right-pads s to width columns, measuring display width with
// go-runewidth so multi-byte glyphs (e.g. a non-ASCII owner name) still
// align.
func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// RunRedrawLoop waits on state's should_draw condition and redraws
// until shutdown is requested (spec.md §4.9's redraw loop). Intended to
// run on its own goroutine (spec.md §5: one thread for dashboard
// rendering).
func (r *Renderer) RunRedrawLoop(s *State) {
	for {
		stop := s.WaitForDraw()
		r.Draw(s)
		if stop {
			return
		}
	}
}
