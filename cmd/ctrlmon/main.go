// Command ctrlmon is a read-only operator TUI: it polls a controller's
// in-process state on a fixed tick and renders bus power states, fault
// summaries, and the top-level system state. It never issues commands.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/faultmgr"
	"github.com/m2cell/cellctrl/internal/calog"
	"github.com/m2cell/cellctrl/model"
	"github.com/m2cell/cellctrl/power"
	"github.com/m2cell/cellctrl/simhw"
)

type refreshTick struct{}

func doRefresh() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshTick{}
	})
}

// Source abstracts however ctrlmon obtains live state: an in-process demo
// wiring (the only mode implemented here) or, in a fuller deployment, a
// client reading the telemetry JSON stream over the wire.
type Source interface {
	SystemState() model.SystemState
	MotorState() power.State
	CommState() power.State
	SystemFaults() faultbits.Bits
	MotorFaults() faultbits.Bits
	CommFaults() faultbits.Bits
}

// demoSource drives a local simhw.Simulator + power.System + faultmgr.Mgr +
// model.Model stack, the same wiring cmd/ctrlsrv uses, so the monitor can
// be exercised standalone without a running server.
type demoSource struct {
	mdl    *model.Model
	sys    *power.System
	faults *faultmgr.Mgr
}

func newDemoSource() *demoSource {
	ds := &demoSource{}
	ds.faults = faultmgr.New(nil)
	ds.mdl = model.New(nil)
	sim := simhw.NewSimulator()
	output := bits.NewOutputPortBits()
	log := calog.New(io.Discard, calog.LevelCritical)
	ds.sys = power.NewSystem(sim, output, ds.faults, log, nil, ds.mdl.ReportPowerSystemStateChange)
	ds.mdl.CtrlReady()
	ds.sys.Start(20 * time.Millisecond)
	return ds
}

func (d *demoSource) SystemState() model.SystemState { return d.mdl.State() }
func (d *demoSource) MotorState() power.State        { return d.sys.Motor.Actual() }
func (d *demoSource) CommState() power.State         { return d.sys.Comm.Actual() }
func (d *demoSource) SystemFaults() faultbits.Bits   { return d.faults.SystemSummary() }
func (d *demoSource) MotorFaults() faultbits.Bits    { return d.faults.PowerSummary(faultbits.Motor) }
func (d *demoSource) CommFaults() faultbits.Bits     { return d.faults.PowerSummary(faultbits.Comm) }

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}).
			Bold(true).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}).
			Padding(1).
			Width(40)

	faultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#73F59F"))
)

// Monitor is the bubbletea model: one refresh tick samples Source and
// redraws.
type Monitor struct {
	source Source
	width  int
	height int
}

func NewMonitor(source Source) *Monitor {
	return &Monitor{source: source}
}

func (m Monitor) Init() tea.Cmd {
	return doRefresh()
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshTick:
		return m, doRefresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Monitor) View() string {
	title := titleStyle.Render("cellctrl monitor")

	system := fmt.Sprintf("system state: %s\nsystem faults: %s",
		m.source.SystemState().String(), faultSummary(m.source.SystemFaults()))

	motor := fmt.Sprintf("MOTOR: %s\nfaults: %s", m.source.MotorState().String(), faultSummary(m.source.MotorFaults()))
	comm := fmt.Sprintf("COMM: %s\nfaults: %s", m.source.CommState().String(), faultSummary(m.source.CommFaults()))

	panels := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(system),
		panelStyle.Render(motor),
		panelStyle.Render(comm),
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, panels, "press q to quit")
}

func faultSummary(b faultbits.Bits) string {
	if b == 0 {
		return okStyle.Render("none")
	}
	return faultStyle.Render(b.SetEnums())
}

func main() {
	demo := flag.Bool("demo", true, "run against an in-process demo stack rather than a live server")
	flag.Parse()

	if !*demo {
		fmt.Fprintln(os.Stderr, "ctrlmon: only -demo mode is implemented; connecting to a live telemetry port is not yet supported")
		os.Exit(1)
	}

	source := newDemoSource()
	p := tea.NewProgram(NewMonitor(source))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
