// Command ctrlsrv runs the cell controller's control core: power bus
// supervision, fault aggregation, the top-level system state machine, the
// command server, and the telemetry broadcaster, wired together at
// startup with no package-level singletons.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/command"
	"github.com/m2cell/cellctrl/config"
	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/faultmgr"
	"github.com/m2cell/cellctrl/internal/calog"
	"github.com/m2cell/cellctrl/model"
	"github.com/m2cell/cellctrl/motion"
	"github.com/m2cell/cellctrl/power"
	"github.com/m2cell/cellctrl/simhw"
	"github.com/m2cell/cellctrl/telemetry"
)

func main() {
	level := calog.LevelInformational
	if v, err := strconv.Atoi(os.Getenv("LOGLVL")); err == nil {
		level = calog.LevelFromEnv(v)
	}
	log := calog.New(os.Stdout, level)

	cfg := config.Default()

	output := bits.NewOutputPortBits()

	var mdl *model.Model
	var telem *telemetry.Broadcaster

	onBusStateChange := func(bus power.Bus, actual, target power.State) {
		telem.ReportPowerSystemStateChange(bus, actual, target)
	}
	onSystemStateChange := func(motorActual, motorTarget, commActual, commTarget power.State) {
		mdl.ReportPowerSystemStateChange(motorActual, motorTarget, commActual, commTarget)
	}

	var faults *faultmgr.Mgr
	faults = faultmgr.New(func(owner faultmgr.CrioSubsystem, bus faultbits.PowerSystemType, summary, changed faultbits.Bits) {
		telem.ReportFaultChange(owner, bus, summary, changed)
	})

	mdl = model.New(func(prev, next model.SystemState) {
		log.Notice().Str("prev", prev.String()).Str("next", next.String()).Log("system state transition")
	})

	sim := simhw.NewSimulator()
	sys := power.NewSystem(sim, output, faults, log.With("power"), onBusStateChange, onSystemStateChange)

	engine := motion.NewEngine(motion.Config{
		WarnAfter:            500 * time.Millisecond,
		FaultAfter:           2 * time.Second,
		StaleDataBitsEnabled: cfg.StaleDataBitsEnabled,
	}, faults, mdl)

	snapshot := func() telemetry.Snapshot {
		last := sys.LastSnapshot()
		return telemetry.Snapshot{
			Output:          last.Output,
			Input:           last.Input,
			MotorState:      sys.Motor.Actual(),
			MotorBreaker:    sys.Motor.CheckBreakerStatus(&last.Input),
			CommState:       sys.Comm.Actual(),
			CommBreaker:     sys.Comm.CheckBreakerStatus(&last.Input),
			SystemState:     mdl.State(),
			SystemFaults:    faults.SystemSummary(),
			MotorFaults:     faults.PowerSummary(faultbits.Motor),
			CommFaults:      faults.PowerSummary(faultbits.Comm),
			TelemetryFaults: faults.TelemetrySummary(),
		}
	}
	telem = telemetry.NewBroadcaster(snapshot, log.With("telemetry"))

	factory := func() *command.Factory { return command.NewFactory() }
	cmdCtx := func() *command.Context {
		return &command.Context{
			PowerMotor: sys.PowerMotor,
			PowerComm:  sys.PowerComm,
			Shutdown: func() {
				mdl.Shutdown()
			},
			Echo: func(params json.RawMessage) (string, error) {
				var p struct {
					Msg string `json:"msg"`
				}
				if err := json.Unmarshal(params, &p); err != nil {
					return "", err
				}
				return p.Msg, nil
			},
			SwitchCommandSource: func(isRemote bool) {
				log.Notice().Bool("isRemote", isRemote).Log("command source switched")
			},
		}
	}
	srv := command.NewServer(factory, cmdCtx, log.With("command"))

	ctx, cancel := context.WithCancel(context.Background())

	mdl.CtrlReady()
	sys.Start(20 * time.Millisecond)
	engine.Start(100 * time.Millisecond)
	telem.Start(cfg.TelemetryRate)

	go func() {
		addr := net.JoinHostPort("", strconv.Itoa(cfg.ServerPort))
		if err := srv.Serve(ctx, addr); err != nil {
			log.Err().Err(err).Log("command server stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Fprintln(os.Stderr, "shutting down")
	cancel()
	telem.Stop()
	engine.Stop()
	sys.Stop()
}
