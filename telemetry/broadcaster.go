package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/faultbits"
	"github.com/m2cell/cellctrl/faultmgr"
	"github.com/m2cell/cellctrl/internal/calog"
	"github.com/m2cell/cellctrl/model"
	"github.com/m2cell/cellctrl/power"
)

// Snapshot is whatever the broadcaster needs sampled once per tick; the
// caller (cmd/ctrlsrv) supplies one backed by the live power.System,
// model.Model and faultmgr.Mgr.
type Snapshot struct {
	Output bits.OutputPortBits
	Input  bits.InputPortBits

	MotorState   power.State
	MotorBreaker power.BreakerStatus
	CommState    power.State
	CommBreaker  power.BreakerStatus

	SystemState model.SystemState

	SystemFaults    faultbits.Bits
	MotorFaults     faultbits.Bits
	CommFaults      faultbits.Bits
	TelemetryFaults faultbits.Bits

	AxialForce   [72]float64
	TangentForce [6]float64
}

// SnapshotFunc samples the process's live state into a Snapshot.
type SnapshotFunc func() Snapshot

// Broadcaster ticks at a configured rate, sampling a Snapshot and fanning
// the fixed named-item list out to every registered Client. It also
// accepts synchronous, out-of-band power-state postings from power.System
// (via ReportPowerSystemStateChange), guaranteeing those are visible to
// clients no later than the next tick.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*Client]struct{}

	snapshot SnapshotFunc
	log      *calog.Log

	pending []Item

	run    bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBroadcaster returns a Broadcaster sampling via snapshot.
func NewBroadcaster(snapshot SnapshotFunc, log *calog.Log) *Broadcaster {
	return &Broadcaster{clients: make(map[*Client]struct{}), snapshot: snapshot, log: log}
}

// Register adds c as a subscriber and sends it the welcome-message
// sequence immediately: the 14 startup items plus one powerSystemState
// announcement per bus (16 total), matching the reference handshake.
func (b *Broadcaster) Register(c *Client) {
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()

	now := time.Now()
	snap := b.snapshot()
	for _, item := range welcomeSequence(now, snap) {
		if err := c.Send(item); err != nil {
			b.log.Warning().Err(err).Log("welcome sequence send failed")
			return
		}
	}
}

// Unregister removes c; further ticks will not attempt to send to it.
func (b *Broadcaster) Unregister(c *Client) {
	b.mu.Lock()
	delete(b.clients, c)
	b.mu.Unlock()
}

// Start launches the tick loop at rate.
func (b *Broadcaster) Start(rate time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.run = true
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.tick()
			}
		}
	}()
}

// Stop halts the tick loop.
func (b *Broadcaster) Stop() {
	if !b.run {
		return
	}
	b.run = false
	b.cancel()
	b.wg.Wait()
}

// ReportPowerSystemStateChange is registered as power.System's per-bus
// onBusStateChange callback (model.Model gets the separate both-buses
// callback); it posts the corresponding powerSystemState item
// synchronously to every client, ahead of the next regular tick. Breaker
// status isn't available from the state-change callback alone, so status
// reports "OK" when actual equals target and "WARNING" while they differ.
func (b *Broadcaster) ReportPowerSystemStateChange(bus power.Bus, actual, target power.State) {
	status := power.BreakerOK
	if actual != target {
		status = power.BreakerWarning
	}
	item := Item{Name: "powerSystemState", Timestamp: time.Now(), Data: powerSystemStateOf(bus, actual, status)}
	b.broadcast(item)
}

// ReportFaultChange is registered as a faultmgr.BroadcastFunc; it posts a
// summaryFaultsStatus item synchronously whenever any fault manager's
// summary changes.
func (b *Broadcaster) ReportFaultChange(owner faultmgr.CrioSubsystem, _ faultbits.PowerSystemType, summary, changed faultbits.Bits) {
	item := Item{Name: "summaryFaultsStatus", Timestamp: time.Now(), Data: summaryFaultsStatusOf(owner.String(), summary, changed)}
	b.broadcast(item)
}

func (b *Broadcaster) tick() {
	snap := b.snapshot()
	now := time.Now()
	items := []Item{
		{Name: "digitalInput", Timestamp: now, Data: DigitalIO{Output: snap.Output.BinaryString(), Input: snap.Input.BinaryString()}},
		{Name: "digitalOutput", Timestamp: now, Data: DigitalIO{Output: snap.Output.BinaryString(), Input: snap.Input.BinaryString()}},
		{Name: "summaryState", Timestamp: now, Data: systemStateItemOf(snap.SystemState)},
		{Name: "axialForce", Timestamp: now, Data: AxialForce{LutGravity: snap.AxialForce}},
		{Name: "tangentForce", Timestamp: now, Data: TangentForce{Measured: snap.TangentForce}},
	}
	for _, item := range items {
		b.broadcast(item)
	}
}

func (b *Broadcaster) broadcast(item Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		if err := c.Send(item); err != nil {
			b.log.Warning().Err(err).Log("telemetry send failed, dropping client")
			delete(b.clients, c)
		}
	}
}

// welcomeSequence builds the fixed 16-item handshake sent to a client
// immediately on connect: 14 named startup items (mostly static
// placeholders this control core doesn't otherwise maintain state for,
// e.g. hardpointList/temperatureOffset/config, carried purely to match
// the reference handshake count) plus one powerSystemState announcement
// per bus.
func welcomeSequence(now time.Time, snap Snapshot) []Item {
	str := func(name string, v interface{}) Item { return Item{Name: name, Timestamp: now, Data: v} }
	return []Item{
		str("tcpIpConnected", map[string]bool{"connected": true}),
		str("commandableByDDS", map[string]bool{"commandable": true}),
		str("hardpointList", map[string][]int{"actuators": {}}),
		str("interlock", map[string]bool{"engaged": snap.Input.Get(bits.InterlockPowerRelay)}),
		str("inclinationTelemetrySource", map[string]string{"source": "onboard"}),
		str("temperatureOffset", map[string]float64{"offset": 0}),
		str("summaryState", systemStateItemOf(snap.SystemState)),
		str("digitalInput", DigitalIO{Output: snap.Output.BinaryString(), Input: snap.Input.BinaryString()}),
		str("digitalOutput", DigitalIO{Output: snap.Output.BinaryString(), Input: snap.Input.BinaryString()}),
		str("config", map[string]string{}),
		str("closedLoopControlMode", map[string]bool{"enabled": false}),
		str("enabledFaultsMask", map[string]uint64{"mask": uint64(faultbits.MaskFaults())}),
		str("configurationFiles", map[string][]string{"files": {}}),
		str("summaryFaultsStatus", summaryFaultsStatusOf("SYSTEM_CONTROLLER", snap.SystemFaults, 0)),
		str("powerSystemState", powerSystemStateOf(power.Motor, snap.MotorState, snap.MotorBreaker)),
		str("powerSystemState", powerSystemStateOf(power.Comm, snap.CommState, snap.CommBreaker)),
	}
}
