package simhw

import (
	"time"

	"periph.io/x/periph/conn/gpio"

	"github.com/m2cell/cellctrl/bits"
	"github.com/m2cell/cellctrl/sysinfo"
)

// PeriphInputBank adapts a fixed set of periph.io/x/periph gpio.PinIn pins
// (one per InputPortBits position, nil for unwired positions) into an
// InputPortBits snapshot. This is the production path for a real cRIO/FPGA
// digital input card; Simulator never uses it.
type PeriphInputBank struct {
	Pins [32]gpio.PinIn
}

// Read polls every wired pin and assembles the resulting InputPortBits.
func (p *PeriphInputBank) Read() bits.InputPortBits {
	var out bits.InputPortBits
	for pos, pin := range p.Pins {
		if pin == nil {
			continue
		}
		_ = out.Set(pos, pin.Read() == gpio.High)
	}
	return out
}

// PeriphOutputBank adapts a fixed set of periph.io/x/periph gpio.PinOut
// pins into an OutputPortBits writer.
type PeriphOutputBank struct {
	Pins [8]gpio.PinOut
}

// Write drives every wired pin to match bitmap.
func (p *PeriphOutputBank) Write(bitmap bits.OutputPortBits) error {
	for pos, pin := range p.Pins {
		if pin == nil {
			continue
		}
		lvl := gpio.Low
		if bitmap.Get(pos) {
			lvl = gpio.High
		}
		if err := pin.Out(lvl); err != nil {
			return err
		}
	}
	return nil
}

// PeriphIO combines an input and output bank into the production backend
// for power.System: it satisfies power.Reader directly, sourcing analog
// voltage/current readings from a pair of supplied sampling funcs since
// periph's gpio package has no notion of an analog channel. This is the
// real-hardware counterpart to Simulator; the two never coexist in the
// same process.
type PeriphIO struct {
	Input  PeriphInputBank
	Output PeriphOutputBank

	// ReadMotorAnalog and ReadCommAnalog sample bus voltage/current from
	// whatever analog input card the deployment provides.
	ReadMotorAnalog func() (voltage, current float64)
	ReadCommAnalog  func() (voltage, current float64)

	staged     bits.OutputPortBits
	iterations uint64
}

// StageOutput records the output bits the next Read should reflect, and
// drives them onto the wired pins immediately.
func (p *PeriphIO) StageOutput(out bits.OutputPortBits) error {
	p.staged = out
	return p.Output.Write(out)
}

// Read samples the wired input pins and analog channels, assembling a
// SysInfo snapshot; it implements power.Reader.
func (p *PeriphIO) Read() sysinfo.SysInfo {
	in := p.Input.Read()
	p.iterations++

	snap := sysinfo.SysInfo{
		Timestamp:  time.Now(),
		Output:     p.staged,
		Input:      in,
		Iterations: p.iterations,
	}
	if p.ReadMotorAnalog != nil {
		snap.MotorVoltage, snap.MotorCurrent = p.ReadMotorAnalog()
	}
	if p.ReadCommAnalog != nil {
		snap.CommVoltage, snap.CommCurrent = p.ReadCommAnalog()
	}
	snap.MotorBreakerClosed = in.Get(bits.J1W9_1MtrPwrBrkrOK) && in.Get(bits.J2W10_1MtrPwrBrkrOK) && in.Get(bits.J3W11_1MtrPwrBrkrOK)
	snap.CommBreakerClosed = in.Get(bits.J1W12_1CommPwrBrkrOK) && in.Get(bits.J1W12_2CommPwrBrkrOK) && in.Get(bits.J2W13_1CommPwrBrkrOK)
	return snap
}
