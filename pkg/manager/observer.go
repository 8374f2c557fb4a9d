package manager

import (
	"github.com/CNES/opensand-sub000/pkg/wire"
)

type nopObserver struct{}

func (nopObserver) ProgramListChanged()                            {}
func (nopObserver) NewProbeValue(*Probe, uint32, float64)          {}
func (nopObserver) NewLog(*Program, string, wire.LogLevel, string) {}

// MultiObserver forwards every event to each of its observers in order.
type MultiObserver []Observer

func (m MultiObserver) ProgramListChanged() {
	for _, o := range m {
		o.ProgramListChanged()
	}
}

func (m MultiObserver) NewProbeValue(probe *Probe, timestamp uint32, value float64) {
	for _, o := range m {
		o.NewProbeValue(probe, timestamp, value)
	}
}

func (m MultiObserver) NewLog(program *Program, name string, level wire.LogLevel, text string) {
	for _, o := range m {
		o.NewLog(program, name, level, text)
	}
}
