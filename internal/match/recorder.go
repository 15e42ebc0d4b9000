package match

import (
	"fmt"

	"github.com/battlecode/engine/internal/cache"
	"github.com/battlecode/engine/pkg/unit"
)

// Sink receives recorded unit history. storage.Backend implements it.
type Sink interface {
	AddUnit(round uint32, r unit.Record) error
	RecordUnitState(round uint32, r unit.Record) error
	RecordDestroyed(round uint32, id unit.ID) error
}

// Recorder forwards unit states to a Sink, skipping states that did not
// change since they were last recorded.
type Recorder struct {
	sink   Sink
	states *cache.StateCache
}

func NewRecorder(sink Sink) *Recorder {
	return &Recorder{
		sink:   sink,
		states: cache.NewStateCache(),
	}
}

// Capture records the units' states at round. A unit seen for the first
// time is registered with AddUnit before its first state. Passengers of a
// rocket are recorded after it with their off-map state, since they are no
// longer in the roster. It returns the number of states written.
func (r *Recorder) Capture(round uint32, units []*unit.Unit) (int, error) {
	written := 0
	for _, u := range units {
		ok, err := r.capture(round, u.Record())
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
		passengers, _ := u.GarrisonedUnits()
		for i := range passengers {
			ok, err := r.capture(round, passengers[i].Record())
			if err != nil {
				return written, err
			}
			if ok {
				written++
			}
		}
	}
	return written, nil
}

func (r *Recorder) capture(round uint32, rec unit.Record) (bool, error) {
	if !r.states.Changed(rec) {
		return false, nil
	}
	if _, known := r.states.Get(rec.ID); !known {
		if err := r.sink.AddUnit(round, rec); err != nil {
			return false, fmt.Errorf("add unit %d: %w", rec.ID, err)
		}
	}
	if err := r.sink.RecordUnitState(round, rec); err != nil {
		return false, fmt.Errorf("record unit %d: %w", rec.ID, err)
	}
	r.states.Update(rec)
	return true, nil
}

// Destroyed records the destruction of units and forgets their states.
func (r *Recorder) Destroyed(round uint32, ids []unit.ID) error {
	for _, id := range ids {
		if err := r.sink.RecordDestroyed(round, id); err != nil {
			return fmt.Errorf("record destroyed unit %d: %w", id, err)
		}
		r.states.Forget(id)
	}
	return nil
}

// Reset forgets every recorded state, for reuse in a new match.
func (r *Recorder) Reset() {
	r.states.Reset()
}
