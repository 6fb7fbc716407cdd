// Package fsm is the booking wizard's state machine: three named states and an explicit
// transition table. Skipping the date/time step is a row in the table, not a side effect.
package fsm

import (
	"errors"
	"fmt"
)

type State int

const (
	SelectingService  State = 1
	SelectingDateTime State = 2
	Confirming        State = 3
)

func (s State) String() string {
	switch s {
	case SelectingService:
		return "selecting_service"
	case SelectingDateTime:
		return "selecting_date_time"
	case Confirming:
		return "confirming"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) Valid() bool {
	return s >= SelectingService && s <= Confirming
}

type Event string

const (
	SelectService  Event = "selectService"
	SelectDateTime Event = "selectDateTime"
	ChangeDateTime Event = "changeDateTime"
	Back           Event = "back"
)

// Facts are what the guards look at when an event fires.
type Facts struct {
	NeedsScheduling  bool
	DateTimeComplete bool
}

type Guard func(Facts) bool

type Transition struct {
	From  State
	Event Event
	Guard Guard
	To    State
}

var ErrInvalidTransition = errors.New("invalid wizard transition")

func always(Facts) bool { return true }

func scheduled(f Facts) bool { return f.NeedsScheduling }

func unscheduled(f Facts) bool { return !f.NeedsScheduling }

// Table is checked top to bottom; the first row whose guard passes wins.
var Table = []Transition{
	{SelectingService, SelectService, unscheduled, Confirming},
	{SelectingService, SelectService, func(f Facts) bool { return f.NeedsScheduling && f.DateTimeComplete }, Confirming},
	{SelectingService, SelectService, scheduled, SelectingDateTime},
	{SelectingDateTime, SelectDateTime, func(f Facts) bool { return f.DateTimeComplete }, Confirming},
	{SelectingDateTime, SelectDateTime, always, SelectingDateTime},
	{Confirming, ChangeDateTime, scheduled, SelectingDateTime},
	{Confirming, Back, scheduled, SelectingDateTime},
	{Confirming, Back, unscheduled, SelectingService},
	{SelectingDateTime, Back, always, SelectingService},
}

type Machine struct {
	state State
}

func New() *Machine {
	return &Machine{state: SelectingService}
}

// Restore rebuilds a machine from a persisted state.
func Restore(state State) (*Machine, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("%w: unknown state %d", ErrInvalidTransition, int(state))
	}
	return &Machine{state: state}, nil
}

func (m *Machine) State() State {
	return m.state
}

// Next reports where ev would lead without firing it.
func (m *Machine) Next(ev Event, f Facts) (State, bool) {
	for _, t := range Table {
		if t.From == m.state && t.Event == ev && t.Guard(f) {
			return t.To, true
		}
	}
	return m.state, false
}

// Fire applies ev. Without a matching row the machine is left unchanged.
func (m *Machine) Fire(ev Event, f Facts) (State, error) {
	to, ok := m.Next(ev, f)
	if !ok {
		return m.state, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, m.state)
	}
	m.state = to
	return to, nil
}
