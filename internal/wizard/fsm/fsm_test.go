package fsm

import (
	"errors"
	"testing"
)

func TestFire(t *testing.T) {
	live := Facts{NeedsScheduling: true}
	livePicked := Facts{NeedsScheduling: true, DateTimeComplete: true}
	async := Facts{}

	tests := []struct {
		name  string
		from  State
		event Event
		facts Facts
		want  State
	}{
		{"unscheduled service skips date/time", SelectingService, SelectService, async, Confirming},
		{"preselected slot skips date/time", SelectingService, SelectService, livePicked, Confirming},
		{"live service goes to date/time", SelectingService, SelectService, live, SelectingDateTime},
		{"complete selection confirms", SelectingDateTime, SelectDateTime, livePicked, Confirming},
		{"partial selection stays", SelectingDateTime, SelectDateTime, live, SelectingDateTime},
		{"change date/time", Confirming, ChangeDateTime, livePicked, SelectingDateTime},
		{"back from confirm to date/time", Confirming, Back, livePicked, SelectingDateTime},
		{"back from confirm skips date/time", Confirming, Back, async, SelectingService},
		{"back from date/time", SelectingDateTime, Back, live, SelectingService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Restore(tt.from)
			if err != nil {
				t.Fatalf("Restore: %v", err)
			}
			got, err := m.Fire(tt.event, tt.facts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || m.State() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFire_InvalidLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		from  State
		event Event
		facts Facts
	}{
		{"back from the first step", SelectingService, Back, Facts{}},
		{"date/time before a service", SelectingService, SelectDateTime, Facts{DateTimeComplete: true}},
		{"change date/time for unscheduled service", Confirming, ChangeDateTime, Facts{}},
		{"select service while confirming", Confirming, SelectService, Facts{}},
		{"unknown event", SelectingDateTime, Event("submit"), Facts{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := Restore(tt.from)
			_, err := m.Fire(tt.event, tt.facts)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if m.State() != tt.from {
				t.Errorf("state changed to %s", m.State())
			}
		})
	}
}

func TestNewAndRestore(t *testing.T) {
	if New().State() != SelectingService {
		t.Error("a new wizard starts at service selection")
	}
	if _, err := Restore(State(4)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected an error for an unknown state, got %v", err)
	}
	if Confirming.String() != "confirming" {
		t.Errorf("unexpected name %s", Confirming)
	}
}
