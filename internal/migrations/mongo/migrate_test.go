package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections_AreUniqueAndValidated(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range Collections() {
		if seen[def.Name] {
			t.Errorf("collection %s declared twice", def.Name)
		}
		seen[def.Name] = true

		if def.Validator == nil {
			t.Errorf("collection %s has no validator", def.Name)
		}
		if len(def.Indexes) == 0 {
			t.Errorf("collection %s has no indexes", def.Name)
		}
	}

	for _, name := range []string{"mentors", "availability_rules", "blocked_dates", "bookings", "booking_locks"} {
		if !seen[name] {
			t.Errorf("missing collection %s", name)
		}
	}
}

func TestBookingsIndexes_SlotKeyIsSparseUnique(t *testing.T) {
	var found bool
	for _, idx := range BookingsIndexes {
		keys, ok := idx.Keys.(bson.D)
		if !ok || len(keys) != 1 || keys[0].Key != "slot_key" {
			continue
		}
		found = true
		if idx.Options == nil || idx.Options.Unique == nil || !*idx.Options.Unique {
			t.Error("slot_key index must be unique")
		}
		if idx.Options.Sparse == nil || !*idx.Options.Sparse {
			t.Error("slot_key index must be sparse")
		}
	}
	if !found {
		t.Fatal("slot_key index not declared")
	}
}

func TestBookingLocksIndexes_ExpireImmediately(t *testing.T) {
	idx := BookingLocksIndexes[0]
	if idx.Options == nil || idx.Options.ExpireAfterSeconds == nil || *idx.Options.ExpireAfterSeconds != 0 {
		t.Error("booking lock TTL index should expire at expires_at")
	}
}
