package cache

import (
	"testing"
	"time"
)

func TestIdentity(t *testing.T) {
	ts := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        string
		modified  time.Time
		persisted bool
		want      string
	}{
		{"persisted with timestamp", "42", ts, true, "42-20240105103000"},
		{"persisted without timestamp", "42", time.Time{}, true, "42"},
		{"not persisted", "42", ts, false, "new"},
		{"not persisted no id", "", time.Time{}, false, "new"},
		{"converted to UTC", "42", time.Date(2024, 1, 5, 12, 30, 0, 0, time.FixedZone("EET", 2*3600)), true, "42-20240105103000"},
		{"sub-second dropped", "9", ts.Add(999 * time.Millisecond), true, "9-20240105103000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identity(tt.id, tt.modified, tt.persisted); got != tt.want {
				t.Errorf("Identity() = %q, want %q", got, tt.want)
			}
		})
	}
}

type customIdentity struct{ story }

func (c *customIdentity) CacheIdentity() string { return "custom-" + c.PrimaryID() }

type plainRecord string

func (p plainRecord) PrimaryID() string { return string(p) }

func TestIdentityOf(t *testing.T) {
	ts := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"timestamped", &story{ID: 42, UpdatedAt: ts}, "42-20240105103000"},
		{"zero timestamp", &story{ID: 42}, "42"},
		{"draft", &story{ID: 42, UpdatedAt: ts, Draft: true}, "new"},
		{"custom identity", &customIdentity{story{ID: 7}}, "custom-7"},
		{"plain record", plainRecord("abc"), "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IdentityOf(tt.rec); got != tt.want {
				t.Errorf("IdentityOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentityOf_ChangesOnUpdate(t *testing.T) {
	rec := &story{ID: 1, UpdatedAt: time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)}
	before := IdentityOf(rec)
	rec.UpdatedAt = rec.UpdatedAt.Add(time.Second)
	if after := IdentityOf(rec); after == before {
		t.Errorf("identity unchanged after update: %q", after)
	}
}
