package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campus-transport/internal/domain"
)

var day = time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }

func ptr(s string) *string { return &s }

func TestWindowOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Window
		want bool
	}{
		{"disjoint", Window{at(8), at(9)}, Window{at(10), at(11)}, false},
		{"back to back", Window{at(8), at(10)}, Window{at(10), at(12)}, false},
		{"partial", Window{at(8), at(11)}, Window{at(10), at(12)}, true},
		{"contained", Window{at(8), at(18)}, Window{at(10), at(12)}, true},
		{"identical", Window{at(8), at(9)}, Window{at(8), at(9)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

func TestWindowClip(t *testing.T) {
	bounds := Window{at(8), at(12)}

	_, d := Window{at(6), at(10)}.Clip(bounds)
	assert.Equal(t, 2*time.Hour, d)

	_, d = Window{at(13), at(14)}.Clip(bounds)
	assert.Zero(t, d)

	w, d := Window{at(9), at(10)}.Clip(bounds)
	assert.Equal(t, time.Hour, d)
	assert.Equal(t, at(9), w.Start)
}

func TestFindConflicts(t *testing.T) {
	existing := []domain.ScheduleEvent{
		{ID: "e1", Title: "Field trip", VehicleID: ptr("v1"), DriverID: ptr("d1"), StartsAt: at(8), EndsAt: at(12), Status: domain.EventStatusApproved},
		{ID: "e2", Title: "Airport run", VehicleID: ptr("v2"), DriverID: ptr("d1"), StartsAt: at(13), EndsAt: at(15), Status: domain.EventStatusPlanned},
		{ID: "e3", Title: "Cancelled", VehicleID: ptr("v1"), StartsAt: at(9), EndsAt: at(10), Status: domain.EventStatusCancelled},
		{ID: "e4", Title: "Done", DriverID: ptr("d1"), StartsAt: at(9), EndsAt: at(10), Status: domain.EventStatusCompleted},
	}

	t.Run("shared vehicle and driver", func(t *testing.T) {
		got := FindConflicts(Candidate{VehicleID: ptr("v1"), DriverID: ptr("d1"), Window: Window{at(10), at(14)}}, existing)
		require.Len(t, got, 3)
		assert.Equal(t, Conflict{EventID: "e1", Title: "Field trip", Resource: ResourceVehicle, ResourceID: "v1", StartsAt: at(8), EndsAt: at(12)}, got[0])
		assert.Equal(t, ResourceDriver, got[1].Resource)
		assert.Equal(t, "e1", got[1].EventID)
		assert.Equal(t, "e2", got[2].EventID)
	})

	t.Run("terminal events never conflict", func(t *testing.T) {
		got := FindConflicts(Candidate{VehicleID: ptr("v1"), Window: Window{at(9), at(10)}}, existing[2:])
		assert.Empty(t, got)
	})

	t.Run("self is ignored", func(t *testing.T) {
		got := FindConflicts(CandidateFromEvent(existing[0]), existing)
		assert.Empty(t, got)
	})

	t.Run("adjacent windows are free", func(t *testing.T) {
		got := FindConflicts(Candidate{VehicleID: ptr("v1"), DriverID: ptr("d1"), Window: Window{at(12), at(13)}}, existing)
		assert.Empty(t, got)
	})

	t.Run("no resources no conflicts", func(t *testing.T) {
		got := FindConflicts(Candidate{Window: Window{at(0), at(23)}}, existing)
		assert.Empty(t, got)
	})
}
