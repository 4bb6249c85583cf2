package voting_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/voting"
)

func testPolicy(t *testing.T) voting.WindowPolicy {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	return voting.WindowPolicy{
		Initial:         2 * time.Hour,
		AfterHours:      3 * time.Hour,
		AfterHoursStart: 22,
		AfterHoursEnd:   10,
		Location:        loc,
		Extended:        6 * time.Hour,
	}
}

func TestWindowPolicy_InitialWindow(t *testing.T) {
	policy := testPolicy(t)

	tests := []struct {
		name      string
		localHour int
		want      time.Duration
	}{
		{"mid morning is daytime", 11, 2 * time.Hour},
		{"afternoon is daytime", 15, 2 * time.Hour},
		{"band start is after hours", 22, 3 * time.Hour},
		{"past midnight is after hours", 2, 3 * time.Hour},
		{"band end is daytime", 10, 2 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 3, 4, tt.localHour, 30, 0, 0, policy.Location)
			got := policy.InitialWindow(now)
			assert.Equal(t, model.WindowInitial, got.Kind)
			assert.Equal(t, tt.want, got.Length)
		})
	}
}

func TestWindowPolicy_InitialWindow_NonWrappingBand(t *testing.T) {
	policy := voting.WindowPolicy{
		Initial:         time.Hour,
		AfterHours:      4 * time.Hour,
		AfterHoursStart: 1,
		AfterHoursEnd:   6,
		Extended:        8 * time.Hour,
	}

	assert.Equal(t, 4*time.Hour, policy.InitialWindow(time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)).Length)
	assert.Equal(t, time.Hour, policy.InitialWindow(time.Date(2026, 1, 1, 7, 0, 0, 0, time.UTC)).Length)
}

func TestWindowPolicy_Select(t *testing.T) {
	policy := testPolicy(t)
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, policy.Location)

	tests := []struct {
		name       string
		assessment model.Assessment
		want       model.WindowKind
	}{
		{"clean approval uses initial", model.Assessment{Approved: true}, model.WindowInitial},
		{"contested approval uses extended", model.Assessment{Approved: true, Contested: true}, model.WindowExtended},
		{"not approved uses extended", model.Assessment{}, model.WindowExtended},
		{"contested rejection uses extended", model.Assessment{Contested: true}, model.WindowExtended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Select(tt.assessment, now).Kind)
		})
	}
}

// TestWindowPolicy_ContestedNeverShrinks checks that a contested assessment
// gets the extended window at every hour of the day, and that it is never
// shorter than any initial window.
func TestWindowPolicy_ContestedNeverShrinks(t *testing.T) {
	policy := testPolicy(t)
	contested := model.Assessment{Approved: true, Contested: true}

	for hour := 0; hour < 24; hour++ {
		now := time.Date(2026, 3, 4, hour, 0, 0, 0, policy.Location)
		got := policy.Select(contested, now)
		assert.Equal(t, model.WindowExtended, got.Kind, "hour %d", hour)
		assert.GreaterOrEqual(t, got.Length, policy.InitialWindow(now).Length, "hour %d", hour)
	}
}

func TestVotingWindow_Elapsed(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	w := model.VotingWindow{Kind: model.WindowInitial, Length: 2 * time.Hour}

	assert.False(t, w.Elapsed(start, start.Add(time.Hour)))
	assert.False(t, w.Elapsed(start, start.Add(2*time.Hour)), "boundary is still inside the voting period")
	assert.True(t, w.Elapsed(start, start.Add(2*time.Hour+time.Second)))
	assert.Equal(t, start.Add(2*time.Hour), w.ClosesAt(start))
}
