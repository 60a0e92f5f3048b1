package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoal(target, current string, status GoalStatus) *Goal {
	return &Goal{
		Name:          "Fund",
		Description:   "Rainy day",
		Type:          GoalTypeSavings,
		TargetAmount:  d(target),
		CurrentAmount: d(current),
		TargetDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:        status,
	}
}

func TestGoalAddAmount(t *testing.T) {
	g := newGoal("1000", "0", GoalStatusInProgress)

	require.NoError(t, g.AddAmount(d("400")))
	assert.Equal(t, GoalStatusInProgress, g.Status)

	require.NoError(t, g.AddAmount(d("600")))
	assert.Equal(t, GoalStatusCompleted, g.Status, "reaching the target exactly completes the goal")
	assert.True(t, g.CurrentAmount.Equal(d("1000")))

	err := g.AddAmount(d("1"))
	assert.ErrorIs(t, err, ErrGoalNotInProgress)
	assert.True(t, g.CurrentAmount.Equal(d("1000")))
}

func TestGoalAddAmount_Invalid(t *testing.T) {
	g := newGoal("1000", "0", GoalStatusInProgress)
	assert.ErrorIs(t, g.AddAmount(d("0")), ErrGoalAmountInvalid)
	assert.ErrorIs(t, g.AddAmount(d("-5")), ErrGoalAmountInvalid)
}

func TestGoalTransitions(t *testing.T) {
	tests := []struct {
		name       string
		from       GoalStatus
		apply      func(*Goal) error
		wantStatus GoalStatus
		wantErr    error
	}{
		{"complete in progress", GoalStatusInProgress, (*Goal).Complete, GoalStatusCompleted, nil},
		{"complete completed", GoalStatusCompleted, (*Goal).Complete, GoalStatusCompleted, nil},
		{"complete cancelled", GoalStatusCancelled, (*Goal).Complete, GoalStatusCancelled, ErrGoalCancelled},
		{"cancel in progress", GoalStatusInProgress, func(g *Goal) error { g.Cancel(); return nil }, GoalStatusCancelled, nil},
		{"cancel completed", GoalStatusCompleted, func(g *Goal) error { g.Cancel(); return nil }, GoalStatusCancelled, nil},
		{"cancel cancelled", GoalStatusCancelled, func(g *Goal) error { g.Cancel(); return nil }, GoalStatusCancelled, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGoal("1000", "10", tt.from)
			err := tt.apply(g)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, g.Status)
		})
	}
}

func TestGoalApplyUpdate(t *testing.T) {
	g := newGoal("1000", "100", GoalStatusInProgress)

	err := g.ApplyUpdate(GoalUpdate{
		Name:          "  Bigger fund ",
		Description:   "Six months",
		Type:          GoalTypeEmergencyFund,
		TargetAmount:  d("2000"),
		CurrentAmount: d("100"),
		TargetDate:    g.TargetDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bigger fund", g.Name)
	assert.Equal(t, GoalStatusInProgress, g.Status)

	err = g.ApplyUpdate(GoalUpdate{
		Name:          "Bigger fund",
		Description:   "Six months",
		Type:          GoalTypeEmergencyFund,
		TargetAmount:  d("50"),
		CurrentAmount: d("100"),
		TargetDate:    g.TargetDate,
	})
	require.NoError(t, err)
	assert.Equal(t, GoalStatusCompleted, g.Status)
}

func TestGoalApplyUpdate_RejectedLeavesGoalUntouched(t *testing.T) {
	g := newGoal("1000", "100", GoalStatusInProgress)
	before := *g

	err := g.ApplyUpdate(GoalUpdate{Name: "", Description: "x", Type: GoalTypeSavings, TargetAmount: d("1"), TargetDate: g.TargetDate})
	assert.ErrorIs(t, err, ErrGoalNameEmpty)
	assert.Equal(t, before, *g)

	done := newGoal("1000", "1000", GoalStatusCompleted)
	err = done.ApplyUpdate(GoalUpdate{Name: "x", Description: "x", Type: GoalTypeSavings, TargetAmount: d("5000"), TargetDate: g.TargetDate})
	assert.ErrorIs(t, err, ErrGoalNotInProgress)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestNewGoal_NeverAutoCompletes(t *testing.T) {
	g, err := NewGoal(7, GoalUpdate{
		Name:          "Laptop",
		Description:   "Replacement laptop",
		Type:          GoalTypeSavings,
		TargetAmount:  d("1000"),
		CurrentAmount: d("1500"),
		TargetDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, GoalStatusInProgress, g.Status)
	assert.Equal(t, int32(7), g.OwnerID)

	_, err = NewGoal(7, GoalUpdate{Name: "Laptop", Description: "x", Type: GoalTypeSavings})
	assert.ErrorIs(t, err, ErrGoalTargetInvalid)
}

func TestGoalApplyUpdate_TerminalGoalKeepsStatus(t *testing.T) {
	done := newGoal("1000", "1000", GoalStatusCompleted)

	err := done.ApplyUpdate(GoalUpdate{
		Name:          "Renamed",
		Description:   "New description",
		Type:          GoalTypeSavings,
		TargetAmount:  d("5000"),
		CurrentAmount: d("1000"),
		TargetDate:    done.TargetDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", done.Name)
	assert.Equal(t, GoalStatusCompleted, done.Status, "raising the target never reopens a goal")
}

func TestGoalProgressPercentage(t *testing.T) {
	tests := []struct {
		target  string
		current string
		want    float64
	}{
		{"1000", "0", 0},
		{"1000", "400", 40},
		{"1000", "1100", 100},
		{"3", "1", 33.333333},
		{"0", "10", 0},
	}

	for _, tt := range tests {
		g := newGoal(tt.target, tt.current, GoalStatusInProgress)
		assert.InDelta(t, tt.want, g.ProgressPercentage(), 0.0001, "%s/%s", tt.current, tt.target)
	}
}

func TestGoalStatusValuesMatchDatabaseConstraints(t *testing.T) {
	// CHECK (status IN ('IN_PROGRESS', 'COMPLETED', 'CANCELLED'))
	assert.Equal(t, "IN_PROGRESS", string(GoalStatusInProgress))
	assert.Equal(t, "COMPLETED", string(GoalStatusCompleted))
	assert.Equal(t, "CANCELLED", string(GoalStatusCancelled))
	assert.False(t, GoalStatus("PAUSED").Valid())
}
