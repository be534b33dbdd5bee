package amc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-portal/amc"
)

// =============================================================================
// WORK STATUS MACHINE TESTS
// =============================================================================

func TestWorkStatusMachine_StartThenComplete(t *testing.T) {
	m, err := amc.NewWorkStatusMachine(amc.WorkPending, "wl-1")
	require.NoError(t, err)
	assert.Equal(t, amc.WorkPending, m.Current())

	require.NoError(t, m.Transition(amc.EventStart))
	assert.Equal(t, amc.WorkInProgress, m.Current())

	require.NoError(t, m.Transition(amc.EventComplete))
	assert.Equal(t, amc.WorkCompleted, m.Current())
}

func TestWorkStatusMachine_CompleteFromPending(t *testing.T) {
	m, err := amc.NewWorkStatusMachine(amc.WorkPending, "wl-1")
	require.NoError(t, err)

	require.NoError(t, m.TransitionTo(amc.WorkCompleted))
	assert.Equal(t, amc.WorkCompleted, m.Current())
}

func TestWorkStatusMachine_EmptyInitial_IsPending(t *testing.T) {
	m, err := amc.NewWorkStatusMachine("", "wl-1")
	require.NoError(t, err)
	assert.Equal(t, amc.WorkPending, m.Current())
}

func TestWorkStatusMachine_CompletedIsTerminal(t *testing.T) {
	// GIVEN: A completed work log
	// WHEN: Trying to restart or re-complete it
	// THEN: Both are rejected and the state is unchanged

	m, err := amc.NewWorkStatusMachine(amc.WorkCompleted, "wl-1")
	require.NoError(t, err)

	err = m.Transition(amc.EventStart)
	assert.True(t, errors.Is(err, amc.ErrInvalidTransition))

	err = m.Transition(amc.EventComplete)
	assert.True(t, errors.Is(err, amc.ErrInvalidTransition))

	err = m.TransitionTo(amc.WorkInProgress)
	assert.True(t, amc.IsConflict(err))

	assert.Equal(t, amc.WorkCompleted, m.Current())
}

func TestWorkStatusMachine_NoBackwardsMove(t *testing.T) {
	m, err := amc.NewWorkStatusMachine(amc.WorkInProgress, "wl-1")
	require.NoError(t, err)

	err = m.TransitionTo(amc.WorkPending)

	var trErr *amc.TransitionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, "work_log", trErr.Kind)
	assert.Equal(t, "in_progress", trErr.From)
	assert.Equal(t, "pending", trErr.To)
}

func TestWorkStatusMachine_UnknownInitial(t *testing.T) {
	_, err := amc.NewWorkStatusMachine(amc.WorkStatus("archived"), "wl-1")
	assert.True(t, errors.Is(err, amc.ErrInvalidRecord))
}

func TestAdvanceWorkStatus(t *testing.T) {
	next, err := amc.AdvanceWorkStatus("wl-1", amc.WorkPending, amc.WorkInProgress)
	require.NoError(t, err)
	assert.Equal(t, amc.WorkInProgress, next)

	same, err := amc.AdvanceWorkStatus("wl-1", amc.WorkCompleted, amc.WorkPending)
	assert.Error(t, err)
	assert.Equal(t, amc.WorkCompleted, same)
}

func TestCanTransitionWorkStatus(t *testing.T) {
	assert.True(t, amc.CanTransitionWorkStatus(amc.WorkPending, amc.WorkInProgress))
	assert.True(t, amc.CanTransitionWorkStatus(amc.WorkPending, amc.WorkCompleted))
	assert.True(t, amc.CanTransitionWorkStatus(amc.WorkInProgress, amc.WorkCompleted))
	assert.False(t, amc.CanTransitionWorkStatus(amc.WorkInProgress, amc.WorkPending))
	assert.False(t, amc.CanTransitionWorkStatus(amc.WorkCompleted, amc.WorkInProgress))
	assert.False(t, amc.CanTransitionWorkStatus(amc.WorkPending, amc.WorkPending))
}

// =============================================================================
// APPROVAL STATUS TESTS
// =============================================================================

func TestApprovalStatus_Decide(t *testing.T) {
	approved, err := amc.ApprovalPending.Decide(amc.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, amc.ApprovalApproved, approved)

	rejected, err := amc.ApprovalPending.Decide(amc.ApprovalRejected)
	require.NoError(t, err)
	assert.Equal(t, amc.ApprovalRejected, rejected)
}

func TestApprovalStatus_DecisionsAreFinal(t *testing.T) {
	_, err := amc.ApprovalApproved.Decide(amc.ApprovalRejected)
	assert.True(t, amc.IsConflict(err))

	_, err = amc.ApprovalRejected.Decide(amc.ApprovalApproved)
	assert.True(t, amc.IsConflict(err))

	_, err = amc.ApprovalPending.Decide(amc.ApprovalPending)
	assert.True(t, amc.IsConflict(err))
}

func TestHourRequest_Validate(t *testing.T) {
	assert.NoError(t, amc.HourRequest{ClientID: "c1", RequestedHours: dec("5")}.Validate())
	assert.Error(t, amc.HourRequest{ClientID: "c1", RequestedHours: dec("0")}.Validate())
	assert.Error(t, amc.HourRequest{RequestedHours: dec("5")}.Validate())
}
