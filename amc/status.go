/*
status.go - Work-log workflow and hour-request approval states

PURPOSE:
  Two separate vocabularies, two separate fields:

  WorkStatus (work logs): where the work itself is
    pending --start--> in_progress --complete--> completed
    pending --complete--> completed
    completed is terminal

  ApprovalStatus (hour requests): whether extra hours were granted
    pending --> approved
    pending --> rejected
    approved and rejected are terminal

STATE MACHINE:
  Work-log transitions run through a statekit machine so the allowed graph
  lives in one declarative place. Approval has only one decision point and
  uses a plain table.

SEE ALSO:
  - api/handlers.go: UpdateWorkLogStatus, ApproveHourRequest, RejectHourRequest
*/
package amc

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
	"github.com/shopspring/decimal"
)

// =============================================================================
// WORK STATUS
// =============================================================================

type WorkStatus string

// State constants double as statekit state IDs.
const (
	StatePending    = "pending"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
)

const (
	WorkPending    WorkStatus = StatePending
	WorkInProgress WorkStatus = StateInProgress
	WorkCompleted  WorkStatus = StateCompleted
)

// Work-log events.
const (
	EventStart    = "start"
	EventComplete = "complete"
)

// workTransitions is the allowed graph: from -> event -> to.
var workTransitions = map[WorkStatus]map[string]WorkStatus{
	WorkPending: {
		EventStart:    WorkInProgress,
		EventComplete: WorkCompleted,
	},
	WorkInProgress: {
		EventComplete: WorkCompleted,
	},
	WorkCompleted: {},
}

func (s WorkStatus) IsValid() bool {
	_, ok := workTransitions[s]
	return ok
}

// IsFinal reports whether no further transitions are allowed.
func (s WorkStatus) IsFinal() bool {
	return s == WorkCompleted
}

// EventFor returns the event that moves s to target, false if none exists.
func (s WorkStatus) EventFor(target WorkStatus) (string, bool) {
	for event, to := range workTransitions[s] {
		if to == target {
			return event, true
		}
	}
	return "", false
}

// CanTransitionWorkStatus reports whether from -> to is in the graph.
func CanTransitionWorkStatus(from, to WorkStatus) bool {
	_, ok := from.EventFor(to)
	return ok
}

// WorkStatusContext carries the work log being transitioned.
type WorkStatusContext struct {
	WorkLogID WorkLogID
}

// WorkStatusMachine wraps a statekit interpreter for one work log.
type WorkStatusMachine struct {
	workLogID   WorkLogID
	interpreter *statekit.Interpreter[WorkStatusContext]
}

// NewWorkStatusMachine starts a machine in the given state.
func NewWorkStatusMachine(initial WorkStatus, id WorkLogID) (*WorkStatusMachine, error) {
	if initial == "" {
		initial = WorkPending
	}
	if !initial.IsValid() {
		return nil, &RecordError{Field: "status", Message: "unknown status " + string(initial)}
	}

	builder := statekit.NewMachine[WorkStatusContext]("work-log").
		WithInitial(statekit.StateID(initial)).
		WithContext(WorkStatusContext{WorkLogID: id})

	builder.State(StatePending).
		On(EventStart).Target(StateInProgress).
		On(EventComplete).Target(StateCompleted).
		Done()

	builder.State(StateInProgress).
		On(EventComplete).Target(StateCompleted).
		Done()

	// Completed is terminal. The self-loop keeps the state declared; Transition
	// reports it as rejected because the state does not change.
	builder.State(StateCompleted).
		On(EventComplete).Target(StateCompleted).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build work log state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &WorkStatusMachine{workLogID: id, interpreter: interpreter}, nil
}

// Current returns the machine's state.
func (m *WorkStatusMachine) Current() WorkStatus {
	return WorkStatus(m.interpreter.State().Value)
}

// Transition sends event and fails if the state did not change.
func (m *WorkStatusMachine) Transition(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.Current()

	if before != after {
		return nil
	}
	return &TransitionError{Kind: "work_log", From: string(before), To: event}
}

// TransitionTo moves the machine to target through the matching event.
func (m *WorkStatusMachine) TransitionTo(target WorkStatus) error {
	from := m.Current()
	event, ok := from.EventFor(target)
	if !ok {
		return &TransitionError{Kind: "work_log", From: string(from), To: string(target)}
	}
	return m.Transition(event)
}

// AdvanceWorkStatus validates from -> to through the state machine and
// returns the resulting status.
func AdvanceWorkStatus(id WorkLogID, from, to WorkStatus) (WorkStatus, error) {
	m, err := NewWorkStatusMachine(from, id)
	if err != nil {
		return from, err
	}
	if err := m.TransitionTo(to); err != nil {
		return from, err
	}
	return m.Current(), nil
}

// =============================================================================
// APPROVAL STATUS - Hour requests
// =============================================================================

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Decide moves a pending request to approved or rejected.
func (s ApprovalStatus) Decide(to ApprovalStatus) (ApprovalStatus, error) {
	if s != ApprovalPending || (to != ApprovalApproved && to != ApprovalRejected) {
		return s, &TransitionError{Kind: "hour_request", From: string(s), To: string(to)}
	}
	return to, nil
}

// HourRequest asks for extra hours on top of the allocation.
type HourRequest struct {
	ID             HourRequestID
	ClientID       ClientID
	RequestedHours decimal.Decimal
	Status         ApprovalStatus
}

// Validate checks a new hour request.
func (r HourRequest) Validate() error {
	if r.ClientID == "" {
		return &RecordError{Field: "client_id", Message: "is required"}
	}
	if !r.RequestedHours.IsPositive() {
		return &RecordError{Field: "requested_hours", Message: "must be positive"}
	}
	return nil
}
