package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newTestTicket(t *testing.T, resolutionMinutes int) *Ticket {
	t.Helper()
	sla, err := NewSLA("area-1", 0, resolutionMinutes, baseTime)
	require.NoError(t, err)
	ticket := NewTicket(NewTicketParams{
		Title:       "Infusion pump alarm",
		Description: "Pump in ward 3 keeps alarming",
		RequesterID: "user-1",
		AreaID:      "area-1",
	}, sla, baseTime)
	ticket.PullDomainEvents()
	return ticket
}

func TestTransitionFollowsDefaultGraph(t *testing.T) {
	graph := DefaultTransitions()
	for _, from := range graph.Keys() {
		for _, to := range StandardStatuses {
			ticket := newTestTicket(t, 240)
			ticket.Status = from
			ticket.SetResolutionSummary("replaced the pump", baseTime)

			err := Transition(ticket, to, DefaultPolicy(), baseTime.Add(time.Minute))

			allowed := CanTransition(DefaultPolicy(), from, to)
			switch {
			case from == TicketStatusClosed:
				var closedErr *AlreadyClosedError
				assert.True(t, errors.As(err, &closedErr), "%s -> %s", from, to)
				assert.Equal(t, from, ticket.Status)
			case allowed:
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, ticket.Status)
			default:
				var invalid *InvalidTransitionError
				require.True(t, errors.As(err, &invalid), "%s -> %s", from, to)
				assert.Equal(t, from, invalid.From)
				assert.Equal(t, to, invalid.To)
				assert.Equal(t, from, ticket.Status)
			}
		}
	}
}

func TestTransitionFromClosedAlwaysFails(t *testing.T) {
	for _, to := range append(StandardStatuses, TicketStatus("LIMBO")) {
		ticket := newTestTicket(t, 60)
		ticket.Status = TicketStatusClosed

		err := Transition(ticket, to, DefaultPolicy(), baseTime)

		var closedErr *AlreadyClosedError
		require.True(t, errors.As(err, &closedErr))
		assert.Equal(t, ticket.ID, closedErr.TicketID)
		assert.Empty(t, ticket.PendingEvents())
	}
}

func TestTransitionStampsFirstResponseOnce(t *testing.T) {
	ticket := newTestTicket(t, 240)
	first := baseTime.Add(10 * time.Minute)

	require.NoError(t, Transition(ticket, TicketStatusAssigned, DefaultPolicy(), first))
	require.NoError(t, Transition(ticket, TicketStatusInProgress, DefaultPolicy(), first.Add(time.Hour)))

	require.NotNil(t, ticket.FirstResponseAt)
	assert.Equal(t, first, *ticket.FirstResponseAt)
}

func TestTransitionCancelDoesNotCountAsResponse(t *testing.T) {
	ticket := newTestTicket(t, 240)

	require.NoError(t, Transition(ticket, TicketStatusCancelled, DefaultPolicy(), baseTime.Add(time.Minute)))

	assert.Nil(t, ticket.FirstResponseAt)
	assert.True(t, ticket.Status.IsTerminal())
}

func TestTransitionResolutionRecomputesBreach(t *testing.T) {
	cases := []struct {
		name     string
		resolved time.Duration
		breached bool
	}{
		{name: "within target", resolved: 100 * time.Minute, breached: false},
		{name: "exactly at target", resolved: 240 * time.Minute, breached: false},
		{name: "after target", resolved: 300 * time.Minute, breached: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticket := newTestTicket(t, 240)
			require.NoError(t, Transition(ticket, TicketStatusAssigned, DefaultPolicy(), baseTime.Add(time.Minute)))
			require.NoError(t, Transition(ticket, TicketStatusInProgress, DefaultPolicy(), baseTime.Add(2*time.Minute)))

			resolvedAt := baseTime.Add(tc.resolved)
			require.NoError(t, Transition(ticket, TicketStatusResolved, DefaultPolicy(), resolvedAt))

			require.NotNil(t, ticket.ResolvedAt)
			assert.Equal(t, resolvedAt, *ticket.ResolvedAt)
			assert.Equal(t, tc.breached, ticket.SLABreached)
		})
	}
}

func TestTransitionCloseRequiresResolutionSummary(t *testing.T) {
	ticket := newTestTicket(t, 240)
	ticket.Status = TicketStatusResolved

	err := Transition(ticket, TicketStatusClosed, DefaultPolicy(), baseTime)

	var missing *MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FieldResolutionSummary, missing.Field)
	assert.Nil(t, ticket.ClosedAt)

	ticket.SetResolutionSummary("  firmware updated  ", baseTime)
	require.NoError(t, Transition(ticket, TicketStatusClosed, DefaultPolicy(), baseTime.Add(time.Minute)))
	require.NotNil(t, ticket.ClosedAt)
	assert.Equal(t, "firmware updated", *ticket.ResolutionSummary)
}

func TestTransitionEmitsStatusEvents(t *testing.T) {
	ticket := newTestTicket(t, 240)
	ticket.Status = TicketStatusResolved
	ticket.SetResolutionSummary("done", baseTime)

	require.NoError(t, Transition(ticket, TicketStatusClosed, DefaultPolicy(), baseTime))

	events := ticket.PullDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTicketClosed, events[0].Type)
	payload, ok := events[0].Payload.(TicketStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, TicketStatusResolved, payload.From)
	assert.Equal(t, TicketStatusClosed, payload.To)
	assert.Equal(t, ticket.ID, payload.TicketID)

	assert.Empty(t, ticket.PullDomainEvents(), "second drain must be empty")
}

func TestWorkflowPolicyScenario(t *testing.T) {
	transitions := NewTransitionGraph()
	transitions.Set(TicketStatusOpen, TicketStatusInProgress)
	transitions.Set(TicketStatusInProgress, TicketStatusResolved)
	transitions.Set(TicketStatusResolved, TicketStatusClosed)
	required := NewRequiredFields()
	required.Set(TicketStatusClosed, FieldResolutionSummary)

	wf, err := NewWorkflowVersion("area-1", "admin-1", transitions, required, nil, baseTime)
	require.NoError(t, err)
	policy := PolicyFor(wf)

	ticket := newTestTicket(t, 240)
	require.NoError(t, Transition(ticket, TicketStatusInProgress, policy, baseTime.Add(time.Minute)))
	require.NoError(t, Transition(ticket, TicketStatusResolved, policy, baseTime.Add(2*time.Minute)))

	err = Transition(ticket, TicketStatusClosed, policy, baseTime.Add(3*time.Minute))
	var missing *MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FieldResolutionSummary, missing.Field)
	assert.Equal(t, TicketStatusResolved, ticket.Status)

	ticket.SetResolutionSummary("calibrated sensor", baseTime.Add(3*time.Minute))
	require.NoError(t, Transition(ticket, TicketStatusClosed, policy, baseTime.Add(4*time.Minute)))
	assert.Equal(t, TicketStatusClosed, ticket.Status)
}

func TestWorkflowPolicyRejectsPairsAbsentFromConfiguredKeys(t *testing.T) {
	transitions := NewTransitionGraph()
	transitions.Set(TicketStatusOpen, TicketStatusInProgress)
	wf, err := NewWorkflowVersion("area-1", "admin-1", transitions, NewRequiredFields(), nil, baseTime)
	require.NoError(t, err)

	ticket := newTestTicket(t, 240)
	err = Transition(ticket, TicketStatusAssigned, PolicyFor(wf), baseTime)

	var invalid *InvalidTransitionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.FirstResponseAt)
}

func TestWorkflowPolicyFallsBackForUnlistedStatus(t *testing.T) {
	transitions := NewTransitionGraph()
	transitions.Set(TicketStatusOpen, TicketStatusInProgress)
	wf, err := NewWorkflowVersion("area-1", "admin-1", transitions, NewRequiredFields(), nil, baseTime)
	require.NoError(t, err)

	ticket := newTestTicket(t, 240)
	ticket.Status = TicketStatusInProgress

	require.NoError(t, Transition(ticket, TicketStatusResolved, PolicyFor(wf), baseTime))
}

func TestWorkflowPolicyRequiredFieldsBlockEntry(t *testing.T) {
	transitions := NewTransitionGraph()
	transitions.Set(TicketStatusOpen, TicketStatusAssigned)
	required := NewRequiredFields()
	required.Set(TicketStatusAssigned, FieldAssigneeID)
	wf, err := NewWorkflowVersion("area-1", "admin-1", transitions, required, nil, baseTime)
	require.NoError(t, err)

	ticket := newTestTicket(t, 240)
	err = Transition(ticket, TicketStatusAssigned, PolicyFor(wf), baseTime)
	var missing *MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, FieldAssigneeID, missing.Field)

	ticket.Assign("agent-7", baseTime)
	require.NoError(t, Transition(ticket, TicketStatusAssigned, PolicyFor(wf), baseTime))
}

func TestReopenClearsResolution(t *testing.T) {
	transitions := NewTransitionGraph()
	transitions.Set(TicketStatusResolved, TicketStatusInProgress, TicketStatusClosed)
	wf, err := NewWorkflowVersion("area-1", "admin-1", transitions, NewRequiredFields(), nil, baseTime)
	require.NoError(t, err)

	ticket := newTestTicket(t, 240)
	ticket.Status = TicketStatusInProgress
	require.NoError(t, Transition(ticket, TicketStatusResolved, PolicyFor(wf), baseTime.Add(time.Hour)))
	require.NoError(t, Transition(ticket, TicketStatusInProgress, PolicyFor(wf), baseTime.Add(2*time.Hour)))

	assert.Nil(t, ticket.ResolvedAt)
}
