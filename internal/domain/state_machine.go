package domain

import "time"

// TransitionPolicy decides which statuses a ticket may move to and which
// fields must be filled before it enters a status.
type TransitionPolicy interface {
	Allowed(from TicketStatus) []TicketStatus
	RequiredFields(to TicketStatus) []string
}

// DefaultTransitions is the built-in graph used when an area has no workflow,
// or its workflow has no entry for the current status.
func DefaultTransitions() TransitionGraph {
	g := NewTransitionGraph()
	g.Set(TicketStatusOpen, TicketStatusAssigned, TicketStatusCancelled)
	g.Set(TicketStatusAssigned, TicketStatusInProgress, TicketStatusCancelled)
	g.Set(TicketStatusInProgress, TicketStatusResolved, TicketStatusCancelled)
	g.Set(TicketStatusResolved, TicketStatusClosed)
	g.Set(TicketStatusClosed)
	g.Set(TicketStatusCancelled)
	return g
}

type defaultPolicy struct {
	graph TransitionGraph
}

// DefaultPolicy returns the built-in transition policy.
func DefaultPolicy() TransitionPolicy {
	return defaultPolicy{graph: DefaultTransitions()}
}

func (p defaultPolicy) Allowed(from TicketStatus) []TicketStatus {
	next, _ := p.graph.Next(from)
	return next
}

func (p defaultPolicy) RequiredFields(to TicketStatus) []string {
	if to == TicketStatusClosed {
		return []string{FieldResolutionSummary}
	}
	return nil
}

type workflowPolicy struct {
	workflow *Workflow
	fallback TransitionPolicy
}

func (p workflowPolicy) Allowed(from TicketStatus) []TicketStatus {
	if next, ok := p.workflow.Transitions.Next(from); ok {
		return next
	}
	return p.fallback.Allowed(from)
}

func (p workflowPolicy) RequiredFields(to TicketStatus) []string {
	return p.workflow.RequiredFields.For(to)
}

// PolicyFor returns the area's workflow policy, or the built-in policy when
// wf is nil. Statuses the workflow does not mention fall back to the
// built-in graph.
func PolicyFor(wf *Workflow) TransitionPolicy {
	if wf == nil {
		return DefaultPolicy()
	}
	return workflowPolicy{workflow: wf, fallback: DefaultPolicy()}
}

// CanTransition reports whether policy allows from -> to.
func CanTransition(policy TransitionPolicy, from, to TicketStatus) bool {
	for _, next := range policy.Allowed(from) {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change to t. On error the ticket
// is left unchanged.
//
// Leaving OPEN for anything but CANCELLED stamps the first response once.
// Entering RESOLVED stamps the resolution and re-evaluates the SLA breach.
// Entering CLOSED stamps the closure and always needs a resolution summary.
func Transition(t *Ticket, to TicketStatus, policy TransitionPolicy, now time.Time) error {
	now = now.UTC()
	from := t.Status
	if from == TicketStatusClosed {
		return &AlreadyClosedError{TicketID: t.ID}
	}
	if !CanTransition(policy, from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	for _, field := range policy.RequiredFields(to) {
		if t.FieldValue(field) == "" {
			return &MissingRequiredFieldError{Field: field, Status: to}
		}
	}
	if to == TicketStatusClosed && t.FieldValue(FieldResolutionSummary) == "" {
		return &MissingRequiredFieldError{Field: FieldResolutionSummary, Status: to}
	}

	t.Status = to
	t.UpdatedAt = now
	if from == TicketStatusOpen && to != TicketStatusCancelled && t.FirstResponseAt == nil {
		at := now
		t.FirstResponseAt = &at
	}
	if from == TicketStatusResolved && to != TicketStatusClosed {
		t.ResolvedAt = nil
	}
	switch to {
	case TicketStatusResolved:
		at := now
		t.ResolvedAt = &at
		t.SLABreached = EvaluateBreach(t, now)
	case TicketStatusClosed:
		at := now
		t.ClosedAt = &at
	}

	eventType := EventTicketStatusChanged
	if to == TicketStatusClosed {
		eventType = EventTicketClosed
	}
	t.recordEvent(eventType, now, TicketStatusChangedPayload{
		TicketID:   t.ID,
		From:       from,
		To:         to,
		OccurredAt: now,
	})
	return nil
}
