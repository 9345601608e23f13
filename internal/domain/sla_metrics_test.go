package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricTicket(priority TicketPriority, status TicketStatus, breached bool, firstResponse, resolved time.Duration) Ticket {
	t := Ticket{
		ID:          "t",
		Status:      status,
		Priority:    priority,
		CreatedAt:   baseTime,
		SLABreached: breached,
	}
	if firstResponse > 0 {
		at := baseTime.Add(firstResponse)
		t.FirstResponseAt = &at
	}
	if resolved > 0 {
		at := baseTime.Add(resolved)
		t.ResolvedAt = &at
	}
	return t
}

func TestComputeSLAMetricsEmpty(t *testing.T) {
	metrics := ComputeSLAMetrics(nil)

	assert.Equal(t, 0, metrics.TotalTickets)
	assert.Equal(t, 0.0, metrics.CompliancePercentage)
	assert.Nil(t, metrics.AvgFirstResponseTime)
	assert.Nil(t, metrics.AvgResolutionTime)
	assert.Empty(t, metrics.TicketsByPriority)
	assert.Empty(t, metrics.TicketsByStatus)
}

func TestComputeSLAMetricsHalfBreached(t *testing.T) {
	tickets := []Ticket{
		metricTicket(TicketPriorityHigh, TicketStatusResolved, true, 10*time.Minute, 300*time.Minute),
		metricTicket(TicketPriorityHigh, TicketStatusClosed, false, 20*time.Minute, 100*time.Minute),
		metricTicket(TicketPriorityLow, TicketStatusOpen, true, 0, 0),
		metricTicket(TicketPriorityMedium, TicketStatusInProgress, false, 30*time.Minute, 0),
	}

	metrics := ComputeSLAMetrics(tickets)

	assert.Equal(t, 4, metrics.TotalTickets)
	assert.Equal(t, 2, metrics.SLABreached)
	assert.Equal(t, 2, metrics.SLACompliant)
	assert.Equal(t, 50.0, metrics.CompliancePercentage)
	require.NotNil(t, metrics.AvgFirstResponseTime)
	assert.Equal(t, 20.0, *metrics.AvgFirstResponseTime)
	require.NotNil(t, metrics.AvgResolutionTime)
	assert.Equal(t, 200.0, *metrics.AvgResolutionTime)
	assert.Equal(t, map[string]int{"HIGH": 2, "LOW": 1, "MEDIUM": 1}, metrics.TicketsByPriority)
	assert.Equal(t, map[string]int{"RESOLVED": 1, "CLOSED": 1, "OPEN": 1, "IN_PROGRESS": 1}, metrics.TicketsByStatus)
}

func TestComputeSLAMetricsRoundsToTwoDecimals(t *testing.T) {
	tickets := []Ticket{
		metricTicket(TicketPriorityLow, TicketStatusResolved, false, 10*time.Second, 0),
		metricTicket(TicketPriorityLow, TicketStatusResolved, false, 20*time.Second, 0),
		metricTicket(TicketPriorityLow, TicketStatusResolved, true, 0, 0),
	}

	metrics := ComputeSLAMetrics(tickets)

	assert.Equal(t, 66.67, metrics.CompliancePercentage)
	require.NotNil(t, metrics.AvgFirstResponseTime)
	assert.Equal(t, 0.25, *metrics.AvgFirstResponseTime)
	assert.Nil(t, metrics.AvgResolutionTime)
}

func TestComputeSLAMetricsReadsStoredBreachFlag(t *testing.T) {
	overdue := metricTicket(TicketPriorityLow, TicketStatusOpen, false, 0, 0)
	target := baseTime.Add(-time.Hour)
	overdue.SLATargetAt = &target

	metrics := ComputeSLAMetrics([]Ticket{overdue})

	assert.Equal(t, 0, metrics.SLABreached)
	assert.Equal(t, 100.0, metrics.CompliancePercentage)
}

func TestComputeSLAMetricsRoundsHalfUp(t *testing.T) {
	ticket := metricTicket(TicketPriorityHigh, TicketStatusAssigned, false, 60300*time.Millisecond, 0)

	metrics := ComputeSLAMetrics([]Ticket{ticket})

	require.NotNil(t, metrics.AvgFirstResponseTime)
	assert.Equal(t, 1.01, *metrics.AvgFirstResponseTime)
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]float64{
		1.005:   1.01,
		2.675:   2.68,
		66.6666: 66.67,
		0.125:   0.13,
		-1.005:  -1.01,
		50:      50,
	}
	for in, want := range cases {
		assert.Equal(t, want, roundHalfUp(in), "input %v", in)
	}
}
