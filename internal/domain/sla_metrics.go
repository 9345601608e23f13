package domain

import (
	"math"
	"strconv"
)

// SLAMetrics summarizes SLA compliance over a set of tickets.
type SLAMetrics struct {
	TotalTickets         int            `json:"total_tickets"`
	SLABreached          int            `json:"sla_breached"`
	SLACompliant         int            `json:"sla_compliant"`
	CompliancePercentage float64        `json:"compliance_percentage"`
	AvgFirstResponseTime *float64       `json:"avg_first_response_time"`
	AvgResolutionTime    *float64       `json:"avg_resolution_time"`
	TicketsByPriority    map[string]int `json:"tickets_by_priority"`
	TicketsByStatus      map[string]int `json:"tickets_by_status"`
}

// ComputeSLAMetrics aggregates tickets that were already filtered by area and
// date range. Breach is read from the stored flag; open tickets are not
// re-evaluated against the current time. Averages are in minutes.
func ComputeSLAMetrics(tickets []Ticket) SLAMetrics {
	metrics := SLAMetrics{
		TotalTickets:      len(tickets),
		TicketsByPriority: make(map[string]int),
		TicketsByStatus:   make(map[string]int),
	}

	var (
		responseSum, resolutionSum     float64
		responseCount, resolutionCount int
	)
	for i := range tickets {
		t := &tickets[i]
		if t.SLABreached {
			metrics.SLABreached++
		}
		if t.FirstResponseAt != nil {
			responseSum += t.FirstResponseAt.Sub(t.CreatedAt).Minutes()
			responseCount++
		}
		if t.ResolvedAt != nil {
			resolutionSum += t.ResolvedAt.Sub(t.CreatedAt).Minutes()
			resolutionCount++
		}
		metrics.TicketsByPriority[string(t.Priority)]++
		metrics.TicketsByStatus[string(t.Status)]++
	}

	metrics.SLACompliant = metrics.TotalTickets - metrics.SLABreached
	if metrics.TotalTickets > 0 {
		metrics.CompliancePercentage = roundHalfUp(float64(metrics.SLACompliant) / float64(metrics.TotalTickets) * 100)
	}
	if responseCount > 0 {
		avg := roundHalfUp(responseSum / float64(responseCount))
		metrics.AvgFirstResponseTime = &avg
	}
	if resolutionCount > 0 {
		avg := roundHalfUp(resolutionSum / float64(resolutionCount))
		metrics.AvgResolutionTime = &avg
	}
	return metrics
}

// roundHalfUp rounds to two decimal places, halves away from zero. The scaled
// value is snapped to eight decimals first so 1.005 lands on 100.5, not
// 100.4999...
func roundHalfUp(v float64) float64 {
	scaled := v * 100
	if snapped, err := strconv.ParseFloat(strconv.FormatFloat(scaled, 'f', 8, 64), 64); err == nil {
		scaled = snapped
	}
	return math.Round(scaled) / 100
}
