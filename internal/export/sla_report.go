package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/servicedesk/internal/domain"
)

const (
	SummarySheet = "Summary"
	TicketsSheet = "Tickets"
)

// TicketsHeader is the header row of the tickets sheet.
var TicketsHeader = []string{
	"Ticket ID",
	"Title",
	"Area",
	"Priority",
	"Status",
	"Created At",
	"First Response At",
	"Resolved At",
	"SLA Target At",
	"SLA Breached",
}

// ReportScope describes the filter a report was computed for.
type ReportScope struct {
	AreaID      *string
	From        *time.Time
	To          *time.Time
	GeneratedAt time.Time
}

// RenderSLAReport builds an xlsx workbook with a summary sheet holding the
// metrics and a tickets sheet with one row per ticket.
func RenderSLAReport(scope ReportScope, metrics domain.SLAMetrics, tickets []domain.Ticket) ([]byte, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(TicketsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create tickets sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, scope, metrics, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeTickets(f, tickets, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, scope ReportScope, m domain.SLAMetrics, headerStyle int) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Area", optionalString(scope.AreaID, "all")},
		{"From", optionalTime(scope.From)},
		{"To", optionalTime(scope.To)},
		{"Generated At", formatTime(scope.GeneratedAt)},
		{"Total Tickets", m.TotalTickets},
		{"SLA Breached", m.SLABreached},
		{"SLA Compliant", m.SLACompliant},
		{"Compliance %", m.CompliancePercentage},
		{"Avg First Response (min)", optionalFloat(m.AvgFirstResponseTime)},
		{"Avg Resolution (min)", optionalFloat(m.AvgResolutionTime)},
	}
	for _, key := range sortedKeys(m.TicketsByPriority) {
		rows = append(rows, []any{"Priority " + key, m.TicketsByPriority[key]})
	}
	for _, key := range sortedKeys(m.TicketsByStatus) {
		rows = append(rows, []any{"Status " + key, m.TicketsByStatus[key]})
	}

	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return fmt.Errorf("summary column width: %w", err)
	}
	return nil
}

func writeTickets(f *excelize.File, tickets []domain.Ticket, headerStyle int) error {
	header := make([]any, len(TicketsHeader))
	for i, h := range TicketsHeader {
		header[i] = h
	}
	if err := setRow(f, TicketsSheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(TicketsHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(TicketsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style tickets header: %w", err)
	}

	for i := range tickets {
		t := &tickets[i]
		breached := "No"
		if t.SLABreached {
			breached = "Yes"
		}
		row := []any{
			t.ID,
			t.Title,
			t.AreaID,
			string(t.Priority),
			string(t.Status),
			formatTime(t.CreatedAt),
			optionalTime(t.FirstResponseAt),
			optionalTime(t.ResolvedAt),
			optionalTime(t.SLATargetAt),
			breached,
		}
		if err := setRow(f, TicketsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(TicketsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze tickets header: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func optionalString(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func optionalFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
