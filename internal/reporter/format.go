package reporter

import (
	"fmt"
	"strings"

	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/models"
	"github.com/actionsum/ctvtcntr/internal/tablefile"
	"github.com/actionsum/ctvtcntr/pkg/utils"

	"github.com/charmbracelet/lipgloss"
)

const (
	columnWidthIdentity = 32
	columnWidthDate     = 12
	columnWidthNumber   = 10
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func cell(width int, right bool) lipgloss.Style {
	s := lipgloss.NewStyle().Width(width).PaddingRight(1)
	if right {
		s = s.Align(lipgloss.Right)
	}
	return s
}

// FormatReportText formats the report as human-readable text
func FormatReportText(report *models.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Focus Report - "+report.Period.Type) + "\n")
	if !report.Period.Start.IsZero() {
		fmt.Fprintf(&b, "Period: %s to %s\n",
			report.Period.Start.Format("2006-01-02 15:04"),
			report.Period.End.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(&b, "Total Time: %.2fh (%s)\n\n", report.TotalHours, utils.FormatClock(report.TotalSeconds))

	if len(report.Identities) == 0 {
		b.WriteString(faintStyle.Render("No activity recorded for this period.") + "\n")
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Inherit(cell(columnWidthIdentity, false)).Render("Identity"),
		headerStyle.Inherit(cell(columnWidthNumber, true)).Render("Time"),
		headerStyle.Inherit(cell(columnWidthNumber, true)).Render("Hours"),
		headerStyle.Inherit(cell(columnWidthNumber, true)).Render("Days"),
		headerStyle.Inherit(cell(columnWidthNumber, true)).Render("Percent"),
	) + "\n")

	for _, s := range report.Identities {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			cell(columnWidthIdentity, false).Render(truncate(s.Identity, columnWidthIdentity-1)),
			cell(columnWidthNumber, true).Render(utils.FormatRoundedUnit(s.TotalSeconds)),
			cell(columnWidthNumber, true).Render(fmt.Sprintf("%.2f", s.TotalHours)),
			cell(columnWidthNumber, true).Render(fmt.Sprintf("%d", s.Days)),
			cell(columnWidthNumber, true).Render(fmt.Sprintf("%.1f%%", s.Percentage)),
		) + "\n")
	}

	return b.String()
}

// FormatRecords renders every record as a date / identity / duration table.
func FormatRecords(records []ledger.Record) string {
	if len(records) == 0 {
		return faintStyle.Render("No records.") + "\n"
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Inherit(cell(columnWidthDate, false)).Render("Date"),
		headerStyle.Inherit(cell(columnWidthIdentity, false)).Render("Identity"),
		headerStyle.Inherit(cell(columnWidthNumber+2, true)).Render("Usage"),
	) + "\n")

	for _, r := range records {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			cell(columnWidthDate, false).Render(r.Date.String()),
			cell(columnWidthIdentity, false).Render(truncate(r.Identity.String(), columnWidthIdentity-1)),
			cell(columnWidthNumber+2, true).Render(tablefile.FormatDuration(r.Duration)),
		) + "\n")
	}
	return b.String()
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
