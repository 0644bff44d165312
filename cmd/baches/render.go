package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"baches/internal/models"
	"baches/internal/report"
)

const descriptionWidth = 40

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityStyles = map[models.Severity]lipgloss.Style{
		models.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		models.SeverityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		models.SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func renderReports(reports []models.Report) string {
	if len(reports) == 0 {
		return mutedStyle.Render("No reports.")
	}
	t := newTable("ID", "CREATED", "SEVERITY", "DESCRIPTION", "LOCATION", "ADDRESS")
	for _, r := range reports {
		t.Row(r.ID, formatDate(r.CreatedAt), formatSeverity(r.Severity), truncate(r.Description, descriptionWidth), formatLocation(r.Location), reportAddress(r))
	}
	return t.String()
}

func renderWorkers(workers []models.Worker) string {
	if len(workers) == 0 {
		return mutedStyle.Render("No workers.")
	}
	t := newTable("ID", "NAME", "ROLE", "EMAIL", "PHONE", "VEHICLE")
	for _, w := range workers {
		t.Row(w.ID, w.Name, w.Role, w.Email, w.Phone, w.AssignedVehicleID)
	}
	return t.String()
}

func renderVehicles(vehicles []models.Vehicle) string {
	if len(vehicles) == 0 {
		return mutedStyle.Render("No vehicles.")
	}
	t := newTable("ID", "PLATE", "BRAND", "MODEL", "STATUS", "DRIVER")
	for _, v := range vehicles {
		t.Row(v.ID, v.Plate, v.Brand, v.Model, v.Status, v.DriverID)
	}
	return t.String()
}

func formatSeverity(raw string) string {
	sev, ok := report.NormalizeSeverity(raw)
	if !ok {
		return raw
	}
	return severityStyles[sev].Render(raw)
}

func formatDate(raw string) string {
	ts := report.ParseTime(raw)
	if ts.IsZero() {
		return raw
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func formatLocation(loc *models.Location) string {
	if loc == nil {
		return "-"
	}
	return fmt.Sprintf("%.5f, %.5f", loc.Lat, loc.Lng)
}

func reportAddress(r models.Report) string {
	parts := nonEmpty(r.Street, r.Neighborhood, r.City)
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func formatAddress(a models.Address) string {
	parts := nonEmpty(a.Road, a.Neighbourhood, a.City, a.State, a.Postcode)
	if len(parts) == 0 {
		return "No address found."
	}
	return strings.Join(parts, ", ")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
