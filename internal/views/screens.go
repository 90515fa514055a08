package views

import (
	"fmt"
	"strings"
)

type ConflictData struct {
	Date string
	IDs  []string
}

type WeekPanelData struct {
	Title     string
	TableView string
	Conflicts []ConflictData
}

type DayItemData struct {
	ID        string
	Time      string
	Title     string
	Kind      string
	Completed bool
	Conflict  bool
}

type DayPanelData struct {
	Date       string
	Weekday    string
	Items      []DayItemData
	SelectedID string
	Hours      float64
	Sessions   int
}

type DayRowData struct {
	Date      string
	Weekday   string
	Hours     float64
	Booked    float64
	Sessions  int
	Conflicts int
}

type CategoryData struct {
	Name  string
	Hours float64
	Color string
}

// StatsReport is the occupancy summary of one period.
type StatsReport struct {
	Heading    string
	Days       []DayRowData
	DayHours   float64
	WeekHours  float64
	MonthHours float64
	Categories []CategoryData
}

type StatsPanelData struct {
	Period        string
	ReportView    string
	Categories    []CategoryData
	OccupancyView string
	OccupancyPct  int
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

func RenderWeekPanel(data WeekPanelData) string {
	var b strings.Builder
	b.WriteString(data.Title + "\n")
	b.WriteString("actions: [h/l]day [H/L]week [t]today [j/k]slot [r]reload\n")
	b.WriteString(data.TableView + "\n")
	if len(data.Conflicts) == 0 {
		b.WriteString("conflicts: none")
		return strings.TrimSpace(b.String())
	}
	b.WriteString(conflictStyle.Render("conflicts:") + "\n")
	for _, c := range data.Conflicts {
		b.WriteString(fmt.Sprintf("  %s: %s\n", c.Date, strings.Join(c.IDs, ", ")))
	}
	return strings.TrimSpace(b.String())
}

func RenderDayPanel(data DayPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("day: %s %s\n", data.Weekday, data.Date))
	b.WriteString(fmt.Sprintf("occupied: %.2fh in %d session(s)\n", data.Hours, data.Sessions))
	b.WriteString("actions: [j/k]move [x]toggle done [h/l]day\n")
	if len(data.Items) == 0 {
		b.WriteString("\n(nothing scheduled)")
		return b.String()
	}
	b.WriteString("\n")
	for _, item := range data.Items {
		cursor := " "
		if item.ID == data.SelectedID {
			cursor = ">"
		}
		mark := "[ ]"
		if item.Completed {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s %s %s (%s)", cursor, mark, item.Time, item.Title, item.Kind)
		switch {
		case item.Conflict:
			line = conflictStyle.Render(line + " !conflict")
		case item.Completed:
			line = doneStyle.Render(line)
		}
		if item.ID == data.SelectedID {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// StatsMarkdown renders a report as markdown for glamour.
func StatsMarkdown(r StatsReport) string {
	var b strings.Builder
	b.WriteString("# " + r.Heading + "\n\n")
	if len(r.Days) > 0 {
		b.WriteString("| Day | Date | Hours | Booked | Sessions | Conflicts |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|\n")
		for _, d := range r.Days {
			b.WriteString(fmt.Sprintf("| %s | %s | %.2f | %.2f | %d | %d |\n", d.Weekday, d.Date, d.Hours, d.Booked, d.Sessions, d.Conflicts))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("- **Day:** %.2fh\n", r.DayHours))
	b.WriteString(fmt.Sprintf("- **Week:** %.2fh\n", r.WeekHours))
	b.WriteString(fmt.Sprintf("- **Month:** %.2fh\n", r.MonthHours))
	if len(r.Categories) > 0 {
		b.WriteString("\n## Categories\n\n")
		b.WriteString("| Category | Hours |\n|---|---:|\n")
		for _, c := range r.Categories {
			b.WriteString(fmt.Sprintf("| %s | %.2f |\n", c.Name, c.Hours))
		}
	}
	return b.String()
}

func RenderStatsPanel(data StatsPanelData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("stats: %s\n", data.Period))
	b.WriteString("actions: [s]cycle period [h/l]day [H/L]week\n")
	if data.OccupancyView != "" {
		b.WriteString(fmt.Sprintf("day occupancy: %s %d%%\n", data.OccupancyView, data.OccupancyPct))
	}
	b.WriteString(data.ReportView)
	if len(data.Categories) > 0 {
		b.WriteString("\n\nlegend:\n")
		for _, c := range data.Categories {
			b.WriteString(Swatch(c.Color, fmt.Sprintf("%s %.2fh", c.Name, c.Hours)) + "\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
