package update

import (
	"fmt"

	"github.com/sandeepkv93/slotd/internal/category"
	"github.com/sandeepkv93/slotd/internal/commands"
	"github.com/sandeepkv93/slotd/internal/model"
	"github.com/sandeepkv93/slotd/internal/schedule"
	"github.com/sandeepkv93/slotd/internal/views"
)

func (m Model) periodWindow() (schedule.Window, string) {
	switch m.StatsPeriod {
	case commands.PeriodDay:
		return schedule.Window{Start: m.Anchor, End: m.Anchor}, fmt.Sprintf("Day %s", m.Anchor)
	case commands.PeriodMonth:
		return schedule.MonthWindow(m.Anchor), fmt.Sprintf("%s %d", m.Anchor.Month(), m.Anchor.Year())
	default:
		w := schedule.WeekWindow(m.Anchor, m.Settings.WeekStart)
		return w, fmt.Sprintf("Week of %s", w.Start)
	}
}

func (m Model) statsReport() views.StatsReport {
	w, heading := m.periodWindow()

	summaries := schedule.DailyBreakdown(w, m.Occurrences)
	rows := make([]views.DayRowData, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, views.DayRowData{
			Date:      s.Date.String(),
			Weekday:   s.Date.Weekday().String()[:3],
			Hours:     s.Hours(),
			Booked:    float64(s.Booked) / 60,
			Sessions:  s.Sessions,
			Conflicts: len(s.Conflicts),
		})
	}

	periodOccs := make([]model.Occurrence, 0)
	for _, o := range m.Occurrences {
		if w.Contains(o.Date) {
			periodOccs = append(periodOccs, o)
		}
	}
	cats := category.Canonicalize(category.Inputs(periodOccs))
	catRows := make([]views.CategoryData, 0, len(cats))
	for _, c := range cats {
		catRows = append(catRows, views.CategoryData{Name: c.Name, Hours: c.TotalHours, Color: c.Color})
	}

	return views.StatsReport{
		Heading:    heading,
		Days:       rows,
		DayHours:   schedule.DailyNonOverlappingHours(m.dayOccurrences()),
		WeekHours:  schedule.WeeklyHours(m.Anchor, m.Settings.WeekStart, m.Occurrences),
		MonthHours: schedule.MonthlyHours(m.Anchor, m.Occurrences),
		Categories: catRows,
	}
}

func nextPeriod(p commands.Period) commands.Period {
	switch p {
	case commands.PeriodDay:
		return commands.PeriodWeek
	case commands.PeriodWeek:
		return commands.PeriodMonth
	default:
		return commands.PeriodDay
	}
}

// dayOccupancy is the anchor day's covered time as a share of the visible day range.
func (m Model) dayOccupancy() float64 {
	span := m.Settings.DayEnd.Minutes() - m.Settings.DayStart.Minutes()
	if span <= 0 {
		return 0
	}
	share := float64(schedule.NonOverlappingMinutes(m.dayOccurrences())) / float64(span)
	if share > 1 {
		return 1
	}
	return share
}

func (m Model) renderStatsView() string {
	report := m.statsReport()
	occupancy := m.dayOccupancy()
	return views.RenderStatsPanel(views.StatsPanelData{
		Period:        string(m.StatsPeriod),
		ReportView:    m.reportViewport.View(),
		Categories:    report.Categories,
		OccupancyView: m.dayProgress.ViewAs(occupancy),
		OccupancyPct:  int(occupancy * 100),
	})
}
