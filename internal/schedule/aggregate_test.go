package schedule

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/sandeepkv93/slotd/internal/model"
)

func TestOverlappingBlocksScenario(t *testing.T) {
	day := []model.Occurrence{
		block(t, "a", "2024-01-01", "10:00", "11:00"),
		block(t, "b", "2024-01-01", "09:00", "10:30"),
	}
	if got := DailyNonOverlappingHours(day); got != 2.0 {
		t.Fatalf("hours = %v, want 2.0", got)
	}
	if got := DailySessionCount(day); got != 1 {
		t.Fatalf("sessions = %d, want 1", got)
	}
	if NaiveMinutes(day) != 150 {
		t.Fatalf("naive minutes = %d, want 150", NaiveMinutes(day))
	}
}

func TestCoverageSweepCases(t *testing.T) {
	cases := []struct {
		name     string
		blocks   [][2]string
		minutes  int
		sessions int
	}{
		{"empty", nil, 0, 0},
		{"contained", [][2]string{{"09:00", "12:00"}, {"10:00", "11:00"}}, 180, 1},
		{"chain", [][2]string{{"09:00", "10:00"}, {"09:30", "10:30"}, {"10:15", "11:00"}}, 120, 1},
		{"gap", [][2]string{{"08:00", "09:00"}, {"13:00", "14:30"}}, 150, 2},
		{"midnight start", [][2]string{{"00:00", "00:30"}, {"00:15", "01:00"}}, 60, 1},
		{"identical", [][2]string{{"09:00", "10:00"}, {"09:00", "10:00"}}, 60, 1},
	}
	for _, tc := range cases {
		day := make([]model.Occurrence, 0, len(tc.blocks))
		for i, b := range tc.blocks {
			day = append(day, block(t, fmt.Sprintf("%s-%d", tc.name, i), "2024-01-01", b[0], b[1]))
		}
		if got := NonOverlappingMinutes(day); got != tc.minutes {
			t.Fatalf("%s: minutes = %d, want %d", tc.name, got, tc.minutes)
		}
		if got := DailySessionCount(day); got != tc.sessions {
			t.Fatalf("%s: sessions = %d, want %d", tc.name, got, tc.sessions)
		}
	}
}

func TestNonOverlappingNeverExceedsNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	week := []model.Date{mustDate(t, "2024-01-01")}
	for iter := 0; iter < 300; iter++ {
		n := 1 + rng.Intn(6)
		day := make([]model.Occurrence, 0, n)
		for i := 0; i < n; i++ {
			start := rng.Intn(22*60) / 15 * 15
			length := 15 + rng.Intn(8)*15
			s, e := model.Clock(start), model.Clock(start+length)
			day = append(day, block(t, fmt.Sprintf("o%d", i), "2024-01-01", s.String(), e.String()))
		}
		covered, naive := NonOverlappingMinutes(day), NaiveMinutes(day)
		if covered > naive {
			t.Fatalf("iteration %d: covered %d > naive %d", iter, covered, naive)
		}
		anyOverlap := len(DetectConflicts(0, week, day)) > 0
		if (covered == naive) == anyOverlap {
			t.Fatalf("iteration %d: covered=%d naive=%d overlap=%v", iter, covered, naive, anyOverlap)
		}
	}
}

func TestPeriodTotalsSumPerDay(t *testing.T) {
	occs := []model.Occurrence{
		block(t, "a", "2024-01-01", "09:00", "10:30"),
		block(t, "b", "2024-01-01", "10:00", "11:00"),
		block(t, "c", "2024-01-03", "13:00", "14:00"),
		block(t, "d", "2024-01-08", "13:00", "14:00"),
		block(t, "e", "2024-02-01", "13:00", "15:00"),
	}
	if got := WeeklyHours(mustDate(t, "2024-01-04"), time.Monday, occs); got != 3.0 {
		t.Fatalf("weekly hours = %v, want 3.0", got)
	}
	if got := MonthlyHours(mustDate(t, "2024-01-20"), occs); got != 4.0 {
		t.Fatalf("monthly hours = %v, want 4.0", got)
	}

	summary := DailyBreakdown(mustWindow(t, "2024-01-01", "2024-01-03"), occs)
	if len(summary) != 3 {
		t.Fatalf("expected 3 days, got %d", len(summary))
	}
	if summary[0].Hours() != 2.0 || summary[0].Booked != 150 || summary[0].Sessions != 1 || !equalStrings(summary[0].Conflicts, []string{"a", "b"}) {
		t.Fatalf("unexpected monday summary: %+v", summary[0])
	}
	if summary[1].Minutes != 0 || summary[1].Sessions != 0 || len(summary[1].Conflicts) != 0 {
		t.Fatalf("unexpected empty day summary: %+v", summary[1])
	}
}
