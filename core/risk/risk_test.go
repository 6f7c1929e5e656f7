package risk

import (
	"testing"
	"time"

	"github.com/crewhq/brigade/core/quiz"
	"github.com/crewhq/brigade/core/training"
)

type fakeAttempts map[string]quiz.AttemptRecord

func (f fakeAttempts) Attempts(testID string) quiz.AttemptRecord { return f[testID] }
func (f fakeAttempts) RequiredScore(testID string) int {
	if f[testID].Count <= 1 {
		return 85
	}
	return 90
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}

func TestScore(t *testing.T) {
	now := ts(t, "2026-09-01T12:00:00Z")

	t.Run("empty record maxes both factors", func(t *testing.T) {
		// 0% progress (+40) and no activity at all (+35)
		a := Score(training.Record{}, nil, now)
		if a.Score != 75 {
			t.Errorf("Score = %d, want 75", a.Score)
		}
		if a.Level != LevelHigh {
			t.Errorf("Level = %q, want %q", a.Level, LevelHigh)
		}
	})

	t.Run("recent activity drops the stale factor", func(t *testing.T) {
		when := now.Add(-2 * 24 * time.Hour)
		rec := training.Record{
			Schedule: map[training.ShiftKey]*training.ShiftAssignment{
				training.ShiftFollow: {When: &when},
			},
		}
		a := Score(rec, nil, now)
		if a.Score != 40 {
			t.Errorf("Score = %d, want 40", a.Score)
		}
		if a.Level != LevelMedium {
			t.Errorf("Level = %q, want %q", a.Level, LevelMedium)
		}
	})

	t.Run("staleness buckets", func(t *testing.T) {
		tests := []struct {
			daysAgo int
			want    int // stale points on top of the +40 progress factor
		}{
			{daysAgo: 3, want: 0},
			{daysAgo: 10, want: 10},
			{daysAgo: 20, want: 20},
			{daysAgo: 45, want: 35},
		}
		for _, tt := range tests {
			when := now.Add(-time.Duration(tt.daysAgo) * 24 * time.Hour)
			rec := training.Record{
				Schedule: map[training.ShiftKey]*training.ShiftAssignment{
					training.ShiftFollow: {When: &when},
				},
			}
			if a := Score(rec, nil, now); a.Score != 40+tt.want {
				t.Errorf("%d days stale: Score = %d, want %d", tt.daysAgo, a.Score, 40+tt.want)
			}
		}
	})

	t.Run("login does not count as schedule activity", func(t *testing.T) {
		login := now.Add(-1 * time.Hour)
		rec := training.Record{LastLogin: &login}
		if a := Score(rec, nil, now); a.Score != 75 {
			t.Errorf("Score = %d, want 75 (login must not reset staleness)", a.Score)
		}
	})
}

func TestLegacyScore(t *testing.T) {
	now := ts(t, "2026-09-01T12:00:00Z")
	active := now.Add(-24 * time.Hour)

	t.Run("failed test plus retakes", func(t *testing.T) {
		rec := training.Record{LastLogin: &active} // not stalled
		attempts := fakeAttempts{
			quiz.TestBar:    {Count: 2, Scores: []int{55, 60}},
			quiz.TestSteaks: {Count: 3, Scores: []int{85, 90, 95}, Passed: true},
		}
		la := LegacyScore(rec, attempts, now)
		if la.Score != 25 {
			t.Errorf("Score = %d, want 25", la.Score)
		}
		want := []string{"Failed Bar & Beer Test", "High retakes"}
		if len(la.Drivers) != len(want) {
			t.Fatalf("Drivers = %v, want %v", la.Drivers, want)
		}
		for i := range want {
			if la.Drivers[i] != want[i] {
				t.Errorf("Drivers[%d] = %q, want %q", i, la.Drivers[i], want[i])
			}
		}
	})

	t.Run("stall driver comes first", func(t *testing.T) {
		rec := training.Record{} // no activity at all
		attempts := fakeAttempts{quiz.TestWines: {Count: 1, Scores: []int{70}}}
		la := LegacyScore(rec, attempts, now)
		if la.Score != 35 { // 20 stall + 15 fail
			t.Errorf("Score = %d, want 35", la.Score)
		}
		want := []string{"No recent activity", "Failed Wines Test"}
		for i := range want {
			if i >= len(la.Drivers) || la.Drivers[i] != want[i] {
				t.Fatalf("Drivers = %v, want %v", la.Drivers, want)
			}
		}
	})

	t.Run("failed tests report in catalog order", func(t *testing.T) {
		rec := training.Record{LastLogin: &active}
		attempts := fakeAttempts{
			quiz.TestSoups:  {Count: 1, Scores: []int{40}},
			quiz.TestSteaks: {Count: 1, Scores: []int{50}},
		}
		la := LegacyScore(rec, attempts, now)
		want := []string{"Failed Steaks Test", "Failed Soups Test"}
		if len(la.Drivers) != 2 || la.Drivers[0] != want[0] || la.Drivers[1] != want[1] {
			t.Errorf("Drivers = %v, want %v", la.Drivers, want)
		}
	})

	t.Run("unattempted tests are not failures", func(t *testing.T) {
		rec := training.Record{LastLogin: &active}
		la := LegacyScore(rec, fakeAttempts{}, now)
		if la.Score != 0 || len(la.Drivers) != 0 {
			t.Errorf("Score = %d Drivers = %v, want clean slate", la.Score, la.Drivers)
		}
		if la.Level != LevelLow {
			t.Errorf("Level = %q, want %q", la.Level, LevelLow)
		}
	})

	t.Run("levels", func(t *testing.T) {
		rec := training.Record{} // stalled: +20
		attempts := fakeAttempts{
			quiz.TestSteaks: {Count: 3, Scores: []int{50, 55, 60}}, // +15 fail, retakes
			quiz.TestBar:    {Count: 1, Scores: []int{30}},         // +15
			quiz.TestWines:  {Count: 1, Scores: []int{30}},         // +15
		}
		la := LegacyScore(rec, attempts, now)
		if la.Score != 75 { // 20+15*3+10
			t.Errorf("Score = %d, want 75", la.Score)
		}
		if la.Level != LevelHigh {
			t.Errorf("Level = %q, want %q", la.Level, LevelHigh)
		}
	})
}

func TestReadiness(t *testing.T) {
	score3 := 3.0

	t.Run("no data yields nil", func(t *testing.T) {
		if got := Readiness(training.Record{}); got != nil {
			t.Errorf("Readiness = %v, want nil", *got)
		}
	})

	t.Run("manager score wins over readiness triple", func(t *testing.T) {
		rec := training.Record{
			Checklists: map[training.ShiftKey]*training.ChecklistInstance{
				training.ShiftFollow: {
					ManagerScore: &score3,
					Readiness:    &training.Readiness{Knowledge: 1, Execution: 1, Confidence: 1},
				},
			},
		}
		got := Readiness(rec)
		if got == nil || *got != 3 {
			t.Errorf("Readiness = %v, want 3", got)
		}
	})

	t.Run("legacy records average the rated fields", func(t *testing.T) {
		rec := training.Record{
			Checklists: map[training.ShiftKey]*training.ChecklistInstance{
				training.ShiftFollow: {Readiness: &training.Readiness{Knowledge: 2, Execution: 3}}, // mean 2.5
				training.ShiftRev1:   {ManagerScore: &score3},
			},
		}
		got := Readiness(rec)
		if got == nil || *got != 2.75 {
			t.Errorf("Readiness = %v, want 2.75", got)
		}
	})

	t.Run("five point rescale", func(t *testing.T) {
		if got := OutOfFive(&score3); got == nil || *got != 5 {
			t.Errorf("OutOfFive(3) = %v, want 5", got)
		}
		if got := OutOfFive(nil); got != nil {
			t.Errorf("OutOfFive(nil) = %v, want nil", got)
		}
	})
}
