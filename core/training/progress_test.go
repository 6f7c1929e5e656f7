package training

import (
	"testing"

	"github.com/crewhq/brigade/core/quiz"
)

// fakeAttempts is a static AttemptLookup for completion tests.
type fakeAttempts map[string]quiz.AttemptRecord

func (f fakeAttempts) Attempts(testID string) quiz.AttemptRecord { return f[testID] }
func (f fakeAttempts) RequiredScore(testID string) int {
	if f[testID].Count <= 1 {
		return 85
	}
	return 90
}

func signedRecord(t *testing.T, keys ...ShiftKey) Record {
	t0 := ts(t, "2026-08-01T09:00:00Z")
	t1 := ts(t, "2026-08-01T17:00:00Z")
	t2 := ts(t, "2026-08-02T10:00:00Z")
	rec := Record{
		ID:       "t1",
		Name:     "Jordan Reyes",
		Store:    "downtown",
		Schedule: map[ShiftKey]*ShiftAssignment{},
	}
	for _, k := range keys {
		rec.Schedule[k] = &ShiftAssignment{
			When:            &t0,
			Trainer:         "5001",
			TrainerSignedBy: "5001",
			TrainerSignedAt: &t1,
			ManagerSignedBy: "9000",
			ManagerSignedAt: &t2,
		}
	}
	return rec
}

func TestIsShiftComplete(t *testing.T) {
	t.Run("dual-signed shift with no required tests", func(t *testing.T) {
		rec := signedRecord(t, ShiftFollow)
		if !IsShiftComplete(rec, ShiftFollow, nil) {
			t.Error("expected follow shift to be complete")
		}
		rec.Schedule[ShiftFollow].ManagerSignedAt = nil
		if IsShiftComplete(rec, ShiftFollow, nil) {
			t.Error("missing manager signature must not count as complete")
		}
		if st := GetShiftStatus(rec, ShiftFollow, nil); st.State != StateTrainerSigned {
			t.Errorf("State = %q, want %q", st.State, StateTrainerSigned)
		}
	})

	t.Run("manager signature without trainer signature", func(t *testing.T) {
		rec := signedRecord(t, ShiftFollow)
		rec.Schedule[ShiftFollow].TrainerSignedAt = nil
		if IsShiftComplete(rec, ShiftFollow, nil) {
			t.Error("predicate must enforce the two-stage gate independently")
		}
	})

	t.Run("gating test unpassed", func(t *testing.T) {
		rec := signedRecord(t, ShiftRev2) // gated on the bar test
		attempts := fakeAttempts{quiz.TestBar: {Count: 1, Scores: []int{60}}}
		if IsShiftComplete(rec, ShiftRev2, attempts) {
			t.Error("failed bar test must block completion")
		}
		if st := GetShiftStatus(rec, ShiftRev2, attempts); st.State != StateManagerSigned {
			t.Errorf("State = %q, want %q", st.State, StateManagerSigned)
		}
	})

	t.Run("gating test passed via attempt store", func(t *testing.T) {
		rec := signedRecord(t, ShiftRev2)
		attempts := fakeAttempts{quiz.TestBar: {Count: 1, Scores: []int{92}}}
		if !IsShiftComplete(rec, ShiftRev2, attempts) {
			t.Error("best score over threshold must count as passed")
		}
	})

	t.Run("gating test passed via persisted result", func(t *testing.T) {
		rec := signedRecord(t, ShiftRev2)
		rec.TestResults = []TestResult{{TestID: quiz.TestBar, Score: 88, Passed: true}}
		if !IsShiftComplete(rec, ShiftRev2, nil) {
			t.Error("persisted passing result must count")
		}
	})
}

func TestCertificationProgress(t *testing.T) {
	tests := []struct {
		name     string
		rec      Record
		wantDone int
		wantPct  int
	}{
		{name: "empty record", rec: Record{}, wantDone: 0, wantPct: 0},
		{name: "one of six", rec: signedRecord(t, ShiftFollow), wantDone: 1, wantPct: 17},
		{name: "half done", rec: signedRecord(t, ShiftFollow, ShiftRev1, ShiftFoodRun), wantDone: 3, wantPct: 50},
		{
			name:     "cert shift does not count",
			rec:      signedRecord(t, ShiftFollow, ShiftCert),
			wantDone: 1,
			wantPct:  17,
		},
		{
			name:     "all required shifts",
			rec:      signedRecord(t, RequiredShiftKeys...),
			wantDone: 6,
			wantPct:  100,
		},
	}
	attempts := fakeAttempts{
		quiz.TestSteaks: {Passed: true},
		quiz.TestBar:    {Passed: true},
		quiz.TestWines:  {Passed: true},
		quiz.TestSoups:  {Passed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CertificationProgress(tt.rec, attempts)
			if p.Total != 6 {
				t.Errorf("Total = %d, want 6", p.Total)
			}
			if p.Done != tt.wantDone {
				t.Errorf("Done = %d, want %d", p.Done, tt.wantDone)
			}
			if p.Pct != tt.wantPct {
				t.Errorf("Pct = %d, want %d", p.Pct, tt.wantPct)
			}
			if p.Done > p.Total {
				t.Errorf("Done %d exceeds Total %d", p.Done, p.Total)
			}
		})
	}
}

func TestGetShiftStatus(t *testing.T) {
	rec := Record{Schedule: map[ShiftKey]*ShiftAssignment{}}
	if st := GetShiftStatus(rec, ShiftFollow, nil); st.State != StateNotScheduled {
		t.Errorf("State = %q, want %q", st.State, StateNotScheduled)
	}

	t0 := ts(t, "2026-08-01T09:00:00Z")
	rec.Schedule[ShiftFollow] = &ShiftAssignment{When: &t0}
	if st := GetShiftStatus(rec, ShiftFollow, nil); st.State != StateScheduled {
		t.Errorf("State = %q, want %q", st.State, StateScheduled)
	}

	full := signedRecord(t, ShiftFollow)
	if st := GetShiftStatus(full, ShiftFollow, nil); st.State != StateComplete {
		t.Errorf("State = %q, want %q", st.State, StateComplete)
	}
}

func TestComplianceStats(t *testing.T) {
	t1 := ts(t, "2026-08-01T17:00:00Z")
	data := Data{
		"t1": signedRecord(t, ShiftFollow, ShiftRev1),
		"t2": {
			Store: "downtown",
			Schedule: map[ShiftKey]*ShiftAssignment{
				ShiftFollow: {TrainerSignedAt: &t1}, // trainer signed only
			},
		},
		"t3": func() Record {
			rec := signedRecord(t, ShiftFollow)
			rec.Archived = true
			return rec
		}(),
	}

	rep := ComplianceStats(data, "")
	if rep.TotalTrainerSigned != 3 {
		t.Errorf("TotalTrainerSigned = %d, want 3", rep.TotalTrainerSigned)
	}
	if rep.DualSigned != 2 {
		t.Errorf("DualSigned = %d, want 2", rep.DualSigned)
	}
	if rep.CompliancePct != 67 {
		t.Errorf("CompliancePct = %d, want 67", rep.CompliancePct)
	}

	if rep := ComplianceStats(Data{}, ""); rep.CompliancePct != 100 {
		t.Errorf("empty data CompliancePct = %d, want 100", rep.CompliancePct)
	}
}

func TestLastActivity(t *testing.T) {
	rec := signedRecord(t, ShiftFollow)
	want := ts(t, "2026-08-02T10:00:00Z") // manager sign-off is latest
	if got := rec.ScheduleActivity(); !got.Equal(want) {
		t.Errorf("ScheduleActivity() = %v, want %v", got, want)
	}

	login := ts(t, "2026-08-05T08:00:00Z")
	rec.LastLogin = &login
	if got := rec.ScheduleActivity(); !got.Equal(want) {
		t.Errorf("ScheduleActivity() must ignore login, got %v", got)
	}
	if got := rec.LastActivity(); !got.Equal(login) {
		t.Errorf("LastActivity() = %v, want %v", got, login)
	}

	var empty Record
	if !empty.LastActivity().IsZero() {
		t.Error("empty record must have zero activity")
	}
}

func TestRequiredTests(t *testing.T) {
	tests := []struct {
		key  ShiftKey
		want []string
	}{
		{ShiftFollow, nil},
		{ShiftRev1, []string{quiz.TestSteaks}},
		{ShiftRev2, []string{quiz.TestBar}},
		{ShiftRev3, []string{quiz.TestWines}},
		{ShiftRev4, []string{quiz.TestSoups}},
		{ShiftFoodRun, nil},
		{ShiftCert, nil},
	}
	for _, tt := range tests {
		got := RequiredTests(tt.key)
		if len(got) != len(tt.want) {
			t.Errorf("RequiredTests(%s) = %v, want %v", tt.key, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("RequiredTests(%s) = %v, want %v", tt.key, got, tt.want)
			}
		}
	}
}
