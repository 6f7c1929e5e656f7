package quiz

import (
	"math/rand"
	"testing"
)

// testCandidates builds a pool with the given bucket sizes.
func testCandidates(struggle, neutral, mastered int) []Candidate {
	var cands []Candidate
	add := func(n int, status MasteryStatus) {
		for i := 0; i < n; i++ {
			idx := len(cands)
			cands = append(cands, Candidate{
				Index:    idx,
				Question: Question{Prompt: "q", Options: []string{"a", "b"}, Answer: 0},
				Status:   status,
			})
		}
	}
	add(struggle, MasteryStruggle)
	add(neutral, MasteryNone)
	add(mastered, MasteryMastered)
	return cands
}

func countByStatus(picked []Candidate) map[MasteryStatus]int {
	counts := make(map[MasteryStatus]int)
	for _, c := range picked {
		counts[c.Status]++
	}
	return counts
}

func assertNoDuplicates(t *testing.T, picked []Candidate) {
	t.Helper()
	seen := make(map[int]bool, len(picked))
	for _, c := range picked {
		if seen[c.Index] {
			t.Fatalf("duplicate question index %d in one build", c.Index)
		}
		seen[c.Index] = true
	}
}

func TestBuildOfficialTest(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("first attempt leans on struggle questions", func(t *testing.T) {
		cands := testCandidates(30, 20, 10)
		picked := BuildOfficialTest(cands, 0, rng)
		if len(picked) != OfficialTestSize {
			t.Fatalf("len = %d, want %d", len(picked), OfficialTestSize)
		}
		assertNoDuplicates(t, picked)
		if got := countByStatus(picked)[MasteryStruggle]; got != 17 {
			t.Errorf("struggle questions = %d, want 17", got)
		}
	})

	t.Run("retake inverts the split", func(t *testing.T) {
		cands := testCandidates(30, 20, 10)
		picked := BuildOfficialTest(cands, 1, rng)
		if len(picked) != OfficialTestSize {
			t.Fatalf("len = %d, want %d", len(picked), OfficialTestSize)
		}
		assertNoDuplicates(t, picked)
		if got := countByStatus(picked)[MasteryStruggle]; got != 11 {
			t.Errorf("struggle questions on retake = %d, want 11", got)
		}
	})

	t.Run("short struggle pool backfills from the rest", func(t *testing.T) {
		cands := testCandidates(5, 30, 0)
		picked := BuildOfficialTest(cands, 0, rng)
		if len(picked) != OfficialTestSize {
			t.Fatalf("len = %d, want %d", len(picked), OfficialTestSize)
		}
		assertNoDuplicates(t, picked)
		if got := countByStatus(picked)[MasteryStruggle]; got != 5 {
			t.Errorf("struggle questions = %d, want all 5", got)
		}
	})

	t.Run("small bank returns everything once", func(t *testing.T) {
		cands := testCandidates(4, 3, 2)
		picked := BuildOfficialTest(cands, 0, rng)
		if len(picked) != 9 {
			t.Fatalf("len = %d, want 9", len(picked))
		}
		assertNoDuplicates(t, picked)
	})

	t.Run("empty bank yields empty test", func(t *testing.T) {
		if picked := BuildOfficialTest(nil, 0, rng); len(picked) != 0 {
			t.Errorf("len = %d, want 0", len(picked))
		}
	})
}

func TestNextInfiniteQuestion(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("never repeats recent history", func(t *testing.T) {
		cands := testCandidates(3, 3, 3)
		history := []int{0, 1, 2, 3}
		for i := 0; i < 200; i++ {
			idx := NextInfiniteQuestion(cands, history, rng)
			for _, h := range history {
				if idx == h {
					t.Fatalf("picked recently-shown index %d", idx)
				}
			}
		}
	})

	t.Run("full history falls back to uniform", func(t *testing.T) {
		cands := testCandidates(2, 2, 0)
		history := []int{0, 1, 2, 3}
		idx := NextInfiniteQuestion(cands, history, rng)
		if idx < 0 || idx > 3 {
			t.Errorf("index = %d, want one of the full pool", idx)
		}
	})

	t.Run("struggle questions dominate the distribution", func(t *testing.T) {
		// 5 struggle (weight 50) vs 5 mastered (weight 2): expect a
		// struggle pick ~96% of the time; 2000 draws keep the bound safe.
		cands := testCandidates(5, 0, 5)
		var struggleHits int
		for i := 0; i < 2000; i++ {
			idx := NextInfiniteQuestion(cands, nil, rng)
			if cands[idx].Status == MasteryStruggle {
				struggleHits++
			}
		}
		if struggleHits < 1800 {
			t.Errorf("struggle picks = %d of 2000, want at least 1800", struggleHits)
		}
	})

	t.Run("empty pool returns -1", func(t *testing.T) {
		if idx := NextInfiniteQuestion(nil, nil, rng); idx != -1 {
			t.Errorf("index = %d, want -1", idx)
		}
	})
}

func TestLinkQuestions(t *testing.T) {
	set := CardSet{
		ID:   "steaks",
		Name: "Steaks",
		Cards: []Flashcard{
			{SetID: "steaks", Front: "Ribeye", Back: "16oz bone-in, most marbled cut"},
			{SetID: "steaks", Front: "Filet", Back: "8oz center cut tenderloin"},
		},
	}
	bank := QuestionBank{
		TestID: TestSteaks,
		SetID:  "steaks",
		Questions: []Question{
			{Prompt: "Which cut is the most marbled?", Options: []string{"Filet", "Ribeye"}, Answer: 1},
			{Prompt: "How is the filet cut?", Options: []string{"8oz  Center Cut Tenderloin", "flank"}, Answer: 0},
			{Prompt: "What day is the soup special?", Options: []string{"Monday", "Friday"}, Answer: 0},
		},
	}

	cands := LinkQuestions(bank, set)
	if len(cands) != 3 {
		t.Fatalf("len = %d, want 3", len(cands))
	}
	if want := set.Cards[0].ID(); cands[0].CardID != want {
		t.Errorf("question 0 linked to %q, want %q (front match)", cands[0].CardID, want)
	}
	if want := set.Cards[1].ID(); cands[1].CardID != want {
		t.Errorf("question 1 linked to %q, want %q (normalized back match)", cands[1].CardID, want)
	}
	if cands[2].CardID != "" {
		t.Errorf("question 2 must stay neutral, linked to %q", cands[2].CardID)
	}
}

func TestClassify(t *testing.T) {
	cardID := CardID("steaks", "Ribeye", "16oz")
	cands := []Candidate{
		{Index: 0, CardID: cardID},
		{Index: 1}, // neutral
	}
	mastery := map[string]MasteryRecord{cardID: {Status: MasteryStruggle}}

	out := Classify(cands, mastery)
	if out[0].Status != MasteryStruggle {
		t.Errorf("Status = %q, want %q", out[0].Status, MasteryStruggle)
	}
	if out[1].Status != MasteryNone {
		t.Errorf("neutral question Status = %q, want none", out[1].Status)
	}
}
