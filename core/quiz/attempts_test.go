package quiz

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

// memAttemptStore is an in-memory AttemptStore for tests.
type memAttemptStore struct {
	recs map[string]AttemptRecord // key: traineeID + "_" + testID
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{recs: make(map[string]AttemptRecord)}
}

func (s *memAttemptStore) GetAttempts(_ context.Context, traineeID, testID string) (AttemptRecord, error) {
	return s.recs[traineeID+"_"+testID], nil
}

func (s *memAttemptStore) SaveAttempts(_ context.Context, traineeID, testID string, rec AttemptRecord) error {
	s.recs[traineeID+"_"+testID] = rec
	return nil
}

func (s *memAttemptStore) QueryAttempts(_ context.Context, traineeID string) (map[string]AttemptRecord, error) {
	out := make(map[string]AttemptRecord)
	prefix := traineeID + "_"
	for k, v := range s.recs {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out[k[len(prefix):]] = v
		}
	}
	return out, nil
}

func (s *memAttemptStore) DeleteAttempts(_ context.Context, traineeID, testID string) error {
	delete(s.recs, traineeID+"_"+testID)
	return nil
}

func TestRecordAttempt(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt passes at 85", func(t *testing.T) {
		store := newMemAttemptStore()
		rec, passed, err := RecordAttempt(ctx, store, "t1", TestSteaks, 85)
		if err != nil {
			t.Fatal(err)
		}
		if !passed || !rec.Passed {
			t.Errorf("85 on attempt 1 must pass: passed=%v rec=%+v", passed, rec)
		}
		if rec.Count != 1 || len(rec.Scores) != 1 {
			t.Errorf("attempt not recorded: %+v", rec)
		}
	})

	t.Run("retake needs 90", func(t *testing.T) {
		store := newMemAttemptStore()
		if _, _, err := RecordAttempt(ctx, store, "t1", TestSteaks, 70); err != nil {
			t.Fatal(err)
		}
		rec, passed, err := RecordAttempt(ctx, store, "t1", TestSteaks, 87)
		if err != nil {
			t.Fatal(err)
		}
		if passed || rec.Passed {
			t.Errorf("87 on a retake must fail: %+v", rec)
		}
		rec, passed, err = RecordAttempt(ctx, store, "t1", TestSteaks, 91)
		if err != nil {
			t.Fatal(err)
		}
		if !passed || !rec.Passed {
			t.Errorf("91 on a retake must pass: %+v", rec)
		}
		if rec.Count != 3 {
			t.Errorf("Count = %d, want 3", rec.Count)
		}
	})

	t.Run("passed flag is sticky", func(t *testing.T) {
		store := newMemAttemptStore()
		store.recs["t1_"+TestSteaks] = AttemptRecord{Count: 1, Scores: []int{90}, Passed: true}
		rec, passed, err := RecordAttempt(ctx, store, "t1", TestSteaks, 10)
		if err != nil {
			t.Fatal(err)
		}
		if passed {
			t.Error("a failing score is not a pass")
		}
		if !rec.Passed {
			t.Error("Passed must stay true once achieved")
		}
	})

	t.Run("three attempts exhaust the test", func(t *testing.T) {
		store := newMemAttemptStore()
		for _, score := range []int{50, 60, 70} {
			if _, _, err := RecordAttempt(ctx, store, "t1", TestSteaks, score); err != nil {
				t.Fatal(err)
			}
		}
		if _, _, err := RecordAttempt(ctx, store, "t1", TestSteaks, 95); errors.Cause(err) != ErrNoAttemptsLeft {
			t.Errorf("error = %v, want %v", err, ErrNoAttemptsLeft)
		}

		// manager reset reopens it
		if err := ResetAttempts(ctx, store, "t1", TestSteaks); err != nil {
			t.Fatal(err)
		}
		rec, passed, err := RecordAttempt(ctx, store, "t1", TestSteaks, 95)
		if err != nil {
			t.Fatal(err)
		}
		if !passed || rec.Count != 1 {
			t.Errorf("reset must clear attempts: passed=%v rec=%+v", passed, rec)
		}
	})

	t.Run("bonus test is never recorded", func(t *testing.T) {
		store := newMemAttemptStore()
		for i := 0; i < 10; i++ {
			if _, _, err := RecordAttempt(ctx, store, "t1", TestBonus, 50); err != nil {
				t.Fatal(err)
			}
		}
		if len(store.recs) != 0 {
			t.Errorf("bonus attempts must not persist, got %d records", len(store.recs))
		}
	})
}

func TestAttemptSet(t *testing.T) {
	ctx := context.Background()
	store := newMemAttemptStore()
	store.recs["t1_"+TestBar] = AttemptRecord{Count: 3, Scores: []int{60, 70, 65}}
	store.recs["t1_"+TestWines] = AttemptRecord{Count: 1, Scores: []int{95}, Passed: true}

	set, err := LoadAttemptSet(ctx, store, "t1")
	if err != nil {
		t.Fatal(err)
	}

	if got := set.Attempts(TestBar).BestScore(); got != 70 {
		t.Errorf("BestScore = %d, want 70", got)
	}
	if set.CanTake(TestBar) {
		t.Error("three attempts must exhaust the bar test")
	}
	if !set.CanTake(TestSteaks) {
		t.Error("untouched test must be open")
	}
	if !set.CanTake(TestBonus) {
		t.Error("bonus test is always open")
	}
	if got := set.RequiredScore(TestSteaks); got != 85 {
		t.Errorf("RequiredScore (fresh) = %d, want 85", got)
	}
	if got := set.RequiredScore(TestBar); got != 90 {
		t.Errorf("RequiredScore (retake) = %d, want 90", got)
	}
	if got := set.RequiredScore(TestBonus); got != 0 {
		t.Errorf("RequiredScore (bonus) = %d, want 0", got)
	}

	// nil store degrades to an empty set
	empty, err := LoadAttemptSet(ctx, nil, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Attempts(TestBar).Count != 0 {
		t.Error("nil store must yield zero records")
	}
}
