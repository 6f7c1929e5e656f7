package quiz

import (
	"context"

	"github.com/pkg/errors"
)

// scoring thresholds for official tests
const (
	firstAttemptScore = 85 // percent required on the first try
	retakeScore       = 90 // percent required on every retake
	maxAttempts       = 3  // official attempts before a manager reset is needed
)

var ErrNoAttemptsLeft = errors.New("no test attempts left")

// AttemptStore persists official test attempts, keyed by trainee and test.
// Implementations return a zero AttemptRecord for unknown keys.
type AttemptStore interface {
	GetAttempts(ctx context.Context, traineeID, testID string) (AttemptRecord, error)
	SaveAttempts(ctx context.Context, traineeID, testID string, rec AttemptRecord) error
	QueryAttempts(ctx context.Context, traineeID string) (map[string]AttemptRecord, error)
	DeleteAttempts(ctx context.Context, traineeID, testID string) error
}

// AttemptSet is an in-memory snapshot of one trainee's attempts across all
// tests. It backs the completion and risk engines, which need synchronous
// lookups over consistent data.
type AttemptSet struct {
	TraineeID string
	Records   map[string]AttemptRecord
}

func LoadAttemptSet(ctx context.Context, store AttemptStore, traineeID string) (AttemptSet, error) {
	set := AttemptSet{TraineeID: traineeID}
	if store == nil || traineeID == "" {
		return set, nil
	}
	recs, err := store.QueryAttempts(ctx, traineeID)
	if err != nil {
		return set, errors.Wrap(err, "querying attempts")
	}
	set.Records = recs
	return set, nil
}

func (s AttemptSet) Attempts(testID string) AttemptRecord {
	return s.Records[testID]
}

// RequiredScore returns the passing threshold for the trainee's next (or
// latest) attempt on a test. Bonus tests are ungraded.
func (s AttemptSet) RequiredScore(testID string) int {
	if IsBonusTest(testID) {
		return 0
	}
	if s.Records[testID].Count == 0 {
		return firstAttemptScore
	}
	return retakeScore
}

// CanTake reports whether the trainee has official attempts left. Bonus
// tests are always open.
func (s AttemptSet) CanTake(testID string) bool {
	if IsBonusTest(testID) {
		return true
	}
	return s.Records[testID].Count < maxAttempts
}

// RequiredScoreFor returns the threshold given a prior attempt count.
func RequiredScoreFor(testID string, priorAttempts int) int {
	if IsBonusTest(testID) {
		return 0
	}
	if priorAttempts == 0 {
		return firstAttemptScore
	}
	return retakeScore
}

// RecordAttempt appends one graded official attempt. The threshold in
// force is the one for the attempt being recorded, so a first try passes
// at 85 even though any retake would need 90. Bonus tests are not
// recorded. Returns the updated record and whether this attempt passed.
func RecordAttempt(ctx context.Context, store AttemptStore, traineeID, testID string, score int) (AttemptRecord, bool, error) {
	if IsBonusTest(testID) {
		return AttemptRecord{}, score >= firstAttemptScore, nil
	}
	rec, err := store.GetAttempts(ctx, traineeID, testID)
	if err != nil {
		return AttemptRecord{}, false, errors.Wrap(err, "getting attempts")
	}
	if rec.Count >= maxAttempts {
		return rec, false, ErrNoAttemptsLeft
	}
	passed := score >= RequiredScoreFor(testID, rec.Count)
	rec.Count++
	rec.Scores = append(rec.Scores, score)
	if passed {
		rec.Passed = true
	}
	if err = store.SaveAttempts(ctx, traineeID, testID, rec); err != nil {
		return AttemptRecord{}, false, errors.Wrap(err, "saving attempts")
	}
	return rec, passed, nil
}

// ResetAttempts clears a trainee's attempts on one test, reopening it.
// Manager-only at the API layer.
func ResetAttempts(ctx context.Context, store AttemptStore, traineeID, testID string) error {
	if err := store.DeleteAttempts(ctx, traineeID, testID); err != nil {
		return errors.Wrap(err, "deleting attempts")
	}
	return nil
}
