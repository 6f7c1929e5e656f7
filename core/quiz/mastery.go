package quiz

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var nowFunc = time.Now // mockable

// MasteryStore persists per-trainee card mastery, keyed by trainee and
// card. Implementations return a zero MasteryRecord for unknown keys.
type MasteryStore interface {
	GetMastery(ctx context.Context, traineeID, cardID string) (MasteryRecord, error)
	SaveMastery(ctx context.Context, traineeID, cardID string, rec MasteryRecord) error
	// QueryMasteryBySet returns all of a trainee's records whose card ID
	// carries the given set prefix, keyed by card ID.
	QueryMasteryBySet(ctx context.Context, traineeID, setID string) (map[string]MasteryRecord, error)
}

// MasterySession binds a mastery store to one trainee. An empty trainee ID
// models a logged-out session: reads return zero records and writes are
// silently dropped, so review flows never branch on auth state.
type MasterySession struct {
	store     MasteryStore
	traineeID string
}

func NewMasterySession(store MasteryStore, traineeID string) MasterySession {
	return MasterySession{store: store, traineeID: traineeID}
}

func (s MasterySession) GetMastery(ctx context.Context, cardID string) (MasteryRecord, error) {
	if s.traineeID == "" {
		return MasteryRecord{}, nil
	}
	rec, err := s.store.GetMastery(ctx, s.traineeID, cardID)
	if err != nil {
		return MasteryRecord{}, errors.Wrap(err, "getting mastery")
	}
	return rec, nil
}

// RecordResult applies one review result and persists the updated record.
func (s MasterySession) RecordResult(ctx context.Context, cardID string, result ReviewResult) (MasteryRecord, error) {
	if s.traineeID == "" {
		return MasteryRecord{}, nil
	}
	rec, err := s.store.GetMastery(ctx, s.traineeID, cardID)
	if err != nil {
		return MasteryRecord{}, errors.Wrap(err, "getting mastery")
	}
	rec = rec.Apply(result, nowFunc())
	if err = s.store.SaveMastery(ctx, s.traineeID, cardID, rec); err != nil {
		return MasteryRecord{}, errors.Wrap(err, "saving mastery")
	}
	return rec, nil
}

// SetMastery queries a trainee's mastery for a whole card set.
func (s MasterySession) SetMastery(ctx context.Context, setID string) (map[string]MasteryRecord, error) {
	if s.traineeID == "" {
		return map[string]MasteryRecord{}, nil
	}
	recs, err := s.store.QueryMasteryBySet(ctx, s.traineeID, setID)
	if err != nil {
		return nil, errors.Wrap(err, "querying mastery")
	}
	return recs, nil
}
