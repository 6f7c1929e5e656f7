package inmemdb

import (
	"context"
	"strings"

	"github.com/crewhq/brigade/core/quiz"
)

type masteryRepository struct {
	db *DB
}

var _ quiz.MasteryStore = (*masteryRepository)(nil) // interface compliance check

func NewMasteryRepository(db *DB) *masteryRepository {
	return &masteryRepository{db: db}
}

func (repo *masteryRepository) GetMastery(_ context.Context, traineeID, cardID string) (quiz.MasteryRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.mastery[traineeID+"_"+cardID], nil
}

func (repo *masteryRepository) SaveMastery(_ context.Context, traineeID, cardID string, rec quiz.MasteryRecord) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.mastery[traineeID+"_"+cardID] = rec
	return nil
}

func (repo *masteryRepository) QueryMasteryBySet(_ context.Context, traineeID, setID string) (map[string]quiz.MasteryRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make(map[string]quiz.MasteryRecord)
	keyPrefix := traineeID + "_"
	cardPrefix := setID + "_"
	for key, rec := range repo.db.mastery {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		cardID := key[len(keyPrefix):]
		if strings.HasPrefix(cardID, cardPrefix) {
			recs[cardID] = rec
		}
	}
	return recs, nil
}

type attemptRepository struct {
	db *DB
}

var _ quiz.AttemptStore = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *DB) *attemptRepository {
	return &attemptRepository{db: db}
}

func (repo *attemptRepository) GetAttempts(_ context.Context, traineeID, testID string) (quiz.AttemptRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.attempts[traineeID+"_"+testID], nil
}

func (repo *attemptRepository) SaveAttempts(_ context.Context, traineeID, testID string, rec quiz.AttemptRecord) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.attempts[traineeID+"_"+testID] = rec
	return nil
}

func (repo *attemptRepository) QueryAttempts(_ context.Context, traineeID string) (map[string]quiz.AttemptRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recs := make(map[string]quiz.AttemptRecord)
	prefix := traineeID + "_"
	for key, rec := range repo.db.attempts {
		if strings.HasPrefix(key, prefix) {
			recs[key[len(prefix):]] = rec
		}
	}
	return recs, nil
}

func (repo *attemptRepository) DeleteAttempts(_ context.Context, traineeID, testID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.attempts, traineeID+"_"+testID)
	return nil
}

// contentRepository serves the built-in default catalog.
type contentRepository struct{}

var _ quiz.ContentRepository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository() *contentRepository {
	return &contentRepository{}
}

func (repo *contentRepository) GetCardSet(_ context.Context, setID string) (quiz.CardSet, error) {
	for _, set := range quiz.DefaultCardSets() {
		if set.ID == setID {
			return set, nil
		}
	}
	return quiz.CardSet{}, quiz.ErrContentNotFound
}

func (repo *contentRepository) GetQuestionBank(_ context.Context, testID string) (quiz.QuestionBank, error) {
	for _, bank := range quiz.DefaultQuestionBanks() {
		if bank.TestID == testID {
			return bank, nil
		}
	}
	return quiz.QuestionBank{}, quiz.ErrContentNotFound
}
