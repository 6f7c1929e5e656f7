package inmemdb

import (
	"context"

	"github.com/crewhq/brigade/core/training"
)

type trainingRepository struct {
	db *DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *DB) *trainingRepository {
	return &trainingRepository{db: db}
}

func (repo *trainingRepository) GetTrainingData(_ context.Context) (training.Data, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	// hand out a copy of the map; records inside are shared, matching the
	// copy-on-write discipline of the workflow functions
	data := make(training.Data, len(repo.db.trainingData))
	for k, v := range repo.db.trainingData {
		data[k] = v
	}
	return data, nil
}

func (repo *trainingRepository) SaveTrainingData(_ context.Context, data training.Data) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	next := make(training.Data, len(data))
	for k, v := range data {
		next[k] = v
	}
	repo.db.trainingData = next
	return nil
}
