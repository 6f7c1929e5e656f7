// Package inmemdb provides in-memory repositories backing the service
// interfaces, used by tests and local tooling.
package inmemdb

import (
	"sync"

	"github.com/crewhq/brigade/core/quiz"
	"github.com/crewhq/brigade/core/training"
	"github.com/crewhq/brigade/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users        map[string]*user.User
	trainingData training.Data
	mastery      map[string]quiz.MasteryRecord // key: traineeID + "_" + cardID
	attempts     map[string]quiz.AttemptRecord // key: traineeID + "_" + testID
}

func NewDB() *DB {
	return &DB{
		users:        make(map[string]*user.User),
		trainingData: training.Data{},
		mastery:      make(map[string]quiz.MasteryRecord),
		attempts:     make(map[string]quiz.AttemptRecord),
	}
}
