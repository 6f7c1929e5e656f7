package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/crewhq/brigade/core/training"
)

// trainingRepository stores the whole training document as one JSONB row.
// Saves replace the document wholesale: concurrent writers are
// last-write-wins, matching the document data model.
type trainingRepository struct {
	db *sqlx.DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *sql.DB) *trainingRepository {
	return &trainingRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo trainingRepository) GetTrainingData(ctx context.Context) (training.Data, error) {
	var raw []byte
	err := repo.db.GetContext(ctx, &raw, `SELECT doc FROM training_data WHERE id = 1`)
	if err == sql.ErrNoRows {
		return training.Data{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting training data")
	}

	data := training.Data{}
	if err = json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "decoding training data")
	}
	return data, nil
}

func (repo trainingRepository) SaveTrainingData(ctx context.Context, data training.Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding training data")
	}
	query := `
		INSERT INTO training_data (id, doc, updated_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`
	if _, err = repo.db.ExecContext(ctx, query, raw, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "saving training data")
	}
	return nil
}
