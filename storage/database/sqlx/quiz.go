package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/crewhq/brigade/core/quiz"
)

// masteryRepository persists per-trainee card mastery, one row per
// (trainee, card).
type masteryRepository struct {
	db *sqlx.DB
}

var _ quiz.MasteryStore = (*masteryRepository)(nil) // interface compliance check

func NewMasteryRepository(db *sql.DB) *masteryRepository {
	return &masteryRepository{db: sqlx.NewDb(db, "postgres")}
}

type masteryRow struct {
	TraineeID     string    `db:"trainee_id"`
	CardID        string    `db:"card_id"`
	Status        null.String `db:"status"`
	StruggleCount int       `db:"struggle_count"`
	MasteryCount  int       `db:"mastery_count"`
	LastSeen      null.Time `db:"last_seen"`
}

func (repo masteryRepository) fromRow(row masteryRow) quiz.MasteryRecord {
	rec := quiz.MasteryRecord{
		Status:        quiz.MasteryStatus(row.Status.String),
		StruggleCount: row.StruggleCount,
		MasteryCount:  row.MasteryCount,
	}
	if row.LastSeen.Valid {
		t := row.LastSeen.Time
		rec.LastSeen = &t
	}
	return rec
}

func (repo masteryRepository) GetMastery(ctx context.Context, traineeID, cardID string) (quiz.MasteryRecord, error) {
	var row masteryRow
	query := `SELECT trainee_id, card_id, status, struggle_count, mastery_count, last_seen
		FROM mastery_record WHERE trainee_id = $1 AND card_id = $2`
	err := repo.db.GetContext(ctx, &row, query, traineeID, cardID)
	if err == sql.ErrNoRows {
		return quiz.MasteryRecord{}, nil // unseen card: zeroed defaults
	}
	if err != nil {
		return quiz.MasteryRecord{}, errors.Wrap(err, "getting mastery record")
	}
	return repo.fromRow(row), nil
}

func (repo masteryRepository) SaveMastery(ctx context.Context, traineeID, cardID string, rec quiz.MasteryRecord) error {
	query := `
		INSERT INTO mastery_record (trainee_id, card_id, status, struggle_count, mastery_count, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (trainee_id, card_id) DO UPDATE SET
			status = EXCLUDED.status,
			struggle_count = EXCLUDED.struggle_count,
			mastery_count = EXCLUDED.mastery_count,
			last_seen = EXCLUDED.last_seen`
	status := null.NewString(string(rec.Status), rec.Status != quiz.MasteryNone)
	lastSeen := null.TimeFromPtr(rec.LastSeen)
	if _, err := repo.db.ExecContext(ctx, query, traineeID, cardID, status, rec.StruggleCount, rec.MasteryCount, lastSeen); err != nil {
		return errors.Wrap(err, "saving mastery record")
	}
	return nil
}

func (repo masteryRepository) QueryMasteryBySet(ctx context.Context, traineeID, setID string) (map[string]quiz.MasteryRecord, error) {
	var rows []masteryRow
	query := `SELECT trainee_id, card_id, status, struggle_count, mastery_count, last_seen
		FROM mastery_record WHERE trainee_id = $1 AND card_id LIKE $2`
	if err := repo.db.SelectContext(ctx, &rows, query, traineeID, setID+"\\_%"); err != nil {
		return nil, errors.Wrap(err, "querying mastery records")
	}
	recs := make(map[string]quiz.MasteryRecord, len(rows))
	for _, row := range rows {
		recs[row.CardID] = repo.fromRow(row)
	}
	return recs, nil
}

// attemptRepository persists official test attempts, one row per
// (trainee, test).
type attemptRepository struct {
	db *sqlx.DB
}

var _ quiz.AttemptStore = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *sql.DB) *attemptRepository {
	return &attemptRepository{db: sqlx.NewDb(db, "postgres")}
}

type attemptRow struct {
	TraineeID string        `db:"trainee_id"`
	TestID    string        `db:"test_id"`
	Count     int           `db:"count"`
	Scores    pq.Int64Array `db:"scores"`
	Passed    bool          `db:"passed"`
}

func (repo attemptRepository) fromRow(row attemptRow) quiz.AttemptRecord {
	rec := quiz.AttemptRecord{Count: row.Count, Passed: row.Passed}
	rec.Scores = make([]int, 0, len(row.Scores))
	for _, s := range row.Scores {
		rec.Scores = append(rec.Scores, int(s))
	}
	return rec
}

func (repo attemptRepository) GetAttempts(ctx context.Context, traineeID, testID string) (quiz.AttemptRecord, error) {
	var row attemptRow
	query := `SELECT trainee_id, test_id, count, scores, passed FROM test_attempt WHERE trainee_id = $1 AND test_id = $2`
	err := repo.db.GetContext(ctx, &row, query, traineeID, testID)
	if err == sql.ErrNoRows {
		return quiz.AttemptRecord{}, nil
	}
	if err != nil {
		return quiz.AttemptRecord{}, errors.Wrap(err, "getting attempt record")
	}
	return repo.fromRow(row), nil
}

func (repo attemptRepository) SaveAttempts(ctx context.Context, traineeID, testID string, rec quiz.AttemptRecord) error {
	scores := make(pq.Int64Array, 0, len(rec.Scores))
	for _, s := range rec.Scores {
		scores = append(scores, int64(s))
	}
	query := `
		INSERT INTO test_attempt (trainee_id, test_id, count, scores, passed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (trainee_id, test_id) DO UPDATE SET
			count = EXCLUDED.count,
			scores = EXCLUDED.scores,
			passed = EXCLUDED.passed`
	if _, err := repo.db.ExecContext(ctx, query, traineeID, testID, rec.Count, scores, rec.Passed); err != nil {
		return errors.Wrap(err, "saving attempt record")
	}
	return nil
}

func (repo attemptRepository) QueryAttempts(ctx context.Context, traineeID string) (map[string]quiz.AttemptRecord, error) {
	var rows []attemptRow
	query := `SELECT trainee_id, test_id, count, scores, passed FROM test_attempt WHERE trainee_id = $1`
	if err := repo.db.SelectContext(ctx, &rows, query, traineeID); err != nil {
		return nil, errors.Wrap(err, "querying attempt records")
	}
	recs := make(map[string]quiz.AttemptRecord, len(rows))
	for _, row := range rows {
		recs[row.TestID] = repo.fromRow(row)
	}
	return recs, nil
}

func (repo attemptRepository) DeleteAttempts(ctx context.Context, traineeID, testID string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM test_attempt WHERE trainee_id = $1 AND test_id = $2`, traineeID, testID); err != nil {
		return errors.Wrap(err, "deleting attempt record")
	}
	return nil
}

// contentRepository serves authored study content from the content tables,
// falling back to the built-in default catalog while they are empty.
type contentRepository struct {
	db *sqlx.DB
}

var _ quiz.ContentRepository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *sql.DB) *contentRepository {
	return &contentRepository{db: sqlx.NewDb(db, "postgres")}
}

type flashcardRow struct {
	SetID string `db:"set_id"`
	Front string `db:"front"`
	Back  string `db:"back"`
}

type questionRow struct {
	TestID  string         `db:"test_id"`
	Prompt  string         `db:"prompt"`
	Options pq.StringArray `db:"options"`
	Answer  int            `db:"answer"`
}

func (repo contentRepository) GetCardSet(ctx context.Context, setID string) (quiz.CardSet, error) {
	var name string
	err := repo.db.GetContext(ctx, &name, `SELECT name FROM card_set WHERE id = $1`, setID)
	if err == sql.ErrNoRows {
		return defaultCardSet(setID)
	}
	if err != nil {
		return quiz.CardSet{}, errors.Wrap(err, "getting card set")
	}

	var rows []flashcardRow
	query := `SELECT set_id, front, back FROM flashcard WHERE set_id = $1 ORDER BY position`
	if err = repo.db.SelectContext(ctx, &rows, query, setID); err != nil {
		return quiz.CardSet{}, errors.Wrap(err, "querying flashcards")
	}
	set := quiz.CardSet{ID: setID, Name: name, Cards: make([]quiz.Flashcard, 0, len(rows))}
	for _, row := range rows {
		set.Cards = append(set.Cards, quiz.Flashcard{SetID: row.SetID, Front: row.Front, Back: row.Back})
	}
	return set, nil
}

func (repo contentRepository) GetQuestionBank(ctx context.Context, testID string) (quiz.QuestionBank, error) {
	var rows []questionRow
	query := `SELECT test_id, prompt, options, answer FROM quiz_question WHERE test_id = $1 ORDER BY position`
	if err := repo.db.SelectContext(ctx, &rows, query, testID); err != nil {
		return quiz.QuestionBank{}, errors.Wrap(err, "querying quiz questions")
	}
	if len(rows) == 0 {
		return defaultQuestionBank(testID)
	}

	tst, _ := quiz.TestByID(testID)
	bank := quiz.QuestionBank{TestID: testID, SetID: tst.SetID, Questions: make([]quiz.Question, 0, len(rows))}
	for _, row := range rows {
		bank.Questions = append(bank.Questions, quiz.Question{Prompt: row.Prompt, Options: row.Options, Answer: row.Answer})
	}
	return bank, nil
}

func defaultCardSet(setID string) (quiz.CardSet, error) {
	for _, set := range quiz.DefaultCardSets() {
		if set.ID == setID {
			return set, nil
		}
	}
	return quiz.CardSet{}, quiz.ErrContentNotFound
}

func defaultQuestionBank(testID string) (quiz.QuestionBank, error) {
	for _, bank := range quiz.DefaultQuestionBanks() {
		if bank.TestID == testID {
			return bank, nil
		}
	}
	return quiz.QuestionBank{}, quiz.ErrContentNotFound
}
