package quiz

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var ErrContentNotFound = errors.New("quiz content not found")

type (
	// ContentRepository serves the authored study content: flashcard sets
	// and the question banks behind each test.
	ContentRepository interface {
		GetCardSet(ctx context.Context, setID string) (CardSet, error)
		GetQuestionBank(ctx context.Context, testID string) (QuestionBank, error)
	}

	// OfficialTest is an assembled test handed to the client for taking.
	// Indices point back into the question bank so grading and review can
	// reference the source questions.
	OfficialTest struct {
		TestID        string     `json:"testId"`
		Attempt       int        `json:"attempt"` // 1-based
		RequiredScore int        `json:"requiredScore"`
		Questions     []Question `json:"questions"`
		Indices       []int      `json:"indices"`
	}

	// PracticeQuestion is one infinite-practice pick.
	PracticeQuestion struct {
		Index    int      `json:"index"`
		Question Question `json:"question"`
		CardID   string   `json:"cardId,omitempty"`
	}

	Service interface {
		Tests() []Test
		CardSet(ctx context.Context, setID string) (CardSet, error)

		GetMastery(ctx context.Context, traineeID, cardID string) (MasteryRecord, error)
		ReviewCard(ctx context.Context, traineeID, cardID string, result ReviewResult) (MasteryRecord, error)
		StruggleCards(ctx context.Context, traineeID, setID string) ([]string, error)
		MasteredCards(ctx context.Context, traineeID, setID string) ([]string, error)

		BuildOfficialTest(ctx context.Context, traineeID, testID string) (OfficialTest, error)
		NextPracticeQuestion(ctx context.Context, traineeID, testID string, history []int) (PracticeQuestion, error)
		RecordScore(ctx context.Context, traineeID, testID string, score int) (AttemptRecord, bool, error)
		ResetAttempts(ctx context.Context, traineeID, testID string) error
		Attempts(ctx context.Context, traineeID string) (AttemptSet, error)
	}

	service struct {
		content  ContentRepository
		mastery  MasteryStore
		attempts AttemptStore

		mu  sync.Mutex // guards rng
		rng *rand.Rand
	}
)

var _ Service = (*service)(nil)

func NewService(content ContentRepository, mastery MasteryStore, attempts AttemptStore) Service {
	return &service{
		content:  content,
		mastery:  mastery,
		attempts: attempts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (svc *service) Tests() []Test {
	return Catalog
}

func (svc *service) CardSet(ctx context.Context, setID string) (CardSet, error) {
	return svc.content.GetCardSet(ctx, setID)
}

func (svc *service) GetMastery(ctx context.Context, traineeID, cardID string) (MasteryRecord, error) {
	return NewMasterySession(svc.mastery, traineeID).GetMastery(ctx, cardID)
}

func (svc *service) ReviewCard(ctx context.Context, traineeID, cardID string, result ReviewResult) (MasteryRecord, error) {
	return NewMasterySession(svc.mastery, traineeID).RecordResult(ctx, cardID, result)
}

func (svc *service) StruggleCards(ctx context.Context, traineeID, setID string) ([]string, error) {
	return svc.cardsByStatus(ctx, traineeID, setID, MasteryStruggle)
}

func (svc *service) MasteredCards(ctx context.Context, traineeID, setID string) ([]string, error) {
	return svc.cardsByStatus(ctx, traineeID, setID, MasteryMastered)
}

func (svc *service) cardsByStatus(ctx context.Context, traineeID, setID string, status MasteryStatus) ([]string, error) {
	recs, err := NewMasterySession(svc.mastery, traineeID).SetMastery(ctx, setID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for id, rec := range recs {
		if rec.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// candidates links a test's question bank to its card set and stamps the
// trainee's mastery on each question.
func (svc *service) candidates(ctx context.Context, traineeID, testID string) ([]Candidate, error) {
	tst, ok := TestByID(testID)
	if !ok {
		return nil, ErrContentNotFound
	}
	bank, err := svc.content.GetQuestionBank(ctx, testID)
	if err != nil {
		return nil, err
	}
	set, err := svc.content.GetCardSet(ctx, tst.SetID)
	if err != nil {
		return nil, err
	}
	cands := LinkQuestions(bank, set)
	recs, err := NewMasterySession(svc.mastery, traineeID).SetMastery(ctx, tst.SetID)
	if err != nil {
		return nil, err
	}
	return Classify(cands, recs), nil
}

func (svc *service) BuildOfficialTest(ctx context.Context, traineeID, testID string) (OfficialTest, error) {
	set, err := LoadAttemptSet(ctx, svc.attempts, traineeID)
	if err != nil {
		return OfficialTest{}, err
	}
	if !set.CanTake(testID) {
		return OfficialTest{}, ErrNoAttemptsLeft
	}

	cands, err := svc.candidates(ctx, traineeID, testID)
	if err != nil {
		return OfficialTest{}, err
	}
	prior := set.Attempts(testID).Count

	svc.mu.Lock()
	picked := BuildOfficialTest(cands, prior, svc.rng)
	svc.mu.Unlock()

	tst := OfficialTest{
		TestID:        testID,
		Attempt:       prior + 1,
		RequiredScore: RequiredScoreFor(testID, prior),
		Questions:     make([]Question, 0, len(picked)),
		Indices:       make([]int, 0, len(picked)),
	}
	for _, c := range picked {
		tst.Questions = append(tst.Questions, c.Question)
		tst.Indices = append(tst.Indices, c.Index)
	}
	return tst, nil
}

func (svc *service) NextPracticeQuestion(ctx context.Context, traineeID, testID string, history []int) (PracticeQuestion, error) {
	cands, err := svc.candidates(ctx, traineeID, testID)
	if err != nil {
		return PracticeQuestion{}, err
	}

	svc.mu.Lock()
	idx := NextInfiniteQuestion(cands, history, svc.rng)
	svc.mu.Unlock()

	if idx < 0 {
		return PracticeQuestion{}, ErrContentNotFound
	}
	for _, c := range cands {
		if c.Index == idx {
			return PracticeQuestion{Index: c.Index, Question: c.Question, CardID: c.CardID}, nil
		}
	}
	return PracticeQuestion{}, ErrContentNotFound
}

func (svc *service) RecordScore(ctx context.Context, traineeID, testID string, score int) (AttemptRecord, bool, error) {
	return RecordAttempt(ctx, svc.attempts, traineeID, testID, score)
}

func (svc *service) ResetAttempts(ctx context.Context, traineeID, testID string) error {
	return ResetAttempts(ctx, svc.attempts, traineeID, testID)
}

func (svc *service) Attempts(ctx context.Context, traineeID string) (AttemptSet, error) {
	return LoadAttemptSet(ctx, svc.attempts, traineeID)
}
