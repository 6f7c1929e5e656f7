package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// Official test catalog. IDs are stable and shared with persisted attempt
// records; titles are what managers and the shift→test keyword rules see.
const (
	TestSteaks = "steaks_test"
	TestBar    = "bar_test"
	TestWines  = "wines_test"
	TestSoups  = "soups_test"
	TestBonus  = "bonus_test" // unlimited practice test, never required
)

type Test struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	SetID string `json:"set_id"` // flashcard set backing this test
	Bonus bool   `json:"bonus"`
}

// Catalog lists all known tests in their fixed display order. The order is
// load-bearing: the legacy risk engine emits failure drivers in this order.
var Catalog = []Test{
	{ID: TestSteaks, Title: "Steaks Test", SetID: "steaks"},
	{ID: TestBar, Title: "Bar & Beer Test", SetID: "bar"},
	{ID: TestWines, Title: "Wines Test", SetID: "wines"},
	{ID: TestSoups, Title: "Soups Test", SetID: "soups"},
	{ID: TestBonus, Title: "Bonus Practice Test", SetID: "bonus", Bonus: true},
}

// OfficialTestIDs are the four scored tests, in catalog order.
var OfficialTestIDs = []string{TestSteaks, TestBar, TestWines, TestSoups}

func TestByID(id string) (Test, bool) {
	for _, tst := range Catalog {
		if tst.ID == id {
			return tst, true
		}
	}
	return Test{}, false
}

func IsBonusTest(id string) bool {
	tst, ok := TestByID(id)
	return ok && tst.Bonus
}

type (
	Flashcard struct {
		SetID string `json:"set_id"`
		Front string `json:"front"`
		Back  string `json:"back"`
	}

	CardSet struct {
		ID    string      `json:"id"`
		Name  string      `json:"name"`
		Cards []Flashcard `json:"cards"`
	}

	Question struct {
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
		Answer  int      `json:"answer"` // index into Options
	}

	QuestionBank struct {
		TestID    string     `json:"test_id"`
		SetID     string     `json:"set_id"`
		Questions []Question `json:"questions"`
	}
)

func (c Flashcard) ID() string {
	return CardID(c.SetID, c.Front, c.Back)
}

// CardID returns a deterministic card identifier, stable across reloads and
// devices. The set prefix makes per-set prefix queries possible on plain
// key-value mastery storage.
func CardID(setID, front, back string) string {
	h := sha1.New()
	h.Write([]byte(setID))
	h.Write([]byte{0})
	h.Write([]byte(front))
	h.Write([]byte{0})
	h.Write([]byte(back))
	return setID + "_" + hex.EncodeToString(h.Sum(nil))[:10]
}

type (
	MasteryStatus string

	ReviewResult string

	// MasteryRecord is the per-trainee-per-card spaced-practice state.
	// Status is sticky: it only changes when a review result overwrites it.
	MasteryRecord struct {
		Status        MasteryStatus `json:"status"`
		StruggleCount int           `json:"struggleCount"`
		MasteryCount  int           `json:"masteryCount"`
		LastSeen      *time.Time    `json:"lastSeen,omitempty"`
	}

	// AttemptRecord tracks official test attempts for one trainee+test.
	// Passed is sticky once achieved; only an explicit manager reset clears it.
	AttemptRecord struct {
		Count  int   `json:"count"`
		Scores []int `json:"scores"`
		Passed bool  `json:"passed"`
	}
)

const (
	MasteryNone     MasteryStatus = ""
	MasteryStruggle MasteryStatus = "struggle"
	MasteryMastered MasteryStatus = "mastered"

	ResultNeedsPractice ReviewResult = "needsPractice"
	ResultGotIt         ReviewResult = "gotIt"
)

// masteredAfter is the mastery-count threshold past which a card flips to
// mastered (strictly greater than, i.e. the 3rd consecutive "got it").
const masteredAfter = 2

// Apply returns the record after one review result. Any "needs practice"
// immediately forces struggle status regardless of history.
func (r MasteryRecord) Apply(result ReviewResult, now time.Time) MasteryRecord {
	switch result {
	case ResultNeedsPractice:
		r.StruggleCount++
		r.Status = MasteryStruggle
	case ResultGotIt:
		r.MasteryCount++
		if r.MasteryCount > masteredAfter {
			r.Status = MasteryMastered
		}
	}
	r.LastSeen = &now
	return r
}

func (r AttemptRecord) BestScore() int {
	var best int
	for _, s := range r.Scores {
		if s > best {
			best = s
		}
	}
	return best
}
