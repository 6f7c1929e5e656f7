// Package risk derives falling-behind indicators from a trainee's training
// record and official test attempts. Two scoring engines coexist on
// purpose: the simple 0-100 score drives the trainee list, while the
// legacy unbounded score with its driver strings feeds the org dashboard.
// They disagree in places; both behaviors are preserved as is.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/crewhq/brigade/core/quiz"
	"github.com/crewhq/brigade/core/training"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Assessment is the simple engine's output: 0-100, higher is worse.
type Assessment struct {
	Score int   `json:"score"`
	Level Level `json:"level"`
}

// simple engine buckets
const (
	failingScore = 85

	simpleHighAt   = 50
	simpleMediumAt = 25
)

// Score computes the simple risk score from certification progress and
// schedule staleness. A record with no schedule activity at all reads as
// maximally stale.
func Score(rec training.Record, attempts training.AttemptLookup, now time.Time) Assessment {
	var score int

	prog := training.CertificationProgress(rec, attempts)
	switch {
	case prog.Pct < 25:
		score += 40
	case prog.Pct < 50:
		score += 25
	case prog.Pct < 75:
		score += 10
	}

	var staleDays float64
	if last := rec.ScheduleActivity(); last.IsZero() {
		staleDays = math.Inf(1)
	} else {
		staleDays = now.Sub(last).Hours() / 24
	}
	switch {
	case staleDays > 30:
		score += 35
	case staleDays > 14:
		score += 20
	case staleDays > 7:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	level := LevelLow
	switch {
	case score >= simpleHighAt:
		level = LevelHigh
	case score >= simpleMediumAt:
		level = LevelMedium
	}
	return Assessment{Score: score, Level: level}
}

// LegacyAssessment is the legacy engine's output: additive and unbounded,
// with ordered human-readable drivers. Driver wording is displayed
// verbatim by dashboards and must stay stable.
type LegacyAssessment struct {
	Score   int      `json:"score"`
	Level   Level    `json:"level"`
	Drivers []string `json:"drivers"`
}

// legacy engine factors
const (
	legacyStallDays  = 5
	legacyStallPts   = 20
	legacyFailPts    = 15
	legacyRetakePts  = 10
	legacyRetakeOver = 2

	legacyHighOver   = 60
	legacyMediumOver = 30
)

const stallDriver = "No recent activity"
const retakeDriver = "High retakes"

// LegacyScore computes the legacy risk score. Unlike the simple engine it
// reads the official test attempts directly: +15 per failed test (best
// score in (0,85)), +10 flat for any test with more than two attempts,
// +20 when nothing happened for over five days. Activity here also counts
// last login and start date.
func LegacyScore(rec training.Record, attempts training.AttemptLookup, now time.Time) LegacyAssessment {
	la := LegacyAssessment{Drivers: []string{}}

	stalled := true
	if last := rec.LastActivity(); !last.IsZero() {
		stalled = now.Sub(last).Hours()/24 > legacyStallDays
	}
	if stalled {
		la.Score += legacyStallPts
		la.Drivers = append(la.Drivers, stallDriver)
	}

	if attempts == nil {
		attempts = quiz.AttemptSet{}
	}
	var anyRetakes bool
	for _, testID := range quiz.OfficialTestIDs {
		ar := attempts.Attempts(testID)
		if best := ar.BestScore(); best > 0 && best < failingScore {
			la.Score += legacyFailPts
			tst, _ := quiz.TestByID(testID)
			la.Drivers = append(la.Drivers, fmt.Sprintf("Failed %s", tst.Title))
		}
		if ar.Count > legacyRetakeOver {
			anyRetakes = true
		}
	}
	if anyRetakes {
		la.Score += legacyRetakePts
		la.Drivers = append(la.Drivers, retakeDriver)
	}

	la.Level = LevelLow
	switch {
	case la.Score > legacyHighOver:
		la.Level = LevelHigh
	case la.Score > legacyMediumOver:
		la.Level = LevelMedium
	}
	return la
}

// Readiness averages the manager-facing shift ratings across all of a
// trainee's checklists on the 1-3 scale: managerScore when present,
// otherwise the mean of the rated readiness fields. Nil when no shift
// carries either.
func Readiness(rec training.Record) *float64 {
	var sum float64
	var n int
	for _, ci := range rec.Checklists {
		if ci == nil {
			continue
		}
		switch {
		case ci.ManagerScore != nil:
			sum += *ci.ManagerScore
			n++
		case ci.Readiness != nil:
			if avg := ci.Readiness.Average(); avg != nil {
				sum += *avg
				n++
			}
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// OutOfFive rescales a 1-3 readiness average to the 5-point display scale.
func OutOfFive(readiness *float64) *float64 {
	if readiness == nil {
		return nil
	}
	scaled := *readiness / 3 * 5
	return &scaled
}
