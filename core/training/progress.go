package training

import (
	"math"

	"github.com/crewhq/brigade/core/quiz"
)

// AttemptLookup exposes a trainee's official test attempts to the
// completion engine. quiz.AttemptSet satisfies it.
type AttemptLookup interface {
	Attempts(testID string) quiz.AttemptRecord
	RequiredScore(testID string) int
}

// ShiftState is the display status of one shift, ordered from least to
// most complete.
type ShiftState string

const (
	StateNotScheduled  ShiftState = "Not scheduled"
	StateScheduled     ShiftState = "Scheduled"
	StateTrainerSigned ShiftState = "Trainer signed"
	StateManagerSigned ShiftState = "Manager signed"
	StateComplete      ShiftState = "Complete"
)

type ShiftStatus struct {
	Key             ShiftKey   `json:"key"`
	Label           string     `json:"label"`
	State           ShiftState `json:"state"`
	RequiredTests   []string   `json:"requiredTests,omitempty"`
	MissingTests    []string   `json:"missingTests,omitempty"`
	*ShiftAssignment `json:"assignment,omitempty"`
}

type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
	Pct   int `json:"pct"`
}

// testPassed reports whether a trainee has cleared a test, either through
// a result folded into the record or through the attempt store.
func testPassed(rec Record, attempts AttemptLookup, testID string) bool {
	for _, tr := range rec.TestResults {
		if tr.TestID == testID && tr.Passed {
			return true
		}
	}
	if attempts == nil {
		return false
	}
	ar := attempts.Attempts(testID)
	if ar.Passed {
		return true
	}
	return ar.Count > 0 && ar.BestScore() >= attempts.RequiredScore(testID)
}

// IsShiftComplete reports whether a shift counts toward certification:
// both signatures present and every gating test passed.
func IsShiftComplete(rec Record, key ShiftKey, attempts AttemptLookup) bool {
	sa := rec.Schedule[key]
	if sa == nil || sa.TrainerSignedAt == nil || sa.ManagerSignedAt == nil {
		return false
	}
	for _, testID := range RequiredTests(key) {
		if !testPassed(rec, attempts, testID) {
			return false
		}
	}
	return true
}

// GetShiftStatus computes the display status of one shift.
func GetShiftStatus(rec Record, key ShiftKey, attempts AttemptLookup) ShiftStatus {
	st := ShiftStatus{
		Key:             key,
		Label:           ShiftLabel(key),
		State:           StateNotScheduled,
		RequiredTests:   RequiredTests(key),
		ShiftAssignment: rec.Schedule[key],
	}
	for _, testID := range st.RequiredTests {
		if !testPassed(rec, attempts, testID) {
			st.MissingTests = append(st.MissingTests, testID)
		}
	}
	sa := st.ShiftAssignment
	if sa == nil {
		return st
	}
	switch {
	case sa.ManagerSignedAt != nil && len(st.MissingTests) == 0:
		st.State = StateComplete
	case sa.ManagerSignedAt != nil:
		st.State = StateManagerSigned
	case sa.TrainerSignedAt != nil:
		st.State = StateTrainerSigned
	default:
		st.State = StateScheduled
	}
	return st
}

// CertificationProgress counts completed required shifts. The cert shift
// never enters the denominator.
func CertificationProgress(rec Record, attempts AttemptLookup) Progress {
	p := Progress{Total: len(RequiredShiftKeys)}
	for _, key := range RequiredShiftKeys {
		if IsShiftComplete(rec, key, attempts) {
			p.Done++
		}
	}
	if p.Total > 0 {
		p.Pct = int(math.Round(float64(p.Done) / float64(p.Total) * 100))
	}
	return p
}

// IsCertifiable reports whether every required shift is complete.
func IsCertifiable(rec Record, attempts AttemptLookup) bool {
	p := CertificationProgress(rec, attempts)
	return p.Done == p.Total
}

// ComplianceReport is the store-level dual-signature summary: of all
// trainer-signed shifts, how many also carry the manager signature.
type ComplianceReport struct {
	TotalTrainerSigned int `json:"totalTrainerSigned"`
	DualSigned         int `json:"dualSigned"`
	CompliancePct      int `json:"compliancePct"`
}

// ComplianceStats aggregates dual-signature compliance over active
// trainees, optionally filtered by store. No trainer-signed shifts at all
// reads as fully compliant.
func ComplianceStats(data Data, store string) ComplianceReport {
	var rep ComplianceReport
	for _, rec := range data {
		if rec.Archived {
			continue
		}
		if store != "" && rec.Store != store {
			continue
		}
		for _, sa := range rec.Schedule {
			if sa == nil || sa.TrainerSignedAt == nil {
				continue
			}
			rep.TotalTrainerSigned++
			if sa.ManagerSignedAt != nil {
				rep.DualSigned++
			}
		}
	}
	if rep.TotalTrainerSigned > 0 {
		rep.CompliancePct = int(math.Round(float64(rep.DualSigned) / float64(rep.TotalTrainerSigned) * 100))
	} else {
		rep.CompliancePct = 100
	}
	return rep
}
