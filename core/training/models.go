package training

import (
	"time"

	"github.com/google/uuid"

	"github.com/crewhq/brigade/core"
)

type (
	// Data is the whole-store training document, keyed by trainee ID.
	// It is loaded, patched and saved as a unit; concurrent saves are
	// last-write-wins (see Repository).
	Data map[string]Record

	// Record is one trainee's complete training state.
	Record struct {
		ID             string                          `json:"id"`
		Name           string                          `json:"name"`
		EmployeeNumber string                          `json:"employeeNumber"`
		Store          string                          `json:"store"`
		Archived       bool                            `json:"archived"`
		Certified      bool                            `json:"certified"`
		StartDate      *time.Time                      `json:"startDate,omitempty"`
		LastLogin      *time.Time                      `json:"lastLogin,omitempty"`
		Schedule       map[ShiftKey]*ShiftAssignment   `json:"schedule"`
		TestResults    []TestResult                    `json:"testResults,omitempty"`
		Checklists     map[ShiftKey]*ChecklistInstance `json:"checklists,omitempty"`
		TrainerRatings map[ShiftKey]*Readiness         `json:"trainerRatings,omitempty"`
		ShiftFeedback  map[ShiftKey]string             `json:"shiftFeedback,omitempty"`
		Notes          []Note                          `json:"notes,omitempty"`
		Audit          []AuditEntry                    `json:"audit,omitempty"`
		VerbalCert     *VerbalCertState                `json:"verbalCert,omitempty"`
	}

	// ShiftAssignment is one schedule slot. An empty Trainer with a set
	// PendingTrainer means a claim awaiting manager review.
	ShiftAssignment struct {
		When            *time.Time `json:"when,omitempty"`
		Trainer         string     `json:"trainer,omitempty"`
		PendingTrainer  string     `json:"pendingTrainer,omitempty"`
		PendingAt       *time.Time `json:"pendingAt,omitempty"`
		TrainerSignedBy string     `json:"trainerSignedBy,omitempty"`
		TrainerSignedAt *time.Time `json:"trainerSignedAt,omitempty"`
		ManagerSignedBy string     `json:"managerSignedBy,omitempty"`
		ManagerSignedAt *time.Time `json:"managerSignedAt,omitempty"`
	}

	// ChecklistInstance collects the per-shift evaluation artifacts.
	ChecklistInstance struct {
		Items        map[string]bool `json:"items,omitempty"`
		Readiness    *Readiness      `json:"readiness,omitempty"`
		ManagerScore *float64        `json:"managerScore,omitempty"`
	}

	// Readiness is a trainer's 1-3 rating triple. A zero field means
	// "not rated" and is excluded from averages.
	Readiness struct {
		Knowledge  int `json:"knowledge,omitempty"`
		Execution  int `json:"execution,omitempty"`
		Confidence int `json:"confidence,omitempty"`
	}

	// TestResult is an official test outcome folded into the training
	// record for display; the attempt store remains the source of truth
	// for attempt counts and retake gating.
	TestResult struct {
		TestID string     `json:"testId"`
		Score  int        `json:"score"`
		Passed bool       `json:"passed"`
		At     *time.Time `json:"at,omitempty"`
	}

	Note struct {
		ID   string    `json:"id"`
		By   string    `json:"by"`
		At   time.Time `json:"at"`
		Text string    `json:"text"`
	}

	AuditEntry struct {
		ID     string    `json:"id"`
		At     time.Time `json:"at"`
		By     string    `json:"by"`
		Action string    `json:"action"`
		Shift  ShiftKey  `json:"shift,omitempty"`
	}

	VerbalCertState struct {
		Passed bool       `json:"passed"`
		By     string     `json:"by,omitempty"`
		At     *time.Time `json:"at,omitempty"`
	}
)

// audit action names, persisted in records
const (
	actionClaim        = "shift.claim"
	actionApproveClaim = "shift.claim.approve"
	actionDenyClaim    = "shift.claim.deny"
	actionSchedule     = "shift.schedule"
	actionTrainerSign  = "shift.sign.trainer"
	actionManagerSign  = "shift.sign.manager"
)

// NewTrainee is the creation payload.
type NewTrainee struct {
	Name           string     `json:"name" validate:"required"`
	EmployeeNumber string     `json:"employee_number" validate:"required,alphanum"`
	Store          string     `json:"store" validate:"required"`
	StartDate      *time.Time `json:"start_date"`
}

func (t *NewTrainee) Validate() error {
	t.Name = core.CleanString(t.Name)
	t.EmployeeNumber = core.CleanString(t.EmployeeNumber)
	t.Store = core.CleanString(t.Store, true)
	return validate.Struct(t)
}

func newID() string { return uuid.New().String() }

func (t NewTrainee) Record() Record {
	rec := Record{
		ID:             newID(),
		Name:           t.Name,
		EmployeeNumber: t.EmployeeNumber,
		Store:          t.Store,
		StartDate:      t.StartDate,
		Schedule:       make(map[ShiftKey]*ShiftAssignment, len(AllShiftKeys)),
	}
	return rec
}

// UpdateTrainee is the partial-update payload; empty fields are left as is.
type UpdateTrainee struct {
	Name      string     `json:"name"`
	Store     string     `json:"store"`
	StartDate *time.Time `json:"start_date"`
}

func (t *UpdateTrainee) Validate() error {
	t.Name = core.CleanString(t.Name)
	t.Store = core.CleanString(t.Store, true)
	return validate.Struct(t)
}

// Clone returns a deep copy of the record. Workflow transitions patch a
// clone so callers holding the previous Data never observe the change.
func (r Record) Clone() Record {
	cp := r

	if r.Schedule != nil {
		cp.Schedule = make(map[ShiftKey]*ShiftAssignment, len(r.Schedule))
		for k, v := range r.Schedule {
			if v == nil {
				cp.Schedule[k] = nil
				continue
			}
			sa := *v
			cp.Schedule[k] = &sa
		}
	}
	if r.Checklists != nil {
		cp.Checklists = make(map[ShiftKey]*ChecklistInstance, len(r.Checklists))
		for k, v := range r.Checklists {
			if v == nil {
				cp.Checklists[k] = nil
				continue
			}
			ci := ChecklistInstance{}
			if v.Items != nil {
				ci.Items = make(map[string]bool, len(v.Items))
				for ik, iv := range v.Items {
					ci.Items[ik] = iv
				}
			}
			if v.Readiness != nil {
				rd := *v.Readiness
				ci.Readiness = &rd
			}
			if v.ManagerScore != nil {
				ms := *v.ManagerScore
				ci.ManagerScore = &ms
			}
			cp.Checklists[k] = &ci
		}
	}
	if r.TrainerRatings != nil {
		cp.TrainerRatings = make(map[ShiftKey]*Readiness, len(r.TrainerRatings))
		for k, v := range r.TrainerRatings {
			if v == nil {
				cp.TrainerRatings[k] = nil
				continue
			}
			rd := *v
			cp.TrainerRatings[k] = &rd
		}
	}
	if r.ShiftFeedback != nil {
		cp.ShiftFeedback = make(map[ShiftKey]string, len(r.ShiftFeedback))
		for k, v := range r.ShiftFeedback {
			cp.ShiftFeedback[k] = v
		}
	}
	cp.TestResults = append([]TestResult(nil), r.TestResults...)
	cp.Notes = append([]Note(nil), r.Notes...)
	cp.Audit = append([]AuditEntry(nil), r.Audit...)
	if r.VerbalCert != nil {
		vc := *r.VerbalCert
		cp.VerbalCert = &vc
	}
	return cp
}

// withRecord returns a shallow copy of the document with one record
// replaced. Untouched records are shared between old and new documents.
func (d Data) withRecord(id string, rec Record) Data {
	next := make(Data, len(d)+1)
	for k, v := range d {
		next[k] = v
	}
	next[id] = rec
	return next
}

func (r *Record) appendAudit(by, action string, shift ShiftKey, at time.Time) {
	r.Audit = append(r.Audit, AuditEntry{
		ID:     newID(),
		At:     at,
		By:     by,
		Action: action,
		Shift:  shift,
	})
}

func (r *Record) checklist(key ShiftKey) *ChecklistInstance {
	if r.Checklists == nil {
		r.Checklists = make(map[ShiftKey]*ChecklistInstance)
	}
	ci := r.Checklists[key]
	if ci == nil {
		ci = &ChecklistInstance{}
		r.Checklists[key] = ci
	}
	return ci
}

// Average returns the mean of the rated (non-zero) fields, or nil when
// nothing was rated.
func (r *Readiness) Average() *float64 {
	if r == nil {
		return nil
	}
	var sum, n int
	for _, v := range []int{r.Knowledge, r.Execution, r.Confidence} {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}

// ScheduleActivity returns the most recent schedule timestamp across all
// shifts (scheduled time and both sign-offs). Zero when nothing happened.
func (r Record) ScheduleActivity() time.Time {
	var last time.Time
	bump := func(t *time.Time) {
		if t != nil && t.After(last) {
			last = *t
		}
	}
	for _, sa := range r.Schedule {
		if sa == nil {
			continue
		}
		bump(sa.When)
		bump(sa.TrainerSignedAt)
		bump(sa.ManagerSignedAt)
	}
	return last
}

// LastActivity is ScheduleActivity widened with profile signals (login,
// start date). Zero when nothing happened.
func (r Record) LastActivity() time.Time {
	last := r.ScheduleActivity()
	bump := func(t *time.Time) {
		if t != nil && t.After(last) {
			last = *t
		}
	}
	bump(r.StartDate)
	bump(r.LastLogin)
	return last
}
