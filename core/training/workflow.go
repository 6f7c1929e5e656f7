package training

import (
	"errors"
	"time"
)

// Workflow rejections. Each precondition failure has its own sentinel so
// the API layer can map them to precise 4xx responses instead of parsing
// messages.
var (
	ErrTraineeNotFound   = errors.New("trainee not found")
	ErrShiftNotScheduled = errors.New("shift is not scheduled")
	ErrAlreadyAssigned   = errors.New("shift already has a trainer")
	ErrAlreadyClaimed    = errors.New("shift already has a pending claim")
	ErrNoPendingClaim    = errors.New("shift has no pending claim")
	ErrNotYourShift      = errors.New("shift is assigned to another trainer")
	ErrTrainerNotSigned  = errors.New("trainer has not signed off this shift")
)

// TrainerSignOff carries the optional artifacts a trainer records while
// signing: free-form feedback and a readiness rating.
type TrainerSignOff struct {
	Feedback  string
	Readiness *Readiness
}

// ManagerSignOff carries the optional artifacts a manager records while
// signing: a readiness rating and a checklist score.
type ManagerSignOff struct {
	Readiness *Readiness
	Score     *float64
}

// The transition functions below are pure: they never mutate their input
// document. On success they return a new document with one patched record;
// on rejection they return the input document unchanged alongside the
// sentinel, so callers can ignore the returned document on error.

// ScheduleShift creates or reschedules a shift slot. Rescheduling keeps
// the assigned trainer but clears sign-offs, since they attested a shift
// that no longer exists.
func ScheduleShift(data Data, traineeID string, key ShiftKey, when time.Time, by string, at time.Time) (Data, error) {
	rec, ok := data[traineeID]
	if !ok {
		return data, ErrTraineeNotFound
	}
	rec = rec.Clone()
	if rec.Schedule == nil {
		rec.Schedule = make(map[ShiftKey]*ShiftAssignment)
	}
	sa := rec.Schedule[key]
	if sa == nil {
		sa = &ShiftAssignment{}
		rec.Schedule[key] = sa
	}
	sa.When = &when
	sa.TrainerSignedBy, sa.TrainerSignedAt = "", nil
	sa.ManagerSignedBy, sa.ManagerSignedAt = "", nil
	rec.appendAudit(by, actionSchedule, key, at)
	return data.withRecord(traineeID, rec), nil
}

// ClaimShift registers a trainer's claim on an open shift. The claim is
// pending until a manager approves or denies it.
func ClaimShift(data Data, traineeID string, key ShiftKey, trainerEmp string, at time.Time) (Data, error) {
	rec, ok := data[traineeID]
	if !ok {
		return data, ErrTraineeNotFound
	}
	sa := rec.Schedule[key]
	if sa == nil {
		return data, ErrShiftNotScheduled
	}
	if sa.Trainer != "" {
		return data, ErrAlreadyAssigned
	}
	if sa.PendingTrainer != "" {
		return data, ErrAlreadyClaimed
	}

	rec = rec.Clone()
	sa = rec.Schedule[key]
	sa.PendingTrainer = trainerEmp
	sa.PendingAt = &at
	rec.appendAudit(trainerEmp, actionClaim, key, at)
	return data.withRecord(traineeID, rec), nil
}

// ApproveShiftClaim promotes a pending claim to the assigned trainer.
func ApproveShiftClaim(data Data, traineeID string, key ShiftKey, managerEmp string, at time.Time) (Data, error) {
	rec, ok := data[traineeID]
	if !ok {
		return data, ErrTraineeNotFound
	}
	sa := rec.Schedule[key]
	if sa == nil {
		return data, ErrShiftNotScheduled
	}
	if sa.PendingTrainer == "" {
		return data, ErrNoPendingClaim
	}

	rec = rec.Clone()
	sa = rec.Schedule[key]
	sa.Trainer = sa.PendingTrainer
	sa.PendingTrainer = ""
	sa.PendingAt = nil
	rec.appendAudit(managerEmp, actionApproveClaim, key, at)
	return data.withRecord(traineeID, rec), nil
}

// DenyShiftClaim discards a pending claim, reopening the shift.
func DenyShiftClaim(data Data, traineeID string, key ShiftKey, managerEmp string, at time.Time) (Data, error) {
	rec, ok := data[traineeID]
	if !ok {
		return data, ErrTraineeNotFound
	}
	sa := rec.Schedule[key]
	if sa == nil {
		return data, ErrShiftNotScheduled
	}
	if sa.PendingTrainer == "" {
		return data, ErrNoPendingClaim
	}

	rec = rec.Clone()
	sa = rec.Schedule[key]
	sa.PendingTrainer = ""
	sa.PendingAt = nil
	rec.appendAudit(managerEmp, actionDenyClaim, key, at)
	return data.withRecord(traineeID, rec), nil
}

// SignShiftAsTrainer records the assigned trainer's sign-off, along with
// any feedback and readiness rating. Only the assigned trainer may sign.
// Re-signing overwrites the previous sign-off.
func SignShiftAsTrainer(data Data, traineeID string, key ShiftKey, trainerEmp string, at time.Time, off TrainerSignOff) (Data, error) {
	rec, ok := data[traineeID]
	if !ok {
		return data, ErrTraineeNotFound
	}
	sa := rec.Schedule[key]
	if sa == nil {
		return data, ErrShiftNotScheduled
	}
	if sa.Trainer == "" || sa.Trainer != trainerEmp {
		return data, ErrNotYourShift
	}

	rec = rec.Clone()
	sa = rec.Schedule[key]
	sa.TrainerSignedBy = trainerEmp
	sa.TrainerSignedAt = &at
	if off.Feedback != "" {
		if rec.ShiftFeedback == nil {
			rec.ShiftFeedback = make(map[ShiftKey]string)
		}
		rec.ShiftFeedback[key] = off.Feedback
	}
	if off.Readiness != nil {
		if rec.TrainerRatings == nil {
			rec.TrainerRatings = make(map[ShiftKey]*Readiness)
		}
		rd := *off.Readiness
		rec.TrainerRatings[key] = &rd
	}
	rec.appendAudit(trainerEmp, actionTrainerSign, key, at)
	return data.withRecord(traineeID, rec), nil
}

// SignShiftAsManager records the manager's counter-signature. It requires
// a prior trainer sign-off; any manager may sign, and re-signing
// overwrites the previous signature.
func SignShiftAsManager(data Data, traineeID string, key ShiftKey, managerEmp string, at time.Time, off ManagerSignOff) (Data, error) {
	rec, ok := data[traineeID]
	if !ok {
		return data, ErrTraineeNotFound
	}
	sa := rec.Schedule[key]
	if sa == nil {
		return data, ErrShiftNotScheduled
	}
	if sa.TrainerSignedAt == nil {
		return data, ErrTrainerNotSigned
	}

	rec = rec.Clone()
	sa = rec.Schedule[key]
	sa.ManagerSignedBy = managerEmp
	sa.ManagerSignedAt = &at
	if off.Readiness != nil {
		rd := *off.Readiness
		rec.checklist(key).Readiness = &rd
	}
	if off.Score != nil {
		score := *off.Score
		rec.checklist(key).ManagerScore = &score
	}
	rec.appendAudit(managerEmp, actionManagerSign, key, at)
	return data.withRecord(traineeID, rec), nil
}
