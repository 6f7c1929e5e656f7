package training

import (
	"context"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/crewhq/brigade/core"
	"github.com/crewhq/brigade/core/quiz"
)

var (
	// errors
	ErrTraineeExists = errors.New("a trainee with this employee number already exists in this store")

	nowFunc = time.Now // mockable
)

type (
	// Repository loads and saves the whole training document. Saves are
	// last-write-wins over the full document: two concurrent edits to the
	// same trainee can clobber each other. Accepted limitation, matching
	// the single-document data model.
	Repository interface {
		GetTrainingData(ctx context.Context) (Data, error)
		SaveTrainingData(ctx context.Context, data Data) error
	}

	// EmailDirectory resolves an employee number to a mailing address.
	// Lookups failing or returning an empty address suppress the mail.
	EmailDirectory interface {
		EmailForEmployee(ctx context.Context, empNo string) (mail.Address, error)
	}

	// QueryFilter applies AND on available fields. Search does a
	// case-insensitive match on Name or EmployeeNumber.
	QueryFilter struct {
		Search    string `query:"search"`
		Store     string `query:"store"`
		Archived  *bool  `query:"archived"`
		Certified *bool  `query:"certified"`
	}

	// TraineeProgress is the per-trainee dashboard payload.
	TraineeProgress struct {
		Trainee       Record        `json:"trainee"`
		Certification Progress      `json:"certification"`
		Shifts        []ShiftStatus `json:"shifts"`
	}

	Service interface {
		Query(ctx context.Context, filter *QueryFilter) ([]Record, error)
		Get(ctx context.Context, id string) (Record, error)
		GetByEmployeeNumber(ctx context.Context, empNo string) (Record, error)
		Create(ctx context.Context, nt NewTrainee) (Record, error)
		Update(ctx context.Context, id string, ut UpdateTrainee) (Record, error)
		Archive(ctx context.Context, id string) (Record, error)
		Restore(ctx context.Context, id string) (Record, error)
		Delete(ctx context.Context, id string) error
		SetLastLogin(ctx context.Context, id string) error

		AddNote(ctx context.Context, id, by, text string) (Record, error)
		SetVerbalCert(ctx context.Context, id, by string, passed bool) (Record, error)
		RecordTestResult(ctx context.Context, id string, res TestResult) (Record, error)

		Schedule(ctx context.Context, id string, key ShiftKey, when time.Time, by string) (Record, error)
		Claim(ctx context.Context, id string, key ShiftKey, trainerEmp string) (Record, error)
		ApproveClaim(ctx context.Context, id string, key ShiftKey, managerEmp string) (Record, error)
		DenyClaim(ctx context.Context, id string, key ShiftKey, managerEmp string) (Record, error)
		TrainerSign(ctx context.Context, id string, key ShiftKey, trainerEmp string, off TrainerSignOff) (Record, error)
		ManagerSign(ctx context.Context, id string, key ShiftKey, managerEmp string, off ManagerSignOff) (Record, error)

		Progress(ctx context.Context, id string) (TraineeProgress, error)
		Compliance(ctx context.Context, store string) (ComplianceReport, error)
		Data(ctx context.Context) (Data, error)
		AttemptSet(ctx context.Context, id string) (quiz.AttemptSet, error)
	}

	service struct {
		repo     Repository
		attempts quiz.AttemptStore
		mailSvc  core.EmailService
		emailDir EmailDirectory
		conf     *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, attempts quiz.AttemptStore, mailSvc core.EmailService, emailDir EmailDirectory, conf *core.Config) Service {
	return &service{
		repo:     repo,
		attempts: attempts,
		mailSvc:  mailSvc,
		emailDir: emailDir,
		conf:     conf,
	}
}

func (f *QueryFilter) Clean() {
	if f == nil {
		return
	}
	f.Search = core.CleanString(f.Search, true /* lower */)
	f.Store = core.CleanString(f.Store, true /* lower */)
}

func (f *QueryFilter) match(rec Record) bool {
	if f == nil {
		return true
	}
	if f.Search != "" &&
		!strings.Contains(strings.ToLower(rec.Name), f.Search) &&
		!strings.Contains(strings.ToLower(rec.EmployeeNumber), f.Search) {
		return false
	}
	if f.Store != "" && rec.Store != f.Store {
		return false
	}
	if f.Archived != nil && rec.Archived != *f.Archived {
		return false
	}
	if f.Certified != nil && rec.Certified != *f.Certified {
		return false
	}
	return true
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Record, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return nil, err
	}
	filter.Clean()
	recs := make([]Record, 0, len(data))
	for _, rec := range data {
		if filter.match(rec) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs, nil
}

func (svc *service) Get(ctx context.Context, id string) (Record, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return Record{}, err
	}
	rec, ok := data[id]
	if !ok {
		return Record{}, ErrTraineeNotFound
	}
	return rec, nil
}

func (svc *service) GetByEmployeeNumber(ctx context.Context, empNo string) (Record, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return Record{}, err
	}
	empNo = core.CleanString(empNo)
	for _, rec := range data {
		if rec.EmployeeNumber == empNo {
			return rec, nil
		}
	}
	return Record{}, ErrTraineeNotFound
}

func (svc *service) Create(ctx context.Context, nt NewTrainee) (Record, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, rec := range data {
		if rec.EmployeeNumber == nt.EmployeeNumber && rec.Store == nt.Store {
			return Record{}, core.NewValidationError(ErrTraineeExists,
				core.FieldError{Field: "employee_number", Error: ErrTraineeExists.Error()},
			)
		}
	}
	rec := nt.Record()
	if err = svc.repo.SaveTrainingData(ctx, data.withRecord(rec.ID, rec)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (svc *service) Update(ctx context.Context, id string, ut UpdateTrainee) (Record, error) {
	return svc.patch(ctx, id, func(rec *Record) error {
		if ut.Name != "" {
			rec.Name = ut.Name
		}
		if ut.Store != "" {
			rec.Store = ut.Store
		}
		if ut.StartDate != nil {
			rec.StartDate = ut.StartDate
		}
		return nil
	})
}

func (svc *service) Archive(ctx context.Context, id string) (Record, error) {
	return svc.patch(ctx, id, func(rec *Record) error {
		rec.Archived = true
		return nil
	})
}

func (svc *service) Restore(ctx context.Context, id string) (Record, error) {
	return svc.patch(ctx, id, func(rec *Record) error {
		rec.Archived = false
		return nil
	})
}

func (svc *service) Delete(ctx context.Context, id string) error {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return err
	}
	if _, ok := data[id]; !ok {
		return ErrTraineeNotFound
	}
	next := make(Data, len(data))
	for k, v := range data {
		if k != id {
			next[k] = v
		}
	}
	return svc.repo.SaveTrainingData(ctx, next)
}

func (svc *service) SetLastLogin(ctx context.Context, id string) error {
	_, err := svc.patch(ctx, id, func(rec *Record) error {
		now := nowFunc().UTC()
		rec.LastLogin = &now
		return nil
	})
	return err
}

func (svc *service) AddNote(ctx context.Context, id, by, text string) (Record, error) {
	text = core.CleanString(text)
	if text == "" {
		return Record{}, core.NewValidationError(errors.New("empty note"),
			core.FieldError{Field: "text", Error: "this field is required"},
		)
	}
	return svc.patch(ctx, id, func(rec *Record) error {
		rec.Notes = append(rec.Notes, Note{
			ID:   newID(),
			By:   by,
			At:   nowFunc().UTC(),
			Text: text,
		})
		return nil
	})
}

func (svc *service) SetVerbalCert(ctx context.Context, id, by string, passed bool) (Record, error) {
	return svc.patch(ctx, id, func(rec *Record) error {
		now := nowFunc().UTC()
		rec.VerbalCert = &VerbalCertState{Passed: passed, By: by, At: &now}
		return nil
	})
}

// RecordTestResult folds an official test outcome into the trainee record
// for display. Attempt counting lives in the attempt store, not here.
func (svc *service) RecordTestResult(ctx context.Context, id string, res TestResult) (Record, error) {
	if res.At == nil {
		now := nowFunc().UTC()
		res.At = &now
	}
	return svc.patch(ctx, id, func(rec *Record) error {
		rec.TestResults = append(rec.TestResults, res)
		return nil
	})
}

func (svc *service) Schedule(ctx context.Context, id string, key ShiftKey, when time.Time, by string) (Record, error) {
	return svc.transition(ctx, id, func(data Data) (Data, error) {
		return ScheduleShift(data, id, key, when, by, nowFunc().UTC())
	})
}

func (svc *service) Claim(ctx context.Context, id string, key ShiftKey, trainerEmp string) (Record, error) {
	return svc.transition(ctx, id, func(data Data) (Data, error) {
		return ClaimShift(data, id, key, trainerEmp, nowFunc().UTC())
	})
}

func (svc *service) ApproveClaim(ctx context.Context, id string, key ShiftKey, managerEmp string) (Record, error) {
	return svc.transition(ctx, id, func(data Data) (Data, error) {
		return ApproveShiftClaim(data, id, key, managerEmp, nowFunc().UTC())
	})
}

func (svc *service) DenyClaim(ctx context.Context, id string, key ShiftKey, managerEmp string) (Record, error) {
	return svc.transition(ctx, id, func(data Data) (Data, error) {
		return DenyShiftClaim(data, id, key, managerEmp, nowFunc().UTC())
	})
}

func (svc *service) TrainerSign(ctx context.Context, id string, key ShiftKey, trainerEmp string, off TrainerSignOff) (Record, error) {
	return svc.transition(ctx, id, func(data Data) (Data, error) {
		return SignShiftAsTrainer(data, id, key, trainerEmp, nowFunc().UTC(), off)
	})
}

// ManagerSign counter-signs a shift. When the signature completes the last
// required shift, the trainee is marked certified and congratulated.
func (svc *service) ManagerSign(ctx context.Context, id string, key ShiftKey, managerEmp string, off ManagerSignOff) (Record, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return Record{}, err
	}
	next, err := SignShiftAsManager(data, id, key, managerEmp, nowFunc().UTC(), off)
	if err != nil {
		return Record{}, err
	}

	rec := next[id]
	var newlyCertified bool
	if !rec.Certified {
		set, err := quiz.LoadAttemptSet(ctx, svc.attempts, id)
		if err != nil {
			return Record{}, err
		}
		if IsCertifiable(rec, set) {
			rec = rec.Clone()
			rec.Certified = true
			next = next.withRecord(id, rec)
			newlyCertified = true
		}
	}

	if err = svc.repo.SaveTrainingData(ctx, next); err != nil {
		return Record{}, err
	}
	if newlyCertified {
		go svc.sendCertifiedMail(rec)
	}
	return rec, nil
}

func (svc *service) Progress(ctx context.Context, id string) (TraineeProgress, error) {
	rec, err := svc.Get(ctx, id)
	if err != nil {
		return TraineeProgress{}, err
	}
	set, err := quiz.LoadAttemptSet(ctx, svc.attempts, id)
	if err != nil {
		return TraineeProgress{}, err
	}
	prog := TraineeProgress{
		Trainee:       rec,
		Certification: CertificationProgress(rec, set),
		Shifts:        make([]ShiftStatus, 0, len(AllShiftKeys)),
	}
	for _, k := range AllShiftKeys {
		prog.Shifts = append(prog.Shifts, GetShiftStatus(rec, k, set))
	}
	return prog, nil
}

func (svc *service) Compliance(ctx context.Context, store string) (ComplianceReport, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return ComplianceReport{}, err
	}
	return ComplianceStats(data, core.CleanString(store, true /* lower */)), nil
}

func (svc *service) Data(ctx context.Context) (Data, error) {
	return svc.repo.GetTrainingData(ctx)
}

func (svc *service) AttemptSet(ctx context.Context, id string) (quiz.AttemptSet, error) {
	return quiz.LoadAttemptSet(ctx, svc.attempts, id)
}

// patch applies an in-place edit to a cloned record and saves the document.
func (svc *service) patch(ctx context.Context, id string, fn func(rec *Record) error) (Record, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return Record{}, err
	}
	rec, ok := data[id]
	if !ok {
		return Record{}, ErrTraineeNotFound
	}
	rec = rec.Clone()
	if err = fn(&rec); err != nil {
		return Record{}, err
	}
	if err = svc.repo.SaveTrainingData(ctx, data.withRecord(id, rec)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// transition runs a pure workflow function over the loaded document and
// saves the result.
func (svc *service) transition(ctx context.Context, id string, fn func(data Data) (Data, error)) (Record, error) {
	data, err := svc.repo.GetTrainingData(ctx)
	if err != nil {
		return Record{}, err
	}
	next, err := fn(data)
	if err != nil {
		return Record{}, err
	}
	if err = svc.repo.SaveTrainingData(ctx, next); err != nil {
		return Record{}, err
	}
	return next[id], nil
}

func (svc *service) sendCertifiedMail(rec Record) {
	if svc.emailDir == nil {
		return
	}
	addr, err := svc.emailDir.EmailForEmployee(context.Background(), rec.EmployeeNumber)
	if err != nil || addr.Address == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{addr},
		Subject:      "You are certified!",
		TemplateName: "trainee-certified",
		TemplateData: struct {
			Name string
		}{rec.Name},
	})
}
