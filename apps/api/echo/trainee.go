package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/crewhq/brigade/core"
	"github.com/crewhq/brigade/core/risk"
	"github.com/crewhq/brigade/core/training"
	"github.com/crewhq/brigade/core/user"
)

type traineeApi struct {
	svc    training.Service
	usrSvc user.Service
}

func registerTraineeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc training.Service, usrSvc user.Service) {
	api := traineeApi{
		svc:    svc,
		usrSvc: usrSvc,
	}

	tg := g.Group("/trainees", jwt)

	tg.GET("", api.query, trainerMiddleware())
	tg.POST("", api.create, managerMiddleware())
	tg.GET("/compliance", api.compliance, managerMiddleware())
	tg.GET("/dashboard", api.dashboard, trainerMiddleware())

	dg := tg.Group("/:id")
	dg.GET("", api.retrieve, trainerMiddleware())
	dg.PUT("", api.update, managerMiddleware())
	dg.DELETE("", api.destroy, managerMiddleware())
	dg.POST("/archive", api.archive, managerMiddleware())
	dg.POST("/restore", api.restore, managerMiddleware())
	dg.POST("/notes", api.addNote, trainerMiddleware())
	dg.POST("/verbal-cert", api.setVerbalCert, managerMiddleware())
	dg.POST("/test-results", api.recordTestResult, managerMiddleware())
	dg.GET("/progress", api.progress, trainerMiddleware())
	dg.GET("/risk", api.risk, trainerMiddleware())

	sg := dg.Group("/shifts/:key")
	sg.PUT("", api.schedule, managerMiddleware())
	sg.POST("/claim", api.claim, trainerMiddleware())
	sg.POST("/approve", api.approveClaim, managerMiddleware())
	sg.POST("/deny", api.denyClaim, managerMiddleware())
	sg.POST("/trainer-sign", api.trainerSign, trainerMiddleware())
	sg.POST("/manager-sign", api.managerSign, managerMiddleware())
}

// Handlers

func (api *traineeApi) query(ctx echo.Context) error {
	filter := new(training.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []training.Record{})
	}

	recs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying trainees")
	}
	if recs == nil {
		recs = []training.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *traineeApi) create(ctx echo.Context) error {
	var data training.NewTrainee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTrainee")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating trainee")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *traineeApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.mapErr(err, "finding trainee by ID")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) update(ctx echo.Context) error {
	var data training.UpdateTrainee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTrainee")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rec, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return api.mapErr(err, "updating trainee")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return api.mapErr(err, "deleting trainee")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *traineeApi) archive(ctx echo.Context) error {
	rec, err := api.svc.Archive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.mapErr(err, "archiving trainee")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) restore(ctx echo.Context) error {
	rec, err := api.svc.Restore(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.mapErr(err, "restoring trainee")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) addNote(ctx echo.Context) error {
	var data NoteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NoteRequest")
	}

	by, err := api.actor(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.AddNote(ctx.Request().Context(), ctx.Param("id"), by, data.Text)
	if err != nil {
		return api.mapErr(err, "adding note")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) setVerbalCert(ctx echo.Context) error {
	var data VerbalCertRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerbalCertRequest")
	}

	by, err := api.actor(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.SetVerbalCert(ctx.Request().Context(), ctx.Param("id"), by, data.Passed)
	if err != nil {
		return api.mapErr(err, "setting verbal cert")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) recordTestResult(ctx echo.Context) error {
	var data training.TestResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TestResult")
	}
	if data.TestID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "testId", Error: "this field is required"})
	}

	rec, err := api.svc.RecordTestResult(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return api.mapErr(err, "recording test result")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) progress(ctx echo.Context) error {
	prog, err := api.svc.Progress(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.mapErr(err, "computing progress")
	}
	return ctx.JSON(http.StatusOK, prog)
}

// TraineeRisk bundles both engines' assessments with the readiness
// aggregate for the dashboard.
type TraineeRisk struct {
	Simple             risk.Assessment       `json:"simple"`
	Legacy             risk.LegacyAssessment `json:"legacy"`
	Readiness          *float64              `json:"readiness,omitempty"`
	ReadinessOutOfFive *float64              `json:"readinessOutOfFive,omitempty"`
}

func (api *traineeApi) assessRisk(ctx echo.Context, rec training.Record) (TraineeRisk, error) {
	set, err := api.svc.AttemptSet(ctx.Request().Context(), rec.ID)
	if err != nil {
		return TraineeRisk{}, errors.Wrap(err, "loading attempts")
	}
	now := time.Now().UTC()
	readiness := risk.Readiness(rec)
	return TraineeRisk{
		Simple:             risk.Score(rec, set, now),
		Legacy:             risk.LegacyScore(rec, set, now),
		Readiness:          readiness,
		ReadinessOutOfFive: risk.OutOfFive(readiness),
	}, nil
}

func (api *traineeApi) risk(ctx echo.Context) error {
	rec, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.mapErr(err, "finding trainee by ID")
	}
	assessment, err := api.assessRisk(ctx, rec)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assessment)
}

// DashboardRow is one trainee's line on the store dashboard.
type DashboardRow struct {
	Trainee       training.Record   `json:"trainee"`
	Certification training.Progress `json:"certification"`
	Risk          TraineeRisk       `json:"risk"`
}

func (api *traineeApi) dashboard(ctx echo.Context) error {
	filter := new(training.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []DashboardRow{})
	}

	recs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying trainees")
	}

	rows := make([]DashboardRow, 0, len(recs))
	for _, rec := range recs {
		set, err := api.svc.AttemptSet(ctx.Request().Context(), rec.ID)
		if err != nil {
			return errors.Wrap(err, "loading attempts")
		}
		now := time.Now().UTC()
		readiness := risk.Readiness(rec)
		rows = append(rows, DashboardRow{
			Trainee:       rec,
			Certification: training.CertificationProgress(rec, set),
			Risk: TraineeRisk{
				Simple:             risk.Score(rec, set, now),
				Legacy:             risk.LegacyScore(rec, set, now),
				Readiness:          readiness,
				ReadinessOutOfFive: risk.OutOfFive(readiness),
			},
		})
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *traineeApi) compliance(ctx echo.Context) error {
	rep, err := api.svc.Compliance(ctx.Request().Context(), ctx.QueryParam("store"))
	if err != nil {
		return errors.Wrap(err, "computing compliance")
	}
	return ctx.JSON(http.StatusOK, rep)
}

// Shift workflow handlers

func (api *traineeApi) schedule(ctx echo.Context) error {
	key, err := api.shiftKey(ctx)
	if err != nil {
		return err
	}
	var data ScheduleShiftRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleShiftRequest")
	}
	if data.When.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "when", Error: "this field is required"})
	}

	by, err := api.actor(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.Schedule(ctx.Request().Context(), ctx.Param("id"), key, data.When, by)
	if err != nil {
		return api.mapErr(err, "scheduling shift")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) claim(ctx echo.Context) error {
	return api.transition(ctx, api.svc.Claim)
}

func (api *traineeApi) approveClaim(ctx echo.Context) error {
	return api.transition(ctx, api.svc.ApproveClaim)
}

func (api *traineeApi) denyClaim(ctx echo.Context) error {
	return api.transition(ctx, api.svc.DenyClaim)
}

func (api *traineeApi) trainerSign(ctx echo.Context) error {
	key, err := api.shiftKey(ctx)
	if err != nil {
		return err
	}
	var data TrainerSignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TrainerSignRequest")
	}

	by, err := api.actor(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.TrainerSign(ctx.Request().Context(), ctx.Param("id"), key, by, training.TrainerSignOff{
		Feedback:  data.Feedback,
		Readiness: data.Readiness,
	})
	if err != nil {
		return api.mapErr(err, "signing shift as trainer")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) managerSign(ctx echo.Context) error {
	key, err := api.shiftKey(ctx)
	if err != nil {
		return err
	}
	var data ManagerSignRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManagerSignRequest")
	}

	by, err := api.actor(ctx)
	if err != nil {
		return err
	}
	rec, err := api.svc.ManagerSign(ctx.Request().Context(), ctx.Param("id"), key, by, training.ManagerSignOff{
		Readiness: data.Readiness,
		Score:     data.Score,
	})
	if err != nil {
		return api.mapErr(err, "signing shift as manager")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// Helpers

// transition runs the claim workflow transitions that only need an actor.
func (api *traineeApi) transition(
	ctx echo.Context,
	fn func(ctx context.Context, id string, key training.ShiftKey, actor string) (training.Record, error),
) error {
	key, err := api.shiftKey(ctx)
	if err != nil {
		return err
	}
	by, err := api.actor(ctx)
	if err != nil {
		return err
	}
	rec, err := fn(ctx.Request().Context(), ctx.Param("id"), key, by)
	if err != nil {
		return api.mapErr(err, "transitioning shift")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *traineeApi) shiftKey(ctx echo.Context) (training.ShiftKey, error) {
	key := training.ShiftKey(ctx.Param("key"))
	if !training.IsValidShiftKey(key) {
		return "", core.NewValidationError(nil, core.FieldError{Field: "key", Error: "unknown shift key"})
	}
	return key, nil
}

// actor resolves the acting employee number from the authed user.
func (api *traineeApi) actor(ctx echo.Context) (string, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}
	if usr.EmployeeNumber != "" {
		return usr.EmployeeNumber, nil
	}
	return usr.Username, nil
}

// mapErr translates domain sentinels into HTTP-friendly errors.
func (api *traineeApi) mapErr(err error, msg string) error {
	switch errors.Cause(err) {
	case training.ErrTraineeNotFound:
		return errHttpNotFound
	case training.ErrShiftNotScheduled,
		training.ErrAlreadyAssigned,
		training.ErrAlreadyClaimed,
		training.ErrNoPendingClaim,
		training.ErrNotYourShift,
		training.ErrTrainerNotSigned:
		return core.NewValidationError(errors.Cause(err))
	}
	return errors.Wrap(err, msg)
}

type (
	ScheduleShiftRequest struct {
		When time.Time `json:"when"`
	}

	NoteRequest struct {
		Text string `json:"text"`
	}

	VerbalCertRequest struct {
		Passed bool `json:"passed"`
	}

	TrainerSignRequest struct {
		Feedback  string              `json:"feedback"`
		Readiness *training.Readiness `json:"readiness"`
	}

	ManagerSignRequest struct {
		Readiness *training.Readiness `json:"readiness"`
		Score     *float64            `json:"score"`
	}
)
