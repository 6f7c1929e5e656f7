package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/crewhq/brigade/core"
	"github.com/crewhq/brigade/core/quiz"
)

type quizApi struct {
	svc      quiz.Service
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc quiz.Service, validate *validator.Validate) {
	api := quizApi{
		svc:      svc,
		validate: validate,
	}

	qg := g.Group("/quiz")

	// un-authed endpoints: study content is open, and flashcard review
	// quietly no-ops without a trainee ID
	qg.GET("/tests", api.queryTests)
	qg.GET("/sets/:id", api.retrieveCardSet)
	qg.POST("/review", api.reviewCard)

	// authed endpoints
	ag := qg.Group("", jwt)
	ag.GET("/sets/:id/mastery", api.setMastery)
	ag.GET("/attempts", api.queryAttempts)
	ag.POST("/tests/:id/build", api.buildTest)
	ag.POST("/tests/:id/practice", api.nextPracticeQuestion)
	ag.POST("/tests/:id/score", api.recordScore)
	ag.POST("/tests/:id/reset", api.resetAttempts, managerMiddleware())
}

// Handlers

func (api *quizApi) queryTests(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Tests())
}

func (api *quizApi) retrieveCardSet(ctx echo.Context) error {
	set, err := api.svc.CardSet(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.mapErr(err, "finding card set")
	}
	return ctx.JSON(http.StatusOK, set)
}

func (api *quizApi) reviewCard(ctx echo.Context) error {
	var data ReviewCardRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewCardRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.ReviewCard(ctx.Request().Context(), data.TraineeID, data.CardID, quiz.ReviewResult(data.Result))
	if err != nil {
		return errors.Wrap(err, "reviewing card")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *quizApi) setMastery(ctx echo.Context) error {
	traineeID := ctx.QueryParam("trainee_id")
	setID := ctx.Param("id")

	struggle, err := api.svc.StruggleCards(ctx.Request().Context(), traineeID, setID)
	if err != nil {
		return errors.Wrap(err, "listing struggle cards")
	}
	mastered, err := api.svc.MasteredCards(ctx.Request().Context(), traineeID, setID)
	if err != nil {
		return errors.Wrap(err, "listing mastered cards")
	}
	return ctx.JSON(http.StatusOK, SetMasteryResponse{Struggle: struggle, Mastered: mastered})
}

func (api *quizApi) queryAttempts(ctx echo.Context) error {
	set, err := api.svc.Attempts(ctx.Request().Context(), ctx.QueryParam("trainee_id"))
	if err != nil {
		return errors.Wrap(err, "loading attempts")
	}
	return ctx.JSON(http.StatusOK, set)
}

func (api *quizApi) buildTest(ctx echo.Context) error {
	var data TraineeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TraineeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tst, err := api.svc.BuildOfficialTest(ctx.Request().Context(), data.TraineeID, ctx.Param("id"))
	if err != nil {
		return api.mapErr(err, "building test")
	}
	return ctx.JSON(http.StatusOK, tst)
}

func (api *quizApi) nextPracticeQuestion(ctx echo.Context) error {
	var data PracticeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PracticeRequest")
	}

	q, err := api.svc.NextPracticeQuestion(ctx.Request().Context(), data.TraineeID, ctx.Param("id"), data.History)
	if err != nil {
		return api.mapErr(err, "picking practice question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) recordScore(ctx echo.Context) error {
	var data ScoreRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, passed, err := api.svc.RecordScore(ctx.Request().Context(), data.TraineeID, ctx.Param("id"), data.Score)
	if err != nil {
		return api.mapErr(err, "recording score")
	}
	return ctx.JSON(http.StatusOK, ScoreResponse{Record: rec, Passed: passed})
}

func (api *quizApi) resetAttempts(ctx echo.Context) error {
	var data TraineeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TraineeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetAttempts(ctx.Request().Context(), data.TraineeID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "resetting attempts")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// mapErr translates domain sentinels into HTTP-friendly errors.
func (api *quizApi) mapErr(err error, msg string) error {
	switch errors.Cause(err) {
	case quiz.ErrContentNotFound:
		return errHttpNotFound
	case quiz.ErrNoAttemptsLeft:
		return core.NewValidationError(errors.Cause(err))
	}
	return errors.Wrap(err, msg)
}

type (
	ReviewCardRequest struct {
		TraineeID string `json:"trainee_id"`
		CardID    string `json:"card_id" validate:"required"`
		Result    string `json:"result" validate:"required,oneof=gotIt needsPractice"`
	}

	SetMasteryResponse struct {
		Struggle []string `json:"struggle"`
		Mastered []string `json:"mastered"`
	}

	TraineeRequest struct {
		TraineeID string `json:"trainee_id" validate:"required"`
	}

	PracticeRequest struct {
		TraineeID string `json:"trainee_id"`
		History   []int  `json:"history"`
	}

	ScoreRequest struct {
		TraineeID string `json:"trainee_id" validate:"required"`
		Score     int    `json:"score" validate:"min=0,max=100"`
	}

	ScoreResponse struct {
		Record quiz.AttemptRecord `json:"record"`
		Passed bool               `json:"passed"`
	}
)

func (r *ReviewCardRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }
func (r *TraineeRequest) Validate(validate *validator.Validate) error    { return validate.Struct(r) }
func (r *ScoreRequest) Validate(validate *validator.Validate) error      { return validate.Struct(r) }
