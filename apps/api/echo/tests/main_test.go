package tests

import (
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/crewhq/brigade/apps/api/echo"
	"github.com/crewhq/brigade/core"
	"github.com/crewhq/brigade/core/quiz"
	"github.com/crewhq/brigade/core/training"
	"github.com/crewhq/brigade/core/user"
	emailsvc "github.com/crewhq/brigade/services/email"
	inmemdb "github.com/crewhq/brigade/storage/database/inmem"
)

var (
	app echoapi.Server

	usrRepo      user.Repository
	trainingRepo training.Repository
	masteryRepo  quiz.MasteryStore
	attemptRepo  quiz.AttemptStore

	usrSvc      user.Service
	trainingSvc training.Service
	quizSvc     quiz.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	conf := &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Brigade",
		SecretKey: []byte("test-secret"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	training.InitValidators(validate, translator)

	// set up DB & repos
	db := inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	trainingRepo = inmemdb.NewTrainingRepository(db)
	masteryRepo = inmemdb.NewMasteryRepository(db)
	attemptRepo = inmemdb.NewAttemptRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewServiceMock(usrRepo, mailSvc, conf)
	trainingSvc = training.NewService(trainingRepo, attemptRepo, mailSvc, nil, conf)
	quizSvc = quiz.NewService(inmemdb.NewContentRepository(), masteryRepo, attemptRepo)

	// set up server
	app = echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         core.StdLogger{Std: log.New(io.Discard, "", 0)},
			UserSvc:        usrSvc,
			TrainingSvc:    trainingSvc,
			QuizSvc:        quizSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
