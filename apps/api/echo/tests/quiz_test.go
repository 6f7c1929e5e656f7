package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crewhq/brigade/core/quiz"
	"github.com/crewhq/brigade/core/user"
)

func TestQuizAPI_tests(t *testing.T) {
	tt := httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, quiz.Catalog),
	}
	req, rec := newRequest(http.MethodGet, "/v1/quiz/tests")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}

func TestQuizAPI_cardSet(t *testing.T) {
	tests := []httpTest{
		{
			name:     "known set",
			path:     "/v1/quiz/sets/steaks",
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown set",
			path:     "/v1/quiz/sets/lol",
			wantCode: http.StatusNotFound,
			wantData: []byte(`{"error":"not found"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestQuizAPI_reviewLifecycle(t *testing.T) {
	cardID := quiz.CardID("steaks", "Ribeye", "16oz bone-in, most marbled cut")

	review := func(t *testing.T, traineeID, result string) quiz.MasteryRecord {
		t.Helper()
		body := marchallObj(t, map[string]string{
			"trainee_id": traineeID,
			"card_id":    cardID,
			"result":     result,
		})
		req, rec := newRequest(http.MethodPost, "/v1/quiz/review", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("review: code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var mr quiz.MasteryRecord
		if err := json.Unmarshal(rec.Body.Bytes(), &mr); err != nil {
			t.Fatalf("unmarshalling mastery record: %v", err)
		}
		return mr
	}

	// three "got it" in a row flips the card to mastered
	var mr quiz.MasteryRecord
	for i := 0; i < 3; i++ {
		mr = review(t, "t-review", "gotIt")
	}
	if mr.Status != quiz.MasteryMastered {
		t.Errorf("status = %q; want %q", mr.Status, quiz.MasteryMastered)
	}

	// any stumble drops it straight back to struggle
	mr = review(t, "t-review", "needsPractice")
	if mr.Status != quiz.MasteryStruggle {
		t.Errorf("status = %q; want %q", mr.Status, quiz.MasteryStruggle)
	}

	// logged-out review quietly records nothing
	mr = review(t, "", "gotIt")
	if mr.Status != quiz.MasteryNone || mr.MasteryCount != 0 {
		t.Errorf("logged-out review persisted state: %+v", mr)
	}

	// bad result value is rejected
	body := marchallObj(t, map[string]string{"card_id": cardID, "result": "dunno"})
	req, rec := newRequest(http.MethodPost, "/v1/quiz/review", body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad result: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
}

func TestQuizAPI_buildAndScore(t *testing.T) {
	usr := createUser(t, "Quiz Taker", "quiztaker", "qt@test.io", "passw0rd", user.TraineeRoles)
	token := getToken(t, usr)

	build := func(t *testing.T) (*httptest.ResponseRecorder, quiz.OfficialTest) {
		t.Helper()
		body := []byte(`{"trainee_id":"t-quiz"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/tests/steaks_test/build", token, body)
		app.ServeHTTP(rec, req)
		var tst quiz.OfficialTest
		if rec.Code == http.StatusOK {
			if err := json.Unmarshal(rec.Body.Bytes(), &tst); err != nil {
				t.Fatalf("unmarshalling test: %v", err)
			}
		}
		return rec, tst
	}

	rec, tst := build(t)
	if rec.Code != http.StatusOK {
		t.Fatalf("build: code = %v; body = %s", rec.Code, rec.Body.String())
	}
	if tst.Attempt != 1 || tst.RequiredScore != 85 {
		t.Errorf("test = attempt %d, required %d; want 1, 85", tst.Attempt, tst.RequiredScore)
	}
	// bank is smaller than the nominal test size; every question is used
	if len(tst.Questions) != 5 || len(tst.Indices) != 5 {
		t.Errorf("got %d questions, %d indices; want 5 each", len(tst.Questions), len(tst.Indices))
	}

	score := func(t *testing.T, val int) (int, bool) {
		t.Helper()
		body := marchallObj(t, map[string]interface{}{"trainee_id": "t-quiz", "score": val})
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/tests/steaks_test/score", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("score: code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res struct {
			Record quiz.AttemptRecord `json:"record"`
			Passed bool               `json:"passed"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling score: %v", err)
		}
		return res.Record.Count, res.Passed
	}

	// first attempt needs 85, every retake 90
	if count, passed := score(t, 80); count != 1 || passed {
		t.Errorf("attempt 1: count=%d passed=%v; want 1 false", count, passed)
	}
	if _, tst := build(t); tst.Attempt != 2 || tst.RequiredScore != 90 {
		t.Errorf("retake = attempt %d, required %d; want 2, 90", tst.Attempt, tst.RequiredScore)
	}
	if count, passed := score(t, 86); count != 2 || passed {
		t.Errorf("attempt 2: count=%d passed=%v; want 2 false (retake bar is 90)", count, passed)
	}
	if count, passed := score(t, 92); count != 3 || !passed {
		t.Errorf("attempt 3: count=%d passed=%v; want 3 true", count, passed)
	}
}

func TestQuizAPI_attemptExhaustionAndReset(t *testing.T) {
	usr := createUser(t, "Exhausted One", "exhausted", "ex@test.io", "passw0rd", user.TraineeRoles)
	manager := createUser(t, "Reset Manager", "resetmanager", "rsm@test.io", "passw0rd", user.ManagerRoles)
	token := getToken(t, usr)

	body := func(score int) []byte {
		return marchallObj(t, map[string]interface{}{"trainee_id": "t-exhaust", "score": score})
	}

	for i := 0; i < 3; i++ {
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/tests/bar_test/score", token, body(50))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("score %d: code = %v; body = %s", i+1, rec.Code, rec.Body.String())
		}
	}

	// out of attempts: no new test can be built
	req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/tests/bar_test/build", token, []byte(`{"trainee_id":"t-exhaust"}`))
	app.ServeHTTP(rec, req)
	tt := httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"error":"no test attempts left"}`),
	}
	checkCodeAndData(t, tt, rec)

	// trainees cannot reset attempts
	req, rec = newAuthRequest(http.MethodPost, "/v1/quiz/tests/bar_test/reset", token, []byte(`{"trainee_id":"t-exhaust"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("trainee reset: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	// a manager reset reopens the test
	req, rec = newAuthRequest(http.MethodPost, "/v1/quiz/tests/bar_test/reset", getToken(t, manager), []byte(`{"trainee_id":"t-exhaust"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("manager reset: code = %v; body = %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/quiz/tests/bar_test/build", token, []byte(`{"trainee_id":"t-exhaust"}`))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("build after reset: code = %v; body = %s", rec.Code, rec.Body.String())
	}
}

func TestQuizAPI_practiceNeverRepeatsHistory(t *testing.T) {
	usr := createUser(t, "Practice Kid", "practicekid", "pk@test.io", "passw0rd", user.TraineeRoles)
	token := getToken(t, usr)

	seen := map[int]bool{}
	history := []int{}
	// the steaks bank has 5 questions; drawing 5 with growing history must
	// cover them all without repeats
	for i := 0; i < 5; i++ {
		body := marchallObj(t, map[string]interface{}{"trainee_id": "t-practice", "history": history})
		req, rec := newAuthRequest(http.MethodPost, "/v1/quiz/tests/steaks_test/practice", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("practice %d: code = %v; body = %s", i, rec.Code, rec.Body.String())
		}
		var q quiz.PracticeQuestion
		if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
			t.Fatalf("unmarshalling question: %v", err)
		}
		if seen[q.Index] {
			t.Fatalf("question %d repeated", q.Index)
		}
		seen[q.Index] = true
		history = append(history, q.Index)
	}
}
