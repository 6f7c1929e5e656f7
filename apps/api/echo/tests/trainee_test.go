package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/crewhq/brigade/core/training"
	"github.com/crewhq/brigade/core/user"
)

func TestTraineeAPI_create_permissions(t *testing.T) {
	trainer := createUser(t, "Shift Trainer", "shifttrainer", "st@test.io", "passw0rd", user.TrainerRoles)
	manager := createUser(t, "Floor Manager", "floormanager", "fm@test.io", "passw0rd", user.ManagerRoles)

	body := []byte(`{"name":"New Kid","employee_number":"9001","store":"downtown"}`)

	tests := []httpTest{
		{
			name:     "anonymous is rejected",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "trainer cannot create",
			token:    getToken(t, trainer),
			wantCode: http.StatusForbidden,
			wantData: []byte(`{"error":"permission denied"}`),
		},
		{
			name:     "manager creates",
			token:    getToken(t, manager),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate employee number in store",
			token:    getToken(t, manager),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/trainees", tt.token, body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestTraineeAPI_shiftWorkflow(t *testing.T) {
	trainer := createUser(t, "Workflow Trainer", "wftrainer", "wft@test.io", "passw0rd", user.TrainerRoles)
	manager := createUser(t, "Workflow Manager", "wfmanager", "wfm@test.io", "passw0rd", user.ManagerRoles)
	rec := createTrainee(t, "Workflow Kid", "9100", "riverside")

	trainerToken := getToken(t, trainer)
	managerToken := getToken(t, manager)
	base := "/v1/trainees/" + rec.ID + "/shifts/follow"

	// schedule (manager)
	when := time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)
	req, rr := newAuthRequest(http.MethodPut, base, managerToken, []byte(`{"when":"`+when+`"}`))
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("schedule: code = %v; body = %s", rr.Code, rr.Body.String())
	}

	// trainer cannot schedule
	req, rr = newAuthRequest(http.MethodPut, base, trainerToken, []byte(`{"when":"`+when+`"}`))
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("trainer schedule: code = %v; want %v", rr.Code, http.StatusForbidden)
	}

	// claim (trainer)
	req, rr = newAuthRequest(http.MethodPost, base+"/claim", trainerToken)
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("claim: code = %v; body = %s", rr.Code, rr.Body.String())
	}

	// double claim is rejected
	req, rr = newAuthRequest(http.MethodPost, base+"/claim", trainerToken)
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("double claim: code = %v; want %v", rr.Code, http.StatusBadRequest)
	}

	// approve (manager)
	req, rr = newAuthRequest(http.MethodPost, base+"/approve", managerToken)
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve: code = %v; body = %s", rr.Code, rr.Body.String())
	}

	// trainer sign with feedback & readiness
	body := []byte(`{"feedback":"solid shift","readiness":{"knowledge":3,"execution":2,"confidence":3}}`)
	req, rr = newAuthRequest(http.MethodPost, base+"/trainer-sign", trainerToken, body)
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("trainer-sign: code = %v; body = %s", rr.Code, rr.Body.String())
	}

	// manager sign with checklist score
	req, rr = newAuthRequest(http.MethodPost, base+"/manager-sign", managerToken, []byte(`{"score":3.5}`))
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("manager-sign: code = %v; body = %s", rr.Code, rr.Body.String())
	}

	var signed training.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &signed); err != nil {
		t.Fatalf("unmarshalling record: %v", err)
	}
	sa := signed.Schedule[training.ShiftFollow]
	if sa == nil || sa.TrainerSignedAt == nil || sa.ManagerSignedAt == nil {
		t.Fatalf("expected dual-signed follow shift, got %+v", sa)
	}
	if signed.ShiftFeedback[training.ShiftFollow] != "solid shift" {
		t.Errorf("feedback = %q", signed.ShiftFeedback[training.ShiftFollow])
	}
	if signed.TrainerRatings[training.ShiftFollow] == nil {
		t.Error("expected trainer readiness rating")
	}

	// progress now shows the follow shift complete
	req, rr = newAuthRequest(http.MethodGet, "/v1/trainees/"+rec.ID+"/progress", managerToken)
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("progress: code = %v; body = %s", rr.Code, rr.Body.String())
	}
	var prog training.TraineeProgress
	if err := json.Unmarshal(rr.Body.Bytes(), &prog); err != nil {
		t.Fatalf("unmarshalling progress: %v", err)
	}
	if prog.Certification.Done != 1 || prog.Certification.Total != 6 {
		t.Errorf("certification = %+v; want 1/6", prog.Certification)
	}
	if prog.Certification.Pct != 17 {
		t.Errorf("pct = %v; want 17", prog.Certification.Pct)
	}
}

func TestTraineeAPI_signBeforeTrainer(t *testing.T) {
	manager := createUser(t, "Eager Manager", "eagermanager", "em@test.io", "passw0rd", user.ManagerRoles)
	rec := createTrainee(t, "Unsigned Kid", "9200", "lakeside")

	managerToken := getToken(t, manager)
	base := "/v1/trainees/" + rec.ID + "/shifts/foodrun"

	when := time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339)
	req, rr := newAuthRequest(http.MethodPut, base, managerToken, []byte(`{"when":"`+when+`"}`))
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("schedule: code = %v", rr.Code)
	}

	// manager cannot counter-sign before the trainer signed
	req, rr = newAuthRequest(http.MethodPost, base+"/manager-sign", managerToken, []byte(`{}`))
	app.ServeHTTP(rr, req)
	tt := httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"error":"trainer has not signed off this shift"}`),
	}
	checkCodeAndData(t, tt, rr)
}

func TestTraineeAPI_unknownShiftKey(t *testing.T) {
	manager := createUser(t, "Key Manager", "keymanager", "km@test.io", "passw0rd", user.ManagerRoles)
	rec := createTrainee(t, "Key Kid", "9300", "hillside")

	req, rr := newAuthRequest(http.MethodPut, "/v1/trainees/"+rec.ID+"/shifts/lol", getToken(t, manager), []byte(`{"when":"2026-01-01T00:00:00Z"}`))
	app.ServeHTTP(rr, req)
	tt := httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"key":"unknown shift key"}`),
	}
	checkCodeAndData(t, tt, rr)
}

func TestTraineeAPI_risk(t *testing.T) {
	manager := createUser(t, "Risk Manager", "riskmanager", "rm@test.io", "passw0rd", user.ManagerRoles)
	rec := createTrainee(t, "Risky Kid", "9400", "seaside")

	req, rr := newAuthRequest(http.MethodGet, "/v1/trainees/"+rec.ID+"/risk", getToken(t, manager))
	app.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("risk: code = %v; body = %s", rr.Code, rr.Body.String())
	}

	var got struct {
		Simple struct {
			Score int    `json:"score"`
			Level string `json:"level"`
		} `json:"simple"`
		Legacy struct {
			Score   int      `json:"score"`
			Drivers []string `json:"drivers"`
		} `json:"legacy"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshalling risk: %v", err)
	}
	// a fresh trainee has no progress and no schedule activity
	if got.Simple.Score != 75 || got.Simple.Level != "high" {
		t.Errorf("simple = %+v; want 75/high", got.Simple)
	}
	if got.Legacy.Score != 20 {
		t.Errorf("legacy score = %v; want 20 (stalled)", got.Legacy.Score)
	}
	if len(got.Legacy.Drivers) != 1 || got.Legacy.Drivers[0] != "No recent activity" {
		t.Errorf("drivers = %v", got.Legacy.Drivers)
	}
}

func TestTraineeAPI_compliance(t *testing.T) {
	manager := createUser(t, "Comp Manager", "compmanager", "cm@test.io", "passw0rd", user.ManagerRoles)
	rec := createTrainee(t, "Comp Kid", "9500", "compville")

	// one trainer-signed, unsigned by manager
	now := time.Now().UTC()
	data, err := trainingRepo.GetTrainingData(context.Background())
	if err != nil {
		t.Fatalf("GetTrainingData(): %v", err)
	}
	stored := data[rec.ID].Clone()
	stored.Schedule[training.ShiftFollow] = &training.ShiftAssignment{
		When:            &now,
		Trainer:         "someone",
		TrainerSignedBy: "someone",
		TrainerSignedAt: &now,
	}
	data[rec.ID] = stored
	if err := trainingRepo.SaveTrainingData(context.Background(), data); err != nil {
		t.Fatalf("SaveTrainingData(): %v", err)
	}

	req, rr := newAuthRequest(http.MethodGet, "/v1/trainees/compliance?store=compville", getToken(t, manager))
	app.ServeHTTP(rr, req)
	tt := httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"totalTrainerSigned":1,"dualSigned":0,"compliancePct":0}`),
	}
	checkCodeAndData(t, tt, rr)
}
