package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"hackathon-portal/internal/generator"
	"hackathon-portal/internal/model"
)

func TestTeamWorkflowEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")

	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid", "problem": "Power outages"})
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar microgrid", "problem": "Power outages"})

	resp := doRequest(t, env.ts, http.MethodGet, "/v1/team/submission", token, nil)
	body := expectStatus(t, resp, http.StatusOK)
	sub := body["submission"].(map[string]any)
	if sub["status"] != string(model.StatusInProgress) {
		t.Fatalf("expected IN_PROGRESS, got %v", sub["status"])
	}
	content := sub["content"].(map[string]any)
	if content["title"] != "Solar microgrid" {
		t.Fatalf("expected latest draft, got %v", content["title"])
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	body = expectStatus(t, resp, http.StatusOK)
	if body["pptUrl"] != "http://generator.test/outputs/deck-1.pptx" {
		t.Fatalf("expected generated url, got %v", body["pptUrl"])
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	expectReason(t, resp, http.StatusForbidden, "locked")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/save-draft", token, map[string]any{
		"content": map[string]string{"title": "Too late"},
	})
	expectReason(t, resp, http.StatusForbidden, "locked")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/submit-prototype", token, map[string]string{
		"prototypeUrl": "https://github.com/alpha/microgrid",
	})
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/submit-certificate", token, map[string]string{
		"name":    "Ada Lovelace",
		"college": "State College",
		"year":    "3",
	})
	body = expectStatus(t, resp, http.StatusOK)
	sub = body["submission"].(map[string]any)
	if sub["status"] != string(model.StatusLocked) {
		t.Fatalf("expected LOCKED, got %v", sub["status"])
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/submit-prototype", token, map[string]string{
		"prototypeUrl": "https://github.com/alpha/other",
	})
	expectReason(t, resp, http.StatusForbidden, "locked")

	stored, err := env.store.GetSubmission(context.Background(), team.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if stored.PrototypeURL == nil || *stored.PrototypeURL != "https://github.com/alpha/microgrid" {
		t.Fatalf("expected first prototype url to remain, got %v", stored.PrototypeURL)
	}
	if env.gen.Calls() != 1 {
		t.Fatalf("expected one generator call, got %d", env.gen.Calls())
	}
}

func TestHaltBlocksTeamWrites(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	admin := loginAdmin(t, env.ts)

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/toggle-halt", admin, nil)
	body := expectStatus(t, resp, http.StatusOK)
	if body["isPaused"] != true {
		t.Fatalf("expected paused, got %v", body["isPaused"])
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/save-draft", token, map[string]any{
		"content": map[string]string{"title": "Blocked"},
	})
	expectReason(t, resp, http.StatusLocked, "system_halted")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	expectReason(t, resp, http.StatusLocked, "system_halted")
	if env.gen.Calls() != 0 {
		t.Fatalf("expected no generator calls, got %d", env.gen.Calls())
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/timer/start", admin, nil)
	expectStatus(t, resp, http.StatusOK)
	saveDraft(t, env.ts, token, map[string]string{"title": "Resumed"})
}

func TestGenerateRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	body := expectReason(t, resp, http.StatusBadRequest, "prerequisite_missing")
	if body["step"] != "content" {
		t.Fatalf("expected content step, got %v", body["step"])
	}
}

func TestPrototypeRequiresArtifact(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/submit-prototype", token, map[string]string{
		"prototypeUrl": "https://github.com/alpha/microgrid",
	})
	body := expectReason(t, resp, http.StatusBadRequest, "prerequisite_missing")
	if body["step"] != "artifact" {
		t.Fatalf("expected artifact step, got %v", body["step"])
	}
}

func TestGeneratorUnreachableMapsToBadGateway(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})
	env.gen.Fail(&generator.UnreachableError{
		Attempts: []generator.Attempt{{Endpoint: "http://a.test"}, {Endpoint: "http://b.test"}},
		Last:     errors.New("connection refused"),
	})

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	body := expectReason(t, resp, http.StatusBadGateway, "delegate_unreachable")
	attempts, ok := body["attempts"].([]any)
	if !ok || len(attempts) != 2 {
		t.Fatalf("expected two attempts, got %#v", body["attempts"])
	}

	resp = doRequest(t, env.ts, http.MethodGet, "/v1/team/submission", token, nil)
	body = expectStatus(t, resp, http.StatusOK)
	sub := body["submission"].(map[string]any)
	if sub["pptUrl"] != nil {
		t.Fatalf("expected no artifact after failure, got %v", sub["pptUrl"])
	}
}

func TestGeneratorLogicErrorIsSurfaced(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})
	env.gen.Fail(&generator.LogicError{Endpoint: "http://a.test", Message: "template missing"})

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	body := expectReason(t, resp, http.StatusUnprocessableEntity, "delegate_logic_error")
	if body["error"] != "template missing" {
		t.Fatalf("expected delegate message, got %v", body["error"])
	}
}

func TestPitchDeckStoresProjectData(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-pitch-deck", token, map[string]any{
		"content": map[string]string{"title": "Pitch", "solution": "Batteries everywhere"},
	})
	body := expectStatus(t, resp, http.StatusOK)
	if body["pptUrl"] != "http://generator.test/outputs/pitch-1.pptx" {
		t.Fatalf("expected pitch url, got %v", body["pptUrl"])
	}
	sub := body["submission"].(map[string]any)
	if sub["status"] != string(model.StatusSubmitted) {
		t.Fatalf("expected SUBMITTED, got %v", sub["status"])
	}
}

func TestSelectQuestionRequiresAllotment(t *testing.T) {
	env := newTestEnv(t)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	ctx := context.Background()

	other := "Beta"
	foreign, err := env.store.CreateProblem(ctx, model.ProblemStatement{QuestionNo: "Q1", Title: "Water", Description: "Clean water", AllottedTo: &other})
	if err != nil {
		t.Fatalf("create problem: %v", err)
	}
	byName := team.Name
	own, err := env.store.CreateProblem(ctx, model.ProblemStatement{QuestionNo: "Q2", Title: "Power", Description: "Grid", AllottedTo: &byName})
	if err != nil {
		t.Fatalf("create problem: %v", err)
	}

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/select-question", token, map[string]string{"problemId": foreign.ID})
	expectReason(t, resp, http.StatusForbidden, "not_allotted")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/select-question", token, map[string]string{"problemId": own.ID})
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, env.ts, http.MethodGet, "/v1/team/profile", token, nil)
	body := expectStatus(t, resp, http.StatusOK)
	problems := body["problems"].([]any)
	if len(problems) != 1 {
		t.Fatalf("expected one allotted problem, got %d", len(problems))
	}
	selected := body["selectedProblem"].(map[string]any)
	if selected["id"] != own.ID {
		t.Fatalf("expected selected problem %s, got %v", own.ID, selected["id"])
	}
}

func TestCertificateDetailsFollowCollectionFlag(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	admin := loginAdmin(t, env.ts)
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})

	participants := map[string]any{
		"participants": []map[string]string{
			{"name": "Ada", "college": "State College", "year": "3", "dept": "CSE", "role": "leader"},
			{"name": "Grace", "college": "State College", "year": "2", "dept": "EEE", "role": "member"},
		},
	}
	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/certificate-details", token, participants)
	expectReason(t, resp, http.StatusForbidden, "certificates_closed")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/toggle-certificates", admin, nil)
	body := expectStatus(t, resp, http.StatusOK)
	if body["allowCertificateDetails"] != true {
		t.Fatalf("expected collection open, got %v", body["allowCertificateDetails"])
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/certificate-details", token, participants)
	body = expectStatus(t, resp, http.StatusOK)
	certs := body["certificates"].([]any)
	if len(certs) != 2 {
		t.Fatalf("expected two certificates, got %d", len(certs))
	}
	first := certs[0].(map[string]any)
	if first["role"] != "LEADER" {
		t.Fatalf("expected upper-case role, got %v", first["role"])
	}
}
