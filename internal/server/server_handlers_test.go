package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"hackathon-portal/internal/model"
)

func TestAdminCreateTeamAndDashboard(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/create-team", admin, map[string]any{
		"teamName":    "  Alpha  ",
		"collegeName": "State College",
		"member1":     "Ada",
	})
	body := expectStatus(t, resp, http.StatusCreated)
	team := body["team"].(map[string]any)
	if team["teamName"] != "Alpha" {
		t.Fatalf("expected trimmed team name, got %v", team["teamName"])
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/create-team", admin, map[string]any{
		"teamName":    "alpha",
		"collegeName": "Other College",
	})
	expectReason(t, resp, http.StatusConflict, "conflict")

	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar microgrid", "problem": "Power outages"})
	env.createTeam(t, "Beta", "Tech Institute")

	resp = doRequest(t, env.ts, http.MethodGet, "/v1/admin/dashboard", admin, nil)
	body = expectStatus(t, resp, http.StatusOK)
	if body["totalTeams"] != float64(2) {
		t.Fatalf("expected 2 teams, got %v", body["totalTeams"])
	}
	if body["inProgress"] != float64(1) || body["notStarted"] != float64(1) {
		t.Fatalf("expected one in progress and one not started, got %v / %v", body["inProgress"], body["notStarted"])
	}

	resp = doRequest(t, env.ts, http.MethodGet, "/v1/admin/candidates", admin, nil)
	body = expectStatus(t, resp, http.StatusOK)
	for _, raw := range body["candidates"].([]any) {
		item := raw.(map[string]any)
		name := item["team"].(map[string]any)["teamName"]
		switch name {
		case "Alpha":
			if item["progress"] != float64(25) {
				t.Fatalf("expected progress 25, got %v", item["progress"])
			}
			if item["lastSaved"] == nil {
				t.Fatalf("expected lastSaved for Alpha")
			}
		case "Beta":
			if item["progress"] != float64(0) || item["status"] != string(model.StatusNotStarted) {
				t.Fatalf("expected untouched Beta, got %v", item)
			}
		}
	}
}

func TestAdminCreateTeamValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/create-team", admin, map[string]any{
		"teamName":    "   ",
		"collegeName": "State College",
	})
	body := expectReason(t, resp, http.StatusBadRequest, "invalid_input")
	if body["error"] != "teamName is required" {
		t.Fatalf("expected teamName message, got %v", body["error"])
	}
}

func TestAdminDeleteTeamCascades(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/problems", admin, map[string]any{
		"questionNo":  "Q1",
		"title":       "Power",
		"description": "Keep the lights on",
		"allottedTo":  team.ID,
	})
	body := expectStatus(t, resp, http.StatusCreated)
	problemID := body["problem"].(map[string]any)["id"].(string)

	resp = doRequest(t, env.ts, http.MethodDelete, "/v1/admin/teams/"+team.ID, admin, nil)
	expectStatus(t, resp, http.StatusOK)

	ctx := context.Background()
	if _, err := env.store.GetTeam(ctx, team.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected team to be gone, got %v", err)
	}
	if _, err := env.store.GetSubmission(ctx, team.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected submission to be gone, got %v", err)
	}
	problem, err := env.store.GetProblem(ctx, problemID)
	if err != nil {
		t.Fatalf("get problem: %v", err)
	}
	if problem.AllottedTo != nil {
		t.Fatalf("expected allotment cleared, got %v", *problem.AllottedTo)
	}

	resp = doRequest(t, env.ts, http.MethodDelete, "/v1/admin/teams/"+team.ID, admin, nil)
	expectReason(t, resp, http.StatusNotFound, "not_found")
}

func TestAdminUnlockAllowsRework(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/teams/"+team.ID+"/unlock", admin, nil)
	body := expectStatus(t, resp, http.StatusOK)
	sub := body["submission"].(map[string]any)
	if sub["status"] != string(model.StatusInProgress) || sub["pptUrl"] != nil {
		t.Fatalf("expected unlocked submission, got %v", sub)
	}

	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid v2"})
	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	body = expectStatus(t, resp, http.StatusOK)
	if body["pptUrl"] != "http://generator.test/outputs/deck-2.pptx" {
		t.Fatalf("expected second deck, got %v", body["pptUrl"])
	}
}

func TestAdminRegeneratePermission(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})
	expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil), http.StatusOK)

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/teams/"+team.ID+"/regenerate-permission", admin, map[string]any{})
	expectReason(t, resp, http.StatusBadRequest, "invalid_input")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/teams/"+team.ID+"/regenerate-permission", admin, map[string]any{"allowed": true})
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	expectStatus(t, resp, http.StatusOK)
	resp = doRequest(t, env.ts, http.MethodPost, "/v1/team/generate-ppt", token, nil)
	expectReason(t, resp, http.StatusForbidden, "locked")
}

func TestAdminForceRegenerateBypassesHalt(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})

	expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/v1/admin/timer/pause", admin, nil), http.StatusOK)

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/teams/"+team.ID+"/force-regenerate", admin, nil)
	body := expectStatus(t, resp, http.StatusOK)
	if body["pptUrl"] != "http://generator.test/outputs/deck-1.pptx" {
		t.Fatalf("expected forced deck, got %v", body["pptUrl"])
	}
}

func TestAdminResetSelection(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	ctx := context.Background()
	name := team.Name
	problem, err := env.store.CreateProblem(ctx, model.ProblemStatement{QuestionNo: "Q1", Title: "Power", Description: "Grid", AllottedTo: &name})
	if err != nil {
		t.Fatalf("create problem: %v", err)
	}
	expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/v1/team/select-question", token, map[string]string{"problemId": problem.ID}), http.StatusOK)

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/teams/"+team.ID+"/reset-selection", admin, nil)
	body := expectStatus(t, resp, http.StatusOK)
	if body["team"].(map[string]any)["selectedProblemId"] != nil {
		t.Fatalf("expected selection cleared, got %v", body["team"])
	}
}

func TestAdminTestConfigAndTimerReset(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/test-config", admin, map[string]any{"durationMinutes": 0})
	expectReason(t, resp, http.StatusBadRequest, "invalid_input")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/test-config", admin, map[string]any{"durationMinutes": 90})
	body := expectStatus(t, resp, http.StatusOK)
	if body["config"].(map[string]any)["durationMinutes"] != float64(90) {
		t.Fatalf("expected duration 90, got %v", body["config"])
	}

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/timer/reset", admin, nil)
	body = expectStatus(t, resp, http.StatusOK)
	timer := body["timer"].(map[string]any)
	if timer["timeRemaining"] != float64(5400) {
		t.Fatalf("expected 5400 seconds, got %v", timer["timeRemaining"])
	}
}

func TestAdminProblemLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	team := env.createTeam(t, "Alpha", "State College")

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/problems", admin, map[string]any{
		"questionNo":  "Q7",
		"title":       "Water",
		"description": "Clean water for villages",
	})
	body := expectStatus(t, resp, http.StatusCreated)
	problemID := body["problem"].(map[string]any)["id"].(string)

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/problems/"+problemID+"/allot", admin, map[string]any{"allottedTo": team.Name})
	body = expectStatus(t, resp, http.StatusOK)
	if body["problem"].(map[string]any)["allottedTo"] != team.Name {
		t.Fatalf("expected allotment to %s, got %v", team.Name, body["problem"])
	}

	resp = doRequest(t, env.ts, http.MethodGet, "/v1/admin/problems", admin, nil)
	body = expectStatus(t, resp, http.StatusOK)
	if len(body["problems"].([]any)) != 1 {
		t.Fatalf("expected one problem, got %v", body["problems"])
	}

	resp = doRequest(t, env.ts, http.MethodDelete, "/v1/admin/problems/"+problemID, admin, nil)
	expectStatus(t, resp, http.StatusOK)
	resp = doRequest(t, env.ts, http.MethodDelete, "/v1/admin/problems/"+problemID, admin, nil)
	expectReason(t, resp, http.StatusNotFound, "not_found")
}

func TestReviewerScoring(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	team := env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})

	resp := doRequest(t, env.ts, http.MethodPost, "/v1/admin/reviewers", admin, map[string]any{
		"email":    "Judge@Example.com",
		"password": "judge-password",
		"name":     "Judge Judy",
	})
	expectStatus(t, resp, http.StatusCreated)
	reviewer := loginAccount(t, env.ts, "reviewer", "judge@example.com", "judge-password")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/admin/create-team", reviewer, map[string]any{
		"teamName":    "Gamma",
		"collegeName": "State College",
	})
	expectReason(t, resp, http.StatusForbidden, "forbidden")

	resp = doRequest(t, env.ts, http.MethodGet, "/v1/reviewer/team/"+team.ID, reviewer, nil)
	body := expectStatus(t, resp, http.StatusOK)
	submissionID := body["submission"].(map[string]any)["id"].(string)

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/reviewer/score", reviewer, map[string]any{
		"submissionId": submissionID,
		"innovation":   11,
	})
	expectReason(t, resp, http.StatusBadRequest, "invalid_input")

	resp = doRequest(t, env.ts, http.MethodPost, "/v1/reviewer/score", reviewer, map[string]any{
		"submissionId": submissionID,
		"innovation":   8,
		"feasibility":  7,
		"techStack":    9,
		"presentation": 6,
		"impact":       10,
		"comments":     "Strong demo",
	})
	body = expectStatus(t, resp, http.StatusOK)
	if body["score"].(map[string]any)["total"] != float64(40) {
		t.Fatalf("expected total 40, got %v", body["score"])
	}

	resp = doRequest(t, env.ts, http.MethodGet, "/v1/reviewer/dashboard", reviewer, nil)
	body = expectStatus(t, resp, http.StatusOK)
	teams := body["teams"].([]any)
	if len(teams) != 1 {
		t.Fatalf("expected one team, got %d", len(teams))
	}
	myScore, ok := teams[0].(map[string]any)["myScore"].(map[string]any)
	if !ok || myScore["comments"] != "Strong demo" {
		t.Fatalf("expected own score on dashboard, got %v", teams[0])
	}
}

func TestActionsAreAudited(t *testing.T) {
	env := newTestEnv(t)
	admin := loginAdmin(t, env.ts)
	env.createTeam(t, "Alpha", "State College")
	token := loginTeam(t, env.ts, "Alpha", "State College")
	saveDraft(t, env.ts, token, map[string]string{"title": "Solar grid"})
	expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/v1/admin/toggle-halt", admin, nil), http.StatusOK)

	seen := map[string]bool{}
	for _, event := range env.store.Events() {
		seen[event.Type] = true
	}
	for _, want := range []string{auditDraftSaved, auditHaltChanged} {
		if !seen[want] {
			t.Fatalf("expected audit event %s, got %v", want, seen)
		}
	}
}
