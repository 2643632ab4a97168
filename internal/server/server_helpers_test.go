package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, status int) map[string]any {
	t.Helper()
	body := decodeBody(t, resp)
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d (%v)", status, resp.StatusCode, body)
	}
	return body
}

func expectReason(t *testing.T, resp *http.Response, status int, reason string) map[string]any {
	t.Helper()
	body := expectStatus(t, resp, status)
	if body["reason"] != reason {
		t.Fatalf("expected reason %s, got %v", reason, body["reason"])
	}
	return body
}

func loginTeam(t *testing.T, ts *httptest.Server, teamName, college string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"role":        "team",
		"teamName":    teamName,
		"collegeName": college,
	})
	body := expectStatus(t, resp, http.StatusOK)
	return body["token"].(string)
}

func loginAccount(t *testing.T, ts *httptest.Server, role, email, password string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"role":     role,
		"email":    email,
		"password": password,
	})
	body := expectStatus(t, resp, http.StatusOK)
	return body["token"].(string)
}

func loginAdmin(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	return loginAccount(t, ts, "admin", testAdminEmail, testAdminPassword)
}

func saveDraft(t *testing.T, ts *httptest.Server, token string, content map[string]string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/v1/team/save-draft", token, map[string]any{"content": content})
	expectStatus(t, resp, http.StatusOK)
}
