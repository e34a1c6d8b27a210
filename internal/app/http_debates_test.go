package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akitl/plankaHub/internal/store"
)

func newTestServer(t *testing.T, fake *fakeStore) (*HTTPServer, string) {
	t.Helper()
	service := newTestService(fake)
	sess, err := service.issueSession(context.Background(), store.User{ID: "usr_admin", Name: "Admin", Role: "admin"})
	if err != nil {
		t.Fatalf("issueSession: %v", err)
	}
	return NewHTTPServer(service, "*"), sess.Token
}

func doRequest(t *testing.T, server *HTTPServer, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func decodeResponse(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(recorder.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodGet, "/api/health", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestPreflightHasNoBody(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodOptions, "/api/projects/prj_1/debates", "", "")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", recorder.Code)
	}
	if recorder.Body.Len() != 0 {
		t.Fatalf("expected empty body on 204, got %q", recorder.Body.String())
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("expected CORS headers on preflight")
	}
}

func TestDebatesRequireAuthentication(t *testing.T) {
	server, _ := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodGet, "/api/projects/prj_1/debates", "", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestCreateDebateRejectsMissingTitle(t *testing.T) {
	server, token := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodPost, "/api/projects/prj_1/debates", token, `{"title":"  "}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if decodeResponse(t, recorder)["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", recorder.Body.String())
	}
}

func TestCreateDebateRejectsUnknownStatus(t *testing.T) {
	server, token := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodPost, "/api/projects/prj_1/debates", token, `{"title":"T","status":"stalled"}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestCreateDebateRejectsNegativePosition(t *testing.T) {
	server, token := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodPost, "/api/projects/prj_1/debates", token, `{"title":"T","position":-1}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestCreateDebateMissingProject(t *testing.T) {
	fake := &fakeStore{
		getProjectFn: func(context.Context, string) (store.Project, error) {
			return store.Project{}, sql.ErrNoRows
		},
	}
	server, token := newTestServer(t, fake)

	recorder := doRequest(t, server, http.MethodPost, "/api/projects/prj_missing/debates", token, `{"title":"T"}`)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if decodeResponse(t, recorder)["code"] != "PROJECT_NOT_FOUND" {
		t.Fatalf("expected PROJECT_NOT_FOUND, got %s", recorder.Body.String())
	}
}

func TestDeleteDebateForbiddenMapsTo403(t *testing.T) {
	fake := &fakeStore{
		getDebateFn: func(context.Context, string) (store.Debate, error) {
			return store.Debate{ID: "dbt_1", ProjectID: "prj_1"}, nil
		},
	}
	service := newTestService(fake)
	sess, err := service.issueSession(context.Background(), store.User{ID: "usr_1", Name: "Member", Role: "boardUser"})
	if err != nil {
		t.Fatalf("issueSession: %v", err)
	}
	server := NewHTTPServer(service, "*")

	recorder := doRequest(t, server, http.MethodDelete, "/api/debates/dbt_1", sess.Token, "")
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if decodeResponse(t, recorder)["code"] != "NOT_ENOUGH_RIGHTS" {
		t.Fatalf("expected NOT_ENOUGH_RIGHTS, got %s", recorder.Body.String())
	}
}

func TestUpdateDebateNullClearsDescription(t *testing.T) {
	var got store.DebatePatch
	fake := &fakeStore{
		getDebateFn: func(context.Context, string) (store.Debate, error) {
			return store.Debate{ID: "dbt_1", ProjectID: "prj_1", Title: "T", Status: "active"}, nil
		},
		updateDebateFn: func(_ context.Context, _ string, patch store.DebatePatch) (store.Debate, error) {
			got = patch
			return store.Debate{ID: "dbt_1", ProjectID: "prj_1", Title: "T", Status: "active"}, nil
		},
	}
	server, token := newTestServer(t, fake)

	recorder := doRequest(t, server, http.MethodPatch, "/api/debates/dbt_1", token, `{"description":null}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !got.Description.Set || got.Description.Value != nil {
		t.Fatalf("expected explicit null to clear description, got %+v", got.Description)
	}

	// An absent field must not touch the column.
	recorder = doRequest(t, server, http.MethodPatch, "/api/debates/dbt_1", token, `{"title":"Renamed"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if got.Description.Set {
		t.Fatalf("expected absent description to stay unset, got %+v", got.Description)
	}
}

func TestUpdateInfoCardNullClearsAssignee(t *testing.T) {
	var got store.InfoCardPatch
	fake := &fakeStore{
		getInfoCardFn: func(context.Context, string) (store.InfoCard, error) {
			return store.InfoCard{ID: "inf_1", ProjectID: "prj_1", Title: "T", Importance: 5}, nil
		},
		updateInfoCardFn: func(_ context.Context, _ string, patch store.InfoCardPatch) (store.InfoCard, error) {
			got = patch
			return store.InfoCard{ID: "inf_1", ProjectID: "prj_1", Title: "T", Importance: 5}, nil
		},
	}
	server, token := newTestServer(t, fake)

	recorder := doRequest(t, server, http.MethodPatch, "/api/info-cards/inf_1", token, `{"assignedUserId":null,"content":"body"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if !got.AssignedUserID.Set || got.AssignedUserID.Value != nil {
		t.Fatalf("expected explicit null to clear assignee, got %+v", got.AssignedUserID)
	}
	if !got.Content.Set || got.Content.Value == nil || *got.Content.Value != "body" {
		t.Fatalf("expected content set to body, got %+v", got.Content)
	}
}

func TestListDebatesRejectsUnknownStatusFilter(t *testing.T) {
	server, token := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodGet, "/api/projects/prj_1/debates?status=stalled", token, "")
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestCreateInfoCardRejectsImportanceOutOfRange(t *testing.T) {
	server, token := newTestServer(t, &fakeStore{})

	recorder := doRequest(t, server, http.MethodPost, "/api/projects/prj_1/info-cards", token, `{"title":"T","importance":11}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestDebateFlowOverHTTP(t *testing.T) {
	mem := newMemoryStore()
	service := newTestService(&mem.fakeStore)
	sess, err := service.issueSession(context.Background(), store.User{ID: "usr_admin", Name: "Admin", Role: "admin"})
	if err != nil {
		t.Fatalf("issueSession: %v", err)
	}
	server := NewHTTPServer(service, "*")

	recorder := doRequest(t, server, http.MethodPost, "/api/projects/prj_1/debates", sess.Token, `{"title":"A"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("create A: %d: %s", recorder.Code, recorder.Body.String())
	}
	created := decodeResponse(t, recorder)
	if _, ok := created["item"]; ok {
		t.Fatalf("expected bare entity from create, got %+v", created)
	}
	if created["position"] != float64(65536) {
		t.Fatalf("expected position 65536, got %v", created["position"])
	}
	aID := created["id"].(string)

	recorder = doRequest(t, server, http.MethodPost, "/api/projects/prj_1/debates", sess.Token, `{"title":"B"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("create B: %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doRequest(t, server, http.MethodGet, "/api/projects/prj_1/debates", sess.Token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("list: %d: %s", recorder.Code, recorder.Body.String())
	}
	items := decodeResponse(t, recorder)["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 debates, got %d", len(items))
	}

	recorder = doRequest(t, server, http.MethodDelete, "/api/debates/"+aID, sess.Token, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("delete: %d: %s", recorder.Code, recorder.Body.String())
	}
	deleted, ok := decodeResponse(t, recorder)["item"].(map[string]any)
	if !ok || deleted["id"] != aID {
		t.Fatalf("expected deleted item envelope for %s", aID)
	}

	recorder = doRequest(t, server, http.MethodGet, "/api/projects/prj_1/debates", sess.Token, "")
	items = decodeResponse(t, recorder)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 debate after delete, got %d", len(items))
	}
	remaining := items[0].(map[string]any)
	if remaining["title"] != "B" || remaining["position"] != float64(131072) {
		t.Fatalf("expected B at 131072, got %+v", remaining)
	}
}
