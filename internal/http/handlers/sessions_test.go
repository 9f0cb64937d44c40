package handlers

import (
	"net/http"
	"testing"
)

func TestSessionLifecycle(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{}}
	app := newTestApp(t, transport)

	rec := do(app.CreateSession, http.MethodPost, "/v1/sessions", "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	out := decodeBody(t, rec)
	id, _ := out["id"].(string)
	if id == "" {
		t.Fatalf("missing session id in %v", out)
	}

	rec = do(app.GetSession, http.MethodGet, "/v1/sessions/"+id, id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = do(app.DeleteSession, http.MethodDelete, "/v1/sessions/"+id, id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = do(app.GetSession, http.MethodGet, "/v1/sessions/"+id, id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	transport := &fakeTransport{responses: map[string]fakeResponse{}}
	app := newTestApp(t, transport)
	app.Sessions.Create()

	rec := do(app.Health, http.MethodGet, "/v1/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := decodeBody(t, rec)
	if out["status"] != "ok" {
		t.Fatalf("status field = %v", out["status"])
	}
	if out["engine_key_set"] != true {
		t.Fatalf("engine_key_set = %v", out["engine_key_set"])
	}
	if out["sessions"] != float64(1) {
		t.Fatalf("sessions = %v", out["sessions"])
	}
}
