package handover

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/handover/handover/internal/platform/auth"
)

func newRequest(method, target, body string, actingUser uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if actingUser != uuid.Nil {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, actingUser.String())
		req = req.WithContext(ctx)
	}
	return req
}

func TestHandler_CreateHandover(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHandler(env.svc)

	patient := uuid.New()
	sender := uuid.New()
	env.coverage.allow(patient, sender, "day")

	body := `{"patient_id":"` + patient.String() + `","from_shift_id":"day","summary":"stable"}`
	req := newRequest(http.MethodPost, "/handovers", body, sender)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := handler.CreateHandover(c); err != nil {
		t.Fatalf("CreateHandover: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var got Handover
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ToShiftID != "night" {
		t.Errorf("to shift = %q, want night", got.ToShiftID)
	}
}

func TestHandler_CreateHandover_MissingUser(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHandler(env.svc)

	body := `{"patient_id":"` + uuid.NewString() + `","from_shift_id":"day"}`
	req := newRequest(http.MethodPost, "/handovers", body, uuid.Nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := handler.CreateHandover(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestHandler_GetHandover_NotFound(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHandler(env.svc)

	req := newRequest(http.MethodGet, "/handovers/"+uuid.NewString(), "", uuid.New())
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := handler.GetHandover(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestHandler_TransitionErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHandler(env.svc)

	// Draft without the ready step: starting it is a state conflict.
	h, _, receiver := env.seedHandover(t, StateDraft)

	start := handler.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return env.svc.Start(c.Request().Context(), id, user)
	})

	req := newRequest(http.MethodPost, "/handovers/"+h.ID.String()+"/start", "", receiver)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(h.ID.String())

	err := start(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusConflict {
		t.Fatalf("err = %v, want 409", err)
	}

	// No coverage in the receiving shift maps to forbidden.
	ready, _, _ := env.seedHandover(t, StateReady)
	req = newRequest(http.MethodPost, "/handovers/"+ready.ID.String()+"/start", "", uuid.New())
	rec = httptest.NewRecorder()
	c = echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(ready.ID.String())

	err = start(c)
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}

func TestHandler_CancelRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHandler(env.svc)

	h, sender, _ := env.seedHandover(t, StateDraft)

	cancel := handler.actionWithReason(func(c echo.Context, id uuid.UUID, reason string, user uuid.UUID) (*Handover, error) {
		return env.svc.Cancel(c.Request().Context(), id, reason, user)
	})

	req := newRequest(http.MethodPost, "/handovers/"+h.ID.String()+"/cancel", `{"reason":""}`, sender)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(h.ID.String())

	err := cancel(c)
	var httpErr *echo.HTTPError
	if !asHTTPError(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestHandler_FullLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHandler(env.svc)
	h, sender, receiver := env.seedHandover(t, StateDraft)

	post := func(action string, user uuid.UUID, fn echo.HandlerFunc) map[string]interface{} {
		t.Helper()
		req := newRequest(http.MethodPost, "/handovers/"+h.ID.String()+"/"+action, "", user)
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(h.ID.String())
		if err := fn(c); err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		var resp map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s decode: %v", action, err)
		}
		return resp
	}

	ready := handler.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return env.svc.Ready(c.Request().Context(), id, user)
	})
	start := handler.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return env.svc.Start(c.Request().Context(), id, user)
	})
	complete := handler.action(func(c echo.Context, id, user uuid.UUID) (*Handover, error) {
		return env.svc.Complete(c.Request().Context(), id, user)
	})

	if resp := post("ready", sender, ready); resp["state"] != string(StateReady) {
		t.Errorf("after ready: state = %v", resp["state"])
	}
	if resp := post("start", receiver, start); resp["state"] != string(StateInProgress) {
		t.Errorf("after start: state = %v", resp["state"])
	}
	if resp := post("complete", receiver, complete); resp["state"] != string(StateCompleted) {
		t.Errorf("after complete: state = %v", resp["state"])
	}
}

func asHTTPError(err error, target **echo.HTTPError) bool {
	he, ok := err.(*echo.HTTPError)
	if ok {
		*target = he
	}
	return ok
}
