package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/services"

	"go.uber.org/zap"
)

type stubHandler struct {
	got models.MessageEvent
	out services.Outcome
	err error
}

func (s *stubHandler) Handle(_ context.Context, ev models.MessageEvent) (services.Outcome, error) {
	s.got = ev
	return s.out, s.err
}

func post(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v3/events/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandleMessage(t *testing.T) {
	stub := &stubHandler{out: services.OutcomeProcessed}
	c := NewEventsController(stub, zap.NewNop())

	rr := post(c.HandleMessage, `{"chatId":"c1","messageId":"m9","message":{"role":"assistant","content":"hello","extra":1}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.got.Message.ID != "m9" || stub.got.Message.ChatID != "c1" || stub.got.Message.Content != "hello" {
		t.Fatalf("event not filled from envelope: %+v", stub.got)
	}
	var env struct {
		Data struct {
			Outcome string `json:"outcome"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Outcome != string(services.OutcomeProcessed) {
		t.Fatalf("expected processed outcome, got %q", env.Data.Outcome)
	}
}

func TestHandleMessageValidation(t *testing.T) {
	c := NewEventsController(&stubHandler{}, zap.NewNop())
	if rr := post(c.HandleMessage, `{"messageId":"m1"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing chatId should be rejected, got %d", rr.Code)
	}
	if rr := post(c.HandleMessage, `not json`); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body should be rejected, got %d", rr.Code)
	}
}

func TestHandleMessageFailure(t *testing.T) {
	c := NewEventsController(&stubHandler{err: errors.New("store down")}, zap.NewNop())
	if rr := post(c.HandleMessage, `{"chatId":"c1","messageId":"m1"}`); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
