package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"klimapart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type mockCallbackService struct {
	ack      string
	payloads []service.CallbackPayload
}

func (m *mockCallbackService) HandleCallback(ctx context.Context, payload service.CallbackPayload) string {
	m.payloads = append(m.payloads, payload)
	return m.ack
}

func postCallback(t *testing.T, router chi.Router, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/payment/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCallbackHandler_LiteralAckBody(t *testing.T) {
	tests := []struct {
		name string
		ack  string
	}{
		{"success acknowledged with OK", service.AckOK},
		{"rejection acknowledged with FAILED", service.AckFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCallbackService{ack: tt.ack}
			router := chi.NewRouter()
			NewCallbackHandler(svc, zap.NewNop()).RegisterRoutes(router, nil)

			form := url.Values{}
			form.Set("merchant_oid", "KPTEST1")
			form.Set("status", "success")
			form.Set("total_amount", "100000")
			form.Set("hash", "abc")

			w := postCallback(t, router, form)

			// The body must be exactly the literal, nothing wrapped around it
			if w.Body.String() != tt.ack {
				t.Errorf("expected body %q, got %q", tt.ack, w.Body.String())
			}
			if w.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("expected text/plain, got %q", ct)
			}
		})
	}
}

func TestCallbackHandler_FormFieldsForwarded(t *testing.T) {
	svc := &mockCallbackService{ack: service.AckOK}
	router := chi.NewRouter()
	NewCallbackHandler(svc, zap.NewNop()).RegisterRoutes(router, nil)

	form := url.Values{}
	form.Set("merchant_oid", "KPTEST2")
	form.Set("status", "failed")
	form.Set("total_amount", "50000")
	form.Set("hash", "signature")

	postCallback(t, router, form)

	if len(svc.payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(svc.payloads))
	}
	payload := svc.payloads[0]
	if payload.MerchantOID != "KPTEST2" || payload.Status != "failed" ||
		payload.TotalAmount != "50000" || payload.Hash != "signature" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestCallbackHandler_NoAuthRequired(t *testing.T) {
	svc := &mockCallbackService{ack: service.AckOK}
	router := chi.NewRouter()
	NewCallbackHandler(svc, zap.NewNop()).RegisterRoutes(router, nil)

	// No Authorization header on purpose
	form := url.Values{}
	form.Set("merchant_oid", "KPTEST3")
	form.Set("status", "success")
	form.Set("total_amount", "100")
	form.Set("hash", "h")

	w := postCallback(t, router, form)
	if w.Code != http.StatusOK {
		t.Errorf("callback must not sit behind user auth, got %d", w.Code)
	}
}
