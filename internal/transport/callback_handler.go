package transport

import (
	"net/http"

	"klimapart/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CallbackHandler receives the gateway's asynchronous payment notification.
// The response body must be the literal text the gateway expects; anything
// else makes it retry forever.
type CallbackHandler struct {
	callbackService service.CallbackService
	logger          *zap.Logger
}

// NewCallbackHandler creates a new CallbackHandler
func NewCallbackHandler(callbackService service.CallbackService, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{
		callbackService: callbackService,
		logger:          logger,
	}
}

// RegisterRoutes registers the callback route. No auth: the request is
// machine-to-machine and authenticated by its keyed hash instead.
func (h *CallbackHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.Route("/api/payment", func(r chi.Router) {
		if rateLimit != nil {
			r.Use(rateLimit)
		}
		r.Post("/callback", h.HandleCallback)
	})
}

// HandleCallback handles the form-encoded payment notification
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Callback form parse failed", zap.Error(err))
		writeAck(w, service.AckFailed)
		return
	}

	payload := service.CallbackPayload{
		MerchantOID: r.PostFormValue("merchant_oid"),
		Status:      r.PostFormValue("status"),
		TotalAmount: r.PostFormValue("total_amount"),
		Hash:        r.PostFormValue("hash"),
	}

	ack := h.callbackService.HandleCallback(r.Context(), payload)
	writeAck(w, ack)
}

func writeAck(w http.ResponseWriter, ack string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(ack))
}
