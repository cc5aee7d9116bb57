package contact

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalneighbour/sitekit"
)

type handler struct {
	svc     *Service
	limiter *RateLimiter
	maxBody int64
	logger  sitekit.Logger
}

// Routes mounts the form endpoint at path.
func Routes(r chi.Router, path string, svc *Service, limiter *RateLimiter, maxBody int64, logger sitekit.Logger) {
	if logger == nil {
		logger = sitekit.NopLogger{}
	}
	h := &handler{svc: svc, limiter: limiter, maxBody: maxBody, logger: logger}
	r.Post(path, h.submit)
}

func (h *handler) submit(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		h.svc.emit(r.Context(), EventTypeRateLimited, map[string]any{"client": clientKey(r)})
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many requests"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.internalError(w, err)
		return
	}

	res, err := h.svc.Submit(r.Context(), body, r.Header.Get("Referer"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Form submitted successfully",
		"emailId": res.EmailID,
	})
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	var (
		verr *ValidationError
		perr *ProviderError
	)
	switch {
	case errors.As(err, &verr):
		body := map[string]string{"error": verr.Message}
		if verr.Details != "" {
			body["details"] = verr.Details
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, ErrEmailNotConfigured):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Email service is not configured. Please set RESEND_API_KEY",
		})
	case errors.Is(err, ErrRecipientNotConfigured):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Email configuration error: CONTACT_EMAIL is required",
		})
	case errors.As(err, &perr):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to send email",
			"details": perr,
		})
	default:
		h.internalError(w, err)
	}
}

func (h *handler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error("Error processing form", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

// clientKey identifies the client by IP. RemoteAddr already reflects
// X-Forwarded-For when the router's RealIP middleware runs.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
