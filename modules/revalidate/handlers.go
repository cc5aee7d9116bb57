package revalidate

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalneighbour/sitekit"
)

type handler struct {
	config *RevalidateConfig
	rv     *Revalidator
	logger sitekit.Logger
}

// Routes mounts GET and POST on the configured webhook path.
func Routes(r chi.Router, cfg *RevalidateConfig, rv *Revalidator, logger sitekit.Logger) {
	if logger == nil {
		logger = sitekit.NopLogger{}
	}
	h := &handler{config: cfg, rv: rv, logger: logger}
	r.Get(cfg.Path, h.status)
	r.Post(cfg.Path, h.revalidate)
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      "Revalidate API endpoint",
		"instructions": "Use POST with Sanity webhook",
	})
}

func (h *handler) revalidate(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.URL.Query().Get("secret")) {
		h.rv.emit(r.Context(), EventTypeRejected, map[string]any{"remoteAddr": r.RemoteAddr})
		writeMessage(w, http.StatusUnauthorized, "Invalid secret")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes))
	if err != nil {
		h.serverError(w, err)
		return
	}
	doc, err := ParsePayload(body)
	switch {
	case errors.Is(err, ErrMissingDocumentType):
		writeMessage(w, http.StatusBadRequest, "No document type found in webhook payload")
		return
	case err != nil:
		h.serverError(w, err)
		return
	}

	res, err := h.rv.Revalidate(r.Context(), doc)
	if err != nil {
		h.serverError(w, err)
		return
	}

	var slug any
	if doc.Slug != "" {
		slug = doc.Slug
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"revalidated":  true,
		"now":          res.At.UnixMilli(),
		"documentType": doc.Type,
		"slug":         slug,
		"paths":        res.Target.Paths,
	})
}

func (h *handler) authorized(secret string) bool {
	if h.config.Secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(h.config.Secret)) == 1
}

func (h *handler) serverError(w http.ResponseWriter, err error) {
	h.logger.Error("Error revalidating", "error", err)
	writeMessage(w, http.StatusInternalServerError, "Error revalidating: "+err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
