package pagecontent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalneighbour/sitekit"
	"github.com/digitalneighbour/sitekit/modules/catalog"
	"github.com/digitalneighbour/sitekit/modules/locations"
)

type handler struct {
	svc    *Service
	logger sitekit.Logger
}

// Routes mounts the page, location and service endpoints on r.
func Routes(r chi.Router, svc *Service, logger sitekit.Logger) {
	if logger == nil {
		logger = sitekit.NopLogger{}
	}
	h := &handler{svc: svc, logger: logger}

	r.Route("/api", func(r chi.Router) {
		r.Get("/pages/{family}/{slug}", h.getShortPage)
		r.Get("/pages/{family}/{slug}/{location}", h.getLocationPage)

		r.Get("/locations", h.listLocations)
		r.Get("/locations/normalize", h.normalizeLocation)
		r.Get("/locations/{slug}", h.getLocation)

		r.Get("/services", h.listServices)
		r.Get("/services/{family}/params", h.listParams)
	})
}

func (h *handler) getLocationPage(w http.ResponseWriter, r *http.Request) {
	family, ok := catalog.ParseFamily(chi.URLParam(r, "family"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Unknown service")
		return
	}
	page, err := h.svc.Page(r.Context(), family, chi.URLParam(r, "slug"), chi.URLParam(r, "location"))
	h.writePage(w, page, err)
}

// getShortPage serves "/<family>/<segment>": the sub-service page when the
// segment names one, else the family's default sub-service at the location
// the segment normalizes to.
func (h *handler) getShortPage(w http.ResponseWriter, r *http.Request) {
	family, ok := catalog.ParseFamily(chi.URLParam(r, "family"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Unknown service")
		return
	}
	segment := chi.URLParam(r, "slug")

	if len(h.svc.Catalog().AllowedLocations(family, segment)) > 0 {
		page, err := h.svc.BasePage(r.Context(), family, segment)
		h.writePage(w, page, err)
		return
	}

	slug, location, ok := h.svc.Catalog().RewriteShortPath(family, segment)
	if !ok {
		writeMessage(w, http.StatusNotFound, "Page not found")
		return
	}
	var page *Page
	var err error
	if location == "" {
		page, err = h.svc.BasePage(r.Context(), family, slug)
	} else {
		page, err = h.svc.Page(r.Context(), family, slug, location)
	}
	h.writePage(w, page, err)
}

func (h *handler) writePage(w http.ResponseWriter, page *Page, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, page)
	case errors.Is(err, catalog.ErrUnknownFamily),
		errors.Is(err, catalog.ErrUnknownSubService),
		errors.Is(err, catalog.ErrLocationNotEnabled):
		writeMessage(w, http.StatusNotFound, "Page not found")
	default:
		h.logger.Error("Failed to resolve page", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to resolve page")
	}
}

type locationResponse struct {
	locations.Meta
	Descendants []string `json:"descendants"`
}

func (h *handler) listLocations(w http.ResponseWriter, _ *http.Request) {
	idx := h.svc.Catalog().Index()
	out := make([]locations.Meta, 0, idx.Len())
	for _, slug := range idx.All() {
		if meta, ok := idx.Get(slug); ok {
			out = append(out, meta)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": out, "roots": idx.Roots()})
}

func (h *handler) getLocation(w http.ResponseWriter, r *http.Request) {
	idx := h.svc.Catalog().Index()
	meta, ok := idx.Get(chi.URLParam(r, "slug"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Unknown location")
		return
	}
	descendants := idx.Descendants(meta.Slug, false)
	if descendants == nil {
		descendants = []string{}
	}
	writeJSON(w, http.StatusOK, locationResponse{Meta: meta, Descendants: descendants})
}

func (h *handler) normalizeLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeMessage(w, http.StatusBadRequest, "Missing query parameter q")
		return
	}
	slug, ok := h.svc.Catalog().Index().Normalize(q)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"input": q, "slug": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"input": q, "slug": slug})
}

type serviceEntry struct {
	Slug      string `json:"slug"`
	Label     string `json:"label"`
	Locations int    `json:"locations"`
}

type familyEntry struct {
	Key         catalog.Family `json:"key"`
	Label       string         `json:"label"`
	BasePath    string         `json:"basePath"`
	DefaultSlug string         `json:"defaultSlug"`
	SubServices []serviceEntry `json:"subServices"`
}

func (h *handler) listServices(w http.ResponseWriter, _ *http.Request) {
	cat := h.svc.Catalog()
	out := make([]familyEntry, 0, len(catalog.Families()))
	for _, info := range catalog.Families() {
		entry := familyEntry{
			Key:         info.Key,
			Label:       info.Label,
			BasePath:    info.BasePath,
			DefaultSlug: info.DefaultSlug,
			SubServices: make([]serviceEntry, 0, len(info.Slugs)),
		}
		for _, slug := range info.Slugs {
			entry.SubServices = append(entry.SubServices, serviceEntry{
				Slug:      slug,
				Label:     cat.DisplayName(info.Key, slug),
				Locations: len(cat.AllowedLocations(info.Key, slug)),
			})
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"families": out})
}

func (h *handler) listParams(w http.ResponseWriter, r *http.Request) {
	family, ok := catalog.ParseFamily(chi.URLParam(r, "family"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "Unknown service")
		return
	}
	params := h.svc.Catalog().StaticParams(family)
	if params == nil {
		params = []catalog.Param{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"family": family, "params": params})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
