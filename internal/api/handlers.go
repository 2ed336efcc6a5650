package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/wapor-stac-proxy/internal/availability"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/backend"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/config"
	intstac "github.com/robert-malhotra/wapor-stac-proxy/internal/stac"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/translate"
	"github.com/robert-malhotra/wapor-stac-proxy/internal/wapor"
)

// Handlers contains all HTTP handlers for the STAC API.
type Handlers struct {
	cfg     *config.Config
	backend backend.Backend
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(cfg *config.Config, b backend.Backend, logger *slog.Logger) *Handlers {
	return &Handlers{
		cfg:     cfg,
		backend: b,
		logger:  logger,
	}
}

// LandingPage returns the STAC API landing page (root catalog).
// GET /
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	landing := intstac.NewLandingPage(
		"wapor-stac-root",
		h.cfg.STAC.Title,
		h.cfg.STAC.Description,
		h.cfg.STAC.Version,
		intstac.DefaultConformance(),
	)

	landing.AddLink("self", baseURL+"/", "application/json")
	landing.AddLink("root", baseURL+"/", "application/json")
	landing.AddLink("conformance", baseURL+"/conformance", "application/json")
	landing.AddLink("data", baseURL+"/collections", "application/json")
	landing.Links = append(landing.Links, &stac.Link{
		Rel:   "related",
		Href:  baseURL + "/locations",
		Type:  "application/json",
		Title: "Locations with clipped rasters",
	})

	WriteJSON(w, http.StatusOK, landing)
}

// Conformance returns the conformance classes supported by this API.
// GET /conformance
func (h *Handlers) Conformance(w http.ResponseWriter, r *http.Request) {
	conformance := &intstac.Conformance{
		ConformsTo: intstac.DefaultConformance(),
	}

	WriteJSON(w, http.StatusOK, conformance)
}

// Collections returns every exposed cube as a collection.
// GET /collections
func (h *Handlers) Collections(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	collections, err := h.backend.Collections(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	response := intstac.NewCollectionsList(collections)
	response.Links = append(response.Links,
		&stac.Link{
			Rel:  "self",
			Href: baseURL + "/collections",
			Type: "application/json",
		},
		&stac.Link{
			Rel:  "root",
			Href: baseURL + "/",
			Type: "application/json",
		},
	)

	WriteJSON(w, http.StatusOK, response)
}

// Collection returns a single cube as a collection.
// GET /collections/{cubeCode}
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	cubeCode := chi.URLParam(r, "cubeCode")

	collection, err := h.backend.Collection(r.Context(), cubeCode)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, collection)
}

// Items returns one page of the rasters available in a cube.
// GET /collections/{cubeCode}/items
func (h *Handlers) Items(w http.ResponseWriter, r *http.Request) {
	cubeCode := chi.URLParam(r, "cubeCode")

	req, ok := h.parseItemsRequest(w, r)
	if !ok {
		return
	}

	itemCollection, err := h.backend.Items(r.Context(), cubeCode, req)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	WriteGeoJSON(w, http.StatusOK, itemCollection)
}

// availabilityResponse is the normalized availability table of a cube.
type availabilityResponse struct {
	Cube          string                `json:"cube"`
	Shape         string                `json:"shape"`
	Granularity   string                `json:"granularity"`
	NumberMatched int                   `json:"numberMatched"`
	Years         []string              `json:"years"`
	Records       []availability.Record `json:"records"`
}

// Availability returns the availability table of a cube ordered by year.
// GET /collections/{cubeCode}/availability
func (h *Handlers) Availability(w http.ResponseWriter, r *http.Request) {
	cubeCode := chi.URLParam(r, "cubeCode")

	req, ok := h.parseItemsRequest(w, r)
	if !ok {
		return
	}

	table, err := h.backend.Availability(r.Context(), cubeCode, req)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	records := translate.FilterRecords(table.Records(), req.BBox)
	years := table.Years()
	if req.BBox != nil {
		years = yearsOf(records)
	}

	WriteJSON(w, http.StatusOK, availabilityResponse{
		Cube:          table.Cube(),
		Shape:         table.Shape().String(),
		Granularity:   table.Granularity().String(),
		NumberMatched: len(records),
		Years:         years,
		Records:       records,
	})
}

// Downloads returns signed download links for one page of a cube's rasters.
// GET /collections/{cubeCode}/downloads
func (h *Handlers) Downloads(w http.ResponseWriter, r *http.Request) {
	cubeCode := chi.URLParam(r, "cubeCode")

	req, ok := h.parseItemsRequest(w, r)
	if !ok {
		return
	}

	set, err := h.backend.Downloads(r.Context(), cubeCode, req)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, set)
}

// Locations lists the basins and countries with clipped rasters.
// GET /locations?type=BASIN|COUNTRY
func (h *Handlers) Locations(w http.ResponseWriter, r *http.Request) {
	locationType := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("type")))

	locations, err := h.backend.Locations(r.Context(), locationType)
	if err != nil {
		h.writeBackendError(w, r, err)
		return
	}
	if locations == nil {
		locations = []wapor.Location{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"locations":     locations,
		"numberMatched": len(locations),
	})
}

// Health returns the health status of the service.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status":  "ok",
		"backend": h.backend.Name(),
	}

	WriteJSON(w, http.StatusOK, response)
}

// parseItemsRequest parses and validates the query parameters shared by the
// items, availability and downloads endpoints. It writes the error response
// itself and reports whether the handler should continue.
func (h *Handlers) parseItemsRequest(w http.ResponseWriter, r *http.Request) (*intstac.ItemsRequest, bool) {
	req, err := intstac.ParseItemsRequest(r)
	if err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("invalid parameters: %v", err))
		return nil, false
	}
	if err := intstac.ValidateItemsRequest(req, h.cfg.Features.MaxLimit); err != nil {
		WriteInvalidParameter(w, err.Error())
		return nil, false
	}
	return req, true
}

// writeBackendError logs err and writes the matching error response.
// Upstream details are logged but not returned to the client.
func (h *Handlers) writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "backend request failed",
			slog.String("request_id", GetRequestID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("backend", h.backend.Name()),
			slog.String("error", err.Error()),
		)
		message = "upstream WaPOR service error"
	}

	WriteError(w, status, code, message)
}

func yearsOf(records []availability.Record) []string {
	years := make([]string, 0)
	for _, rec := range records {
		if y := rec.Year(); len(years) == 0 || years[len(years)-1] != y {
			years = append(years, y)
		}
	}
	return years
}
