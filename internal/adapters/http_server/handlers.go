// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tripplanner/internal/app"
	"tripplanner/internal/domain"
)

const (
	authorHeader = "X-User-Email"
	maxBodyBytes = 1 << 20
)

// PlanService creates and lists stored plans.
type PlanService interface {
	CreatePlan(ctx context.Context, author string, req domain.TravelRequest) (app.PlanResult, error)
	ListPlans(ctx context.Context, author string, limit int) ([]domain.PlanSummary, error)
}

type DocumentReader interface {
	GetDocument(ctx context.Context, planKey, name string) (app.Document, error)
	GetCalendar(ctx context.Context, planKey string) ([]byte, error)
}

type Handlers struct {
	Plans   PlanService
	Preview app.Synthesizer
	Docs    DocumentReader
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/plans", h.createPlan)
	s.mux.Get("/v1/plans", h.listPlans)
	s.mux.Get("/v1/plans/{key}/documents/{name}", h.getDocument)
	s.mux.Get("/v1/plans/{key}/calendar.ics", h.getCalendar)
	s.mux.Post("/v1/itineraries/preview", h.preview)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain and pipeline errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var ge *domain.GeocodingError
	switch {
	case errors.As(err, &ge):
		writeProblem(w, http.StatusUnprocessableEntity, "Region Not Found", ge.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "an external service did not answer in time")
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		log.Warn().Err(err).Msg("upstream failure")
		writeProblem(w, http.StatusBadGateway, "Upstream Unavailable", "an external service failed")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

/********** request decoding **********/

type planRequest struct {
	Title      string `json:"title"`
	Region     string `json:"region"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	People     int    `json:"people"`
	Companions string `json:"companions"`
	Theme      string `json:"theme"`
}

// parseDate accepts YYYY-MM-DD or RFC3339.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC3339", domain.ErrInvalidRequest, field)
}

func decodeTravelRequest(r *http.Request) (domain.TravelRequest, error) {
	var in planRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return domain.TravelRequest{}, fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidRequest, err)
	}
	start, err := parseDate("startDate", in.StartDate)
	if err != nil {
		return domain.TravelRequest{}, err
	}
	end, err := parseDate("endDate", in.EndDate)
	if err != nil {
		return domain.TravelRequest{}, err
	}
	return domain.TravelRequest{
		Title:      in.Title,
		Region:     in.Region,
		StartDate:  start,
		EndDate:    end,
		People:     in.People,
		Companions: in.Companions,
		Theme:      in.Theme,
	}, nil
}

/********** handlers **********/

type createPlanResponse struct {
	PlanKey     string                `json:"planKey"`
	Days        int                   `json:"days"`
	Expected    int                   `json:"expectedAttractions"`
	Attractions int                   `json:"attractionCount"`
	Schedule    []domain.ScheduleSlot `json:"schedule"`
	Places      domain.PlaceLists     `json:"places"`
	ETags       map[string]string     `json:"etags"`
}

func (h *Handlers) createPlan(w http.ResponseWriter, r *http.Request) {
	author := strings.TrimSpace(r.Header.Get(authorHeader))
	if author == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", authorHeader+" header is required")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := decodeTravelRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Plans.CreatePlan(r.Context(), author, req)
	if err != nil {
		writeError(w, err)
		return
	}
	res := out.Result
	w.Header().Set("Location", "/v1/plans/"+out.PlanKey+"/documents/"+app.DocInfo)
	writeJSON(w, http.StatusCreated, createPlanResponse{
		PlanKey:     out.PlanKey,
		Days:        res.Days,
		Expected:    res.Expected,
		Attractions: len(res.Places.Attractions),
		Schedule:    res.Itinerary.Slots,
		Places:      res.Places,
		ETags:       out.ETags,
	})
}

func (h *Handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	author := strings.TrimSpace(r.Header.Get(authorHeader))
	if author == "" {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", authorHeader+" header is required")
		return
	}
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	plans, err := h.Plans.ListPlans(r.Context(), author, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": plans})
}

func (h *Handlers) preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, err := decodeTravelRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := app.ValidateRequest(req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Preview.Synthesize(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) getDocument(w http.ResponseWriter, r *http.Request) {
	key, name := chi.URLParam(r, "key"), chi.URLParam(r, "name")
	doc, err := h.Docs.GetDocument(r.Context(), key, name)
	if err != nil {
		writeError(w, err)
		return
	}

	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == doc.ETag {
		w.Header().Set("ETag", doc.ETag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", doc.ETag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		log.Error().Err(err).Msg("failed to write document body")
	}
}

func (h *Handlers) getCalendar(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	body, err := h.Docs.GetCalendar(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+key+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write calendar body")
	}
}
