package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/visitor-desk/internal/http/response"
	"github.com/diagnosis/visitor-desk/internal/utils"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/policy"
)

const dateLayout = "2006-01-02"

// CreateVisitor serves both the public check-in form and the staff form.
func (h *Handlers) CreateVisitor(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateVisitorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.visitorService.CreateVisitor(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListVisitors authorizes before reading the query so a caller without list
// access sees ACCESS_DENIED whatever parameters were sent.
func (h *Handlers) ListVisitors(w http.ResponseWriter, r *http.Request) {
	if err := policy.Authorize(actorFrom(r), policy.VisitorList, nil); err != nil {
		writeServiceError(w, r, err)
		return
	}
	q, err := parseVisitorQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page, err := h.visitorService.ListVisitors(r.Context(), actorFrom(r), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) UpdateVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := visitorID(w, r)
	if !ok {
		return
	}
	var patch domain.VisitorPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := h.visitorService.UpdateVisitor(r.Context(), actorFrom(r), id, &patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteVisitor(w http.ResponseWriter, r *http.Request) {
	id, ok := visitorID(w, r)
	if !ok {
		return
	}
	if err := h.visitorService.DeleteVisitor(r.Context(), actorFrom(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListDistricts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"districts": domain.Districts})
}

func visitorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid visitor ID")
		return 0, false
	}
	return id, true
}

// parseVisitorQuery reads page, limit, search, gender, address and the
// start_date/end_date pair, which only applies when date_filter is true.
func parseVisitorQuery(r *http.Request) (domain.VisitorQuery, error) {
	v := r.URL.Query()
	var q domain.VisitorQuery

	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, domain.ValidationError("page must be a positive integer", "page")
		}
		q.Page = n
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, domain.ValidationError("limit must be a positive integer", "limit")
		}
		q.Limit = n
	}

	q.Filter.Search = utils.SearchTerm(v.Get("search"))
	q.Filter.Gender = domain.Gender(utils.NormalizeString(v.Get("gender")))
	q.Filter.Address = utils.NormalizeString(v.Get("address"))

	enabled, _ := strconv.ParseBool(v.Get("date_filter"))
	if !enabled {
		return q, nil
	}
	start, err := time.Parse(dateLayout, v.Get("start_date"))
	if err != nil {
		return q, domain.ValidationError("start_date must be YYYY-MM-DD", "start_date")
	}
	end, err := time.Parse(dateLayout, v.Get("end_date"))
	if err != nil {
		return q, domain.ValidationError("end_date must be YYYY-MM-DD", "end_date")
	}
	q.Filter.DateEnabled = true
	q.Filter.Dates = domain.DateRange{Start: start, End: end}
	return q, nil
}
