package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slotboard/slotboard/libs/httpx"
	"github.com/slotboard/slotboard/services/schedule-service/internal/cache"
	"github.com/slotboard/slotboard/services/schedule-service/internal/model"
	"github.com/slotboard/slotboard/services/schedule-service/internal/schedule"
	"github.com/slotboard/slotboard/services/schedule-service/internal/storage"
	"github.com/slotboard/slotboard/services/schedule-service/internal/validate"
)

type Handler struct {
	repo  *storage.Repository
	cache *cache.CalendarCache
	clock schedule.Clock
}

func New(repo *storage.Repository, calCache *cache.CalendarCache, clock schedule.Clock) *Handler {
	return &Handler{repo: repo, cache: calCache, clock: clock}
}

// providerID resolves the caller's provider identity: JWT claims when the
// auth middleware ran, the gateway-injected header otherwise.
func providerID(r *http.Request) string {
	if claims := httpx.ClaimsFromContext(r.Context()); claims != nil && claims.ProviderID != "" {
		return claims.ProviderID
	}
	return strings.TrimSpace(r.Header.Get("X-Provider-Id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseDates validates and parses a list of YYYY-MM-DD strings. Past dates
// are rejected against the injected clock, not the wall clock.
func (h *Handler) parseDates(raw []string) ([]time.Time, string) {
	now := h.clock.Now()
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if !validate.IsValidDate(s) {
			return nil, "Invalid date format. Use YYYY-MM-DD."
		}
		if validate.IsPastDate(s, now) {
			return nil, "Cannot select a past date."
		}
		d, _ := time.Parse(validate.DateLayout, s)
		dates = append(dates, d.UTC())
	}
	return dates, ""
}

func validWindow(start, end string) string {
	if !validate.IsValidTime(start) || !validate.IsValidTime(end) {
		return "Invalid time format. Use HH:MM:SS."
	}
	if !validate.IsStartBeforeEnd(start, end) {
		return "Start time must be before end time."
	}
	return ""
}

// ---- availability rules ----

type ruleRequest struct {
	ID            string   `json:"id,omitempty"`
	SelectedDates []string `json:"selected_dates"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
}

func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.SelectedDates) == 0 {
		writeError(w, http.StatusBadRequest, "selected_dates is required")
		return
	}

	dates, msg := h.parseDates(req.SelectedDates)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validWindow(req.StartTime, req.EndTime); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !validate.ValidWeeklySelection(dates) {
		writeError(w, http.StatusBadRequest, "You can select at most 4 dates per week.")
		return
	}

	covered, err := h.repo.DatesAlreadyCovered(r.Context(), provider, dates, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check existing rules")
		return
	}
	if covered {
		writeError(w, http.StatusConflict, "One or more dates are already covered by another rule.")
		return
	}

	id, err := h.repo.CreateRule(r.Context(), &model.AvailabilityRule{
		ProviderID:    provider,
		SelectedDates: dates,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create rule")
		return
	}

	h.cache.Invalidate(r.Context(), provider)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	rules, err := h.repo.ListRules(r.Context(), provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rules")
		return
	}

	out := make([]map[string]any, 0, len(rules))
	for _, rule := range rules {
		dates := make([]string, 0, len(rule.SelectedDates))
		for _, d := range rule.SelectedDates {
			dates = append(dates, d.UTC().Format(validate.DateLayout))
		}
		out = append(out, map[string]any{
			"id":             rule.ID,
			"provider_id":    rule.ProviderID,
			"selected_dates": dates,
			"start_time":     rule.StartTime,
			"end_time":       rule.EndTime,
			"created_at":     rule.CreatedAt,
			"updated_at":     rule.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	// An emptied date list deletes the rule.
	if len(req.SelectedDates) == 0 {
		if err := h.repo.DeleteRule(r.Context(), provider, req.ID); err != nil {
			if storage.IsNotFound(err) {
				writeError(w, http.StatusNotFound, "rule not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to delete rule")
			return
		}
		h.cache.Invalidate(r.Context(), provider)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	dates, msg := h.parseDates(req.SelectedDates)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := validWindow(req.StartTime, req.EndTime); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !validate.ValidWeeklySelection(dates) {
		writeError(w, http.StatusBadRequest, "You can select at most 4 dates per week.")
		return
	}

	covered, err := h.repo.DatesAlreadyCovered(r.Context(), provider, dates, req.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check existing rules")
		return
	}
	if covered {
		writeError(w, http.StatusConflict, "One or more dates are already covered by another rule.")
		return
	}

	err = h.repo.UpdateRule(r.Context(), &model.AvailabilityRule{
		ID:            req.ID,
		ProviderID:    provider,
		SelectedDates: dates,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update rule")
		return
	}

	h.cache.Invalidate(r.Context(), provider)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.repo.DeleteRule(r.Context(), provider, id); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete rule")
		return
	}
	h.cache.Invalidate(r.Context(), provider)
	w.WriteHeader(http.StatusNoContent)
}

// ---- overrides ----

func (h *Handler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	var req struct {
		OverrideDate string `json:"override_date"`
		StartTime    string `json:"start_time"`
		EndTime      string `json:"end_time"`
		IsAvailable  bool   `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	dates, msg := h.parseDates([]string{req.OverrideDate})
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.StartTime != "" || req.EndTime != "" {
		if msg := validWindow(req.StartTime, req.EndTime); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
	}

	id, err := h.repo.CreateOverride(r.Context(), &model.AvailabilityOverride{
		ProviderID:   provider,
		OverrideDate: dates[0],
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsAvailable:  req.IsAvailable,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create override")
		return
	}

	h.cache.Invalidate(r.Context(), provider)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	overrides, err := h.repo.ListOverrides(r.Context(), provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list overrides")
		return
	}

	out := make([]map[string]any, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, map[string]any{
			"id":            o.ID,
			"provider_id":   o.ProviderID,
			"override_date": o.OverrideDate.UTC().Format(validate.DateLayout),
			"start_time":    o.StartTime,
			"end_time":      o.EndTime,
			"is_available":  o.IsAvailable,
			"created_at":    o.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.repo.DeleteOverride(r.Context(), provider, id); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "override not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete override")
		return
	}
	h.cache.Invalidate(r.Context(), provider)
	w.WriteHeader(http.StatusNoContent)
}

// ---- blocked dates ----

func (h *Handler) CreateBlocked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	var req struct {
		BlockedDate string `json:"blocked_date"`
		Reason      string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	dates, msg := h.parseDates([]string{req.BlockedDate})
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	id, err := h.repo.CreateBlocked(r.Context(), &model.BlockedDate{
		ProviderID:  provider,
		BlockedDate: dates[0],
		Reason:      strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create blocked date")
		return
	}

	h.cache.Invalidate(r.Context(), provider)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	blocked, err := h.repo.ListBlocked(r.Context(), provider)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list blocked dates")
		return
	}

	out := make([]map[string]any, 0, len(blocked))
	for _, b := range blocked {
		out = append(out, map[string]any{
			"id":           b.ID,
			"provider_id":  b.ProviderID,
			"blocked_date": b.BlockedDate.UTC().Format(validate.DateLayout),
			"reason":       b.Reason,
			"created_at":   b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteBlocked(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.repo.DeleteBlocked(r.Context(), provider, id); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "blocked date not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete blocked date")
		return
	}
	h.cache.Invalidate(r.Context(), provider)
	w.WriteHeader(http.StatusNoContent)
}

// ---- public calendar ----

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	provider := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	if provider == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}

	now := h.clock.Now()
	year := now.Year()
	month := int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < schedule.MinCalendarYear {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = n
	}

	if payload, ok := h.cache.Get(r.Context(), provider, year, month); ok {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
		return
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	snap, err := h.repo.Snapshot(r.Context(), provider, monthStart, monthEnd)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	events := schedule.BuildMonth(year, time.Month(month), snap)
	if events == nil {
		events = []schedule.Event{}
	}
	payload, err := json.Marshal(events)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode calendar")
		return
	}

	h.cache.Set(r.Context(), provider, year, month, payload)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}
