package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/slotboard/slotboard/libs/httpx"
	"github.com/slotboard/slotboard/services/booking-service/internal/booking"
	"github.com/slotboard/slotboard/services/booking-service/internal/model"
	"github.com/slotboard/slotboard/services/booking-service/internal/outbox"
	"github.com/slotboard/slotboard/services/booking-service/internal/schedule"
	"github.com/slotboard/slotboard/services/booking-service/internal/storage"
)

type Handler struct {
	repo       *storage.Repository
	outboxRepo *outbox.Repository
	provider   schedule.Provider
	now        func() time.Time
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository, provider schedule.Provider) *Handler {
	return &Handler{
		repo:       repo,
		outboxRepo: outboxRepo,
		provider:   provider,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

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

type bookRequest struct {
	ProviderID string `json:"provider_id"`
	UserID     string `json:"user_id"`
	ServiceID  string `json:"service_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func (req *bookRequest) interval() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return
	}
	end, err = time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	return start.UTC(), end.UTC(), err
}

// Book handles the public booking request. Every check and the insert run in
// one transaction; a failure anywhere rolls the whole request back.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.ProviderID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "provider_id and user_id are required")
		return
	}

	start, end, err := req.interval()
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_time and end_time must be RFC3339 timestamps")
		return
	}
	if err := booking.ValidateInterval(start, end, h.now()); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	date, startHMS, endHMS := booking.SlotStrings(start, end)

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start booking")
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	ruleCovers, err := h.repo.RuleCovers(r.Context(), tx, req.ProviderID, date, startHMS, endHMS)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}
	_, overrideAvailable, err := h.repo.OverrideAvailable(r.Context(), tx, req.ProviderID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}
	hasOverlap, err := h.repo.HasActiveOverlap(r.Context(), tx, req.ProviderID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}

	ok, reason := booking.Decide(ruleCovers, overrideAvailable, hasOverlap)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, reason)
		return
	}

	b := &model.Booking{
		ProviderID: req.ProviderID,
		UserID:     req.UserID,
		ServiceID:  strings.TrimSpace(req.ServiceID),
		StartTime:  start,
		EndTime:    end,
		Status:     model.StatusPending,
	}
	id, err := h.repo.Create(r.Context(), tx, b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	if err := h.insertEvent(r.Context(), tx, "booking.requested.v1", id, b); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     id,
		"status": string(model.StatusPending),
	})
}

// Check previews whether a booking request would be accepted, without
// writing anything. It asks the schedule service over gRPC when a client is
// configured and falls back to the local tables otherwise.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	provider := strings.TrimSpace(r.URL.Query().Get("provider_id"))
	startStr := strings.TrimSpace(r.URL.Query().Get("start"))
	endStr := strings.TrimSpace(r.URL.Query().Get("end"))
	if provider == "" || startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "provider_id, start and end are required")
		return
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start")
		return
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end")
		return
	}
	start, end = start.UTC(), end.UTC()

	if err := booking.ValidateInterval(start, end, h.now()); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"accepted": false, "reason": err.Error()})
		return
	}

	if h.provider != nil {
		res, err := h.provider.CheckSlot(r.Context(), provider, start, end)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"accepted": res.Accepted, "reason": res.Reason})
			return
		}
		// Fall through to the local tables when the schedule service is down.
	}

	date, startHMS, endHMS := booking.SlotStrings(start, end)

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	ruleCovers, err := h.repo.RuleCovers(r.Context(), tx, provider, date, startHMS, endHMS)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}
	_, overrideAvailable, err := h.repo.OverrideAvailable(r.Context(), tx, provider, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}
	hasOverlap, err := h.repo.HasActiveOverlap(r.Context(), tx, provider, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}

	ok, reason := booking.Decide(ruleCovers, overrideAvailable, hasOverlap)
	writeJSON(w, http.StatusOK, map[string]any{"accepted": ok, "reason": reason})
}

// Confirm transitions a pending booking to confirmed.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusConfirmed, "booking.confirmed.v1", []model.BookingStatus{model.StatusPending})
}

// Cancel transitions a pending or confirmed booking to cancelled.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, model.StatusCancelled, "booking.cancelled.v1", []model.BookingStatus{model.StatusPending, model.StatusConfirmed})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to model.BookingStatus, eventType string, from []model.BookingStatus) {
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
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	tx, err := h.repo.Begin(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	defer func() { _ = tx.Rollback(r.Context()) }()

	b, err := h.repo.GetForUpdate(r.Context(), tx, provider, req.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}

	allowed := false
	for _, s := range from {
		if b.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		writeError(w, http.StatusConflict, "booking is "+string(b.Status))
		return
	}

	if err := h.repo.SetStatus(r.Context(), tx, b.ID, to); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	b.Status = to
	if err := h.insertEvent(r.Context(), tx, eventType, b.ID, &b); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	if err := tx.Commit(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": b.ID, "status": string(to)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	provider := providerID(r)
	if provider == "" {
		writeError(w, http.StatusUnauthorized, "provider identity required")
		return
	}

	bookings, err := h.repo.ListByProvider(r.Context(), provider, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	out := make([]map[string]any, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, map[string]any{
			"id":           b.ID,
			"provider_id":  b.ProviderID,
			"user_id":      b.UserID,
			"service_id":   b.ServiceID,
			"start_time":   b.StartTime,
			"end_time":     b.EndTime,
			"status":       b.Status,
			"cancelled_at": b.CancelledAt,
			"created_at":   b.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) insertEvent(ctx context.Context, tx pgx.Tx, eventType, id string, b *model.Booking) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id":  id,
		"provider_id": b.ProviderID,
		"user_id":     b.UserID,
		"service_id":  b.ServiceID,
		"start_time":  b.StartTime,
		"end_time":    b.EndTime,
		"status":      b.Status,
	})
	if err != nil {
		return err
	}
	return h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   id,
		EventType:     eventType,
		Payload:       payload,
	})
}
