package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slotboard/slotboard/services/schedule-service/internal/schedule"
)

func testHandler() *Handler {
	// Validation-only paths; repo and cache stay nil.
	return New(nil, nil, schedule.FixedClock{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
}

func TestCreateRuleRejectsInvalidDate(t *testing.T) {
	h := testHandler()
	body := `{"selected_dates":["2025-13-40"],"start_time":"09:00:00","end_time":"17:00:00"}`
	req := httptest.NewRequest("POST", "/api/v1/availability", strings.NewReader(body))
	req.Header.Set("X-Provider-Id", "prov-1")
	rec := httptest.NewRecorder()

	h.CreateRule(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Invalid date format") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCreateRuleRejectsPastDate(t *testing.T) {
	h := testHandler()
	body := `{"selected_dates":["2025-05-31"],"start_time":"09:00:00","end_time":"17:00:00"}`
	req := httptest.NewRequest("POST", "/api/v1/availability", strings.NewReader(body))
	req.Header.Set("X-Provider-Id", "prov-1")
	rec := httptest.NewRecorder()

	h.CreateRule(rec, req)
	if rec.Code != 400 || !strings.Contains(rec.Body.String(), "past date") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRuleRejectsWeeklyOverflow(t *testing.T) {
	h := testHandler()
	// Five dates inside the ISO week starting Monday 2025-06-09.
	body := `{"selected_dates":["2025-06-09","2025-06-10","2025-06-11","2025-06-12","2025-06-13"],"start_time":"09:00:00","end_time":"17:00:00"}`
	req := httptest.NewRequest("POST", "/api/v1/availability", strings.NewReader(body))
	req.Header.Set("X-Provider-Id", "prov-1")
	rec := httptest.NewRecorder()

	h.CreateRule(rec, req)
	if rec.Code != 400 || !strings.Contains(rec.Body.String(), "4 dates per week") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRuleRejectsBadWindow(t *testing.T) {
	h := testHandler()
	body := `{"selected_dates":["2025-06-10"],"start_time":"17:00:00","end_time":"09:00:00"}`
	req := httptest.NewRequest("POST", "/api/v1/availability", strings.NewReader(body))
	req.Header.Set("X-Provider-Id", "prov-1")
	rec := httptest.NewRecorder()

	h.CreateRule(rec, req)
	if rec.Code != 400 || !strings.Contains(rec.Body.String(), "Start time must be before end time") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRuleRequiresProvider(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest("POST", "/api/v1/availability", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.CreateRule(rec, req)
	if rec.Code != 401 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCalendarRequiresProviderID(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest("GET", "/api/v1/public/calendar", nil)
	rec := httptest.NewRecorder()

	h.Calendar(rec, req)
	if rec.Code != 400 || !strings.Contains(rec.Body.String(), "provider_id is required") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCalendarRejectsBadMonthAndYear(t *testing.T) {
	h := testHandler()
	for _, q := range []string{"month=0", "month=13", "month=abc", "year=2024", "year=x"} {
		req := httptest.NewRequest("GET", "/api/v1/public/calendar?provider_id=prov-1&"+q, nil)
		rec := httptest.NewRecorder()
		h.Calendar(rec, req)
		if rec.Code != 400 {
			t.Errorf("%s: status = %d", q, rec.Code)
		}
	}
}
