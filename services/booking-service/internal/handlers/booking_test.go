package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testHandler() *Handler {
	h := New(nil, nil, nil)
	h.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestBookRejectsMissingFields(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest("POST", "/api/v1/public/book", strings.NewReader(`{"user_id":"u-1"}`))
	rec := httptest.NewRecorder()

	h.Book(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestBookRejectsBadTimestamps(t *testing.T) {
	h := testHandler()
	body := `{"provider_id":"p-1","user_id":"u-1","start_time":"2025-06-10 20:00","end_time":"2025-06-10T21:00:00Z"}`
	req := httptest.NewRequest("POST", "/api/v1/public/book", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Book(rec, req)
	if rec.Code != 400 || !strings.Contains(rec.Body.String(), "RFC3339") {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestBookRejectsInvalidIntervals(t *testing.T) {
	h := testHandler()
	cases := []struct {
		name    string
		start   string
		end     string
		message string
	}{
		{"past slot", "2025-05-10T09:00:00Z", "2025-05-10T10:00:00Z", "Time slot must be in the future."},
		{"reversed", "2025-06-10T21:00:00Z", "2025-06-10T20:00:00Z", "Start time must be before end time."},
		{"too short", "2025-06-10T20:00:00Z", "2025-06-10T20:15:00Z", "Time slot must be at least 30 minutes long."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := `{"provider_id":"p-1","user_id":"u-1","start_time":"` + tc.start + `","end_time":"` + tc.end + `"}`
			req := httptest.NewRequest("POST", "/api/v1/public/book", strings.NewReader(body))
			rec := httptest.NewRecorder()

			h.Book(rec, req)
			if rec.Code != 422 {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("bad response body: %v", err)
			}
			if resp["error"] != tc.message {
				t.Fatalf("error = %q, want %q", resp["error"], tc.message)
			}
		})
	}
}

func TestCheckRequiresParams(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest("GET", "/api/v1/public/check?provider_id=p-1", nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCheckReportsIntervalRejection(t *testing.T) {
	h := testHandler()
	url := "/api/v1/public/check?provider_id=p-1&start=2025-05-10T09:00:00Z&end=2025-05-10T10:00:00Z"
	req := httptest.NewRequest("GET", url, nil)
	rec := httptest.NewRecorder()

	h.Check(rec, req)
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Accepted bool   `json:"accepted"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Accepted || resp.Reason != "Time slot must be in the future." {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestConfirmRequiresProvider(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest("POST", "/api/v1/bookings/confirm", strings.NewReader(`{"id":"b-1"}`))
	rec := httptest.NewRecorder()

	h.Confirm(rec, req)
	if rec.Code != 401 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCancelRequiresID(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest("POST", "/api/v1/bookings/cancel", strings.NewReader(`{}`))
	req.Header.Set("X-Provider-Id", "p-1")
	rec := httptest.NewRecorder()

	h.Cancel(rec, req)
	if rec.Code != 400 {
		t.Fatalf("status = %d", rec.Code)
	}
}
