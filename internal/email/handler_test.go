package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeScheduler struct {
	scheduled []Message
	err       error
}

func (f *fakeScheduler) Schedule(ctx context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, msg)
	return nil
}

func newFollowUpRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postFollowUp(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/follow-ups", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFollowUpDefaultsToNextBusinessDay(t *testing.T) {
	sched := &fakeScheduler{}
	h := NewHandler(sched)
	// A Tuesday afternoon; the default send time is Wednesday 10:00.
	h.Now = func() time.Time { return time.Date(2025, time.June, 3, 15, 0, 0, 0, time.UTC) }

	w := postFollowUp(t, newFollowUpRouter(h), `{"email":"jane@example.com","name":"Jane"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if len(sched.scheduled) != 1 {
		t.Fatalf("scheduled = %d, want 1", len(sched.scheduled))
	}
	msg := sched.scheduled[0]
	want := time.Date(2025, time.June, 4, 10, 0, 0, 0, time.UTC)
	if !msg.SendAt.Equal(want) {
		t.Fatalf("sendAt = %s, want %s", msg.SendAt, want)
	}
	if msg.Subject != "Your Application is Under Review" {
		t.Fatalf("subject = %q", msg.Subject)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["success"] != true {
		t.Fatalf("response = %v", resp)
	}
	if resp["scheduledTime"] != want.Format(time.RFC3339) {
		t.Fatalf("scheduledTime = %v", resp["scheduledTime"])
	}
}

func TestFollowUpHonorsExplicitScheduledTime(t *testing.T) {
	sched := &fakeScheduler{}
	h := NewHandler(sched)

	w := postFollowUp(t, newFollowUpRouter(h),
		`{"email":"jane@example.com","name":"Jane","scheduledTime":"2025-06-10T10:00:00Z"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(sched.scheduled) != 1 {
		t.Fatalf("scheduled = %d, want 1", len(sched.scheduled))
	}
	want := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)
	if !sched.scheduled[0].SendAt.Equal(want) {
		t.Fatalf("sendAt = %s, want %s", sched.scheduled[0].SendAt, want)
	}
}

func TestFollowUpValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"name":"Jane"}`},
		{"missing name", `{"email":"jane@example.com"}`},
		{"bad scheduledTime", `{"email":"jane@example.com","name":"Jane","scheduledTime":"tomorrow"}`},
		{"invalid json", `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sched := &fakeScheduler{}
			w := postFollowUp(t, newFollowUpRouter(NewHandler(sched)), tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if len(sched.scheduled) != 0 {
				t.Fatalf("scheduled = %d, want 0", len(sched.scheduled))
			}
		})
	}
}

func TestFollowUpSchedulerFailure(t *testing.T) {
	sched := &fakeScheduler{err: errors.New("eventbridge unavailable")}
	w := postFollowUp(t, newFollowUpRouter(NewHandler(sched)), `{"email":"jane@example.com","name":"Jane"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestFollowUpWithoutScheduler(t *testing.T) {
	w := postFollowUp(t, newFollowUpRouter(NewHandler(nil)), `{"email":"jane@example.com","name":"Jane"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
