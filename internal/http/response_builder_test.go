package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		Status(http.StatusCreated).
		Field("id", "abc").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("id = %v, want abc", body["id"])
	}
}

func TestResponseBuilder_NoFieldsNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewResponse().
		TriggerRecordsChanged("expenses", 2025, 3).
		Notify(SuccessNotification("Expense added")).
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}
	for _, part := range []string{
		`"records:changed"`,
		`"collection":"expenses"`,
		`"year":2025`,
		`"month":3`,
		`"show-notification"`,
		`"type":"success"`,
		`"duration_ms":3000`,
	} {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %s: %s", part, trigger)
		}
	}

	var body struct {
		Notification Notification `json:"notification"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Notification.Message != "Expense added" {
		t.Errorf("notification = %+v", body.Notification)
	}
}

func TestResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponse().Header("X-Custom", "value").Write(w)

	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want value", got)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		build  *ResponseBuilder
		status int
		msg    string
	}{
		{"unprocessable", UnprocessableEntityError("Enter an amount"), http.StatusUnprocessableEntity, "Enter an amount"},
		{"not found", NotFoundError("Record not found"), http.StatusNotFound, "Record not found"},
		{"internal", InternalServerError("Try again"), http.StatusInternalServerError, "Try again"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.build.Write(w)

			if w.Code != tt.status {
				t.Errorf("Status code = %d, want %d", w.Code, tt.status)
			}
			var body struct {
				Error        string       `json:"error"`
				Notification Notification `json:"notification"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.msg {
				t.Errorf("error = %q, want %q", body.Error, tt.msg)
			}
			if body.Notification.Type != NotificationError || body.Notification.DurationMs != ErrorDismissMs {
				t.Errorf("notification = %+v", body.Notification)
			}
		})
	}
}

func TestNotificationTypes(t *testing.T) {
	if n := SuccessNotification("ok"); n.Type != NotificationSuccess || n.DurationMs != SuccessDismissMs {
		t.Errorf("success notification = %+v", n)
	}
	if n := ErrorNotification("bad"); n.Type != NotificationError || n.DurationMs != ErrorDismissMs {
		t.Errorf("error notification = %+v", n)
	}
}
