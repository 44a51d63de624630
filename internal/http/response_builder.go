// Package http serves the dashboard page and the JSON API.
//
// This file builds responses: a JSON body plus an HX-Trigger header so
// htmx pages and fetch clients see the same notification.
package http

import (
	"encoding/json"
	"net/http"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Dismiss delays of the client-side toast.
const (
	SuccessDismissMs = 3000
	ErrorDismissMs   = 5000
)

// Notification is a transient message shown after a mutation.
type Notification struct {
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	DurationMs int              `json:"duration_ms"`
}

func SuccessNotification(message string) Notification {
	return Notification{Type: NotificationSuccess, Message: message, DurationMs: SuccessDismissMs}
}

func ErrorNotification(message string) Notification {
	return Notification{Type: NotificationError, Message: message, DurationMs: ErrorDismissMs}
}

// ResponseBuilder provides a fluent API for JSON responses with htmx triggers.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	fields     map[string]any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		fields:     make(map[string]any),
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerRecordsChanged tells the page which collection and month to reload.
func (b *ResponseBuilder) TriggerRecordsChanged(collection string, year, month int) *ResponseBuilder {
	return b.Trigger("records:changed", map[string]any{"collection": collection, "year": year, "month": month})
}

// Notify puts n in both the body and the show-notification trigger.
func (b *ResponseBuilder) Notify(n Notification) *ResponseBuilder {
	b.fields["notification"] = n
	return b.Trigger("show-notification", n)
}

// Field sets a top-level key of the JSON body.
func (b *ResponseBuilder) Field(key string, value any) *ResponseBuilder {
	b.fields[key] = value
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}
	if len(b.fields) == 0 {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.fields)
}

// ErrorResponse carries message as both the error field and an error toast.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		Field("error", message).
		Notify(ErrorNotification(message))
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// writeJSON writes a plain JSON payload without notification.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
