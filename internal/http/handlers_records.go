package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"finsight/internal/auth"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
	"finsight/internal/store"
)

// pathKind resolves {kind}; it writes a 404 and returns false when unknown.
func pathKind(w http.ResponseWriter, r *http.Request) (core.Kind, bool) {
	kind, err := core.ParseKind(r.PathValue("kind"))
	if err != nil {
		NotFoundError("Unknown collection").Write(w)
		return "", false
	}
	return kind, true
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	user := auth.SessionFrom(r.Context()).User

	records, err := s.records.ListRecords(r.Context(), user.ID, kind)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	if records == nil {
		records = []core.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": kind.Collection(),
		"records":    records,
	})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request body").Write(w)
		return
	}

	loc := s.dashboard.Location()
	var date time.Time
	if v := p.Get("date"); v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			s.writeError(w, r, log.OpCreate, &core.ValidationError{Field: "date", Err: err})
			return
		}
		date = t
	}

	user := auth.SessionFrom(r.Context()).User
	var (
		rec core.Record
		err error
	)
	switch kind {
	case core.KindIncome:
		rec, err = s.records.AddIncome(r.Context(), user.ID, services.IncomeInput{
			Amount: p.Get("amount"),
			Date:   date,
		})
	default:
		rec, err = s.records.AddExpense(r.Context(), user.ID, services.ExpenseInput{
			Amount:   p.Get("amount"),
			Title:    p.Get("title"),
			Category: p.Get("category"),
			Method:   p.Get("method"),
			Date:     date,
		})
	}
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	period := core.PeriodOf(rec.Date, loc)
	NewResponse().
		Status(http.StatusCreated).
		Field("record", rec).
		Notify(SuccessNotification(fmt.Sprintf("%s of %s added", kindLabel(kind), rec.Amount))).
		TriggerRecordsChanged(kind.Collection(), period.Year, int(period.Month)).
		Write(w)
}

// patchFrom builds a patch from the fields present in the body.
func patchFrom(p *RequestBodyParser) (core.RecordPatch, error) {
	var patch core.RecordPatch
	if p.Has("amount") {
		amt, err := core.ParseAmount(p.Get("amount"))
		if err != nil {
			return patch, &core.ValidationError{Field: "amount", Err: err}
		}
		patch.Amount = &amt
	}
	if p.Has("title") {
		title := p.Get("title")
		patch.Title = &title
	}
	if p.Has("category") {
		c, err := core.ParseCategory(p.Get("category"))
		if err != nil {
			return patch, &core.ValidationError{Field: "category", Err: err}
		}
		patch.Category = &c
	}
	if p.Has("method") {
		m, err := core.ParseMethod(p.Get("method"))
		if err != nil {
			return patch, &core.ValidationError{Field: "method", Err: err}
		}
		patch.Method = &m
	}
	return patch, nil
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ErrorResponse(http.StatusBadRequest, "Invalid request body").Write(w)
		return
	}
	patch, err := patchFrom(p)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	user := auth.SessionFrom(r.Context()).User
	rec, err := s.records.UpdateRecord(r.Context(), user.ID, kind, r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, log.OpUpdate, err)
		return
	}

	period := core.PeriodOf(rec.Date, s.dashboard.Location())
	NewResponse().
		Field("record", rec).
		Notify(SuccessNotification(kindLabel(kind)+" updated")).
		TriggerRecordsChanged(kind.Collection(), period.Year, int(period.Month)).
		Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	user := auth.SessionFrom(r.Context()).User

	if err := s.records.DeleteRecord(r.Context(), user.ID, kind, id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewResponse().
		Field("id", id).
		Notify(SuccessNotification(kindLabel(kind)+" deleted")).
		Trigger("records:changed", map[string]any{"collection": kind.Collection()}).
		Write(w)
}

// writeError maps service errors onto status codes. Only unexpected errors
// are logged at error level.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		UnprocessableEntityError(validationMessage(ve)).Field("field", ve.Field).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("Record not found").Write(w)
	case errors.Is(err, auth.ErrNoSession):
		ErrorResponse(http.StatusUnauthorized, "Please sign in again").Write(w)
	default:
		log.LogError(r.Context(), log.FromContext(r.Context()), "Request failed", err, log.ErrorTypeDatabase, op,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", ""))
		msg := "Could not save your changes. Please try again."
		if r.Method == http.MethodGet {
			msg = "Could not load your data. Please try again."
		}
		InternalServerError(msg).Field("request_id", trace.GetRequestID(r.Context())).Write(w)
	}
}

func validationMessage(ve *core.ValidationError) string {
	switch {
	case errors.Is(ve, core.ErrInvalidAmount):
		return "Enter an amount greater than zero"
	case errors.Is(ve, core.ErrEmptyTitle):
		return "Title is required"
	case errors.Is(ve, core.ErrTitleTooLong):
		return fmt.Sprintf("Title is too long (max %d characters)", core.MaxTitleLength)
	case errors.Is(ve, core.ErrInvalidCategory):
		return "Choose a valid category"
	case errors.Is(ve, core.ErrInvalidMethod):
		return "Payment method must be Card, Online or Cash"
	case errors.Is(ve, core.ErrFieldNotAllowed):
		return "Income entries only have an amount"
	case errors.Is(ve, core.ErrEmptyPatch):
		return "Nothing to update"
	}
	return ve.Error()
}
