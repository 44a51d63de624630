package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/store"
)

// EventPublisher sends record events. A nil publisher disables events.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, e amqp.RecordEvent) error
}

// IncomeInput is a new income entry as submitted by the user.
type IncomeInput struct {
	Amount string
	// Date is optional; the store stamps the current time when zero.
	Date time.Time
}

// ExpenseInput is a new expense as submitted by the user.
type ExpenseInput struct {
	Amount   string
	Title    string
	Category string
	Method   string
	Date     time.Time
}

// RecordService validates record commands, writes them to the store and
// announces them.
type RecordService struct {
	store     store.RecordStore
	publisher EventPublisher
	logger    *log.Logger
	loc       *time.Location
	now       func() time.Time
}

func NewRecordService(s store.RecordStore, publisher EventPublisher, logger *log.Logger, loc *time.Location) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordService{
		store:     s,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentRecords),
		loc:       loc,
		now:       time.Now,
	}
}

// ParseIncome turns form input into an unsaved income record.
func ParseIncome(in IncomeInput) (core.Record, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "amount", Err: err}
	}
	r := core.Record{Kind: core.KindIncome, Amount: amount, Date: in.Date}
	return r, r.Validate()
}

// ParseExpense turns form input into an unsaved expense record.
func ParseExpense(in ExpenseInput) (core.Record, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "amount", Err: err}
	}
	category, err := core.ParseCategory(in.Category)
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "category", Err: err}
	}
	method, err := core.ParseMethod(in.Method)
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "method", Err: err}
	}
	r := core.Record{
		Kind:     core.KindExpense,
		Amount:   amount,
		Title:    strings.TrimSpace(in.Title),
		Category: category,
		Method:   method,
		Date:     in.Date,
	}
	return r, r.Validate()
}

func (s *RecordService) AddIncome(ctx context.Context, userID string, in IncomeInput) (core.Record, error) {
	r, err := ParseIncome(in)
	if err != nil {
		return core.Record{}, err
	}
	return s.create(ctx, userID, r)
}

func (s *RecordService) AddExpense(ctx context.Context, userID string, in ExpenseInput) (core.Record, error) {
	r, err := ParseExpense(in)
	if err != nil {
		return core.Record{}, err
	}
	return s.create(ctx, userID, r)
}

func (s *RecordService) create(ctx context.Context, userID string, r core.Record) (core.Record, error) {
	saved, err := s.store.Create(ctx, userID, r)
	if err != nil {
		return core.Record{}, fmt.Errorf("save %s: %w", r.Kind, err)
	}
	s.logger.InfoContext(ctx, "Record created",
		log.NewFields().WithRecord(userID, string(saved.Kind), saved.ID, saved.Amount.Paise).WithOperation(log.OpCreate).Args()...)
	s.publish(ctx, amqp.EventCreated, userID, saved)
	return saved, nil
}

// ListRecords returns the user's records of kind, newest first.
func (s *RecordService) ListRecords(ctx context.Context, userID string, kind core.Kind) ([]core.Record, error) {
	records, err := s.store.ListAll(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Collection(), err)
	}
	return records, nil
}

// UpdateRecord applies patch to the record. A missing record returns
// store.ErrNotFound.
func (s *RecordService) UpdateRecord(ctx context.Context, userID string, kind core.Kind, id string, patch core.RecordPatch) (core.Record, error) {
	if err := patch.Validate(kind); err != nil {
		return core.Record{}, err
	}
	updated, err := s.store.Update(ctx, userID, kind, id, patch)
	if err != nil {
		return core.Record{}, fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	s.logger.InfoContext(ctx, "Record updated",
		log.NewFields().WithRecord(userID, string(kind), id, updated.Amount.Paise).WithOperation(log.OpUpdate).Args()...)
	s.publish(ctx, amqp.EventUpdated, userID, updated)
	return updated, nil
}

// DeleteRecord removes the record. Deleting a record that does not exist
// succeeds and changes nothing.
func (s *RecordService) DeleteRecord(ctx context.Context, userID string, kind core.Kind, id string) error {
	if !kind.Valid() {
		return &core.ValidationError{Field: "kind", Err: core.ErrInvalidKind}
	}
	existing, err := s.store.ListAll(ctx, userID, kind)
	if err != nil {
		return fmt.Errorf("look up %s %s: %w", kind, id, err)
	}
	i := slices.IndexFunc(existing, func(r core.Record) bool { return r.ID == id })
	if i < 0 {
		return nil
	}
	if err := s.store.Delete(ctx, userID, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	s.logger.InfoContext(ctx, "Record deleted",
		log.NewFields().WithRecord(userID, string(kind), id, 0).WithOperation(log.OpDelete).Args()...)
	s.publish(ctx, amqp.EventDeleted, userID, existing[i])
	return nil
}

// publish is best effort: the write already succeeded.
func (s *RecordService) publish(ctx context.Context, t amqp.EventType, userID string, r core.Record) {
	if s.publisher == nil {
		return
	}
	e := amqp.NewRecordEvent(t, userID, r, s.now(), s.loc)
	if err := s.publisher.PublishRecordEvent(ctx, e); err != nil {
		log.LogError(ctx, s.logger, "Failed to publish record event", err, log.ErrorTypeNetwork, log.OpPublish,
			log.NewFields().WithRecord(userID, string(r.Kind), r.ID, 0))
	}
}
