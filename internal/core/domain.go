package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	Food         Category = "Food"
	Rent         Category = "Rent"
	Travel       Category = "Travel"
	Shopping     Category = "Shopping"
	Bills        Category = "Bills"
	BorrowReturn Category = "Borrow Return"
	Other        Category = "Other"
)

const (
	MethodCard   Method = "Card"
	MethodOnline Method = "Online"
	MethodCash   Method = "Cash"
)

// MaxTitleLength bounds expense titles.
const MaxTitleLength = 200

type (
	// Kind tells income and expense records apart.
	Kind string

	// Category is the fixed expense taxonomy.
	Category string

	// Method is how an expense was paid.
	Method string

	// Record is a single income or expense entry owned by one user.
	// Category, Title and Method are only meaningful for expenses.
	Record struct {
		ID        string    `json:"id"`
		Kind      Kind      `json:"kind"`
		Amount    Money     `json:"amount"`
		Date      time.Time `json:"date"`
		Category  Category  `json:"category,omitempty"`
		Title     string    `json:"title,omitempty"`
		Method    Method    `json:"method,omitempty"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// RecordPatch carries the fields of an edit. Nil fields are left as they are.
	RecordPatch struct {
		Amount   *Money    `json:"amount,omitempty"`
		Category *Category `json:"category,omitempty"`
		Title    *string   `json:"title,omitempty"`
		Method   *Method   `json:"method,omitempty"`
	}
)

// Categories lists the expense categories in display order.
var Categories = []Category{Food, Rent, Travel, Shopping, Bills, BorrowReturn, Other}

// Methods lists the accepted payment methods.
var Methods = []Method{MethodCard, MethodOnline, MethodCash}

var (
	ErrInvalidKind     = errors.New("invalid record kind")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = fmt.Errorf("title too long (max %d characters)", MaxTitleLength)
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidMethod   = errors.New("invalid payment method")
	ErrFieldNotAllowed = errors.New("field not allowed for income")
	ErrEmptyPatch      = errors.New("nothing to update")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// ParseKind accepts both the singular kind and the collection name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "incomes":
		return KindIncome, nil
	case "expense", "expenses":
		return KindExpense, nil
	}
	return "", ErrInvalidKind
}

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Collection returns the store collection name for the kind.
func (k Kind) Collection() string {
	if k == KindExpense {
		return "expenses"
	}
	return "income"
}

// ParseCategory matches case-insensitively against the taxonomy.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// OrOther maps missing or unknown categories to Other.
func (c Category) OrOther() Category {
	if c.Valid() {
		return c
	}
	return Other
}

// ParseMethod matches case-insensitively. An empty string is a valid "no method".
func ParseMethod(s string) (Method, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, m := range Methods {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", ErrInvalidMethod
}

func (m Method) Valid() bool {
	for _, v := range Methods {
		if v == m {
			return true
		}
	}
	return false
}

// OrDefault returns Card when no method was recorded.
func (m Method) OrDefault() Method {
	if m == "" {
		return MethodCard
	}
	return m
}

// EffectiveMethod is the method shown for the record. Income has none.
func (r Record) EffectiveMethod() string {
	if r.Kind != KindExpense {
		return ""
	}
	return string(r.Method.OrDefault())
}

// Validate checks a record before it is written.
func (r Record) Validate() error {
	if !r.Kind.Valid() {
		return invalid("kind", ErrInvalidKind)
	}
	if err := r.Amount.Validate(); err != nil {
		return invalid("amount", err)
	}
	if r.Kind == KindIncome {
		if r.Title != "" || r.Category != "" || r.Method != "" {
			return invalid("kind", ErrFieldNotAllowed)
		}
		return nil
	}
	if err := validateTitle(r.Title); err != nil {
		return err
	}
	if !r.Category.Valid() {
		return invalid("category", ErrInvalidCategory)
	}
	if r.Method != "" && !r.Method.Valid() {
		return invalid("method", ErrInvalidMethod)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title", ErrEmptyTitle)
	}
	if len([]rune(title)) > MaxTitleLength {
		return invalid("title", ErrTitleTooLong)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p RecordPatch) IsEmpty() bool {
	return p.Amount == nil && p.Category == nil && p.Title == nil && p.Method == nil
}

// Validate checks the fields present in the patch against the record kind.
func (p RecordPatch) Validate(kind Kind) error {
	if !kind.Valid() {
		return invalid("kind", ErrInvalidKind)
	}
	if p.IsEmpty() {
		return invalid("patch", ErrEmptyPatch)
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return invalid("amount", err)
		}
	}
	if kind == KindIncome {
		if p.Category != nil || p.Title != nil || p.Method != nil {
			return invalid("kind", ErrFieldNotAllowed)
		}
		return nil
	}
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Category != nil && !p.Category.Valid() {
		return invalid("category", ErrInvalidCategory)
	}
	if p.Method != nil && *p.Method != "" && !p.Method.Valid() {
		return invalid("method", ErrInvalidMethod)
	}
	return nil
}

// Apply merges the patch into r. The caller stamps UpdatedAt.
func (p RecordPatch) Apply(r Record) Record {
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Method != nil {
		r.Method = *p.Method
	}
	return r
}
