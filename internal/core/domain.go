package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily    Frequency = "daily"
	Weekly   Frequency = "weekly"
	Biweekly Frequency = "biweekly"
	Monthly  Frequency = "monthly"
	Yearly   Frequency = "yearly"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

type (
	// Frequency is the repetition cadence of a recurring rule.
	Frequency string

	// TransactionKind distinguishes money coming in from money going out.
	TransactionKind string

	// Date is a calendar day. The time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// RecurringRule is a user-defined template for a transaction that repeats
	// on a fixed schedule. Only the generation engine advances NextDueDate and
	// LastGeneratedDate; payload fields are never mutated by the engine.
	RecurringRule struct {
		ID     int64
		UserID int64

		Frequency         Frequency
		StartDate         Date
		EndDate           Date // zero value means the rule runs forever
		NextDueDate       Date
		LastGeneratedDate Date // zero value means never generated

		Kind            TransactionKind
		Amount          Money
		Currency        string
		CategoryID      int64
		Description     string
		SourceAccountID int64 // one of SourceAccountID / SourceCardID is set
		SourceCardID    int64
		IsCardPayment   bool
		TargetCardID    int64 // set only for card-payment rules

		IsActive bool
	}

	// Transaction is one materialized occurrence of a recurring rule.
	// Immutable once created; RuleID is kept for audit and display only.
	Transaction struct {
		ID     int64
		UserID int64
		RuleID int64

		Kind       TransactionKind
		IsTransfer bool // card-payment occurrence: paired balance effect
		Date       Date
		Amount     Money
		Currency   string

		CategoryID      int64
		Description     string
		SourceAccountID int64
		SourceCardID    int64
		TargetCardID    int64
	}
)

// BalanceKind names the balance a delta applies to.
type BalanceKind string

const (
	AccountBalance BalanceKind = "account"
	CardBalance    BalanceKind = "card"
)

// BalanceDelta is a signed adjustment to a named balance. This is the whole
// contract between the engine and the persistence layer's balance columns.
type BalanceDelta struct {
	Kind  BalanceKind
	ID    int64
	Cents int64
}

// Generation is the atomic unit of work for one rule in one engine run:
// the occurrences to insert, the pointer advance, and the balance effects.
// PrevNextDue is the due date the engine observed; persistence uses it as a
// guard so two overlapping runs cannot both commit the same occurrences.
type Generation struct {
	RuleID        int64
	PrevNextDue   Date
	NextDue       Date
	LastGenerated Date
	Transactions  []Transaction
	Deltas        []BalanceDelta
}

// Session is the authenticated caller as resolved from a session token.
type Session struct {
	Token        string
	UserID       int64
	Locale       string
	BaseCurrency string
	Onboarded    bool
}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingSource    = errors.New("rule needs a source account or card")
	ErrMissingTarget    = errors.New("card-payment rule needs a target card")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether the date is unset (used for optional dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Biweekly, Monthly, Yearly:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the whole-currency value for display purposes only.
// Calculations always use Cents.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

func (r RecurringRule) Validate() error {
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.StartDate.IsEmpty() || r.NextDueDate.IsEmpty() {
		return errors.New("start date and next due date are required")
	}
	if r.NextDueDate.Before(r.StartDate.Time) {
		return errors.New("next due date precedes start date")
	}
	if !r.EndDate.IsEmpty() && r.EndDate.Before(r.StartDate.Time) {
		return errors.New("end date precedes start date")
	}
	switch r.Kind {
	case Income, Expense:
	default:
		return errors.New("invalid transaction kind")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if len(r.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if r.SourceAccountID == 0 && r.SourceCardID == 0 {
		return ErrMissingSource
	}
	if r.IsCardPayment && r.TargetCardID == 0 {
		return ErrMissingTarget
	}
	return nil
}

// Dormant reports whether the rule is past its end date and will never
// generate again. Dormant rules stay active and untouched.
func (r RecurringRule) Dormant() bool {
	return !r.EndDate.IsEmpty() && r.NextDueDate.After(r.EndDate.Time)
}
