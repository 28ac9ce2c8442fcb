package core

import "time"

// AccountBalanceRow is one account's contribution to net worth.
type AccountBalanceRow struct {
	ID       int64
	Name     string
	Currency string
	Cents    int64
}

// CardBalanceRow is a credit card's outstanding balance (owed, not held).
type CardBalanceRow struct {
	ID       int64
	Name     string
	Currency string
	Cents    int64
}

// LoanBalanceRow is the remaining principal on a loan.
type LoanBalanceRow struct {
	ID       int64
	Name     string
	Currency string
	Cents    int64
}

// BalanceSheet is everything the net-worth aggregation reads for one user.
type BalanceSheet struct {
	Accounts []AccountBalanceRow
	Cards    []CardBalanceRow
	Loans    []LoanBalanceRow
}

// NetWorth is assets minus liabilities expressed in the user's base currency.
// Conversions use approximate rates; this is an overview figure, not ledger truth.
type NetWorth struct {
	BaseCurrency     string
	TotalCents       int64
	AssetCents       int64
	LiabilityCents   int64
	AccountCount     int
	CardCount        int
	LoanCount        int
	ApproximateRates bool // true when any balance crossed currencies
}

// Notification is a user-facing event record created by the worker.
type Notification struct {
	ID        int64
	UserID    int64
	Kind      string
	Body      string
	CreatedAt time.Time
	ReadAt    *time.Time
}

// NotificationListOptions are the named filters for listing notifications.
// The zero value is valid: all notifications, newest first, first page.
type NotificationListOptions struct {
	// UnreadOnly keeps only notifications without a read timestamp.
	UnreadOnly bool
	// Limit caps the page size. Zero means the default of 50; values above
	// 200 are clamped to 200.
	Limit int
	// Offset skips that many rows for paging. Negative values mean zero.
	Offset int
}

// Normalize applies the documented defaults and clamps.
func (o NotificationListOptions) Normalize() NotificationListOptions {
	if o.Limit <= 0 {
		o.Limit = 50
	}
	if o.Limit > 200 {
		o.Limit = 200
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
