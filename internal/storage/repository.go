package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"plata/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrGenerationConflict means the rule's next due date moved under us:
	// a concurrent run already committed this generation.
	ErrGenerationConflict = errors.New("generation conflict: rule already advanced")

	ErrSessionNotFound = errors.New("session not found or expired")
	ErrRuleNotFound    = errors.New("recurring rule not found")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Dates are stored as TEXT 'YYYY-MM-DD'; optional dates as NULL.

func dateToNull(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func dateFromNull(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}

const ruleColumns = `id, user_id, frequency, start_date, end_date, next_due_date,
	last_generated_date, kind, amount_cents, currency, category_id, description,
	source_account_id, source_card_id, is_card_payment, target_card_id, is_active`

func scanRule(row interface{ Scan(...any) error }) (core.RecurringRule, error) {
	var (
		rule                             core.RecurringRule
		startDate, nextDue               string
		endDate, lastGenerated           sql.NullString
		categoryID, sourceAcct, sourceCd sql.NullInt64
		targetCard                       sql.NullInt64
	)
	err := row.Scan(&rule.ID, &rule.UserID, &rule.Frequency, &startDate, &endDate,
		&nextDue, &lastGenerated, &rule.Kind, &rule.Amount.Cents, &rule.Currency,
		&categoryID, &rule.Description, &sourceAcct, &sourceCd,
		&rule.IsCardPayment, &targetCard, &rule.IsActive)
	if err != nil {
		return rule, err
	}

	if rule.StartDate, err = core.ParseDate(startDate); err != nil {
		return rule, fmt.Errorf("parse start date: %w", err)
	}
	if rule.NextDueDate, err = core.ParseDate(nextDue); err != nil {
		return rule, fmt.Errorf("parse next due date: %w", err)
	}
	if rule.EndDate, err = dateFromNull(endDate); err != nil {
		return rule, fmt.Errorf("parse end date: %w", err)
	}
	if rule.LastGeneratedDate, err = dateFromNull(lastGenerated); err != nil {
		return rule, fmt.Errorf("parse last generated date: %w", err)
	}
	rule.CategoryID = categoryID.Int64
	rule.SourceAccountID = sourceAcct.Int64
	rule.SourceCardID = sourceCd.Int64
	rule.TargetCardID = targetCard.Int64
	return rule, nil
}

// ActiveRules implements services.RuleStore.
func (r *SQLiteRepository) ActiveRules(ctx context.Context, userID int64) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+`
		FROM recurring_rules WHERE user_id = ? AND is_active = 1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query active rules: %w", err)
	}
	defer rows.Close()

	var rules []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ListRules returns every rule of the user, active or not, newest first.
func (r *SQLiteRepository) ListRules(ctx context.Context, userID int64) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+ruleColumns+`
		FROM recurring_rules WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []core.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ActiveRuleUserIDs returns the distinct users that have at least one active
// rule, for the background sweep.
func (r *SQLiteRepository) ActiveRuleUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM recurring_rules WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("query rule users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplyGeneration implements services.RuleStore. The whole generation commits
// or none of it does. The pointer advance carries an optimistic guard on the
// observed next due date; a stale guard aborts with ErrGenerationConflict.
func (r *SQLiteRepository) ApplyGeneration(ctx context.Context, gen core.Generation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE recurring_rules
		SET next_due_date = ?, last_generated_date = ?
		WHERE id = ? AND next_due_date = ?`,
		gen.NextDue.String(), gen.LastGenerated.String(), gen.RuleID, gen.PrevNextDue.String())
	if err != nil {
		return fmt.Errorf("advance rule pointer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrGenerationConflict
	}

	for _, t := range gen.Transactions {
		_, err := tx.ExecContext(ctx, `INSERT INTO transactions
			(user_id, rule_id, kind, is_transfer, date, amount_cents, currency,
			 category_id, description, source_account_id, source_card_id, target_card_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.UserID, t.RuleID, t.Kind, t.IsTransfer, t.Date.String(),
			t.Amount.Cents, t.Currency, nullID(t.CategoryID), t.Description,
			nullID(t.SourceAccountID), nullID(t.SourceCardID), nullID(t.TargetCardID))
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	for _, d := range gen.Deltas {
		switch d.Kind {
		case core.AccountBalance:
			_, err = tx.ExecContext(ctx,
				`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`,
				d.Cents, d.ID)
		case core.CardBalance:
			_, err = tx.ExecContext(ctx,
				`UPDATE cards SET outstanding_cents = outstanding_cents + ? WHERE id = ?`,
				d.Cents, d.ID)
		default:
			err = fmt.Errorf("unknown balance kind %q", d.Kind)
		}
		if err != nil {
			return fmt.Errorf("apply balance delta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit generation: %w", err)
	}

	slog.InfoContext(ctx, "Generation committed",
		"rule_id", gen.RuleID,
		"transactions", len(gen.Transactions),
		"next_due", gen.NextDue.String())

	return nil
}

func nullID(id int64) sql.NullInt64 {
	if id == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

// BalanceSheet implements services.BalanceStore.
func (r *SQLiteRepository) BalanceSheet(ctx context.Context, userID int64) (core.BalanceSheet, error) {
	var sheet core.BalanceSheet

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, balance_cents FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return sheet, fmt.Errorf("query accounts: %w", err)
	}
	for rows.Next() {
		var a core.AccountBalanceRow
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.Cents); err != nil {
			rows.Close()
			return sheet, fmt.Errorf("scan account: %w", err)
		}
		sheet.Accounts = append(sheet.Accounts, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return sheet, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, name, currency, outstanding_cents FROM cards WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return sheet, fmt.Errorf("query cards: %w", err)
	}
	for rows.Next() {
		var c core.CardBalanceRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Currency, &c.Cents); err != nil {
			rows.Close()
			return sheet, fmt.Errorf("scan card: %w", err)
		}
		sheet.Cards = append(sheet.Cards, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return sheet, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, name, currency, remaining_cents FROM loans WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return sheet, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l core.LoanBalanceRow
		if err := rows.Scan(&l.ID, &l.Name, &l.Currency, &l.Cents); err != nil {
			return sheet, fmt.Errorf("scan loan: %w", err)
		}
		sheet.Loans = append(sheet.Loans, l)
	}
	return sheet, rows.Err()
}

// InsertNotification implements worker.NotificationStore.
func (r *SQLiteRepository) InsertNotification(ctx context.Context, n core.Notification) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, body) VALUES (?, ?, ?)`,
		n.UserID, n.Kind, n.Body)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notification id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID int64, opts core.NotificationListOptions) ([]core.Notification, error) {
	opts = opts.Normalize()

	query := `SELECT id, user_id, kind, body, created_at, read_at
		FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if opts.UnreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var n core.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Body, &n.CreatedAt, &readAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SessionByToken resolves a live session to its user.
func (r *SQLiteRepository) SessionByToken(ctx context.Context, token string) (core.Session, error) {
	var s core.Session
	var onboarded int64
	err := r.db.QueryRowContext(ctx, `SELECT s.token, s.user_id, u.locale, u.base_currency, u.onboarded
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, time.Now().UTC()).
		Scan(&s.Token, &s.UserID, &s.Locale, &s.BaseCurrency, &onboarded)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("query session: %w", err)
	}
	s.Onboarded = onboarded != 0
	return s, nil
}

// UserLocale implements worker.NotificationStore.
func (r *SQLiteRepository) UserLocale(ctx context.Context, userID int64) (string, error) {
	var locale string
	err := r.db.QueryRowContext(ctx, `SELECT locale FROM users WHERE id = ?`, userID).Scan(&locale)
	if err != nil {
		return "", fmt.Errorf("query user locale: %w", err)
	}
	return locale, nil
}

// --- seed helpers, used by the CLI seeder and tests ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, name, locale, baseCurrency string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, locale, base_currency, onboarded) VALUES (?, ?, ?, ?, 1)`,
		email, name, locale, baseCurrency)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, userID int64, name, currency string, balanceCents int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, currency, balance_cents) VALUES (?, ?, ?, ?)`,
		userID, name, currency, balanceCents)
	if err != nil {
		return 0, fmt.Errorf("create account: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateCard(ctx context.Context, userID int64, name, currency string, outstandingCents int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (user_id, name, currency, outstanding_cents) VALUES (?, ?, ?, ?)`,
		userID, name, currency, outstandingCents)
	if err != nil {
		return 0, fmt.Errorf("create card: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateLoan(ctx context.Context, userID int64, name, currency string, remainingCents int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (user_id, name, currency, remaining_cents) VALUES (?, ?, ?, ?)`,
		userID, name, currency, remainingCents)
	if err != nil {
		return 0, fmt.Errorf("create loan: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID int64, name string, kind core.TransactionKind) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, kind) VALUES (?, ?, ?)`,
		userID, name, kind)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) CreateRule(ctx context.Context, rule core.RecurringRule) (int64, error) {
	if err := rule.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO recurring_rules
		(user_id, frequency, start_date, end_date, next_due_date, last_generated_date,
		 kind, amount_cents, currency, category_id, description,
		 source_account_id, source_card_id, is_card_payment, target_card_id, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.UserID, rule.Frequency, rule.StartDate.String(), dateToNull(rule.EndDate),
		rule.NextDueDate.String(), dateToNull(rule.LastGeneratedDate),
		rule.Kind, rule.Amount.Cents, rule.Currency, nullID(rule.CategoryID),
		rule.Description, nullID(rule.SourceAccountID), nullID(rule.SourceCardID),
		rule.IsCardPayment, nullID(rule.TargetCardID), rule.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create rule: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetRule(ctx context.Context, id int64) (core.RecurringRule, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+`
		FROM recurring_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rule, ErrRuleNotFound
	}
	if err != nil {
		return rule, fmt.Errorf("get rule: %w", err)
	}
	return rule, nil
}

func (r *SQLiteRepository) TransactionsByRule(ctx context.Context, ruleID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, rule_id, kind, is_transfer,
		date, amount_cents, currency, category_id, description,
		source_account_id, source_card_id, target_card_id
		FROM transactions WHERE rule_id = ? ORDER BY date, id`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var date string
		var categoryID, sourceAcct, sourceCd, targetCard sql.NullInt64
		if err := rows.Scan(&t.ID, &t.UserID, &t.RuleID, &t.Kind, &t.IsTransfer,
			&date, &t.Amount.Cents, &t.Currency, &categoryID, &t.Description,
			&sourceAcct, &sourceCd, &targetCard); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse transaction date: %w", err)
		}
		t.CategoryID = categoryID.Int64
		t.SourceAccountID = sourceAcct.Int64
		t.SourceCardID = sourceCd.Int64
		t.TargetCardID = targetCard.Int64
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AccountByID(ctx context.Context, id int64) (core.AccountBalanceRow, error) {
	var a core.AccountBalanceRow
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, balance_cents FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Currency, &a.Cents)
	if err != nil {
		return a, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) CardByID(ctx context.Context, id int64) (core.CardBalanceRow, error) {
	var c core.CardBalanceRow
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, outstanding_cents FROM cards WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Currency, &c.Cents)
	if err != nil {
		return c, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}
