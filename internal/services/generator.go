package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"plata/internal/amqp"
	"plata/internal/core"
)

// RuleStore is what the engine needs from persistence: the active rule set
// and an atomic apply of one rule's generation.
type RuleStore interface {
	ActiveRules(ctx context.Context, userID int64) ([]core.RecurringRule, error)
	// ApplyGeneration persists the occurrences, the pointer advance and the
	// balance deltas of one rule as a single transaction. It must fail without
	// side effects when the rule's next due date no longer matches
	// gen.PrevNextDue (a concurrent run already advanced it).
	ApplyGeneration(ctx context.Context, gen core.Generation) error
}

// EventPublisher publishes generated-transaction events. Publishing is best
// effort: a broker failure never fails generation.
type EventPublisher interface {
	PublishTransactionGenerated(ctx context.Context, msg amqp.TransactionGeneratedMessage) error
}

// RecurringGenerator materializes due occurrences of recurring rules.
type RecurringGenerator struct {
	store  RuleStore
	events EventPublisher // optional
}

// NewRecurringGenerator creates the generation engine. events may be nil.
func NewRecurringGenerator(store RuleStore, events EventPublisher) *RecurringGenerator {
	return &RecurringGenerator{
		store:  store,
		events: events,
	}
}

// GeneratePending creates one transaction for every occurrence of the user's
// active rules that is due as of now, oldest first, advancing each rule's
// schedule pointer past today. It returns the number of transactions created.
//
// Failures are isolated per rule: a rule whose persistence fails is rolled
// back, logged and skipped, and its siblings still generate. Only a failure
// to read the rule set at all aborts the run.
func (g *RecurringGenerator) GeneratePending(ctx context.Context, userID int64, now time.Time) (int, error) {
	if g.store == nil {
		return 0, fmt.Errorf("generator not properly initialized")
	}

	today := core.DateOf(now)

	rules, err := g.store.ActiveRules(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load active rules: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring rules",
		"user_id", userID,
		"total_active", len(rules),
		"as_of", today.String())

	total := 0
	for _, rule := range rules {
		count, err := g.generateForRule(ctx, rule, today)
		if err != nil {
			slog.ErrorContext(ctx, "Recurring rule generation failed",
				"rule_id", rule.ID,
				"user_id", userID,
				"error", err)
			continue
		}
		total += count
	}

	slog.InfoContext(ctx, "Recurring rule processing complete",
		"user_id", userID,
		"generated", total,
		"total_checked", len(rules))

	return total, nil
}

// generateForRule walks the rule's due dates up to today and persists them as
// one atomic unit. A rule that is dormant or not yet due generates nothing
// and is left untouched.
func (g *RecurringGenerator) generateForRule(ctx context.Context, rule core.RecurringRule, today core.Date) (int, error) {
	stepper, err := StepperFor(rule.Frequency)
	if err != nil {
		return 0, err
	}

	anchor := rule.StartDate
	due := rule.NextDueDate.Time

	var txs []core.Transaction
	var deltas []core.BalanceDelta
	for !due.After(today.Time) && (rule.EndDate.IsEmpty() || !due.After(rule.EndDate.Time)) {
		occurrence := core.Date{Time: due}
		txs = append(txs, transactionFromRule(rule, occurrence))
		deltas = append(deltas, balanceDeltas(rule)...)
		due = stepper.Next(due, anchor)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	gen := core.Generation{
		RuleID:        rule.ID,
		PrevNextDue:   rule.NextDueDate,
		NextDue:       core.Date{Time: due},
		LastGenerated: txs[len(txs)-1].Date,
		Transactions:  txs,
		Deltas:        deltas,
	}
	if err := g.store.ApplyGeneration(ctx, gen); err != nil {
		return 0, fmt.Errorf("apply generation: %w", err)
	}

	slog.InfoContext(ctx, "Generated transactions from recurring rule",
		"rule_id", rule.ID,
		"occurrences", len(txs),
		"amount_cents", rule.Amount.Cents,
		"frequency", rule.Frequency,
		"next_due", gen.NextDue.String())

	g.publishGenerated(ctx, rule, txs)

	return len(txs), nil
}

// transactionFromRule copies the rule payload into one occurrence.
func transactionFromRule(rule core.RecurringRule, occurrence core.Date) core.Transaction {
	return core.Transaction{
		UserID:          rule.UserID,
		RuleID:          rule.ID,
		Kind:            rule.Kind,
		IsTransfer:      rule.IsCardPayment,
		Date:            occurrence,
		Amount:          rule.Amount,
		Currency:        rule.Currency,
		CategoryID:      rule.CategoryID,
		Description:     rule.Description,
		SourceAccountID: rule.SourceAccountID,
		SourceCardID:    rule.SourceCardID,
		TargetCardID:    rule.TargetCardID,
	}
}

// balanceDeltas returns the signed balance effects of one occurrence.
//
// A card payment moves money from the source onto the target card's
// outstanding balance: both sides decrease by the amount, so the recorded
// movement nets to zero across the pair.
func balanceDeltas(rule core.RecurringRule) []core.BalanceDelta {
	amount := rule.Amount.Cents

	if rule.IsCardPayment {
		source := core.BalanceDelta{Kind: core.AccountBalance, ID: rule.SourceAccountID, Cents: -amount}
		if rule.SourceAccountID == 0 {
			source = core.BalanceDelta{Kind: core.CardBalance, ID: rule.SourceCardID, Cents: -amount}
		}
		return []core.BalanceDelta{
			source,
			{Kind: core.CardBalance, ID: rule.TargetCardID, Cents: -amount},
		}
	}

	signed := amount
	if rule.Kind == core.Expense {
		signed = -amount
	}
	if rule.SourceAccountID != 0 {
		return []core.BalanceDelta{{Kind: core.AccountBalance, ID: rule.SourceAccountID, Cents: signed}}
	}
	// Spending on a card grows what is owed; income onto a card pays it down.
	return []core.BalanceDelta{{Kind: core.CardBalance, ID: rule.SourceCardID, Cents: -signed}}
}

func (g *RecurringGenerator) publishGenerated(ctx context.Context, rule core.RecurringRule, txs []core.Transaction) {
	if g.events == nil {
		return
	}
	for _, tx := range txs {
		msg := amqp.NewTransactionGeneratedMessage(rule.UserID, rule.ID, rule.Description, rule.Amount.Cents, rule.Currency, tx.Date.String())
		if err := g.events.PublishTransactionGenerated(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish generated-transaction event",
				"rule_id", rule.ID,
				"date", tx.Date.String(),
				"error", err)
			// Generation already committed; the event is best effort.
		}
	}
}
