package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"plata/internal/core"
)

// BalanceStore is what the net-worth aggregation needs from persistence.
type BalanceStore interface {
	BalanceSheet(ctx context.Context, userID int64) (core.BalanceSheet, error)
}

// approximateRates converts one unit of the key currency into USD. They exist
// so a mixed-currency overview can show a single figure; the ledger itself
// never converts.
var approximateRates = map[string]float64{
	"USD": 1.0,
	"MXN": 0.058,
	"EUR": 1.09,
	"GBP": 1.27,
	"CAD": 0.73,
	"BRL": 0.18,
	"COP": 0.00025,
	"ARS": 0.0011,
}

// NetWorthService sums a user's balance sheet into one base-currency figure.
type NetWorthService struct {
	store BalanceStore
}

func NewNetWorthService(store BalanceStore) *NetWorthService {
	return &NetWorthService{store: store}
}

// NetWorth returns assets minus liabilities in baseCurrency. Accounts count
// as assets; card outstanding balances and loan remainders as liabilities.
// Balances in other currencies are converted with approximate rates and the
// result is flagged accordingly.
func (s *NetWorthService) NetWorth(ctx context.Context, userID int64, baseCurrency string) (core.NetWorth, error) {
	sheet, err := s.store.BalanceSheet(ctx, userID)
	if err != nil {
		return core.NetWorth{}, fmt.Errorf("load balance sheet: %w", err)
	}

	base := strings.ToUpper(baseCurrency)
	nw := core.NetWorth{
		BaseCurrency: base,
		AccountCount: len(sheet.Accounts),
		CardCount:    len(sheet.Cards),
		LoanCount:    len(sheet.Loans),
	}

	for _, a := range sheet.Accounts {
		cents, crossed := convertCents(a.Cents, a.Currency, base)
		nw.AssetCents += cents
		nw.ApproximateRates = nw.ApproximateRates || crossed
	}
	for _, c := range sheet.Cards {
		cents, crossed := convertCents(c.Cents, c.Currency, base)
		nw.LiabilityCents += cents
		nw.ApproximateRates = nw.ApproximateRates || crossed
	}
	for _, l := range sheet.Loans {
		cents, crossed := convertCents(l.Cents, l.Currency, base)
		nw.LiabilityCents += cents
		nw.ApproximateRates = nw.ApproximateRates || crossed
	}
	nw.TotalCents = nw.AssetCents - nw.LiabilityCents

	slog.DebugContext(ctx, "Computed net worth",
		"user_id", userID,
		"base_currency", base,
		"total_cents", nw.TotalCents,
		"approximate", nw.ApproximateRates)

	return nw, nil
}

// convertCents converts a balance into the base currency. Same-currency
// balances pass through untouched. An unknown currency also passes through
// unconverted but is flagged as approximate.
func convertCents(cents int64, from, base string) (int64, bool) {
	from = strings.ToUpper(from)
	if from == base {
		return cents, false
	}
	fromRate, okFrom := approximateRates[from]
	baseRate, okBase := approximateRates[base]
	if !okFrom || !okBase {
		return cents, true
	}
	return int64(float64(cents) * fromRate / baseRate), true
}
