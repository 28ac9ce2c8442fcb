package services

import (
	"context"
	"errors"
	"testing"

	"plata/internal/core"
)

type fakeBalanceStore struct {
	sheet core.BalanceSheet
	err   error
}

func (f *fakeBalanceStore) BalanceSheet(ctx context.Context, userID int64) (core.BalanceSheet, error) {
	return f.sheet, f.err
}

func TestNetWorth_SingleCurrency(t *testing.T) {
	store := &fakeBalanceStore{sheet: core.BalanceSheet{
		Accounts: []core.AccountBalanceRow{
			{ID: 1, Name: "Nómina", Currency: "MXN", Cents: 1_200_000},
			{ID: 2, Name: "Ahorro", Currency: "MXN", Cents: 800_000},
		},
		Cards: []core.CardBalanceRow{
			{ID: 1, Name: "Oro", Currency: "MXN", Cents: 300_000},
		},
		Loans: []core.LoanBalanceRow{
			{ID: 1, Name: "Auto", Currency: "MXN", Cents: 500_000},
		},
	}}
	svc := NewNetWorthService(store)

	nw, err := svc.NetWorth(context.Background(), 10, "MXN")
	if err != nil {
		t.Fatalf("NetWorth: %v", err)
	}
	if nw.AssetCents != 2_000_000 {
		t.Errorf("assets = %d, want 2000000", nw.AssetCents)
	}
	if nw.LiabilityCents != 800_000 {
		t.Errorf("liabilities = %d, want 800000", nw.LiabilityCents)
	}
	if nw.TotalCents != 1_200_000 {
		t.Errorf("total = %d, want 1200000", nw.TotalCents)
	}
	if nw.ApproximateRates {
		t.Error("single-currency sheet must not be flagged approximate")
	}
	if nw.AccountCount != 2 || nw.CardCount != 1 || nw.LoanCount != 1 {
		t.Errorf("counts = %d/%d/%d", nw.AccountCount, nw.CardCount, nw.LoanCount)
	}
}

func TestNetWorth_MixedCurrenciesFlagged(t *testing.T) {
	store := &fakeBalanceStore{sheet: core.BalanceSheet{
		Accounts: []core.AccountBalanceRow{
			{ID: 1, Currency: "MXN", Cents: 1_000_000},
			{ID: 2, Currency: "USD", Cents: 10_000},
		},
	}}
	svc := NewNetWorthService(store)

	nw, err := svc.NetWorth(context.Background(), 10, "MXN")
	if err != nil {
		t.Fatalf("NetWorth: %v", err)
	}
	if !nw.ApproximateRates {
		t.Error("cross-currency conversion must be flagged approximate")
	}
	// 100 USD at ~17 MXN/USD lands well above the bare MXN balance.
	if nw.AssetCents <= 1_000_000 {
		t.Errorf("assets = %d, conversion not applied", nw.AssetCents)
	}
}

func TestNetWorth_UnknownCurrencyPassesThrough(t *testing.T) {
	store := &fakeBalanceStore{sheet: core.BalanceSheet{
		Accounts: []core.AccountBalanceRow{{ID: 1, Currency: "XYZ", Cents: 5000}},
	}}
	svc := NewNetWorthService(store)

	nw, err := svc.NetWorth(context.Background(), 10, "MXN")
	if err != nil {
		t.Fatalf("NetWorth: %v", err)
	}
	if nw.AssetCents != 5000 {
		t.Errorf("assets = %d, want unconverted 5000", nw.AssetCents)
	}
	if !nw.ApproximateRates {
		t.Error("unknown currency must be flagged approximate")
	}
}

func TestNetWorth_StoreFailure(t *testing.T) {
	svc := NewNetWorthService(&fakeBalanceStore{err: errors.New("no such table")})
	if _, err := svc.NetWorth(context.Background(), 10, "MXN"); err == nil {
		t.Fatal("expected error from failing store")
	}
}
