package amqp

import (
	"testing"
	"time"
)

func TestTransactionGeneratedMessage_JSONRoundTrip(t *testing.T) {
	msg := NewTransactionGeneratedMessage(42, 7, "Renta", 50000, "MXN", "2024-03-15")
	if msg.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be stamped")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := TransactionGeneratedFromJSON(body)
	if err != nil {
		t.Fatalf("TransactionGeneratedFromJSON: %v", err)
	}
	if got.UserID != 42 || got.RuleID != 7 || got.AmountCents != 50000 {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Currency != "MXN" || got.Date != "2024-03-15" || got.Description != "Renta" {
		t.Errorf("round trip lost payload: %+v", got)
	}
	if !got.Timestamp.Truncate(time.Second).Equal(msg.Timestamp.Truncate(time.Second)) {
		t.Errorf("timestamp changed: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestTransactionGeneratedFromJSON_Invalid(t *testing.T) {
	if _, err := TransactionGeneratedFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
