package amqp

import (
	"encoding/json"
	"time"
)

// TransactionGeneratedMessage announces one transaction materialized by the
// recurring engine. It carries enough payload for the notification worker to
// act without re-reading the transaction row.
type TransactionGeneratedMessage struct {
	UserID      int64     `json:"user_id"`
	RuleID      int64     `json:"rule_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Date        string    `json:"date"` // occurrence date, YYYY-MM-DD
	Timestamp   time.Time `json:"timestamp"`
}

// NewTransactionGeneratedMessage stamps a message with the current time.
func NewTransactionGeneratedMessage(userID, ruleID int64, description string, amountCents int64, currency, date string) TransactionGeneratedMessage {
	return TransactionGeneratedMessage{
		UserID:      userID,
		RuleID:      ruleID,
		Description: description,
		AmountCents: amountCents,
		Currency:    currency,
		Date:        date,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m TransactionGeneratedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionGeneratedFromJSON decodes a message from JSON bytes.
func TransactionGeneratedFromJSON(data []byte) (*TransactionGeneratedMessage, error) {
	var msg TransactionGeneratedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
