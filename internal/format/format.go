// Package format renders user-facing money amounts and messages in the
// user's locale.
package format

import (
	"fmt"
	"sync"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Cache holds one message printer per locale, built on first use. Printers
// are immutable once constructed, so they are shared across requests.
type Cache struct {
	mu       sync.Mutex
	printers map[string]*message.Printer
}

func NewCache() *Cache {
	return &Cache{printers: make(map[string]*message.Printer)}
}

func (c *Cache) printer(locale string) *message.Printer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.printers[locale]; ok {
		return p
	}
	p := message.NewPrinter(language.Make(locale))
	c.printers[locale] = p
	return p
}

// Money renders cents of the given ISO currency for the locale, symbol
// included. An unknown currency code falls back to "<code> <units>".
func (c *Cache) Money(locale, code string, cents int64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %.2f", code, float64(cents)/100)
	}
	amount := unit.Amount(float64(cents) / 100)
	return c.printer(locale).Sprintf("%v", currency.Symbol(amount))
}

// spanish reports whether the locale's base language is Spanish. Anything
// else renders in English.
func spanish(locale string) bool {
	base, _ := language.Make(locale).Base()
	return base.String() == "es"
}

// GenerationSummary is the user-facing result line of a generation run.
func GenerationSummary(locale string, generated int) string {
	if spanish(locale) {
		switch generated {
		case 0:
			return "No hay transacciones recurrentes pendientes"
		case 1:
			return "Se generó 1 transacción recurrente"
		default:
			return fmt.Sprintf("Se generaron %d transacciones recurrentes", generated)
		}
	}
	switch generated {
	case 0:
		return "No recurring transactions were due"
	case 1:
		return "Generated 1 recurring transaction"
	default:
		return fmt.Sprintf("Generated %d recurring transactions", generated)
	}
}

// TransactionNotice is the notification body for one generated transaction.
func (c *Cache) TransactionNotice(locale, description, code string, cents int64, date string) string {
	amount := c.Money(locale, code, cents)
	if spanish(locale) {
		return fmt.Sprintf("Se generó %q por %s con fecha %s", description, amount, date)
	}
	return fmt.Sprintf("Generated %q for %s dated %s", description, amount, date)
}

// GenericError is the safe message for unexpected failures.
func GenericError(locale string) string {
	if spanish(locale) {
		return "Ocurrió un error inesperado"
	}
	return "An unexpected error occurred"
}

// Unauthorized is the message for missing or expired sessions.
func Unauthorized(locale string) string {
	if spanish(locale) {
		return "No autorizado"
	}
	return "Unauthorized"
}
