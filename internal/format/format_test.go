package format

import (
	"strings"
	"testing"
)

func TestMoney(t *testing.T) {
	c := NewCache()

	got := c.Money("es-MX", "MXN", 50000)
	if !strings.Contains(got, "500") {
		t.Errorf("Money = %q, want the amount in it", got)
	}

	// Unknown code falls back to a readable form instead of failing.
	fallback := c.Money("es-MX", "XYZ", 1234)
	if !strings.Contains(fallback, "XYZ") || !strings.Contains(fallback, "12.34") {
		t.Errorf("fallback = %q", fallback)
	}
}

func TestCacheReusesPrinters(t *testing.T) {
	c := NewCache()
	p1 := c.printer("es-MX")
	p2 := c.printer("es-MX")
	if p1 != p2 {
		t.Error("printer rebuilt for the same locale")
	}
	if len(c.printers) != 1 {
		t.Errorf("printers = %d, want 1", len(c.printers))
	}
}

func TestGenerationSummary(t *testing.T) {
	tests := []struct {
		locale string
		n      int
		want   string
	}{
		{"es-MX", 0, "No hay transacciones recurrentes pendientes"},
		{"es-MX", 1, "Se generó 1 transacción recurrente"},
		{"es-MX", 3, "Se generaron 3 transacciones recurrentes"},
		{"en-US", 0, "No recurring transactions were due"},
		{"en-US", 1, "Generated 1 recurring transaction"},
		{"en-US", 5, "Generated 5 recurring transactions"},
		{"fr-FR", 2, "Generated 2 recurring transactions"}, // non-Spanish falls back to English
	}
	for _, tt := range tests {
		if got := GenerationSummary(tt.locale, tt.n); got != tt.want {
			t.Errorf("GenerationSummary(%s, %d) = %q, want %q", tt.locale, tt.n, got, tt.want)
		}
	}
}

func TestMessages(t *testing.T) {
	if GenericError("es-MX") != "Ocurrió un error inesperado" {
		t.Error("spanish generic error")
	}
	if GenericError("en-US") != "An unexpected error occurred" {
		t.Error("english generic error")
	}
	if Unauthorized("es-MX") != "No autorizado" {
		t.Error("spanish unauthorized")
	}

	c := NewCache()
	notice := c.TransactionNotice("es-MX", "Renta", "MXN", 50000, "2024-03-15")
	if !strings.Contains(notice, "Renta") || !strings.Contains(notice, "2024-03-15") {
		t.Errorf("notice = %q", notice)
	}
}
