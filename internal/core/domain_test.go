package core

import "testing"

func validRule() RecurringRule {
	return RecurringRule{
		ID:              1,
		UserID:          1,
		Frequency:       Monthly,
		StartDate:       NewDate(2024, 1, 15),
		NextDueDate:     NewDate(2024, 1, 15),
		Kind:            Expense,
		Amount:          Money{Cents: 50000},
		Currency:        "MXN",
		Description:     "Renta",
		SourceAccountID: 7,
		IsActive:        true,
	}
}

func TestRecurringRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RecurringRule)
		wantErr bool
	}{
		{name: "valid rule", mutate: func(r *RecurringRule) {}},
		{name: "unknown frequency", mutate: func(r *RecurringRule) { r.Frequency = "fortnightly" }, wantErr: true},
		{name: "biweekly is valid", mutate: func(r *RecurringRule) { r.Frequency = Biweekly }},
		{name: "next due before start", mutate: func(r *RecurringRule) { r.NextDueDate = NewDate(2023, 12, 31) }, wantErr: true},
		{name: "end before start", mutate: func(r *RecurringRule) { r.EndDate = NewDate(2023, 6, 1) }, wantErr: true},
		{name: "zero amount", mutate: func(r *RecurringRule) { r.Amount = Money{} }, wantErr: true},
		{name: "bad currency", mutate: func(r *RecurringRule) { r.Currency = "PESOS" }, wantErr: true},
		{name: "empty description", mutate: func(r *RecurringRule) { r.Description = "  " }, wantErr: true},
		{name: "no source", mutate: func(r *RecurringRule) { r.SourceAccountID = 0 }, wantErr: true},
		{name: "card source is enough", mutate: func(r *RecurringRule) { r.SourceAccountID = 0; r.SourceCardID = 3 }},
		{name: "card payment without target", mutate: func(r *RecurringRule) { r.IsCardPayment = true }, wantErr: true},
		{name: "card payment with target", mutate: func(r *RecurringRule) { r.IsCardPayment = true; r.TargetCardID = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringRule_Dormant(t *testing.T) {
	r := validRule()
	if r.Dormant() {
		t.Fatal("rule without end date must not be dormant")
	}

	r.EndDate = NewDate(2024, 1, 31)
	if r.Dormant() {
		t.Fatal("rule due before end date must not be dormant")
	}

	r.NextDueDate = NewDate(2024, 2, 15)
	if !r.Dormant() {
		t.Fatal("rule due past end date must be dormant")
	}
}

func TestDateOf(t *testing.T) {
	d := DateOf(NewDate(2024, 3, 20).Add(14*3600*1e9 + 1234))
	if d.String() != "2024-03-20" {
		t.Errorf("DateOf() = %s, want 2024-03-20", d)
	}
}

func TestNotificationListOptions_Normalize(t *testing.T) {
	tests := []struct {
		name             string
		in               NotificationListOptions
		wantLimit        int
		wantOffset       int
	}{
		{name: "zero value gets defaults", in: NotificationListOptions{}, wantLimit: 50, wantOffset: 0},
		{name: "limit clamped to 200", in: NotificationListOptions{Limit: 1000}, wantLimit: 200, wantOffset: 0},
		{name: "negative offset zeroed", in: NotificationListOptions{Limit: 10, Offset: -5}, wantLimit: 10, wantOffset: 0},
		{name: "explicit values kept", in: NotificationListOptions{Limit: 25, Offset: 75}, wantLimit: 25, wantOffset: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
				t.Errorf("Normalize() = limit %d offset %d, want limit %d offset %d",
					got.Limit, got.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
