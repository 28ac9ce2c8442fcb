package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"plata/internal/core"
	"plata/internal/format"
	"plata/internal/session"
)

type generateResponse struct {
	Success   bool   `json:"success"`
	Generated int    `json:"generated"`
	Message   string `json:"message"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.writeUnauthorized(w, r)
		return
	}

	count, err := s.generator.GeneratePending(r.Context(), sess.UserID, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Generation run failed",
			"user_id", sess.UserID,
			"error", err)
		s.writeServerError(w, r)
		return
	}

	if count > 0 && s.netWorthCache != nil {
		s.netWorthCache.Delete(netWorthCacheKey(sess.UserID))
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success:   true,
		Generated: count,
		Message:   format.GenerationSummary(sess.Locale, count),
	})
}

type ruleResponse struct {
	ID                int64  `json:"id"`
	Frequency         string `json:"frequency"`
	StartDate         string `json:"startDate"`
	EndDate           string `json:"endDate,omitempty"`
	NextDueDate       string `json:"nextDueDate"`
	LastGeneratedDate string `json:"lastGeneratedDate,omitempty"`
	Kind              string `json:"kind"`
	AmountCents       int64  `json:"amountCents"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	CategoryID        int64  `json:"categoryId,omitempty"`
	Description       string `json:"description"`
	SourceAccountID   int64  `json:"sourceAccountId,omitempty"`
	SourceCardID      int64  `json:"sourceCardId,omitempty"`
	IsCardPayment     bool   `json:"isCardPayment"`
	TargetCardID      int64  `json:"targetCardId,omitempty"`
	IsActive          bool   `json:"isActive"`
	Dormant           bool   `json:"dormant"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.writeUnauthorized(w, r)
		return
	}

	rules, err := s.rules.ListRules(r.Context(), sess.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Listing rules failed",
			"user_id", sess.UserID,
			"error", err)
		s.writeServerError(w, r)
		return
	}

	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, s.ruleToResponse(sess.Locale, rule))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ruleToResponse(locale string, rule core.RecurringRule) ruleResponse {
	resp := ruleResponse{
		ID:              rule.ID,
		Frequency:       string(rule.Frequency),
		StartDate:       rule.StartDate.String(),
		NextDueDate:     rule.NextDueDate.String(),
		Kind:            string(rule.Kind),
		AmountCents:     rule.Amount.Cents,
		Amount:          s.formats.Money(locale, rule.Currency, rule.Amount.Cents),
		Currency:        rule.Currency,
		CategoryID:      rule.CategoryID,
		Description:     rule.Description,
		SourceAccountID: rule.SourceAccountID,
		SourceCardID:    rule.SourceCardID,
		IsCardPayment:   rule.IsCardPayment,
		TargetCardID:    rule.TargetCardID,
		IsActive:        rule.IsActive,
		Dormant:         rule.Dormant(),
	}
	if !rule.EndDate.IsEmpty() {
		resp.EndDate = rule.EndDate.String()
	}
	if !rule.LastGeneratedDate.IsEmpty() {
		resp.LastGeneratedDate = rule.LastGeneratedDate.String()
	}
	return resp
}

type createRuleRequest struct {
	Frequency       string `json:"frequency"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	Kind            string `json:"kind"`
	Amount          string `json:"amount"` // decimal string, dot or comma separator
	Currency        string `json:"currency"`
	CategoryID      int64  `json:"categoryId"`
	Description     string `json:"description"`
	SourceAccountID int64  `json:"sourceAccountId"`
	SourceCardID    int64  `json:"sourceCardId"`
	IsCardPayment   bool   `json:"isCardPayment"`
	TargetCardID    int64  `json:"targetCardId"`
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.writeUnauthorized(w, r)
		return
	}

	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	rule, err := ruleFromRequest(sess.UserID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	id, err := s.ruleWriter.CreateRule(r.Context(), rule)
	if err != nil {
		slog.ErrorContext(r.Context(), "Creating rule failed",
			"user_id", sess.UserID,
			"error", err)
		s.writeServerError(w, r)
		return
	}
	rule.ID = id

	writeJSON(w, http.StatusCreated, s.ruleToResponse(sess.Locale, rule))
}

// ruleFromRequest builds a rule due for the first time on its start date.
// The amount arrives as a decimal string and is parsed to integer cents.
func ruleFromRequest(userID int64, req createRuleRequest) (core.RecurringRule, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("invalid amount %q: %w", req.Amount, err)
	}

	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("invalid start date %q", req.StartDate)
	}
	var end core.Date
	if req.EndDate != "" {
		if end, err = core.ParseDate(req.EndDate); err != nil {
			return core.RecurringRule{}, fmt.Errorf("invalid end date %q", req.EndDate)
		}
	}

	rule := core.RecurringRule{
		UserID:          userID,
		Frequency:       core.Frequency(req.Frequency),
		StartDate:       start,
		EndDate:         end,
		NextDueDate:     start,
		Kind:            core.TransactionKind(req.Kind),
		Amount:          core.Money{Cents: cents},
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		CategoryID:      req.CategoryID,
		Description:     strings.TrimSpace(req.Description),
		SourceAccountID: req.SourceAccountID,
		SourceCardID:    req.SourceCardID,
		IsCardPayment:   req.IsCardPayment,
		TargetCardID:    req.TargetCardID,
		IsActive:        true,
	}
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	return rule, nil
}

func netWorthCacheKey(userID int64) string {
	return fmt.Sprintf("networth:%d", userID)
}
