package http

import (
	"log/slog"
	"net/http"

	"plata/internal/core"
	"plata/internal/session"
)

type netWorthResponse struct {
	BaseCurrency     string `json:"baseCurrency"`
	TotalCents       int64  `json:"totalCents"`
	Total            string `json:"total"`
	AssetCents       int64  `json:"assetCents"`
	LiabilityCents   int64  `json:"liabilityCents"`
	AccountCount     int    `json:"accountCount"`
	CardCount        int    `json:"cardCount"`
	LoanCount        int    `json:"loanCount"`
	ApproximateRates bool   `json:"approximateRates"`
}

func (s *Server) handleNetWorth(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		s.writeUnauthorized(w, r)
		return
	}

	nw, cached := s.cachedNetWorth(sess.UserID)
	if !cached {
		var err error
		nw, err = s.netWorth.NetWorth(r.Context(), sess.UserID, sess.BaseCurrency)
		if err != nil {
			slog.ErrorContext(r.Context(), "Net worth aggregation failed",
				"user_id", sess.UserID,
				"error", err)
			s.writeServerError(w, r)
			return
		}
		if s.netWorthCache != nil {
			s.netWorthCache.Set(netWorthCacheKey(sess.UserID), nw)
		}
	}

	writeJSON(w, http.StatusOK, netWorthResponse{
		BaseCurrency:     nw.BaseCurrency,
		TotalCents:       nw.TotalCents,
		Total:            s.formats.Money(sess.Locale, nw.BaseCurrency, nw.TotalCents),
		AssetCents:       nw.AssetCents,
		LiabilityCents:   nw.LiabilityCents,
		AccountCount:     nw.AccountCount,
		CardCount:        nw.CardCount,
		LoanCount:        nw.LoanCount,
		ApproximateRates: nw.ApproximateRates,
	})
}

func (s *Server) cachedNetWorth(userID int64) (core.NetWorth, bool) {
	if s.netWorthCache == nil {
		return core.NetWorth{}, false
	}
	return s.netWorthCache.Get(netWorthCacheKey(userID))
}
