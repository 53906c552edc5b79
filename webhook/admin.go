package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"procredit/accrual"
	"procredit/storage"
)

// AdminHandler exposes the per-shop tier configuration and the cycle audit
// trail to operators. The accrual engine itself never writes configuration.
type AdminHandler struct {
	store  *storage.Store
	token  string
	logger *slog.Logger
}

// NewAdminHandler constructs the admin surface guarded by a bearer token.
func NewAdminHandler(store *storage.Store, token string, logger *slog.Logger) *AdminHandler {
	if store == nil {
		panic("admin handler requires store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{store: store, token: strings.TrimSpace(token), logger: logger}
}

type shopConfigPayload struct {
	Shop         string `json:"shop"`
	Threshold    string `json:"threshold"`
	CreditAmount string `json:"credit_amount"`
}

// Authorize validates the bearer token on admin requests.
func (a *AdminHandler) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.token == "" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "admin API disabled: no token configured"})
			return
		}
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(provided)), []byte(a.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid admin token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetConfig answers the shop's tier parameters, creating defaults on first
// read.
func (a *AdminHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	shop := strings.TrimSpace(r.URL.Query().Get("shop"))
	if shop == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "shop query parameter required"})
		return
	}
	cfg, err := a.store.ShopConfig(r.Context(), shop)
	if err != nil {
		a.logger.Error("load shop config", "shop", shop, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "load shop config failed"})
		return
	}
	writeJSON(w, http.StatusOK, shopConfigPayload{
		Shop:         shop,
		Threshold:    accrual.FormatMinor(cfg.Threshold),
		CreditAmount: accrual.FormatMinor(cfg.CreditAmount),
	})
}

// PutConfig overwrites the shop's tier parameters.
func (a *AdminHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var payload shopConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON payload"})
		return
	}
	shop := strings.TrimSpace(payload.Shop)
	if shop == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "shop required"})
		return
	}
	threshold, err := accrual.ParseDecimal(payload.Threshold)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid threshold: " + err.Error()})
		return
	}
	credit, err := accrual.ParseDecimal(payload.CreditAmount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid credit_amount: " + err.Error()})
		return
	}
	cfg := &accrual.ShopConfig{Threshold: threshold, CreditAmount: credit}
	if err := cfg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := a.store.SetShopConfig(r.Context(), shop, cfg); err != nil {
		a.logger.Error("store shop config", "shop", shop, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store shop config failed"})
		return
	}
	a.logger.Info("shop config updated",
		"shop", shop,
		"threshold", payload.Threshold,
		"credit_amount", payload.CreditAmount)
	writeJSON(w, http.StatusOK, payload)
}

// GetAudits lists the newest accrual cycles for a shop.
func (a *AdminHandler) GetAudits(w http.ResponseWriter, r *http.Request) {
	shop := strings.TrimSpace(r.URL.Query().Get("shop"))
	if shop == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "shop query parameter required"})
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	entries, err := a.store.RecentAudits(r.Context(), shop, limit)
	if err != nil {
		a.logger.Error("list audits", "shop", shop, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list audits failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"audits": entries})
}
