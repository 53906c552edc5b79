// Package webhook hosts the order-event accrual orchestrator: the HTTP
// handler that turns one platform order notification into a resolved pro,
// updated cumulative counters, and (when a tier was crossed) a store-credit
// deposit.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"procredit/accrual"
	"procredit/directory"
	"procredit/ledger"
	"procredit/observability"
	"procredit/storage"
)

const (
	maxRequestBody = 1 << 20

	// HeaderSignature carries the base64 HMAC-SHA256 of the raw body.
	HeaderSignature = "X-Platform-Hmac-SHA256"
	// HeaderShop identifies the originating shop.
	HeaderShop = "X-Platform-Shop-Domain"
	// HeaderTopic names the event topic (e.g. orders/create).
	HeaderTopic = "X-Platform-Topic"
	// HeaderEventID is the platform's delivery id, stable across redeliveries.
	HeaderEventID = "X-Platform-Event-Id"
)

// Terminal cycle outcomes, used for the response body, metrics, and audit.
const (
	OutcomeNoCode           = "no_code"
	OutcomeNoAmount         = "no_amount"
	OutcomeUnresolved       = "unresolved"
	OutcomeResolutionFailed = "resolution_failed"
	OutcomeDuplicate        = "duplicate"
	OutcomeDeposited        = "deposited"
	OutcomeNothingDue       = "nothing_due"
	OutcomeNoCustomer       = "no_customer"
	OutcomeNoAccount        = "no_account"
	OutcomePermissionDenied = "permission_denied"
	OutcomeDepositFailed    = "deposit_failed"
	OutcomeCommitFailed     = "commit_failed"
	OutcomeIgnored          = "ignored"
)

// Handler sequences the accrual cycle for incoming order events.
type Handler struct {
	resolver    *directory.Resolver
	dir         directory.Client
	ledger      ledger.Gateway
	store       *storage.Store
	secret      []byte
	currency    string
	logger      *slog.Logger
	metrics     *observability.Metrics
	locks       *proLocks
	stepTimeout time.Duration
}

// NewHandler constructs the orchestrator. All collaborators are required
// except metrics, which defaults to the shared registry.
func NewHandler(resolver *directory.Resolver, dir directory.Client, gateway ledger.Gateway, store *storage.Store, secret, currency string, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	if resolver == nil || dir == nil || gateway == nil || store == nil {
		panic("webhook handler requires resolver, directory, ledger, and store")
	}
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		panic("webhook shared secret required")
	}
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.AccrualMetrics()
	}
	h := &Handler{
		resolver:    resolver,
		dir:         dir,
		ledger:      gateway,
		store:       store,
		secret:      []byte(trimmed),
		currency:    currency,
		logger:      logger,
		metrics:     metrics,
		locks:       newProLocks(),
		stepTimeout: 10 * time.Second,
	}
	resolver.OnFallback(metrics.ResolverFallbacks.Inc)
	return h
}

// HandleOrderEvent is the webhook endpoint. Every failure that is not an
// authentication failure answers 200 so the platform does not redeliver
// events whose root cause is configuration rather than transient
// infrastructure; only an invalid signature asks for redelivery via 401.
func (h *Handler) HandleOrderEvent(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	body, err := readBody(w, r)
	if err != nil {
		h.respond(w, http.StatusOK, OutcomeIgnored, "", started)
		return
	}
	if !h.verifySignature(body, r.Header.Get(HeaderSignature)) {
		h.logger.Warn("webhook signature rejected", "shop", r.Header.Get(HeaderShop))
		h.metrics.Events.WithLabelValues("unauthenticated").Inc()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	shop := strings.TrimSpace(r.Header.Get(HeaderShop))
	topic := strings.TrimSpace(r.Header.Get(HeaderTopic))
	eventID := strings.TrimSpace(r.Header.Get(HeaderEventID))
	logger := h.logger.With("shop", shop, "topic", topic, "event_id", eventID)

	if shop == "" {
		logger.Error("event missing shop context, skipping")
		h.respond(w, http.StatusOK, OutcomeIgnored, "", started)
		return
	}

	var order OrderPayload
	if err := json.Unmarshal(body, &order); err != nil {
		logger.Error("undecodable order payload", "error", err)
		h.respond(w, http.StatusOK, OutcomeIgnored, "", started)
		return
	}

	outcome, delta := h.runCycle(r.Context(), logger, shop, topic, eventID, &order)
	h.respond(w, http.StatusOK, outcome, delta, started)
}

// runCycle drives CodeExtracted → Resolved → Accruing → DepositAttempted →
// Committed and returns the terminal outcome plus the formatted deposit delta.
func (h *Handler) runCycle(ctx context.Context, logger *slog.Logger, shop, topic, eventID string, order *OrderPayload) (string, string) {
	code := h.usedCode(ctx, logger, order)
	if code == "" {
		return OutcomeNoCode, ""
	}
	logger = logger.With("code", code)

	amount, strategy, ok := preDiscountAmount(order)
	if !ok {
		logger.Error("order carried a code but no usable amount fields", "order_id", order.ID)
		return OutcomeNoAmount, ""
	}
	logger.Info("extracted order amount",
		"order_id", order.ID,
		"amount", accrual.FormatMinor(amount),
		"strategy", strategy)

	resolveCtx, cancel := context.WithTimeout(ctx, h.stepTimeout)
	pro, err := h.resolver.Resolve(resolveCtx, code)
	cancel()
	if errors.Is(err, directory.ErrNotFound) {
		logger.Info("code matched no pro")
		return OutcomeUnresolved, ""
	}
	if err != nil {
		logger.Error("pro resolution failed", "error", err)
		return OutcomeResolutionFailed, ""
	}

	release := h.locks.Acquire(pro.ID)
	defer release()

	// Re-read under the lock so a cycle that finished while we waited is not
	// overwritten with stale counters.
	pro = h.freshPro(ctx, logger, pro)

	if eventID != "" {
		duplicate, err := h.store.MarkProcessed(ctx, eventID, shop, topic)
		if err != nil {
			logger.Error("idempotency check failed", "error", err)
		} else if duplicate {
			logger.Info("event already processed, skipping")
			return OutcomeDuplicate, ""
		}
	}

	cfg, err := h.store.ShopConfig(ctx, shop)
	if err != nil {
		logger.Error("shop config unavailable", "error", err)
		cfg = accrual.DefaultShopConfig()
	}

	res := accrual.Accrue(accrual.Totals{
		Revenue:      pro.CacheRevenue,
		OrdersCount:  pro.CacheOrdersCount,
		CreditEarned: pro.CacheCreditEarned,
	}, amount, cfg)

	outcome, detail := h.attemptDeposit(ctx, logger, pro, res.DepositDelta)

	// The cache commit always runs, whatever the deposit did: revenue
	// attribution must survive a failed or skipped deposit, and the earned
	// counter tracks intended credit so lagging deposits reconcile later.
	commitCtx, cancel := context.WithTimeout(ctx, h.stepTimeout)
	err = h.dir.UpdateProCache(commitCtx, pro.ID, res.NewRevenue, res.NewOrdersCount, res.NewCreditEarned)
	cancel()
	if err != nil {
		logger.Error("cache commit failed, attribution lost until next cycle",
			"pro_id", pro.ID,
			"new_revenue", accrual.FormatMinor(res.NewRevenue),
			"error", err)
		outcome = OutcomeCommitFailed
		detail = "cache commit: " + err.Error()
	}

	delta := accrual.FormatMinor(res.DepositDelta)
	h.audit(ctx, logger, storage.AuditEntry{
		CycleID:      uuid.NewString(),
		EventID:      eventID,
		Shop:         shop,
		Code:         code,
		ProID:        pro.ID,
		OrderAmount:  accrual.FormatMinor(amount),
		DepositDelta: delta,
		Outcome:      outcome,
		Detail:       detail,
	})
	logger.Info("accrual cycle finished",
		"pro_id", pro.ID,
		"outcome", outcome,
		"new_revenue", accrual.FormatMinor(res.NewRevenue),
		"new_orders", res.NewOrdersCount,
		"deposit_delta", delta)
	return outcome, delta
}

// usedCode derives the promo code from the payload: the explicit code list
// first, then discount-application records, chasing the application id
// through a secondary lookup when only the internal identifier is present.
func (h *Handler) usedCode(ctx context.Context, logger *slog.Logger, order *OrderPayload) string {
	for _, dc := range order.DiscountCodes {
		if code := strings.TrimSpace(dc.Code); code != "" {
			return code
		}
	}
	for _, app := range order.DiscountApplications {
		if !strings.EqualFold(app.Type, "discount_code") {
			continue
		}
		if code := strings.TrimSpace(app.Code); code != "" {
			return code
		}
		if app.ApplicationID == "" {
			continue
		}
		lookupCtx, cancel := context.WithTimeout(ctx, h.stepTimeout)
		code, err := h.dir.DiscountCode(lookupCtx, app.ApplicationID)
		cancel()
		if err != nil {
			logger.Error("discount application lookup failed", "application_id", app.ApplicationID, "error", err)
			continue
		}
		if code = strings.TrimSpace(code); code != "" {
			return code
		}
	}
	return ""
}

// freshPro re-reads the pro's counters under the per-pro lock. On failure the
// already resolved record is used; that only reintroduces the narrow race the
// lock exists to close, it never aborts the cycle.
func (h *Handler) freshPro(ctx context.Context, logger *slog.Logger, pro *directory.Pro) *directory.Pro {
	readCtx, cancel := context.WithTimeout(ctx, h.stepTimeout)
	defer cancel()
	fresh, err := h.dir.GetPro(readCtx, pro.ID)
	if err != nil {
		logger.Warn("stale-read refresh failed, using resolved record", "pro_id", pro.ID, "error", err)
		return pro
	}
	return fresh
}

// attemptDeposit performs the best-effort ledger deposit and classifies the
// result. None of its outcomes abort the cycle. The second return is the
// failure detail recorded on the audit row, empty on success.
func (h *Handler) attemptDeposit(ctx context.Context, logger *slog.Logger, pro *directory.Pro, delta *big.Int) (string, string) {
	if delta == nil || delta.Sign() <= 0 {
		return OutcomeNothingDue, ""
	}
	if strings.TrimSpace(pro.CustomerID) == "" {
		logger.Info("tier crossed but pro has no linked customer", "pro_id", pro.ID)
		h.metrics.Deposits.WithLabelValues(OutcomeNoCustomer).Inc()
		return OutcomeNoCustomer, "pro has no linked customer"
	}
	depositCtx, cancel := context.WithTimeout(ctx, h.stepTimeout)
	defer cancel()
	receipt, err := h.ledger.Deposit(depositCtx, pro.CustomerID, delta, h.currency)
	switch {
	case err == nil:
		logger.Info("store credit deposited",
			"pro_id", pro.ID,
			"account_id", receipt.AccountID,
			"transaction_id", receipt.TransactionID,
			"amount", accrual.FormatMinor(delta))
		h.metrics.Deposits.WithLabelValues(OutcomeDeposited).Inc()
		return OutcomeDeposited, ""
	case errors.Is(err, ledger.ErrNoAccount):
		logger.Info("customer has no store-credit account, deposit skipped", "pro_id", pro.ID)
		h.metrics.Deposits.WithLabelValues(OutcomeNoAccount).Inc()
		return OutcomeNoAccount, err.Error()
	case errors.Is(err, ledger.ErrPermissionDenied):
		logger.Error("store-credit scope missing; grant read/write store credit to the app, deposits will catch up from the earned counter",
			"pro_id", pro.ID, "error", err)
		h.metrics.Deposits.WithLabelValues(OutcomePermissionDenied).Inc()
		return OutcomePermissionDenied, err.Error()
	default:
		logger.Error("deposit failed", "pro_id", pro.ID, "amount", accrual.FormatMinor(delta), "error", err)
		h.metrics.Deposits.WithLabelValues(OutcomeDepositFailed).Inc()
		return OutcomeDepositFailed, err.Error()
	}
}

func (h *Handler) audit(ctx context.Context, logger *slog.Logger, entry storage.AuditEntry) {
	if err := h.store.AppendAudit(ctx, entry); err != nil {
		logger.Error("audit write failed", "error", err)
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, outcome, delta string, started time.Time) {
	h.metrics.Events.WithLabelValues(outcome).Inc()
	h.metrics.CycleDuration.Observe(time.Since(started).Seconds())
	payload := map[string]string{"status": outcome}
	if delta != "" {
		payload["deposit_delta"] = delta
	}
	writeJSON(w, status, payload)
}

func (h *Handler) verifySignature(body []byte, header string) bool {
	provided := strings.TrimSpace(header)
	if provided == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(provided)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(decoded, mac.Sum(nil))
}

// ComputeSignature produces the base64 HMAC-SHA256 a sender attaches to a
// body. Exported for senders and tests.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(reader)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
