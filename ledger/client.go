package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"procredit/accrual"
)

// HTTPGateway implements Gateway against the platform's admin REST surface.
type HTTPGateway struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewHTTPGateway constructs a store-credit client with sane defaults.
func NewHTTPGateway(baseURL, token string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type accountResponse struct {
	AccountID string `json:"account_id"`
}

type creditRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// UserError is a field-level rejection returned by the credit mutation.
type UserError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type creditResponse struct {
	TransactionID string      `json:"transaction_id"`
	UserErrors    []UserError `json:"user_errors"`
}

// Deposit looks up the customer's store-credit account and credits it.
func (g *HTTPGateway) Deposit(ctx context.Context, customerID string, amount *big.Int, currency string) (*Receipt, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, ErrNoAccount
	}
	accountID, err := g.lookupAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return g.credit(ctx, accountID, amount, currency)
}

func (g *HTTPGateway) lookupAccount(ctx context.Context, customerID string) (string, error) {
	path := "/customers/" + url.PathEscape(customerID) + "/store_credit_account"
	resp, err := g.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", ErrNoAccount
	case http.StatusForbidden, http.StatusUnauthorized:
		return "", fmt.Errorf("lookup account for customer %s: %w", customerID, ErrPermissionDenied)
	default:
		return "", fmt.Errorf("lookup account for customer %s: status=%d", customerID, resp.StatusCode)
	}
	var account accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return "", fmt.Errorf("decode account response: %w", err)
	}
	if strings.TrimSpace(account.AccountID) == "" {
		return "", ErrNoAccount
	}
	return account.AccountID, nil
}

func (g *HTTPGateway) credit(ctx context.Context, accountID string, amount *big.Int, currency string) (*Receipt, error) {
	path := "/store_credit_accounts/" + url.PathEscape(accountID) + "/credit"
	payload := creditRequest{Amount: accrual.FormatMinor(amount), Currency: currency}
	resp, err := g.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, fmt.Errorf("credit account %s: %w", accountID, ErrPermissionDenied)
	default:
		return nil, fmt.Errorf("credit account %s: status=%d", accountID, resp.StatusCode)
	}
	var credit creditResponse
	if err := json.NewDecoder(resp.Body).Decode(&credit); err != nil {
		return nil, fmt.Errorf("decode credit response: %w", err)
	}
	if len(credit.UserErrors) > 0 {
		if permissionUserError(credit.UserErrors) {
			return nil, fmt.Errorf("credit account %s: %s: %w", accountID, credit.UserErrors[0].Message, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("credit account %s rejected: %s", accountID, formatUserErrors(credit.UserErrors))
	}
	return &Receipt{AccountID: accountID, TransactionID: credit.TransactionID}, nil
}

// permissionUserError detects missing-scope rejections surfaced through the
// mutation's user errors instead of an HTTP status.
func permissionUserError(errs []UserError) bool {
	for _, ue := range errs {
		msg := strings.ToLower(ue.Message)
		if strings.Contains(msg, "access") || strings.Contains(msg, "permission") || strings.Contains(msg, "scope") {
			return true
		}
	}
	return false
}

func formatUserErrors(errs []UserError) string {
	parts := make([]string, 0, len(errs))
	for _, ue := range errs {
		if ue.Field != "" {
			parts = append(parts, ue.Field+": "+ue.Message)
			continue
		}
		parts = append(parts, ue.Message)
	}
	return strings.Join(parts, "; ")
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	if g == nil {
		return nil, fmt.Errorf("ledger gateway not configured")
	}
	var body *bytes.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Platform-Access-Token", g.token)
	return g.http.Do(req)
}
