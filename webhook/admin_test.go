package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"procredit/directory"
	"procredit/storage"
)

func newAdminServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := proDirectory()
	handler := NewHandler(directory.NewResolver(dir, 0, 0), dir, &stubLedger{}, store, testSecret, "USD", logger, nil)
	admin := NewAdminHandler(store, token, logger)
	srv := httptest.NewServer(NewRouter(RouterConfig{Handler: handler, Admin: admin}))
	t.Cleanup(srv.Close)
	return srv
}

func adminRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAdminRequiresToken(t *testing.T) {
	srv := newAdminServer(t, "admin-token")

	resp := adminRequest(t, http.MethodGet, srv.URL+"/admin/config?shop=shop-1", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	resp = adminRequest(t, http.MethodGet, srv.URL+"/admin/config?shop=shop-1", "wrong", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for wrong token", resp.StatusCode)
	}
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	srv := newAdminServer(t, "")

	resp := adminRequest(t, http.MethodGet, srv.URL+"/admin/config?shop=shop-1", "anything", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when no token is configured", resp.StatusCode)
	}
}

func TestAdminConfigRoundTrip(t *testing.T) {
	srv := newAdminServer(t, "admin-token")

	// First read seeds the documented defaults.
	resp := adminRequest(t, http.MethodGet, srv.URL+"/admin/config?shop=shop-1", "admin-token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var payload shopConfigPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if payload.Threshold != "500.00" || payload.CreditAmount != "10.00" {
		t.Fatalf("defaults = %s / %s, want 500.00 / 10.00", payload.Threshold, payload.CreditAmount)
	}

	resp = adminRequest(t, http.MethodPut, srv.URL+"/admin/config", "admin-token",
		`{"shop":"shop-1","threshold":"250.00","credit_amount":"5.00"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d, want 200", resp.StatusCode)
	}

	resp = adminRequest(t, http.MethodGet, srv.URL+"/admin/config?shop=shop-1", "admin-token", "")
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if payload.Threshold != "250.00" || payload.CreditAmount != "5.00" {
		t.Fatalf("updated config = %s / %s, want 250.00 / 5.00", payload.Threshold, payload.CreditAmount)
	}
}

func TestAdminRejectsInvalidConfig(t *testing.T) {
	srv := newAdminServer(t, "admin-token")

	resp := adminRequest(t, http.MethodPut, srv.URL+"/admin/config", "admin-token",
		`{"shop":"shop-1","threshold":"0.00","credit_amount":"5.00"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for zero threshold", resp.StatusCode)
	}
}
