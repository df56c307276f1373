package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kassapos/internal/accounting"
	"kassapos/internal/catalog"
	"kassapos/internal/register"
	"kassapos/internal/store/memory"
)

type silentPrinter struct{}

func (silentPrinter) PrintReceipt(string) error { return nil }

// newTestAPI builds a full API with an in-memory store, real AuthManager
// and real register so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	reg := register.New("register-test",
		repo,
		catalog.NewRegistry(repo, nil, time.Minute),
		accounting.NewRegistry(),
		silentPrinter{})
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(reg, auth, "*")
}

func loginToken(t *testing.T, handler http.Handler, username string, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d (body: %s)", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatal("expected access_token in login response")
	}
	return token
}

func doJSON(t *testing.T, handler http.Handler, token string, method string, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	handler := newTestAPI(t).Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "cashier",
		"password": "definitely-wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSalesRequireAuth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, "", http.MethodPost, "/api/v1/sales/start", map[string]string{"terminal_id": "terminal-1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestSaleFlowOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/start", map[string]string{"terminal_id": "terminal-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start sale: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/items", map[string]string{"terminal_id": "terminal-1", "item_id": "2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("enter item: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/items", map[string]string{"terminal_id": "terminal-1", "item_id": "3"})
	if rec.Code != http.StatusOK {
		t.Fatalf("enter item: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/quantity", map[string]any{"terminal_id": "terminal-1", "quantity": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("set quantity: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var entry map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["total"] != "110.00" {
		t.Fatalf("expected running total 110.00, got %v", entry["total"])
	}

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/end", map[string]string{"terminal_id": "terminal-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("end sale: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var end map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&end); err != nil {
		t.Fatalf("decode end: %v", err)
	}
	if end["total"] != "110.00" || end["total_vat"] != "12.00" {
		t.Fatalf("unexpected end totals: %v", end)
	}

	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/payment", map[string]any{"terminal_id": "terminal-1", "amount": "200.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("payment: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var payment map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payment); err != nil {
		t.Fatalf("decode payment: %v", err)
	}
	if payment["change"] != "90.00" {
		t.Fatalf("expected change 90.00, got %v", payment["change"])
	}
	receiptText, _ := payment["receipt_text"].(string)
	if !strings.Contains(receiptText, "Egg 3 x 30:00 90:00 SEK") {
		t.Fatalf("unexpected receipt text: %q", receiptText)
	}

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/sales/receipt?terminal_id=terminal-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var receipt map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt["sale_id"] != payment["sale_id"] {
		t.Fatalf("receipt sale id %v does not match payment %v", receipt["sale_id"], payment["sale_id"])
	}

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/drawer/balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("drawer balance: expected 200, got %d", rec.Code)
	}
	var drawer map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&drawer); err != nil {
		t.Fatalf("decode drawer: %v", err)
	}
	if drawer["balance"] != "200.00" {
		t.Fatalf("expected drawer balance 200.00, got %v", drawer["balance"])
	}
}

func TestEnterItemUnknownID(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler, "cashier", "cashier123")

	doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/start", map[string]string{"terminal_id": "terminal-1"})
	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/items", map[string]string{"terminal_id": "terminal-1", "item_id": "no-such-item"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOperationsWithoutOpenSale(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/quantity", map[string]any{"terminal_id": "terminal-9", "quantity": 2})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestInsufficientPaymentOverHTTP(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler, "cashier", "cashier123")

	doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/start", map[string]string{"terminal_id": "terminal-1"})
	doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/items", map[string]string{"terminal_id": "terminal-1", "item_id": "4"})

	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/payment", map[string]any{"terminal_id": "terminal-1", "amount": "5.00"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// The sale survives a failed payment.
	rec = doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/payment", map[string]any{"terminal_id": "terminal-1", "amount": "40.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("retry payment: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestNegativePaymentAmountRejected(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler, "cashier", "cashier123")

	doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/start", map[string]string{"terminal_id": "terminal-1"})
	rec := doJSON(t, handler, token, http.MethodPost, "/api/v1/sales/payment", map[string]any{"terminal_id": "terminal-1", "amount": "-10.00"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestListItems(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := loginToken(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, token, http.MethodGet, "/api/v1/items", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(body.Items) != 6 {
		t.Fatalf("expected 6 seeded items, got %d", len(body.Items))
	}

	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/items/3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, handler, token, http.MethodGet, "/api/v1/items/no-such-item", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRevenueIsAdminOnly(t *testing.T) {
	handler := newTestAPI(t).Handler()

	cashierToken := loginToken(t, handler, "cashier", "cashier123")
	rec := doJSON(t, handler, cashierToken, http.MethodGet, "/api/v1/accounting/revenue", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", rec.Code)
	}

	adminToken := loginToken(t, handler, "admin", "admin123")
	rec = doJSON(t, handler, adminToken, http.MethodGet, "/api/v1/accounting/revenue", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode revenue: %v", err)
	}
	if body["revenue"] != "0.00" {
		t.Fatalf("expected zero revenue, got %v", body["revenue"])
	}
}

func TestCreateCashier(t *testing.T) {
	handler := newTestAPI(t).Handler()
	adminToken := loginToken(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, adminToken, http.MethodPost, "/api/v1/users/cashiers", map[string]string{
		"username": "kassa2",
		"password": "secret99",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	token := loginToken(t, handler, "kassa2", "secret99")
	if token == "" {
		t.Fatal("new cashier must be able to log in")
	}
}
