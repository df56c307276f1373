package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"kassapos/internal/domain"
	"kassapos/internal/money"
	"kassapos/internal/register"
	"kassapos/internal/sale"
	"kassapos/internal/store"
)

type API struct {
	register      *register.Register
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
}

func New(reg *register.Register, auth *AuthManager, allowedOrigin string) *API {
	return &API{
		register:      reg,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("/api/v1/sales/start", a.requireAuth(a.handleStartSale, "cashier", "admin"))
	mux.HandleFunc("/api/v1/sales/items", a.requireAuth(a.handleEnterItem, "cashier", "admin"))
	mux.HandleFunc("/api/v1/sales/quantity", a.requireAuth(a.handleSetQuantity, "cashier", "admin"))
	mux.HandleFunc("/api/v1/sales/end", a.requireAuth(a.handleEndSale, "cashier", "admin"))
	mux.HandleFunc("/api/v1/sales/payment", a.requireAuth(a.handlePayment, "cashier", "admin"))
	mux.HandleFunc("/api/v1/sales/receipt", a.requireAuth(a.handleReceipt, "cashier", "admin"))

	mux.HandleFunc("/api/v1/items", a.requireAuth(a.handleItems, "cashier", "admin"))
	mux.HandleFunc("/api/v1/items/", a.requireAuth(a.handleItemByID, "cashier", "admin"))

	mux.HandleFunc("/api/v1/drawer/balance", a.requireAuth(a.handleDrawerBalance, "cashier", "admin"))
	mux.HandleFunc("/api/v1/accounting/revenue", a.requireAuth(a.handleRevenue, "admin"))
	mux.HandleFunc("/api/v1/users/cashiers", a.requireAuth(a.handleCashiers, "admin"))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r)
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.auth.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleStartSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.StartSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	terminalID, err := normalizeTerminalID(req.TerminalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	saleID := a.register.StartSale(terminalID)
	writeJSON(w, http.StatusCreated, domain.StartSaleResponse{
		SaleID:     saleID,
		TerminalID: terminalID,
		StartedAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleEnterItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.EnterItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	terminalID, err := normalizeTerminalID(req.TerminalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeError(w, http.StatusBadRequest, errors.New("item_id is required"))
		return
	}

	entry, err := a.register.EnterItem(r.Context(), terminalID, strings.TrimSpace(req.ItemID))
	if err != nil {
		writeSaleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResponse(entry))
}

func (a *API) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.EnterQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	terminalID, err := normalizeTerminalID(req.TerminalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entry, err := a.register.SetQuantity(terminalID, req.Quantity)
	if err != nil {
		writeSaleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResponse(entry))
}

func (a *API) handleEndSale(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.EndSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	terminalID, err := normalizeTerminalID(req.TerminalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	total, totalVAT, err := a.register.EndSale(terminalID)
	if err != nil {
		writeSaleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.EndSaleResponse{Total: total, TotalVAT: totalVAT})
}

func (a *API) handlePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	var req domain.PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	terminalID, err := normalizeTerminalID(req.TerminalID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := a.register.EnterPayment(r.Context(), terminalID, req.Amount)
	if err != nil {
		writeSaleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.PaymentResponse{
		SaleID:      result.SaleID,
		Total:       result.Total,
		Tendered:    result.Tendered,
		Change:      result.Change,
		ReceiptText: result.ReceiptText,
	})
}

func (a *API) handleReceipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	terminalID, err := normalizeTerminalID(r.URL.Query().Get("terminal_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	content, ok := a.register.LastReceipt(terminalID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no settled sale on this terminal"))
		return
	}

	lines := make([]domain.ReceiptLine, 0, len(content.Lines))
	for _, line := range content.Lines {
		lines = append(lines, domain.ReceiptLine{
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		})
	}
	writeJSON(w, http.StatusOK, domain.ReceiptResponse{
		SaleID:    content.SaleID,
		Lines:     lines,
		Total:     content.Total,
		TotalVAT:  content.TotalVAT,
		Tendered:  content.Tendered,
		Change:    content.Change,
		SettledAt: content.SettledAt.Format(time.RFC3339),
	})
}

func (a *API) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	items, err := a.register.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleItemByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/items/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("item id required"))
		return
	}

	item, err := a.register.FindItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("item not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleDrawerBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, domain.DrawerBalanceResponse{
		RegisterID: a.register.ID(),
		Balance:    a.register.DrawerBalance(),
	})
}

func (a *API) handleRevenue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, domain.RevenueResponse{
		RegisterID: a.register.ID(),
		Revenue:    a.register.Revenue(),
		SaleCount:  a.register.SaleCount(),
	})
}

func (a *API) handleCashiers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"cashiers": a.auth.ListCashiers()})
	case http.MethodPost:
		var req domain.CashierCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		cashier, err := a.auth.CreateCashier(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{"cashier": cashier})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost && strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(startedAt))
	})
}

// writeSaleError maps domain failures to HTTP statuses. Unknown items
// are 404, business rule violations 422, and calling an operation with
// no open sale is a 409 because the terminal is in the wrong state.
func writeSaleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, errors.New("item not found"))
	case errors.Is(err, register.ErrNoActiveSale):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, sale.ErrInvalidQuantity),
		errors.Is(err, sale.ErrNoActiveItem),
		errors.Is(err, sale.ErrInsufficientPayment):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, money.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func normalizeTerminalID(raw string) (string, error) {
	terminalID := strings.TrimSpace(raw)
	if terminalID == "" {
		return "", errors.New("terminal_id is required")
	}
	return terminalID, nil
}

func entryResponse(entry sale.Entry) domain.ItemEntryResponse {
	return domain.ItemEntryResponse{
		Item:     entry.Item,
		Quantity: entry.Quantity,
		Removed:  entry.Removed,
		Total:    entry.Total,
		TotalVAT: entry.TotalVAT,
	}
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		log.Printf("internal error (status %d): %v", status, err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
