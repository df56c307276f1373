package domain

import (
	"time"

	"kassapos/internal/money"
)

// Item is a catalog record owned by the inventory registry. The sale core
// only reads it; Quantity is the on-hand stock, not part of any sale.
type Item struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	UnitPrice   money.Amount `json:"unit_price"`
	VATRate     float64      `json:"vat_rate"`
	Quantity    int          `json:"quantity"`
}

// SettledSaleLine is one receipt line persisted with a settled sale.
type SettledSaleLine struct {
	ItemID    string       `json:"item_id"`
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`
	LineTotal money.Amount `json:"line_total"`
}

// SettledSale is the persistence record written when a payment settles.
type SettledSale struct {
	ID         string            `json:"id"`
	RegisterID string            `json:"register_id"`
	TerminalID string            `json:"terminal_id"`
	Total      money.Amount      `json:"total"`
	TotalVAT   money.Amount      `json:"total_vat"`
	Tendered   money.Amount      `json:"tendered"`
	Change     money.Amount      `json:"change"`
	SettledAt  time.Time         `json:"settled_at"`
	Lines      []SettledSaleLine `json:"lines"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type StartSaleRequest struct {
	TerminalID string `json:"terminal_id"`
}

type StartSaleResponse struct {
	SaleID     string `json:"sale_id"`
	TerminalID string `json:"terminal_id"`
	StartedAt  string `json:"started_at"`
}

type EnterItemRequest struct {
	TerminalID string `json:"terminal_id"`
	ItemID     string `json:"item_id"`
}

type EnterQuantityRequest struct {
	TerminalID string `json:"terminal_id"`
	Quantity   int    `json:"quantity"`
}

// ItemEntryResponse reports the item just touched plus the running totals,
// mirroring what a cashier display shows after each scan.
type ItemEntryResponse struct {
	Item     Item         `json:"item"`
	Quantity int          `json:"quantity"`
	Removed  bool         `json:"removed,omitempty"`
	Total    money.Amount `json:"total"`
	TotalVAT money.Amount `json:"total_vat"`
}

type EndSaleRequest struct {
	TerminalID string `json:"terminal_id"`
}

type EndSaleResponse struct {
	Total    money.Amount `json:"total"`
	TotalVAT money.Amount `json:"total_vat"`
}

type PaymentRequest struct {
	TerminalID string       `json:"terminal_id"`
	Amount     money.Amount `json:"amount"`
}

type PaymentResponse struct {
	SaleID      string       `json:"sale_id"`
	Total       money.Amount `json:"total"`
	Tendered    money.Amount `json:"tendered"`
	Change      money.Amount `json:"change"`
	ReceiptText string       `json:"receipt_text"`
}

type ReceiptLine struct {
	Name      string       `json:"name"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Amount `json:"unit_price"`
	LineTotal money.Amount `json:"line_total"`
}

type ReceiptResponse struct {
	SaleID    string        `json:"sale_id"`
	Lines     []ReceiptLine `json:"lines"`
	Total     money.Amount  `json:"total"`
	TotalVAT  money.Amount  `json:"total_vat"`
	Tendered  money.Amount  `json:"tendered"`
	Change    money.Amount  `json:"change"`
	SettledAt string        `json:"settled_at"`
}

type DrawerBalanceResponse struct {
	RegisterID string       `json:"register_id"`
	Balance    money.Amount `json:"balance"`
}

type RevenueResponse struct {
	RegisterID string       `json:"register_id"`
	Revenue    money.Amount `json:"revenue"`
	SaleCount  int          `json:"sale_count"`
}
