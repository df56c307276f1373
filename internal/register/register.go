// Package register coordinates sale sessions across the terminals of
// one cash register. It owns the shared cash drawer, hands settled
// sales to the store, accounting and inventory, and prints receipts.
package register

import (
	"context"
	"errors"
	"log"
	"sync"

	"kassapos/internal/accounting"
	"kassapos/internal/catalog"
	"kassapos/internal/domain"
	"kassapos/internal/money"
	"kassapos/internal/receipt"
	"kassapos/internal/sale"
	"kassapos/internal/store"
	"kassapos/internal/xid"
)

var ErrNoActiveSale = errors.New("no active sale on this terminal")

type Register struct {
	id         string
	repo       store.Repository
	catalog    *catalog.Registry
	accounting *accounting.Registry
	printer    receipt.Printer

	mu       sync.Mutex
	drawer   *sale.CashDrawer
	sessions map[string]*sale.Sale
	receipts map[string]*sale.ReceiptContent
}

func New(id string, repo store.Repository, items *catalog.Registry, books *accounting.Registry, printer receipt.Printer) *Register {
	if printer == nil {
		printer = receipt.NewConsolePrinter(nil)
	}
	return &Register{
		id:         id,
		repo:       repo,
		catalog:    items,
		accounting: books,
		printer:    printer,
		drawer:     sale.NewCashDrawer(),
		sessions:   make(map[string]*sale.Sale),
		receipts:   make(map[string]*sale.ReceiptContent),
	}
}

// StartSale opens a fresh sale on the terminal. An unfinished sale on
// the same terminal is abandoned, matching a cashier pressing new sale
// after a customer walks away.
func (r *Register) StartSale(terminalID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := xid.New("sale")
	if abandoned, ok := r.sessions[terminalID]; ok {
		log.Printf("[register] terminal %s abandoned sale %s with %d items",
			terminalID, abandoned.ID(), abandoned.ItemCount())
	}
	r.sessions[terminalID] = sale.New(id, r.drawer)

	log.Printf("[register] terminal %s started sale %s", terminalID, id)
	return id
}

// EnterItem scans one unit of an item into the terminal's open sale.
func (r *Register) EnterItem(ctx context.Context, terminalID string, itemID string) (sale.Entry, error) {
	r.mu.Lock()
	session, ok := r.sessions[terminalID]
	r.mu.Unlock()
	if !ok {
		return sale.Entry{}, ErrNoActiveSale
	}

	// The catalog lookup can block on the store, so it runs outside
	// the register lock.
	item, err := r.catalog.FindItemByID(ctx, itemID)
	if err != nil {
		return sale.Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[terminalID] != session {
		return sale.Entry{}, ErrNoActiveSale
	}
	return session.AddItem(*item)
}

// SetQuantity changes the quantity of the most recently scanned item.
func (r *Register) SetQuantity(terminalID string, quantity int) (sale.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[terminalID]
	if !ok {
		return sale.Entry{}, ErrNoActiveSale
	}
	return session.UpdateLastQuantity(quantity)
}

// EndSale marks the terminal's sale as ready for payment and returns
// the amount owed.
func (r *Register) EndSale(terminalID string) (money.Amount, money.Amount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[terminalID]
	if !ok {
		return money.Zero(), money.Zero(), ErrNoActiveSale
	}
	total := session.End()
	return total, session.TotalVAT(), nil
}

type PaymentResult struct {
	SaleID      string
	Total       money.Amount
	TotalVAT    money.Amount
	Tendered    money.Amount
	Change      money.Amount
	ReceiptText string
}

// EnterPayment settles the terminal's sale with the tendered cash. On
// success the sale is persisted, reported to accounting and inventory,
// its receipt printed, and the terminal freed for the next customer.
// An insufficient payment leaves the sale open for another attempt.
func (r *Register) EnterPayment(ctx context.Context, terminalID string, tendered money.Amount) (*PaymentResult, error) {
	r.mu.Lock()
	session, ok := r.sessions[terminalID]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNoActiveSale
	}

	change, err := session.Settle(tendered)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	content, _ := session.Receipt()
	delete(r.sessions, terminalID)
	r.receipts[terminalID] = content
	r.mu.Unlock()

	settled := settledSaleFromReceipt(r.id, terminalID, content)
	if _, err := r.repo.RecordSettledSale(ctx, settled); err != nil {
		// The drawer already holds the cash, so the register keeps
		// serving. The settled sale survives in the terminal's last
		// receipt for manual reconciliation.
		log.Printf("[register] persisting sale %s failed: %v", content.SaleID, err)
	}

	r.accounting.RecordSale(settled)
	r.catalog.UpdateInventory(ctx, settled)

	text := receipt.Format(content)
	if err := r.printer.PrintReceipt(text); err != nil {
		log.Printf("[register] printing receipt for sale %s failed: %v", content.SaleID, err)
	}

	return &PaymentResult{
		SaleID:      content.SaleID,
		Total:       content.Total,
		TotalVAT:    content.TotalVAT,
		Tendered:    content.Tendered,
		Change:      change,
		ReceiptText: text,
	}, nil
}

// LastReceipt returns the receipt of the terminal's most recently
// settled sale.
func (r *Register) LastReceipt(terminalID string) (*sale.ReceiptContent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.receipts[terminalID]
	return content, ok
}

func (r *Register) DrawerBalance() money.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawer.Balance()
}

func (r *Register) Revenue() money.Amount {
	return r.accounting.Revenue()
}

func (r *Register) SaleCount() int {
	return r.accounting.SaleCount()
}

func (r *Register) FindItem(ctx context.Context, itemID string) (*domain.Item, error) {
	return r.catalog.FindItemByID(ctx, itemID)
}

func (r *Register) ListItems(ctx context.Context) ([]domain.Item, error) {
	return r.catalog.ListItems(ctx)
}

func (r *Register) ID() string {
	return r.id
}

func settledSaleFromReceipt(registerID string, terminalID string, content *sale.ReceiptContent) domain.SettledSale {
	lines := make([]domain.SettledSaleLine, 0, len(content.Lines))
	for _, line := range content.Lines {
		lines = append(lines, domain.SettledSaleLine{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		})
	}
	return domain.SettledSale{
		ID:         content.SaleID,
		RegisterID: registerID,
		TerminalID: terminalID,
		Total:      content.Total,
		TotalVAT:   content.TotalVAT,
		Tendered:   content.Tendered,
		Change:     content.Change,
		SettledAt:  content.SettledAt,
		Lines:      lines,
	}
}
