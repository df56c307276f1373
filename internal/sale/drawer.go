package sale

import "kassapos/internal/money"

// CashDrawer is the running cash-on-hand balance of one register. It is
// credited with the full tendered amount on every settlement; there are no
// debits. Like Sale it is single-owner: the orchestrator serializes access.
type CashDrawer struct {
	balance money.Amount
}

func NewCashDrawer() *CashDrawer {
	return &CashDrawer{balance: money.Zero()}
}

func (d *CashDrawer) Credit(amount money.Amount) {
	d.balance = d.balance.Add(amount)
}

func (d *CashDrawer) Balance() money.Amount {
	return d.balance
}
