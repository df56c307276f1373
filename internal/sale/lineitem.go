package sale

import (
	"kassapos/internal/domain"
	"kassapos/internal/money"
)

// LineItem is one catalog item within a sale together with its quantity.
// Quantity is always >= 1 while the line exists; a request to set it to zero
// is reported back to the owning Sale, which removes the line.
type LineItem struct {
	item     domain.Item
	quantity int
}

func newLineItem(item domain.Item) *LineItem {
	return &LineItem{item: item, quantity: 1}
}

func (l *LineItem) Item() domain.Item {
	return l.item
}

func (l *LineItem) Quantity() int {
	return l.quantity
}

func (l *LineItem) increment() {
	l.quantity++
}

// setQuantity applies a validated quantity. Callers reject negatives and
// translate zero into removal before this point.
func (l *LineItem) setQuantity(quantity int) {
	l.quantity = quantity
}

// LineTotal is unit price times quantity, recomputed from current state.
func (l *LineItem) LineTotal() (money.Amount, error) {
	return l.item.UnitPrice.MultiplyInt(l.quantity)
}

// LineVAT is the line total scaled by the item's VAT rate.
func (l *LineItem) LineVAT() (money.Amount, error) {
	total, err := l.LineTotal()
	if err != nil {
		return money.Zero(), err
	}
	return total.Multiply(l.item.VATRate)
}
