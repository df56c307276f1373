package sale

import (
	"time"

	"kassapos/internal/money"
)

// ReceiptLine is one settled sale line as it appears on the receipt.
type ReceiptLine struct {
	ItemID    string
	Name      string
	Quantity  int
	UnitPrice money.Amount
	LineTotal money.Amount
}

// ReceiptContent is the immutable snapshot of a settled sale: everything a
// rendering collaborator needs, captured once at settlement time.
type ReceiptContent struct {
	SaleID    string
	Lines     []ReceiptLine
	Total     money.Amount
	TotalVAT  money.Amount
	Tendered  money.Amount
	Change    money.Amount
	SettledAt time.Time
}

func (s *Sale) snapshotReceipt(tendered money.Amount, change money.Amount, at time.Time) *ReceiptContent {
	lines := make([]ReceiptLine, 0, len(s.order))
	for _, id := range s.order {
		line := s.items[id]
		// Line derivations were validated when the line entered the sale.
		lineTotal, _ := line.LineTotal()
		lines = append(lines, ReceiptLine{
			ItemID:    line.item.ID,
			Name:      line.item.Name,
			Quantity:  line.quantity,
			UnitPrice: line.item.UnitPrice,
			LineTotal: lineTotal,
		})
	}
	return &ReceiptContent{
		SaleID:    s.id,
		Lines:     lines,
		Total:     s.total,
		TotalVAT:  s.totalVAT,
		Tendered:  tendered,
		Change:    change,
		SettledAt: at,
	}
}
