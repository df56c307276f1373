// Package receipt renders the snapshot of a settled sale into the
// printable receipt text and hands it to a printer.
package receipt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"kassapos/internal/money"
	"kassapos/internal/sale"
)

// Printer delivers a rendered receipt to whatever device backs the
// terminal. The register keeps settling even when printing fails.
type Printer interface {
	PrintReceipt(text string) error
}

type ConsolePrinter struct {
	out io.Writer
}

func NewConsolePrinter(out io.Writer) *ConsolePrinter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsolePrinter{out: out}
}

func (p *ConsolePrinter) PrintReceipt(text string) error {
	_, err := fmt.Fprintln(p.out, text)
	return err
}

// Format renders a receipt snapshot. Prices use a colon as the decimal
// separator, which is how the receipts have always looked in the shop.
func Format(content *sale.ReceiptContent) string {
	var b strings.Builder

	b.WriteString("------------------- Begin receipt -------------------\n")
	fmt.Fprintf(&b, "Time of Sale: %s\n", content.SettledAt.Format("2006-01-02 15:04"))
	b.WriteString("\n")

	for _, line := range content.Lines {
		fmt.Fprintf(&b, "%s %d x %s %s SEK\n",
			line.Name, line.Quantity, colonPrice(line.UnitPrice), colonPrice(line.LineTotal))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Total: %s SEK\n", colonPrice(content.Total))
	fmt.Fprintf(&b, "VAT: %s\n", colonPrice(content.TotalVAT))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Cash: %s SEK\n", colonPrice(content.Tendered))
	fmt.Fprintf(&b, "Change: %s SEK\n", colonPrice(content.Change))
	b.WriteString("------------------- End receipt ---------------------\n")

	return b.String()
}

func colonPrice(amount money.Amount) string {
	return strings.Replace(amount.Fixed(), ".", ":", 1)
}
