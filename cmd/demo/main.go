// Command demo runs a scripted cash register session against the
// in-memory stack: two scanned items, a quantity change, end of sale
// and a cash payment, with the receipt printed to stdout.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"kassapos/internal/accounting"
	"kassapos/internal/catalog"
	"kassapos/internal/money"
	"kassapos/internal/receipt"
	"kassapos/internal/register"
	"kassapos/internal/sale"
	"kassapos/internal/store/memory"
)

const terminalID = "terminal-1"

func main() {
	ctx := context.Background()
	repo := memory.NewSeeded()
	reg := register.New("register-demo",
		repo,
		catalog.NewRegistry(repo, nil, time.Minute),
		accounting.NewRegistry(),
		receipt.NewConsolePrinter(os.Stdout))

	reg.StartSale(terminalID)
	fmt.Println("Sale started.")
	fmt.Println()

	enterItem(ctx, reg, "2")
	enterItem(ctx, reg, "3")
	setQuantity(reg, 3)

	fmt.Println("End sale:")
	total, _, err := reg.EndSale(terminalID)
	if err != nil {
		log.Fatalf("end sale: %v", err)
	}
	fmt.Printf("Total cost (incl VAT): %s\n", colonAmount(total))
	fmt.Println()

	tendered, err := money.Parse("200.00")
	if err != nil {
		log.Fatalf("parse payment: %v", err)
	}
	fmt.Printf("Amount paid: %s SEK\n", colonFixed(tendered))
	result, err := reg.EnterPayment(ctx, terminalID, tendered)
	if err != nil {
		log.Fatalf("enter payment: %v", err)
	}
	fmt.Printf("Change: %s\n", colonAmount(result.Change))
	fmt.Println()
}

func enterItem(ctx context.Context, reg *register.Register, itemID string) {
	fmt.Printf("Add 1 item with item id %s :\n", itemID)
	entry, err := reg.EnterItem(ctx, terminalID, itemID)
	if err != nil {
		fmt.Println("Item not found")
		fmt.Println()
		return
	}
	printEntry(entry)
}

func setQuantity(reg *register.Register, quantity int) {
	fmt.Printf("Add %d item with the same id:\n", quantity)
	entry, err := reg.SetQuantity(terminalID, quantity)
	if err != nil {
		fmt.Println("No item to update")
		fmt.Println()
		return
	}
	printEntry(entry)
}

func printEntry(entry sale.Entry) {
	fmt.Printf("Item ID: %s\n", entry.Item.ID)
	fmt.Printf("Item name: %s\n", entry.Item.Name)
	fmt.Printf("Item cost: %s SEK\n", colonFixed(entry.Item.UnitPrice))
	fmt.Printf("VAT: %d%%\n", int(entry.Item.VATRate*100))
	fmt.Printf("Item description: %s\n", entry.Item.Description)
	fmt.Println()
	fmt.Printf("Total cost (incl VAT): %s\n", colonAmount(entry.Total))
	fmt.Printf("Total VAT: %s\n", colonAmount(entry.TotalVAT))
	fmt.Println()
}

func colonFixed(amount money.Amount) string {
	return strings.Replace(amount.Fixed(), ".", ":", 1)
}

func colonAmount(amount money.Amount) string {
	return colonFixed(amount) + " SEK"
}
