package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"kassapos/internal/domain"
	"kassapos/internal/money"
	"kassapos/internal/store"
)

func TestSeededItemsAreListedInOrder(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	items, err := s.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items failed: %v", err)
	}
	if len(items) < 4 {
		t.Fatalf("expected at least 4 seeded items, got %d", len(items))
	}
	if items[0].ID != "1" || items[0].Name != "Medicine" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
}

func TestFindItemByID(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	item, err := s.FindItemByID(ctx, "2")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if item.Name != "Newspaper" {
		t.Fatalf("expected Newspaper, got %s", item.Name)
	}
	if item.UnitPrice.Fixed() != "20.00" {
		t.Fatalf("expected unit price 20.00, got %s", item.UnitPrice.Fixed())
	}

	if _, err := s.FindItemByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetItemQuantity(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.SetItemQuantity(ctx, "1", 2); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	item, err := s.FindItemByID(ctx, "1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", item.Quantity)
	}

	if err := s.SetItemQuantity(ctx, "1", -1); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord for negative quantity, got %v", err)
	}
	if err := s.SetItemQuantity(ctx, "missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown item, got %v", err)
	}
}

func testSettledSale(t *testing.T, id string) domain.SettledSale {
	t.Helper()
	total, err := money.FromFloat(100)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	tendered, err := money.FromFloat(150)
	if err != nil {
		t.Fatalf("tendered: %v", err)
	}
	change, err := tendered.Subtract(total)
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	return domain.SettledSale{
		ID:         id,
		RegisterID: "register-1",
		TerminalID: "terminal-a",
		Total:      total,
		TotalVAT:   money.Zero(),
		Tendered:   tendered,
		Change:     change,
		SettledAt:  time.Now().UTC(),
		Lines: []domain.SettledSaleLine{
			{ItemID: "1", Name: "Medicine", Quantity: 10, UnitPrice: mustAmount(t, 10), LineTotal: total},
		},
	}
}

func mustAmount(t *testing.T, v float64) money.Amount {
	t.Helper()
	amount, err := money.FromFloat(v)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return amount
}

func TestRecordAndListSettledSales(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	first, err := s.RecordSettledSale(ctx, testSettledSale(t, "sale-1"))
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if first.ID != "sale-1" {
		t.Fatalf("unexpected id %s", first.ID)
	}

	if _, err := s.RecordSettledSale(ctx, testSettledSale(t, "sale-1")); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate id, got %v", err)
	}

	if _, err := s.RecordSettledSale(ctx, testSettledSale(t, "sale-2")); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	sales, err := s.ListSettledSales(ctx, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 settled sales, got %d", len(sales))
	}
	if sales[0].ID != "sale-2" {
		t.Fatalf("expected most recent first, got %s", sales[0].ID)
	}

	fetched, err := s.GetSettledSaleByID(ctx, "sale-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if fetched.Total.Fixed() != "100.00" {
		t.Fatalf("expected total 100.00, got %s", fetched.Total.Fixed())
	}
}

func TestUserLifecycle(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 seeded users, got %d", len(users))
	}

	err = s.CreateUser(ctx, domain.UserAccount{
		Username:  "kasper",
		Password:  "$2a$10$fakehashfortest",
		Role:      "cashier",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	if err := s.CreateUser(ctx, domain.UserAccount{Username: "kasper", Password: "x"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate username, got %v", err)
	}

	if err := s.UpdateUserPassword(ctx, "kasper", "$2a$10$anotherhash"); err != nil {
		t.Fatalf("update password failed: %v", err)
	}
	if err := s.UpdateUserPassword(ctx, "ghost", "x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}
