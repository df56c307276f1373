package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kassapos/internal/domain"
	"kassapos/internal/money"
	"kassapos/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	items           map[string]domain.Item
	itemOrder       []string
	settledByID     map[string]domain.SettledSale
	settledOrder    []string
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seedPrice(value float64) money.Amount {
	amount, err := money.FromFloat(value)
	if err != nil {
		log.Fatalf("[memory-store] invalid seed price %v: %v", value, err)
	}
	return amount
}

func NewSeeded() *Store {
	items := []domain.Item{
		{ID: "1", Name: "Medicine", Description: "Pain relief medicine", UnitPrice: seedPrice(10), VATRate: 0.0, Quantity: 4},
		{ID: "2", Name: "Newspaper", Description: "Aftonbladet", UnitPrice: seedPrice(20), VATRate: 0.06, Quantity: 6},
		{ID: "3", Name: "Egg", Description: "Free-range eggs", UnitPrice: seedPrice(30), VATRate: 0.12, Quantity: 8},
		{ID: "4", Name: "Phone", Description: "Smartphone", UnitPrice: seedPrice(40), VATRate: 0.25, Quantity: 8},
		{ID: "5", Name: "Coffee", Description: "Ground coffee 500g", UnitPrice: seedPrice(54.90), VATRate: 0.12, Quantity: 24},
		{ID: "6", Name: "Milk", Description: "Whole milk 1L", UnitPrice: seedPrice(14.50), VATRate: 0.12, Quantity: 30},
	}

	itemMap := make(map[string]domain.Item, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		itemMap[item.ID] = item
		order = append(order, item.ID)
	}

	return &Store{
		items:           itemMap,
		itemOrder:       order,
		settledByID:     make(map[string]domain.SettledSale),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) FindItemByID(_ context.Context, id string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := item
	return &copyItem, nil
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.itemOrder))
	for _, id := range s.itemOrder {
		items = append(items, s.items[id])
	}
	return items, nil
}

func (s *Store) SetItemQuantity(_ context.Context, id string, quantity int) error {
	if quantity < 0 {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return store.ErrNotFound
	}
	item.Quantity = quantity
	s.items[id] = item
	return nil
}

func (s *Store) RecordSettledSale(_ context.Context, settled domain.SettledSale) (*domain.SettledSale, error) {
	if settled.ID == "" || len(settled.Lines) == 0 {
		return nil, store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.settledByID[settled.ID]; exists {
		return nil, store.ErrConflict
	}

	copySale := settled
	copySale.Lines = make([]domain.SettledSaleLine, len(settled.Lines))
	copy(copySale.Lines, settled.Lines)

	s.settledByID[settled.ID] = copySale
	s.settledOrder = append(s.settledOrder, settled.ID)

	recorded := copySale
	return &recorded, nil
}

func (s *Store) GetSettledSaleByID(_ context.Context, id string) (*domain.SettledSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settled, exists := s.settledByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := settled
	return &copySale, nil
}

func (s *Store) ListSettledSales(_ context.Context, limit int) ([]domain.SettledSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 || limit > len(s.settledOrder) {
		limit = len(s.settledOrder)
	}

	// Most recent first.
	sales := make([]domain.SettledSale, 0, limit)
	for i := len(s.settledOrder) - 1; i >= 0 && len(sales) < limit; i-- {
		sales = append(sales, s.settledByID[s.settledOrder[i]])
	}
	return sales, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrConflict
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
