package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"kassapos/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      "admin",
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	auth := NewAuthManager("test-secret-key", time.Hour, store)

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login with legacy password: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected an access token")
	}

	store.mu.Lock()
	upgraded := store.users["admin"].Password
	updates := store.updates
	store.mu.Unlock()
	if !strings.HasPrefix(upgraded, "$2") {
		t.Fatalf("expected stored password upgraded to bcrypt, got %q", upgraded)
	}
	if updates == 0 {
		t.Fatal("expected a password update written back to the store")
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	store := &userStoreStub{}
	auth := NewAuthManager("test-secret-key", time.Hour, store)

	token, err := auth.sign("cashier", "cashier", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	actor, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "cashier" || actor.Role != "cashier" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthManager("issuer-secret-key", time.Hour, nil)
	verifier := NewAuthManager("other-secret-key", time.Hour, nil)

	token, err := issuer.sign("admin", "admin", time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, nil)

	token, err := auth.sign("admin", "admin", time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.ParseToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestCreateCashierValidation(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, &userStoreStub{})

	if _, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "ab", Password: "secret99"}); err == nil {
		t.Fatal("expected short username to be rejected")
	}
	if _, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "kassa2", Password: "123"}); err == nil {
		t.Fatal("expected short password to be rejected")
	}

	created, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "Kassa2", Password: "secret99"})
	if err != nil {
		t.Fatalf("create cashier: %v", err)
	}
	if created.Username != "kassa2" || created.Role != "cashier" || !created.Active {
		t.Fatalf("unexpected cashier: %+v", created)
	}

	if _, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "kassa2", Password: "secret99"}); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}

	listed := auth.ListCashiers()
	if len(listed) != 1 || listed[0].Username != "kassa2" {
		t.Fatalf("unexpected cashier list: %+v", listed)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	store := &userStoreStub{}
	auth := NewAuthManager("test-secret-key", time.Hour, store)

	created, err := auth.CreateCashier(domain.CashierCreateRequest{Username: "kassa3", Password: "secret99"})
	if err != nil {
		t.Fatalf("create cashier: %v", err)
	}

	store.mu.Lock()
	user := store.users[created.Username]
	user.Active = false
	store.users[created.Username] = user
	store.mu.Unlock()

	if _, err := auth.Login(domain.LoginRequest{Username: "kassa3", Password: "secret99"}); err == nil {
		t.Fatal("expected inactive account to be rejected")
	}
}
