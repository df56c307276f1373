package store

import (
	"context"
	"errors"

	"kassapos/internal/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidRecord = errors.New("invalid record")
)

type Repository interface {
	FindItemByID(ctx context.Context, id string) (*domain.Item, error)
	ListItems(ctx context.Context) ([]domain.Item, error)
	SetItemQuantity(ctx context.Context, id string, quantity int) error
	RecordSettledSale(ctx context.Context, settled domain.SettledSale) (*domain.SettledSale, error)
	GetSettledSaleByID(ctx context.Context, id string) (*domain.SettledSale, error)
	ListSettledSales(ctx context.Context, limit int) ([]domain.SettledSale, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
