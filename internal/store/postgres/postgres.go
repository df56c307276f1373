package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kassapos/internal/domain"
	"kassapos/internal/money"
	"kassapos/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FindItemByID(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	var unitPrice string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, unit_price, vat_rate, quantity
		FROM items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Description, &unitPrice, &item.VATRate, &item.Quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if item.UnitPrice, err = money.Parse(unitPrice); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, unit_price, vat_rate, quantity
		FROM items
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		var item domain.Item
		var unitPrice string
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &unitPrice, &item.VATRate, &item.Quantity); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = money.Parse(unitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Store) SetItemQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 0 {
		return store.ErrInvalidRecord
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET quantity = $2, updated_at = now()
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RecordSettledSale(ctx context.Context, settled domain.SettledSale) (*domain.SettledSale, error) {
	if settled.ID == "" || len(settled.Lines) == 0 {
		return nil, store.ErrInvalidRecord
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settled_sales (id, register_id, terminal_id, total, total_vat, tendered, change, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, settled.ID, settled.RegisterID, settled.TerminalID,
		settled.Total.Fixed(), settled.TotalVAT.Fixed(),
		settled.Tendered.Fixed(), settled.Change.Fixed(), settled.SettledAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	for position, line := range settled.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settled_sale_lines (sale_id, position, item_id, name, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, settled.ID, position, line.ItemID, line.Name, line.Quantity,
			line.UnitPrice.Fixed(), line.LineTotal.Fixed())
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	recorded := settled
	return &recorded, nil
}

func (s *Store) GetSettledSaleByID(ctx context.Context, id string) (*domain.SettledSale, error) {
	settled, err := s.scanSettledSale(ctx, id)
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func (s *Store) ListSettledSales(ctx context.Context, limit int) ([]domain.SettledSale, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM settled_sales
		ORDER BY settled_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sales := make([]domain.SettledSale, 0, len(ids))
	for _, id := range ids {
		settled, err := s.scanSettledSale(ctx, id)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *settled)
	}
	return sales, nil
}

func (s *Store) scanSettledSale(ctx context.Context, id string) (*domain.SettledSale, error) {
	var settled domain.SettledSale
	var total, totalVAT, tendered, change string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, register_id, terminal_id, total, total_vat, tendered, change, settled_at
		FROM settled_sales
		WHERE id = $1
	`, id).Scan(&settled.ID, &settled.RegisterID, &settled.TerminalID,
		&total, &totalVAT, &tendered, &change, &settled.SettledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if settled.Total, err = money.Parse(total); err != nil {
		return nil, err
	}
	if settled.TotalVAT, err = money.Parse(totalVAT); err != nil {
		return nil, err
	}
	if settled.Tendered, err = money.Parse(tendered); err != nil {
		return nil, err
	}
	if settled.Change, err = money.Parse(change); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, quantity, unit_price, line_total
		FROM settled_sale_lines
		WHERE sale_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.SettledSaleLine
		var unitPrice, lineTotal string
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Quantity, &unitPrice, &lineTotal); err != nil {
			return nil, err
		}
		if line.UnitPrice, err = money.Parse(unitPrice); err != nil {
			return nil, err
		}
		if line.LineTotal, err = money.Parse(lineTotal); err != nil {
			return nil, err
		}
		settled.Lines = append(settled.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &settled, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidRecord
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
