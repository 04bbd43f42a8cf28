package barter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// Repository persists finalized barter transactions. The calculator itself
// never touches storage; this is the persistence collaborator.
type Repository interface {
	Insert(ctx context.Context, tx Transaction) (int64, error)
	Get(ctx context.Context, id int64) (Transaction, error)
	ListByPartner(ctx context.Context, partnerID int64, limit, offset int) ([]Transaction, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, tx Transaction) (int64, error) {
	dbtx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = dbtx.Rollback(ctx) }()

	var id int64
	err = dbtx.QueryRow(ctx, `
		INSERT INTO barter_transactions (partner_id, total_given, total_received, balance, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`,
		tx.PartnerID, tx.TotalGiven.String(), tx.TotalReceived.String(), tx.Balance.String(), tx.Notes, tx.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("barter: insert transaction: %w", err)
	}

	insertLines := func(side string, items []LineItem) error {
		for pos, item := range items {
			_, err := dbtx.Exec(ctx, `
				INSERT INTO barter_items (transaction_id, side, position, product_id, name, quantity, unit_value)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, side, pos, item.ProductID, item.Name, item.Quantity, item.UnitValue.String())
			if err != nil {
				return fmt.Errorf("barter: insert %s item: %w", side, err)
			}
		}
		return nil
	}
	if err := insertLines("given", tx.ItemsGiven); err != nil {
		return 0, err
	}
	if err := insertLines("received", tx.ItemsReceived); err != nil {
		return 0, err
	}

	if err := dbtx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Transaction, error) {
	var tx Transaction
	var totalGiven, totalReceived, balance string
	err := r.pool.QueryRow(ctx, `
		SELECT id, partner_id, total_given, total_received, balance, COALESCE(notes, ''), created_by, created_at
		FROM barter_transactions WHERE id = $1`, id,
	).Scan(&tx.ID, &tx.PartnerID, &totalGiven, &totalReceived, &balance, &tx.Notes, &tx.CreatedBy, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, shared.ErrNotFound
		}
		return Transaction{}, err
	}
	if tx.TotalGiven, err = decimal.NewFromString(totalGiven); err != nil {
		return Transaction{}, err
	}
	if tx.TotalReceived, err = decimal.NewFromString(totalReceived); err != nil {
		return Transaction{}, err
	}
	if tx.Balance, err = decimal.NewFromString(balance); err != nil {
		return Transaction{}, err
	}

	tx.ItemsGiven, tx.ItemsReceived, err = r.loadItems(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

func (r *repository) loadItems(ctx context.Context, txID int64) (given, received []LineItem, err error) {
	rows, err := r.pool.Query(ctx, `
		SELECT side, product_id, name, quantity, unit_value
		FROM barter_items WHERE transaction_id = $1
		ORDER BY side, position`, txID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	given, received = ResetSettlement()
	for rows.Next() {
		var side, unitValue string
		var item LineItem
		if err := rows.Scan(&side, &item.ProductID, &item.Name, &item.Quantity, &unitValue); err != nil {
			return nil, nil, err
		}
		if item.UnitValue, err = decimal.NewFromString(unitValue); err != nil {
			return nil, nil, err
		}
		switch side {
		case "given":
			given = append(given, item)
		case "received":
			received = append(received, item)
		}
	}
	return given, received, rows.Err()
}

func (r *repository) ListByPartner(ctx context.Context, partnerID int64, limit, offset int) ([]Transaction, int, error) {
	query := `
		SELECT id, partner_id, total_given, total_received, balance, COALESCE(notes, ''), created_by, created_at
		FROM barter_transactions`
	countQuery := `SELECT COUNT(*) FROM barter_transactions`
	args := []any{}
	if partnerID > 0 {
		query += ` WHERE partner_id = $1`
		countQuery += ` WHERE partner_id = $1`
		args = append(args, partnerID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	var total int
	countArgs := args
	if limit > 0 {
		countArgs = args[:len(args)-2]
	}
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var totalGiven, totalReceived, balance string
		if err := rows.Scan(&tx.ID, &tx.PartnerID, &totalGiven, &totalReceived, &balance, &tx.Notes, &tx.CreatedBy, &tx.CreatedAt); err != nil {
			return nil, 0, err
		}
		if tx.TotalGiven, err = decimal.NewFromString(totalGiven); err != nil {
			return nil, 0, err
		}
		if tx.TotalReceived, err = decimal.NewFromString(totalReceived); err != nil {
			return nil, 0, err
		}
		if tx.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, 0, err
		}
		txs = append(txs, tx)
	}
	return txs, total, rows.Err()
}
