package sales

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// Repository persists sales, their lines and price override logs.
type Repository interface {
	Insert(ctx context.Context, sale Sale, overrides []PriceOverrideLog) (Sale, error)
	Get(ctx context.Context, id int64) (Sale, error)
	List(ctx context.Context, branchID int64, status *Status, limit, offset int) ([]Sale, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error
	ListOverrides(ctx context.Context, saleID int64) ([]PriceOverrideLog, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, sale Sale, overrides []PriceOverrideLog) (Sale, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Sale{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO sales (branch_id, cashier_id, customer_name, customer_tier, status, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		sale.BranchID, sale.CashierID, sale.CustomerName, sale.CustomerTier, sale.Status, sale.Total, sale.Notes,
	).Scan(&sale.ID, &sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return Sale{}, err
	}

	for i := range sale.Items {
		item := &sale.Items[i]
		err = tx.QueryRow(ctx, `
			INSERT INTO sale_items (sale_id, product_id, name, quantity, unit_price, line_total, overridden)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			sale.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.LineTotal, item.Overridden,
		).Scan(&item.ID)
		if err != nil {
			return Sale{}, err
		}
	}

	for _, o := range overrides {
		_, err = tx.Exec(ctx, `
			INSERT INTO price_override_logs (sale_id, product_id, min_sell_price, sold_price, actor_id)
			VALUES ($1, $2, $3, $4, $5)`,
			sale.ID, o.ProductID, o.MinSellPrice, o.SoldPrice, o.ActorID)
		if err != nil {
			return Sale{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Sale, error) {
	var sale Sale
	err := r.db.QueryRow(ctx, `
		SELECT id, branch_id, cashier_id, customer_name, customer_tier, status, total, notes, created_at, updated_at
		FROM sales WHERE id = $1`, id,
	).Scan(&sale.ID, &sale.BranchID, &sale.CashierID, &sale.CustomerName, &sale.CustomerTier,
		&sale.Status, &sale.Total, &sale.Notes, &sale.CreatedAt, &sale.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.ErrNotFound
	}
	if err != nil {
		return Sale{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, name, quantity, unit_price, line_total, overridden
		FROM sale_items WHERE sale_id = $1 ORDER BY id`, id)
	if err != nil {
		return Sale{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &item.LineTotal, &item.Overridden); err != nil {
			return Sale{}, err
		}
		sale.Items = append(sale.Items, item)
	}
	return sale, rows.Err()
}

func (r *repository) List(ctx context.Context, branchID int64, status *Status, limit, offset int) ([]Sale, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if branchID > 0 {
		args = append(args, branchID)
		where += " AND branch_id = $1"
	}
	if status != nil {
		args = append(args, *status)
		if branchID > 0 {
			where += " AND status = $2"
		} else {
			where += " AND status = $1"
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sales "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, branch_id, cashier_id, customer_name, customer_tier, status, total, notes, created_at, updated_at
		FROM sales ` + where + ` ORDER BY created_at DESC`
	switch len(args) {
	case 0:
		query += " LIMIT $1 OFFSET $2"
	case 1:
		query += " LIMIT $2 OFFSET $3"
	case 2:
		query += " LIMIT $3 OFFSET $4"
	}
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var sale Sale
		if err := rows.Scan(&sale.ID, &sale.BranchID, &sale.CashierID, &sale.CustomerName, &sale.CustomerTier,
			&sale.Status, &sale.Total, &sale.Notes, &sale.CreatedAt, &sale.UpdatedAt); err != nil {
			return nil, 0, err
		}
		sales = append(sales, sale)
	}
	return sales, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, at, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBadTransition
	}
	return nil
}

func (r *repository) ListOverrides(ctx context.Context, saleID int64) ([]PriceOverrideLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sale_id, product_id, min_sell_price, sold_price, actor_id, created_at
		FROM price_override_logs WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []PriceOverrideLog
	for rows.Next() {
		var log PriceOverrideLog
		if err := rows.Scan(&log.ID, &log.SaleID, &log.ProductID, &log.MinSellPrice, &log.SoldPrice, &log.ActorID, &log.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
