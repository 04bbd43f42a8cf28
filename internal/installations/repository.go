package installations

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// Repository persists installation jobs and their equipment lines.
type Repository interface {
	Insert(ctx context.Context, inst Installation) (Installation, error)
	Get(ctx context.Context, id int64) (Installation, error)
	List(ctx context.Context, branchID, installerID int64, status *Status, limit, offset int) ([]Installation, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a PostgreSQL-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, inst Installation) (Installation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Installation{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO installations (branch_id, installer_id, customer_name, address, phone, status, labor_cost, total, scheduled_for, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		inst.BranchID, inst.InstallerID, inst.CustomerName, inst.Address, inst.Phone,
		inst.Status, inst.LaborCost, inst.Total, inst.ScheduledFor, inst.Notes,
	).Scan(&inst.ID, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return Installation{}, err
	}

	for i := range inst.Items {
		item := &inst.Items[i]
		err = tx.QueryRow(ctx, `
			INSERT INTO installation_items (installation_id, product_id, name, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			inst.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return Installation{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Installation{}, err
	}
	return inst, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Installation, error) {
	var inst Installation
	err := r.db.QueryRow(ctx, `
		SELECT id, branch_id, installer_id, customer_name, address, phone, status, labor_cost, total, scheduled_for, completed_at, notes, created_at, updated_at
		FROM installations WHERE id = $1`, id,
	).Scan(&inst.ID, &inst.BranchID, &inst.InstallerID, &inst.CustomerName, &inst.Address, &inst.Phone,
		&inst.Status, &inst.LaborCost, &inst.Total, &inst.ScheduledFor, &inst.CompletedAt, &inst.Notes,
		&inst.CreatedAt, &inst.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Installation{}, shared.ErrNotFound
	}
	if err != nil {
		return Installation{}, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, name, quantity, unit_price, line_total
		FROM installation_items WHERE installation_id = $1 ORDER BY id`, id)
	if err != nil {
		return Installation{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return Installation{}, err
		}
		inst.Items = append(inst.Items, item)
	}
	return inst, rows.Err()
}

func (r *repository) List(ctx context.Context, branchID, installerID int64, status *Status, limit, offset int) ([]Installation, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	appendArg := func(clause string, v any) {
		args = append(args, v)
		where += clause + "$" + strconv.Itoa(len(args))
	}
	if branchID > 0 {
		appendArg(" AND branch_id = ", branchID)
	}
	if installerID > 0 {
		appendArg(" AND installer_id = ", installerID)
	}
	if status != nil {
		appendArg(" AND status = ", *status)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM installations"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit)
	query := `
		SELECT id, branch_id, installer_id, customer_name, address, phone, status, labor_cost, total, scheduled_for, completed_at, notes, created_at, updated_at
		FROM installations` + where + ` ORDER BY scheduled_for DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Installation
	for rows.Next() {
		var inst Installation
		if err := rows.Scan(&inst.ID, &inst.BranchID, &inst.InstallerID, &inst.CustomerName, &inst.Address, &inst.Phone,
			&inst.Status, &inst.LaborCost, &inst.Total, &inst.ScheduledFor, &inst.CompletedAt, &inst.Notes,
			&inst.CreatedAt, &inst.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, inst)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error {
	query := `UPDATE installations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	args := []any{to, at, id, from}
	if to == StatusCompleted {
		query = `UPDATE installations SET status = $1, updated_at = $2, completed_at = $2 WHERE id = $3 AND status = $4`
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBadTransition
	}
	return nil
}
