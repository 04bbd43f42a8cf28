package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helios-erp/helios-erp/internal/shared"
)

// Repository persists stock records and shortage requests. ApplyDelta must be
// atomic: concurrent callers may never lose an update or drive a quantity
// negative.
type Repository interface {
	GetRecord(ctx context.Context, branchID, productID int64) (Record, error)
	ApplyDelta(ctx context.Context, branchID, productID int64, delta float64, minLevel *float64) (Record, error)
	ListRecords(ctx context.Context, branchID int64, lowOnly bool, limit, offset int) ([]Record, int, error)

	InsertShortage(ctx context.Context, req ShortageRequest) (int64, error)
	GetShortage(ctx context.Context, id int64) (ShortageRequest, error)
	UpdateShortageStatus(ctx context.Context, id int64, status ShortageStatus, at time.Time) error
	ListShortages(ctx context.Context, branchID int64, status *ShortageStatus) ([]ShortageRequest, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetRecord(ctx context.Context, branchID, productID int64) (Record, error) {
	var rec Record
	err := r.db.QueryRow(ctx, `
		SELECT id, product_id, branch_id, quantity, min_stock_level, updated_at
		FROM inventory_records WHERE branch_id = $1 AND product_id = $2`,
		branchID, productID,
	).Scan(&rec.ID, &rec.ProductID, &rec.BranchID, &rec.Quantity, &rec.MinStockLevel, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, shared.ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ApplyDelta adds delta to the stored quantity in one guarded statement, so
// concurrent adjustments serialize on the row instead of losing updates. A
// delta that would take the quantity below zero matches no row and surfaces
// as ErrNegativeStock. Missing records are created when the delta itself is
// a legal starting quantity.
func (r *repository) ApplyDelta(ctx context.Context, branchID, productID int64, delta float64, minLevel *float64) (Record, error) {
	var rec Record
	err := r.db.QueryRow(ctx, `
		INSERT INTO inventory_records (product_id, branch_id, quantity, min_stock_level, updated_at)
		SELECT $1, $2, $3, COALESCE($4, 0), NOW()
		WHERE $3 >= 0
		ON CONFLICT (product_id, branch_id)
		DO UPDATE SET
			quantity        = inventory_records.quantity + EXCLUDED.quantity,
			min_stock_level = COALESCE($4, inventory_records.min_stock_level),
			updated_at      = EXCLUDED.updated_at
		WHERE inventory_records.quantity + EXCLUDED.quantity >= 0
		RETURNING id, product_id, branch_id, quantity, min_stock_level, updated_at`,
		productID, branchID, delta, minLevel,
	).Scan(&rec.ID, &rec.ProductID, &rec.BranchID, &rec.Quantity, &rec.MinStockLevel, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNegativeStock
		}
		return Record{}, err
	}
	return rec, nil
}

func (r *repository) ListRecords(ctx context.Context, branchID int64, lowOnly bool, limit, offset int) ([]Record, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if branchID > 0 {
		args = append(args, branchID)
		where += ` AND branch_id = $` + strconv.Itoa(len(args))
	}
	if lowOnly {
		where += ` AND quantity < min_stock_level`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, product_id, branch_id, quantity, min_stock_level, updated_at FROM inventory_records` +
		where + ` ORDER BY branch_id, product_id`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.BranchID, &rec.Quantity, &rec.MinStockLevel, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repository) InsertShortage(ctx context.Context, req ShortageRequest) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO shortage_requests (branch_id, product_id, quantity, status, notes, requested_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`,
		req.BranchID, req.ProductID, req.Quantity, req.Status, req.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) GetShortage(ctx context.Context, id int64) (ShortageRequest, error) {
	var req ShortageRequest
	err := r.db.QueryRow(ctx, `
		SELECT id, branch_id, product_id, quantity, status, COALESCE(notes, ''), requested_at, approved_at, shipped_at, received_at
		FROM shortage_requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.BranchID, &req.ProductID, &req.Quantity, &req.Status, &req.Notes,
		&req.RequestedAt, &req.ApprovedAt, &req.ShippedAt, &req.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ShortageRequest{}, shared.ErrNotFound
		}
		return ShortageRequest{}, err
	}
	return req, nil
}

func (r *repository) UpdateShortageStatus(ctx context.Context, id int64, status ShortageStatus, at time.Time) error {
	var column string
	switch status {
	case ShortageApproved:
		column = "approved_at"
	case ShortageShipped:
		column = "shipped_at"
	case ShortageReceived:
		column = "received_at"
	default:
		return ErrBadTransition
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE shortage_requests SET status = $1, `+column+` = $2 WHERE id = $3`,
		status, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListShortages(ctx context.Context, branchID int64, status *ShortageStatus) ([]ShortageRequest, error) {
	query := `
		SELECT id, branch_id, product_id, quantity, status, COALESCE(notes, ''), requested_at, approved_at, shipped_at, received_at
		FROM shortage_requests WHERE 1=1`
	args := []any{}
	if branchID > 0 {
		args = append(args, branchID)
		query += ` AND branch_id = $` + strconv.Itoa(len(args))
	}
	if status != nil {
		args = append(args, *status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY requested_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShortageRequest
	for rows.Next() {
		var req ShortageRequest
		if err := rows.Scan(&req.ID, &req.BranchID, &req.ProductID, &req.Quantity, &req.Status, &req.Notes,
			&req.RequestedAt, &req.ApprovedAt, &req.ShippedAt, &req.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
