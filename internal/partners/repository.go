package partners

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helios-erp/helios-erp/internal/shared"
)

type Repository interface {
	List(ctx context.Context, search string, activeOnly bool, limit, offset int) ([]Partner, int, error)
	Get(ctx context.Context, id int64) (Partner, error)
	Create(ctx context.Context, partner Partner) (Partner, error)
	Update(ctx context.Context, id int64, partner Partner) error
	Delete(ctx context.Context, id int64) error

	ListCatalog(ctx context.Context, partnerID int64) ([]CatalogItem, error)
	UpsertCatalogItem(ctx context.Context, item CatalogItem) (CatalogItem, error)
	DeleteCatalogItem(ctx context.Context, partnerID, itemID int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, search string, activeOnly bool, limit, offset int) ([]Partner, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (name ILIKE $` + n + ` OR company ILIKE $` + n + `)`
	}
	if activeOnly {
		where += ` AND is_active`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM partners`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name, company, phone, email, address, notes, is_active, created_at, updated_at FROM partners` +
		where + ` ORDER BY name ASC`
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Name, &p.Company, &p.Phone, &p.Email, &p.Address, &p.Notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Partner, error) {
	var p Partner
	err := r.db.QueryRow(ctx, `SELECT id, name, company, phone, email, address, notes, is_active, created_at, updated_at FROM partners WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Company, &p.Phone, &p.Email, &p.Address, &p.Notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, shared.ErrNotFound
		}
		return Partner{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, partner Partner) (Partner, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO partners (name, company, phone, email, address, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`,
		partner.Name, partner.Company, partner.Phone, partner.Email, partner.Address, partner.Notes, partner.IsActive, now,
	).Scan(&partner.ID)
	if err != nil {
		return Partner{}, err
	}
	partner.CreatedAt = now
	partner.UpdatedAt = now
	return partner, nil
}

func (r *repository) Update(ctx context.Context, id int64, partner Partner) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE partners SET name = $1, company = $2, phone = $3, email = $4, address = $5, notes = $6, is_active = $7, updated_at = $8
		WHERE id = $9`,
		partner.Name, partner.Company, partner.Phone, partner.Email, partner.Address, partner.Notes, partner.IsActive, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM partners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListCatalog(ctx context.Context, partnerID int64) ([]CatalogItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, partner_id, name, unit, exchange_value, is_active, created_at, updated_at
		FROM partner_catalog_items WHERE partner_id = $1 ORDER BY name`, partnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CatalogItem
	for rows.Next() {
		var item CatalogItem
		if err := rows.Scan(&item.ID, &item.PartnerID, &item.Name, &item.Unit, &item.ExchangeValue, &item.IsActive, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *repository) UpsertCatalogItem(ctx context.Context, item CatalogItem) (CatalogItem, error) {
	now := time.Now()
	if item.ID == 0 {
		err := r.db.QueryRow(ctx, `
			INSERT INTO partner_catalog_items (partner_id, name, unit, exchange_value, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`,
			item.PartnerID, item.Name, item.Unit, item.ExchangeValue, item.IsActive, now,
		).Scan(&item.ID)
		if err != nil {
			return CatalogItem{}, err
		}
		item.CreatedAt = now
		item.UpdatedAt = now
		return item, nil
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE partner_catalog_items SET name = $1, unit = $2, exchange_value = $3, is_active = $4, updated_at = $5
		WHERE id = $6 AND partner_id = $7`,
		item.Name, item.Unit, item.ExchangeValue, item.IsActive, now, item.ID, item.PartnerID)
	if err != nil {
		return CatalogItem{}, err
	}
	if tag.RowsAffected() == 0 {
		return CatalogItem{}, shared.ErrNotFound
	}
	item.UpdatedAt = now
	return item, nil
}

func (r *repository) DeleteCatalogItem(ctx context.Context, partnerID, itemID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM partner_catalog_items WHERE id = $1 AND partner_id = $2`, itemID, partnerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
