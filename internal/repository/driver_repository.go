package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// DriverFilter captures driver search parameters.
type DriverFilter struct {
	Statuses   []domain.DriverStatus
	Campus     *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// DriverRepository encapsulates driver persistence.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	Update(ctx context.Context, driver *domain.Driver) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Driver, error)
	List(ctx context.Context, filter DriverFilter) ([]domain.Driver, error)
}

type driverRepository struct {
	pool *pgxpool.Pool
}

const driverListOrder = " ORDER BY name ASC, id ASC"

// NewDriverRepository instantiates repository.
func NewDriverRepository(pool *pgxpool.Pool) DriverRepository {
	return &driverRepository{pool: pool}
}

const driverColumns = `id, user_id, name, phone, license_number, license_expiry, campus, status, created_at, updated_at`

func (r *driverRepository) Create(ctx context.Context, d *domain.Driver) error {
	const query = `
        INSERT INTO drivers (user_id, name, phone, license_number, license_expiry, campus, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		d.UserID,
		d.Name,
		d.Phone,
		d.LicenseNumber,
		d.LicenseExpiry,
		d.Campus,
		d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return translateErr(err)
}

func (r *driverRepository) Update(ctx context.Context, d *domain.Driver) error {
	const query = `
        UPDATE drivers SET user_id=$1, name=$2, phone=$3, license_number=$4, license_expiry=$5,
            campus=$6, status=$7, updated_at=NOW()
        WHERE id=$8`
	return execAffected(r.pool.Exec(ctx, query,
		d.UserID,
		d.Name,
		d.Phone,
		d.LicenseNumber,
		d.LicenseExpiry,
		d.Campus,
		d.Status,
		d.ID,
	))
}

func (r *driverRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM drivers WHERE id=$1`, id))
}

func (r *driverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	return scanDriver(r.pool.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id=$1`, id))
}

func (r *driverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	return scanDriver(r.pool.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE user_id=$1`, userID))
}

func (r *driverRepository) List(ctx context.Context, filter DriverFilter) ([]domain.Driver, error) {
	var w whereBuilder
	addIn(&w, "status", filter.Statuses)
	if filter.Campus != nil {
		w.add("campus=%s", *filter.Campus)
	}
	w.addSearch(filter.SearchTerm, "name", "license_number", "phone")

	query := `SELECT ` + driverColumns + ` FROM drivers` + w.sql() + driverListOrder + pageClause(filter.Limit, filter.Offset, 50)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	var d domain.Driver
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Phone,
		&d.LicenseNumber,
		&d.LicenseExpiry,
		&d.Campus,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}
