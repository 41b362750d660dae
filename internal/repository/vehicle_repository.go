package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// VehicleFilter captures fleet search parameters.
type VehicleFilter struct {
	Types      []domain.VehicleType
	Statuses   []domain.VehicleStatus
	Campus     *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// VehicleRepository encapsulates vehicle persistence.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	Update(ctx context.Context, vehicle *domain.Vehicle) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	List(ctx context.Context, filter VehicleFilter) ([]domain.Vehicle, error)
}

type vehicleRepository struct {
	pool *pgxpool.Pool
}

const vehicleListOrder = " ORDER BY code ASC, id ASC"

// NewVehicleRepository instantiates repository.
func NewVehicleRepository(pool *pgxpool.Pool) VehicleRepository {
	return &vehicleRepository{pool: pool}
}

const vehicleColumns = `id, code, plate_number, vehicle_type, campus, capacity, status, odometer_km,
        last_service_at, notes, created_at, updated_at`

func (r *vehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	const query = `
        INSERT INTO vehicles (code, plate_number, vehicle_type, campus, capacity, status, odometer_km, last_service_at, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		v.Code,
		v.PlateNumber,
		v.Type,
		v.Campus,
		v.Capacity,
		v.Status,
		v.OdometerKm,
		v.LastServiceAt,
		v.Notes,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	return translateErr(err)
}

func (r *vehicleRepository) Update(ctx context.Context, v *domain.Vehicle) error {
	const query = `
        UPDATE vehicles SET code=$1, plate_number=$2, vehicle_type=$3, campus=$4, capacity=$5, status=$6,
            odometer_km=$7, last_service_at=$8, notes=$9, updated_at=NOW()
        WHERE id=$10`
	return execAffected(r.pool.Exec(ctx, query,
		v.Code,
		v.PlateNumber,
		v.Type,
		v.Campus,
		v.Capacity,
		v.Status,
		v.OdometerKm,
		v.LastServiceAt,
		v.Notes,
		v.ID,
	))
}

func (r *vehicleRepository) Delete(ctx context.Context, id string) error {
	return execAffected(r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id))
}

func (r *vehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id=$1`, id))
}

func (r *vehicleRepository) List(ctx context.Context, filter VehicleFilter) ([]domain.Vehicle, error) {
	var w whereBuilder
	addIn(&w, "vehicle_type", filter.Types)
	addIn(&w, "status", filter.Statuses)
	if filter.Campus != nil {
		w.add("campus=%s", *filter.Campus)
	}
	w.addSearch(filter.SearchTerm, "code", "plate_number", "notes")

	query := `SELECT ` + vehicleColumns + ` FROM vehicles` + w.sql() + vehicleListOrder + pageClause(filter.Limit, filter.Offset, 50)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *v)
	}
	return result, rows.Err()
}

func scanVehicle(row pgx.Row) (*domain.Vehicle, error) {
	var v domain.Vehicle
	if err := row.Scan(
		&v.ID,
		&v.Code,
		&v.PlateNumber,
		&v.Type,
		&v.Campus,
		&v.Capacity,
		&v.Status,
		&v.OdometerKm,
		&v.LastServiceAt,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}
