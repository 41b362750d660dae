package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// MaintenanceFilter captures ticket search parameters.
type MaintenanceFilter struct {
	VehicleID   *string
	ReportedBy  *string
	Statuses    []domain.MaintenanceStatus
	Priorities  []domain.MaintenancePriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// MaintenanceRepository encapsulates maintenance ticket persistence.
type MaintenanceRepository interface {
	Create(ctx context.Context, ticket *domain.MaintenanceTicket) error
	Update(ctx context.Context, ticket *domain.MaintenanceTicket) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error)
	List(ctx context.Context, filter MaintenanceFilter) ([]domain.MaintenanceTicket, error)
}

type maintenanceRepository struct {
	pool *pgxpool.Pool
}

const maintenanceListOrder = " ORDER BY created_at DESC, id DESC"

// NewMaintenanceRepository instantiates repository.
func NewMaintenanceRepository(pool *pgxpool.Pool) MaintenanceRepository {
	return &maintenanceRepository{pool: pool}
}

const maintenanceColumns = `id, reference, vehicle_id, reported_by, title, description, priority, status,
        odometer_km, cost, resolution_note, created_at, updated_at, completed_at`

func (r *maintenanceRepository) Create(ctx context.Context, t *domain.MaintenanceTicket) error {
	const query = `
        INSERT INTO maintenance_tickets (reference, vehicle_id, reported_by, title, description, priority, status, odometer_km)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		t.Reference,
		t.VehicleID,
		t.ReportedBy,
		t.Title,
		t.Description,
		t.Priority,
		t.Status,
		t.OdometerKm,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return translateErr(err)
}

func (r *maintenanceRepository) Update(ctx context.Context, t *domain.MaintenanceTicket) error {
	const query = `
        UPDATE maintenance_tickets SET title=$1, description=$2, priority=$3, status=$4, odometer_km=$5,
            cost=$6, resolution_note=$7, completed_at=$8, updated_at=NOW()
        WHERE id=$9`
	return execAffected(r.pool.Exec(ctx, query,
		t.Title,
		t.Description,
		t.Priority,
		t.Status,
		t.OdometerKm,
		t.Cost,
		t.ResolutionNote,
		t.CompletedAt,
		t.ID,
	))
}

func (r *maintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error) {
	return scanMaintenance(r.pool.QueryRow(ctx, `SELECT `+maintenanceColumns+` FROM maintenance_tickets WHERE id=$1`, id))
}

func (r *maintenanceRepository) List(ctx context.Context, filter MaintenanceFilter) ([]domain.MaintenanceTicket, error) {
	var w whereBuilder
	if filter.VehicleID != nil {
		w.add("vehicle_id=%s", *filter.VehicleID)
	}
	if filter.ReportedBy != nil {
		w.add("reported_by=%s", *filter.ReportedBy)
	}
	addIn(&w, "status", filter.Statuses)
	addIn(&w, "priority", filter.Priorities)
	if filter.CreatedFrom != nil {
		w.add("created_at >= %s", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("created_at < %s", *filter.CreatedTo)
	}

	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_tickets` + w.sql() + maintenanceListOrder + pageClause(filter.Limit, filter.Offset, 20)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.MaintenanceTicket
	for rows.Next() {
		t, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}

func scanMaintenance(row pgx.Row) (*domain.MaintenanceTicket, error) {
	var t domain.MaintenanceTicket
	if err := row.Scan(
		&t.ID,
		&t.Reference,
		&t.VehicleID,
		&t.ReportedBy,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.OdometerKm,
		&t.Cost,
		&t.ResolutionNote,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
