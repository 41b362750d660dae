package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// ScheduleFilter captures calendar queries. From/To select events overlapping [From, To).
type ScheduleFilter struct {
	From          *time.Time
	To            *time.Time
	VehicleID     *string
	DriverID      *string
	TripRequestID *string
	TripIDs       []string
	Statuses      []domain.EventStatus
	Limit         int
	Offset        int
}

// ScheduleRepository encapsulates schedule event persistence.
type ScheduleRepository interface {
	Create(ctx context.Context, event *domain.ScheduleEvent) error
	Update(ctx context.Context, event *domain.ScheduleEvent) error
	GetByID(ctx context.Context, id string) (*domain.ScheduleEvent, error)
	List(ctx context.Context, filter ScheduleFilter) ([]domain.ScheduleEvent, error)
}

type scheduleRepository struct {
	pool *pgxpool.Pool
}

const eventListOrder = " ORDER BY starts_at ASC, id ASC"

// NewScheduleRepository instantiates repository.
func NewScheduleRepository(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepository{pool: pool}
}

const eventColumns = `id, title, trip_request_id, vehicle_id, driver_id, starts_at, ends_at, status, notes,
        created_by, created_at, updated_at`

func (r *scheduleRepository) Create(ctx context.Context, e *domain.ScheduleEvent) error {
	const query = `
        INSERT INTO schedule_events (title, trip_request_id, vehicle_id, driver_id, starts_at, ends_at, status, notes, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		e.Title,
		e.TripRequestID,
		e.VehicleID,
		e.DriverID,
		e.StartsAt,
		e.EndsAt,
		e.Status,
		e.Notes,
		e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return translateErr(err)
}

func (r *scheduleRepository) Update(ctx context.Context, e *domain.ScheduleEvent) error {
	const query = `
        UPDATE schedule_events SET title=$1, trip_request_id=$2, vehicle_id=$3, driver_id=$4, starts_at=$5,
            ends_at=$6, status=$7, notes=$8, updated_at=NOW()
        WHERE id=$9`
	return execAffected(r.pool.Exec(ctx, query,
		e.Title,
		e.TripRequestID,
		e.VehicleID,
		e.DriverID,
		e.StartsAt,
		e.EndsAt,
		e.Status,
		e.Notes,
		e.ID,
	))
}

func (r *scheduleRepository) GetByID(ctx context.Context, id string) (*domain.ScheduleEvent, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM schedule_events WHERE id=$1`, id))
}

func (r *scheduleRepository) List(ctx context.Context, filter ScheduleFilter) ([]domain.ScheduleEvent, error) {
	var w whereBuilder
	if filter.From != nil {
		w.add("ends_at > %s", *filter.From)
	}
	if filter.To != nil {
		w.add("starts_at < %s", *filter.To)
	}
	if filter.VehicleID != nil {
		w.add("vehicle_id=%s", *filter.VehicleID)
	}
	if filter.DriverID != nil {
		w.add("driver_id=%s", *filter.DriverID)
	}
	if filter.TripRequestID != nil {
		w.add("trip_request_id=%s", *filter.TripRequestID)
	}
	if filter.TripIDs != nil {
		w.add("trip_request_id::text = ANY(%s)", filter.TripIDs)
	}
	addIn(&w, "status", filter.Statuses)

	query := `SELECT ` + eventColumns + ` FROM schedule_events` + w.sql() + eventListOrder + pageClause(filter.Limit, filter.Offset, 500)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ScheduleEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.ScheduleEvent, error) {
	var e domain.ScheduleEvent
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.TripRequestID,
		&e.VehicleID,
		&e.DriverID,
		&e.StartsAt,
		&e.EndsAt,
		&e.Status,
		&e.Notes,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
