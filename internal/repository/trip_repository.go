package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/campus-transport/internal/domain"
)

// TripFilter captures trip request search parameters.
type TripFilter struct {
	RequesterID   *string
	Campus        *string
	Statuses      []domain.TripStatus
	SearchTerm    *string
	DepartureFrom *time.Time
	DepartureTo   *time.Time
	Limit         int
	Offset        int
}

// TripRepository encapsulates trip request persistence.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.TripRequest) error
	// Update writes trip only while its stored status is still expected.
	Update(ctx context.Context, trip *domain.TripRequest, expected domain.TripStatus) error
	GetByID(ctx context.Context, id string) (*domain.TripRequest, error)
	List(ctx context.Context, filter TripFilter) ([]domain.TripRequest, error)
}

type tripRepository struct {
	pool *pgxpool.Pool
}

const tripListOrder = " ORDER BY departure_at DESC, id DESC"

// NewTripRepository instantiates repository.
func NewTripRepository(pool *pgxpool.Pool) TripRepository {
	return &tripRepository{pool: pool}
}

const tripColumns = `id, reference, requester_id, purpose, destination, pickup_location, campus,
        departure_at, return_at, passengers, preferred_vehicle_type, status, decision_note, decided_by,
        schedule_event_id, created_at, updated_at`

func (r *tripRepository) Create(ctx context.Context, trip *domain.TripRequest) error {
	const query = `
        INSERT INTO trip_requests (reference, requester_id, purpose, destination, pickup_location, campus,
            departure_at, return_at, passengers, preferred_vehicle_type, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		trip.Reference,
		trip.RequesterID,
		trip.Purpose,
		trip.Destination,
		trip.PickupLocation,
		trip.Campus,
		trip.DepartureAt,
		trip.ReturnAt,
		trip.Passengers,
		trip.PreferredVehicleType,
		trip.Status,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	return translateErr(err)
}

func (r *tripRepository) Update(ctx context.Context, trip *domain.TripRequest, expected domain.TripStatus) error {
	const query = `
        UPDATE trip_requests SET purpose=$1, destination=$2, pickup_location=$3, campus=$4, departure_at=$5,
            return_at=$6, passengers=$7, preferred_vehicle_type=$8, status=$9, decision_note=$10,
            decided_by=$11, schedule_event_id=$12, updated_at=NOW()
        WHERE id=$13 AND status=$14`
	tag, err := r.pool.Exec(ctx, query,
		trip.Purpose,
		trip.Destination,
		trip.PickupLocation,
		trip.Campus,
		trip.DepartureAt,
		trip.ReturnAt,
		trip.Passengers,
		trip.PreferredVehicleType,
		trip.Status,
		trip.DecisionNote,
		trip.DecidedBy,
		trip.ScheduleEventID,
		trip.ID,
		expected,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM trip_requests WHERE id=$1)`, trip.ID).Scan(&exists); err != nil {
		return translateErr(err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleStatus
}

func (r *tripRepository) GetByID(ctx context.Context, id string) (*domain.TripRequest, error) {
	return scanTrip(r.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trip_requests WHERE id=$1`, id))
}

func (r *tripRepository) List(ctx context.Context, filter TripFilter) ([]domain.TripRequest, error) {
	var w whereBuilder
	if filter.RequesterID != nil {
		w.add("requester_id=%s", *filter.RequesterID)
	}
	if filter.Campus != nil {
		w.add("campus=%s", *filter.Campus)
	}
	addIn(&w, "status", filter.Statuses)
	if filter.DepartureFrom != nil {
		w.add("departure_at >= %s", *filter.DepartureFrom)
	}
	if filter.DepartureTo != nil {
		w.add("departure_at < %s", *filter.DepartureTo)
	}
	w.addSearch(filter.SearchTerm, "reference", "purpose", "destination")

	query := `SELECT ` + tripColumns + ` FROM trip_requests` + w.sql() + tripListOrder + pageClause(filter.Limit, filter.Offset, 20)
	rows, err := r.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TripRequest
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *trip)
	}
	return result, rows.Err()
}

func scanTrip(row pgx.Row) (*domain.TripRequest, error) {
	var trip domain.TripRequest
	if err := row.Scan(
		&trip.ID,
		&trip.Reference,
		&trip.RequesterID,
		&trip.Purpose,
		&trip.Destination,
		&trip.PickupLocation,
		&trip.Campus,
		&trip.DepartureAt,
		&trip.ReturnAt,
		&trip.Passengers,
		&trip.PreferredVehicleType,
		&trip.Status,
		&trip.DecisionNote,
		&trip.DecidedBy,
		&trip.ScheduleEventID,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &trip, nil
}
