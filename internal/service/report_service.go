package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/campus-transport/internal/config"
	"github.com/spec-kit/campus-transport/internal/domain"
	"github.com/spec-kit/campus-transport/internal/export"
	"github.com/spec-kit/campus-transport/internal/repository"
	"github.com/spec-kit/campus-transport/internal/scheduling"
	apperrors "github.com/spec-kit/campus-transport/pkg/util/errorutil"
)

const maxReportRange = 366 * 24 * time.Hour

// ReportCache stores rendered summaries. A miss is reported with ok=false.
type ReportCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// VehicleUtilization is the booked time of one vehicle within a range.
type VehicleUtilization struct {
	VehicleID   string  `json:"vehicle_id"`
	Code        string  `json:"code"`
	Events      int     `json:"events"`
	BookedHours float64 `json:"booked_hours"`
}

// Summary aggregates fleet activity over a date range.
type Summary struct {
	From                time.Time                        `json:"from"`
	To                  time.Time                        `json:"to"`
	TripsByStatus       map[domain.TripStatus]int        `json:"trips_by_status"`
	MaintenanceByStatus map[domain.MaintenanceStatus]int `json:"maintenance_by_status"`
	VehicleStatus       map[domain.VehicleStatus]int     `json:"vehicle_status"`
	DriverStatus        map[domain.DriverStatus]int      `json:"driver_status"`
	Utilization         []VehicleUtilization             `json:"utilization"`
	GeneratedAt         time.Time                        `json:"generated_at"`
}

// ExportFilter narrows an export to a date range. Trips use the departure
// time; maintenance and audit use the creation time.
type ExportFilter struct {
	From *time.Time
	To   *time.Time
}

// ReportService builds summaries, CSV exports and trip sheets.
type ReportService struct {
	trips       repository.TripRepository
	vehicles    repository.VehicleRepository
	drivers     repository.DriverRepository
	schedule    repository.ScheduleRepository
	maintenance repository.MaintenanceRepository
	audit       repository.AuditRepository
	users       repository.UserRepository
	cache       ReportCache
	cacheTTL    time.Duration
	batchSize   int
	maxRange    time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// ReportDependencies bundles collaborators for the report service. Cache
// may be nil.
type ReportDependencies struct {
	Repos  repository.Repositories
	Cache  ReportCache
	Logger *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(cfg config.Config, deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	batch := cfg.Reports.ExportBatchSize
	if batch <= 0 {
		batch = 500
	}
	return &ReportService{
		trips:       deps.Repos.Trips,
		vehicles:    deps.Repos.Vehicles,
		drivers:     deps.Repos.Drivers,
		schedule:    deps.Repos.Schedule,
		maintenance: deps.Repos.Maintenance,
		audit:       deps.Repos.Audit,
		users:       deps.Repos.Users,
		cache:       deps.Cache,
		cacheTTL:    cfg.Reports.CacheTTL(),
		batchSize:   batch,
		maxRange:    maxReportRange,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns aggregates for [from, to). Results are cached by range.
func (s *ReportService) Summary(ctx context.Context, actor *domain.User, from, to time.Time) (*Summary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	from, to = from.UTC(), to.UTC()
	if !to.After(from) {
		return nil, apperrors.NewValidationError("to must be after from", map[string]any{"from": from, "to": to})
	}
	if to.Sub(from) > s.maxRange {
		return nil, apperrors.NewValidationError("range too large", map[string]any{"max_days": int(s.maxRange.Hours() / 24)})
	}

	key := fmt.Sprintf("reports:summary:%d:%d", from.Unix(), to.Unix())
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	summary := &Summary{
		From:                from,
		To:                  to,
		TripsByStatus:       map[domain.TripStatus]int{},
		MaintenanceByStatus: map[domain.MaintenanceStatus]int{},
		VehicleStatus:       map[domain.VehicleStatus]int{},
		DriverStatus:        map[domain.DriverStatus]int{},
	}
	var (
		mu       sync.Mutex
		vehicles []domain.Vehicle
		booked   []domain.ScheduleEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		trips, err := collect(gctx, s.batchSize, func(limit, offset int) ([]domain.TripRequest, error) {
			return s.trips.List(gctx, repository.TripFilter{DepartureFrom: &from, DepartureTo: &to, Limit: limit, Offset: offset})
		})
		if err != nil {
			return fmt.Errorf("trips: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		for _, t := range trips {
			summary.TripsByStatus[t.Status]++
		}
		return nil
	})
	g.Go(func() error {
		tickets, err := collect(gctx, s.batchSize, func(limit, offset int) ([]domain.MaintenanceTicket, error) {
			return s.maintenance.List(gctx, repository.MaintenanceFilter{CreatedFrom: &from, CreatedTo: &to, Limit: limit, Offset: offset})
		})
		if err != nil {
			return fmt.Errorf("maintenance: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		for _, t := range tickets {
			summary.MaintenanceByStatus[t.Status]++
		}
		return nil
	})
	g.Go(func() error {
		all, err := collect(gctx, s.batchSize, func(limit, offset int) ([]domain.Vehicle, error) {
			return s.vehicles.List(gctx, repository.VehicleFilter{Limit: limit, Offset: offset})
		})
		if err != nil {
			return fmt.Errorf("vehicles: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		vehicles = all
		for _, v := range all {
			summary.VehicleStatus[v.Status]++
		}
		return nil
	})
	g.Go(func() error {
		all, err := collect(gctx, s.batchSize, func(limit, offset int) ([]domain.Driver, error) {
			return s.drivers.List(gctx, repository.DriverFilter{Limit: limit, Offset: offset})
		})
		if err != nil {
			return fmt.Errorf("drivers: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		for _, d := range all {
			summary.DriverStatus[d.Status]++
		}
		return nil
	})
	g.Go(func() error {
		events, err := collect(gctx, s.batchSize, func(limit, offset int) ([]domain.ScheduleEvent, error) {
			return s.schedule.List(gctx, repository.ScheduleFilter{
				From: &from,
				To:   &to,
				Statuses: []domain.EventStatus{
					domain.EventStatusPlanned,
					domain.EventStatusApproved,
					domain.EventStatusEnRoute,
					domain.EventStatusCompleted,
				},
				Limit:  limit,
				Offset: offset,
			})
		})
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		mu.Lock()
		defer mu.Unlock()
		booked = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	summary.Utilization = utilization(scheduling.Window{Start: from, End: to}, vehicles, booked)
	summary.GeneratedAt = s.now()
	s.store(ctx, key, summary)
	return summary, nil
}

// Export streams every record of kind matching filter to w as CSV and
// returns the number of data rows written.
func (s *ReportService) Export(ctx context.Context, actor *domain.User, kind export.Kind, filter ExportFilter, w io.Writer) (int, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if filter.From != nil && filter.To != nil && !filter.To.After(*filter.From) {
		return 0, apperrors.NewValidationError("to must be after from", nil)
	}
	out := export.NewWriter(w, kind)
	var err error
	switch kind {
	case export.KindTrips:
		err = eachBatch(ctx, s.batchSize, func(limit, offset int) ([]domain.TripRequest, error) {
			return s.trips.List(ctx, repository.TripFilter{DepartureFrom: filter.From, DepartureTo: filter.To, Limit: limit, Offset: offset})
		}, out.WriteTrips)
	case export.KindVehicles:
		err = eachBatch(ctx, s.batchSize, func(limit, offset int) ([]domain.Vehicle, error) {
			return s.vehicles.List(ctx, repository.VehicleFilter{Limit: limit, Offset: offset})
		}, out.WriteVehicles)
	case export.KindDrivers:
		err = eachBatch(ctx, s.batchSize, func(limit, offset int) ([]domain.Driver, error) {
			return s.drivers.List(ctx, repository.DriverFilter{Limit: limit, Offset: offset})
		}, out.WriteDrivers)
	case export.KindMaintenance:
		err = eachBatch(ctx, s.batchSize, func(limit, offset int) ([]domain.MaintenanceTicket, error) {
			return s.maintenance.List(ctx, repository.MaintenanceFilter{CreatedFrom: filter.From, CreatedTo: filter.To, Limit: limit, Offset: offset})
		}, out.WriteMaintenance)
	case export.KindAudit:
		err = eachBatch(ctx, s.batchSize, func(limit, offset int) ([]domain.AuditEntry, error) {
			return s.audit.List(ctx, repository.AuditFilter{CreatedFrom: filter.From, CreatedTo: filter.To, Limit: limit, Offset: offset})
		}, out.WriteAudit)
	default:
		return 0, apperrors.NewValidationError("unknown export kind", map[string]any{"kind": kind})
	}
	if err != nil {
		return out.Rows(), apperrors.MapError(err)
	}
	if err := out.Close(); err != nil {
		return out.Rows(), apperrors.NewInternalError(err)
	}
	s.logger.Info("export written", zap.String("kind", string(kind)), zap.Int("rows", out.Rows()))
	return out.Rows(), nil
}

// TripSheet renders the PDF sheet for an approved or completed trip.
func (s *ReportService) TripSheet(ctx context.Context, actor *domain.User, tripID string) ([]byte, *domain.TripRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, nil, mapRepoErr(err, "trip request", map[string]any{"trip_id": tripID})
	}
	if trip.Status != domain.TripStatusApproved && trip.Status != domain.TripStatusCompleted {
		return nil, nil, apperrors.NewConflict("trip sheet requires an approved trip", map[string]any{"status": trip.Status})
	}

	sheet := export.TripSheet{Trip: *trip, GeneratedAt: s.now()}
	if requester, err := s.users.GetByID(ctx, trip.RequesterID); err == nil {
		sheet.Requester = requester
	} else if !isNotFound(err) {
		return nil, nil, apperrors.MapError(err)
	}
	if trip.ScheduleEventID != nil {
		event, err := s.schedule.GetByID(ctx, *trip.ScheduleEventID)
		if err != nil && !isNotFound(err) {
			return nil, nil, apperrors.MapError(err)
		}
		if event != nil {
			sheet.Event = event
			if event.VehicleID != nil {
				if sheet.Vehicle, err = s.vehicles.GetByID(ctx, *event.VehicleID); err != nil && !isNotFound(err) {
					return nil, nil, apperrors.MapError(err)
				}
			}
			if event.DriverID != nil {
				if sheet.Driver, err = s.drivers.GetByID(ctx, *event.DriverID); err != nil && !isNotFound(err) {
					return nil, nil, apperrors.MapError(err)
				}
			}
		}
	}

	data, err := export.RenderTripSheet(sheet)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return data, trip, nil
}

func (s *ReportService) cached(ctx context.Context, key string) *Summary {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		s.logger.Warn("report cache entry invalid", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &summary
}

func (s *ReportService) store(ctx context.Context, key string, summary *Summary) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		s.logger.Warn("report cache encode failed", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// utilization sums the booked hours of each vehicle inside bounds. Vehicles
// without bookings are listed with zero hours.
func utilization(bounds scheduling.Window, vehicles []domain.Vehicle, events []domain.ScheduleEvent) []VehicleUtilization {
	byID := make(map[string]*VehicleUtilization, len(vehicles))
	result := make([]VehicleUtilization, 0, len(vehicles))
	for _, v := range vehicles {
		result = append(result, VehicleUtilization{VehicleID: v.ID, Code: v.Code})
	}
	for i := range result {
		byID[result[i].VehicleID] = &result[i]
	}
	for _, e := range events {
		if e.VehicleID == nil || e.Status == domain.EventStatusCancelled {
			continue
		}
		u, ok := byID[*e.VehicleID]
		if !ok {
			continue
		}
		_, d := scheduling.EventWindow(e).Clip(bounds)
		if d <= 0 {
			continue
		}
		u.Events++
		u.BookedHours += d.Hours()
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BookedHours != result[j].BookedHours {
			return result[i].BookedHours > result[j].BookedHours
		}
		return result[i].Code < result[j].Code
	})
	return result
}

// eachBatch pages through fetch and hands every non-empty batch to sink.
func eachBatch[T any](ctx context.Context, size int, fetch func(limit, offset int) ([]T, error), sink func([]T) error) error {
	for offset := 0; ; offset += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := fetch(size, offset)
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := sink(batch); err != nil {
				return err
			}
		}
		if len(batch) < size {
			return nil
		}
	}
}

func collect[T any](ctx context.Context, size int, fetch func(limit, offset int) ([]T, error)) ([]T, error) {
	var all []T
	err := eachBatch(ctx, size, fetch, func(batch []T) error {
		all = append(all, batch...)
		return nil
	})
	return all, err
}
