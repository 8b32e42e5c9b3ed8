package reporting

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/isolation"
	"github.com/eas-platform/eas/internal/scope"
)

// DataSource is the external data-access collaborator. Collections arrive
// already deserialized; the service never writes.
type DataSource interface {
	Campuses(ctx context.Context) ([]campus.Campus, error)
	Events(ctx context.Context, from, to time.Time) ([]Event, error)
	Attendance(ctx context.Context, from, to time.Time) ([]AttendanceRecord, error)
	Users(ctx context.Context) ([]User, error)
}

// ServiceConfig carries the ambient values the aggregator must not read
// implicitly.
type ServiceConfig struct {
	DefaultCapacity int
	TopN            int
	RecentN         int
}

// Service coordinates loading, scope resolution, report building and the
// cache layer. It holds no mutable state; concurrent requests are independent.
type Service struct {
	source DataSource
	cache  *Cache
	cfg    ServiceConfig
	now    func() time.Time
}

// NewService wires a DataSource with a Cache helper.
func NewService(source DataSource, cache *Cache, cfg ServiceConfig) *Service {
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = 100
	}
	return &Service{source: source, cache: cache, cfg: cfg, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Generate resolves the caller's scope, loads the record collections and
// builds the requested report, consulting the cache first. Access-control and
// range validation failures surface before any loading happens.
func (s *Service) Generate(ctx context.Context, p scope.Principal, req Request) (*Report, error) {
	if err := ValidateRange(req.From, req.To); err != nil {
		return nil, err
	}

	campuses, err := s.source.Campuses(ctx)
	if err != nil {
		return nil, err
	}
	known := campus.NewDirectory(campuses).ActiveIDs()
	sc, err := scope.Resolve(p, known)
	if err != nil {
		return nil, err
	}
	if req.CampusID != nil {
		if err := isolation.RequireCampus(sc, *req.CampusID); err != nil {
			return nil, err
		}
	}

	if req.TopN <= 0 {
		req.TopN = s.cfg.TopN
	}
	if req.RecentN <= 0 {
		req.RecentN = s.cfg.RecentN
	}

	loader := func(ctx context.Context) (interface{}, error) {
		data, err := s.load(ctx, campuses, req)
		if err != nil {
			return nil, err
		}
		return Build(p, sc, req, data, BuildParams{Now: s.now(), DefaultCapacity: s.cfg.DefaultCapacity})
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		return value.(*Report), nil
	}

	keyBase := keyReport(sc.Key(), req.CampusID, req.From, req.To, req.Type)
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return nil, err
	}
	var rep Report
	if err := s.cache.FetchJSON(ctx, key, &rep, loader); err != nil {
		return nil, err
	}
	// Entries are shared by every principal resolving to the same scope; the
	// requester stamp always names the current caller.
	rep.Meta.RequestedBy = p.UserID
	rep.Meta.Role = p.Role
	return &rep, nil
}

// AccessibleCampuses returns the campuses the principal may read, in
// directory order.
func (s *Service) AccessibleCampuses(ctx context.Context, p scope.Principal) ([]campus.Campus, error) {
	campuses, err := s.source.Campuses(ctx)
	if err != nil {
		return nil, err
	}
	dir := campus.NewDirectory(campuses)
	sc, err := scope.Resolve(p, dir.ActiveIDs())
	if err != nil {
		return nil, err
	}
	return isolation.ByCampus(dir.Active(), func(c campus.Campus) int64 { return c.ID }, sc), nil
}

// CampusStatistics builds the single-campus statistics block: summary plus
// categorical breakdowns, the shape the dashboard's campus page consumes.
func (s *Service) CampusStatistics(ctx context.Context, p scope.Principal, campusID int64) (*Report, error) {
	req := Request{Type: ReportComprehensive, CampusID: &campusID}
	return s.Generate(ctx, p, req)
}

func (s *Service) load(ctx context.Context, campuses []campus.Campus, req Request) (Dataset, error) {
	data := Dataset{Campuses: campuses}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := s.source.Events(ctx, req.From, req.To)
		data.Events = events
		return err
	})
	g.Go(func() error {
		attendance, err := s.source.Attendance(ctx, req.From, req.To)
		data.Attendance = attendance
		return err
	})
	g.Go(func() error {
		users, err := s.source.Users(ctx)
		data.Users = users
		return err
	})
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	return data, nil
}
