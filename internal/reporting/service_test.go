package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/eas-platform/eas/internal/campus"
	"github.com/eas-platform/eas/internal/scope"
	"github.com/eas-platform/eas/internal/shared"
)

type mockSource struct {
	campuses   []campus.Campus
	events     []Event
	attendance []AttendanceRecord
	users      []User

	campusCalls int
	eventCalls  int
	attnCalls   int
	userCalls   int
}

func (m *mockSource) Campuses(ctx context.Context) ([]campus.Campus, error) {
	m.campusCalls++
	return m.campuses, nil
}

func (m *mockSource) Events(ctx context.Context, from, to time.Time) ([]Event, error) {
	m.eventCalls++
	return m.events, nil
}

func (m *mockSource) Attendance(ctx context.Context, from, to time.Time) ([]AttendanceRecord, error) {
	m.attnCalls++
	return m.attendance, nil
}

func (m *mockSource) Users(ctx context.Context) ([]User, error) {
	m.userCalls++
	return m.users, nil
}

func newTestService(t *testing.T, source *mockSource) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	svc := NewService(source, cache, ServiceConfig{DefaultCapacity: 100})
	svc.WithNow(func() time.Time { return aggNow })
	return svc, cache
}

func serviceSource() *mockSource {
	data := builderDataset()
	return &mockSource{
		campuses:   data.Campuses,
		events:     data.Events,
		attendance: data.Attendance,
		users:      data.Users,
	}
}

func TestServiceGenerateCachesByScope(t *testing.T) {
	source := serviceSource()
	svc, _ := newTestService(t, source)
	ctx := context.Background()
	p := scope.Principal{UserID: 1, Role: scope.RoleSuperAdmin}
	req := Request{Type: ReportComprehensive}

	first, err := svc.Generate(ctx, p, req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := svc.Generate(ctx, p, req)
	if err != nil {
		t.Fatalf("generate cached: %v", err)
	}
	if source.eventCalls != 1 || source.attnCalls != 1 || source.userCalls != 1 {
		t.Fatalf("collections loaded more than once: events=%d attendance=%d users=%d",
			source.eventCalls, source.attnCalls, source.userCalls)
	}
	if first.Meta.AttendanceCount != second.Meta.AttendanceCount {
		t.Fatalf("cached report differs: %+v vs %+v", first.Meta, second.Meta)
	}
}

func TestServiceCacheHitStampsCurrentRequester(t *testing.T) {
	source := serviceSource()
	svc, _ := newTestService(t, source)
	ctx := context.Background()
	req := Request{Type: ReportComprehensive}

	if _, err := svc.Generate(ctx, scope.Principal{UserID: 1, Role: scope.RoleSuperAdmin}, req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	rep, err := svc.Generate(ctx, scope.Principal{UserID: 2, Role: scope.RoleSuperAdmin}, req)
	if err != nil {
		t.Fatalf("generate cached: %v", err)
	}
	if source.eventCalls != 1 {
		t.Fatalf("same scope must share the cache entry, got %d loads", source.eventCalls)
	}
	if rep.Meta.RequestedBy != 2 {
		t.Fatalf("cached report kept the populating requester: %+v", rep.Meta)
	}
}

func TestServiceScopeSeparatesCacheEntries(t *testing.T) {
	source := serviceSource()
	svc, _ := newTestService(t, source)
	ctx := context.Background()
	req := Request{Type: ReportComprehensive}

	admin, err := svc.Generate(ctx, scope.Principal{UserID: 1, Role: scope.RoleSuperAdmin}, req)
	if err != nil {
		t.Fatalf("generate admin: %v", err)
	}
	student, err := svc.Generate(ctx, scope.Principal{UserID: 10, Role: scope.RoleStudent, HomeCampusID: 1}, req)
	if err != nil {
		t.Fatalf("generate student: %v", err)
	}
	// Two scopes, two cache entries, two loads.
	if source.eventCalls != 2 {
		t.Fatalf("expected a separate load per scope, got %d", source.eventCalls)
	}
	if student.Meta.AttendanceCount >= admin.Meta.AttendanceCount {
		t.Fatalf("student view must be narrower: %d vs %d",
			student.Meta.AttendanceCount, admin.Meta.AttendanceCount)
	}
}

func TestServiceBumpInvalidatesCache(t *testing.T) {
	source := serviceSource()
	svc, cache := newTestService(t, source)
	ctx := context.Background()
	p := scope.Principal{UserID: 1, Role: scope.RoleSuperAdmin}
	req := Request{Type: ReportComprehensive}

	if _, err := svc.Generate(ctx, p, req); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := cache.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if _, err := svc.Generate(ctx, p, req); err != nil {
		t.Fatalf("generate after bump: %v", err)
	}
	if source.eventCalls != 2 {
		t.Fatalf("bump did not invalidate: %d loads", source.eventCalls)
	}
}

func TestServiceRejectsExplicitOutOfScopeCampus(t *testing.T) {
	svc, _ := newTestService(t, serviceSource())
	other := int64(2)
	_, err := svc.Generate(context.Background(),
		scope.Principal{UserID: 10, Role: scope.RoleStudent, HomeCampusID: 1},
		Request{Type: ReportComprehensive, CampusID: &other})
	if !errors.Is(err, shared.ErrScopeViolation) {
		t.Fatalf("expected ErrScopeViolation, got %v", err)
	}
}

func TestServiceInvalidRangeSkipsLoading(t *testing.T) {
	source := serviceSource()
	svc, _ := newTestService(t, source)
	_, err := svc.Generate(context.Background(),
		scope.Principal{UserID: 1, Role: scope.RoleSuperAdmin},
		Request{Type: ReportComprehensive, From: aggNow, To: aggNow.AddDate(0, 0, -1)})
	if !errors.Is(err, shared.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if source.eventCalls != 0 {
		t.Fatal("invalid range must fail before loading collections")
	}
}

func TestAccessibleCampuses(t *testing.T) {
	svc, _ := newTestService(t, serviceSource())
	ctx := context.Background()

	all, err := svc.AccessibleCampuses(ctx, scope.Principal{UserID: 1, Role: scope.RoleSuperAdmin})
	if err != nil {
		t.Fatalf("accessible: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("super_admin must see every campus, got %d", len(all))
	}

	own, err := svc.AccessibleCampuses(ctx, scope.Principal{UserID: 10, Role: scope.RoleStudent, HomeCampusID: 2})
	if err != nil {
		t.Fatalf("accessible: %v", err)
	}
	if len(own) != 1 || own[0].ID != 2 {
		t.Fatalf("student must see only the home campus, got %v", own)
	}
}

func TestCampusStatistics(t *testing.T) {
	svc, _ := newTestService(t, serviceSource())
	rep, err := svc.CampusStatistics(context.Background(),
		scope.Principal{UserID: 1, Role: scope.RoleSuperAdmin}, 1)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if len(rep.Meta.CampusIDs) != 1 || rep.Meta.CampusIDs[0] != 1 {
		t.Fatalf("statistics not narrowed to campus 1: %+v", rep.Meta)
	}
}
