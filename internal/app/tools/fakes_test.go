package tools

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kculture/internal/domain"
	"kculture/internal/infra/upstream"
)

var seoul = func() *time.Location {
	loc, err := time.LoadLocation(domain.DefaultTimezone)
	if err != nil {
		panic(err)
	}
	return loc
}()

// fixedNow is 2024-03-15 10:00 KST.
func fixedNow() time.Time {
	return time.Date(2024, time.March, 15, 10, 0, 0, 0, seoul)
}

type fakeMovies struct {
	mu        sync.Mutex
	calls     int
	lastKind  domain.BoxOfficeKind
	lastDate  string
	boxOffice []domain.BoxOfficeEntry
	boxErr    error
	search    []domain.MovieSummary
	detail    map[string]domain.MovieDetail
	detailErr error
}

func (f *fakeMovies) BoxOffice(_ context.Context, kind domain.BoxOfficeKind, date string) ([]domain.BoxOfficeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKind, f.lastDate = kind, date
	return f.boxOffice, f.boxErr
}

func (f *fakeMovies) SearchMovies(context.Context, string) ([]domain.MovieSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.search, nil
}

func (f *fakeMovies) MovieInfo(_ context.Context, code string) (domain.MovieDetail, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.detailErr != nil {
		return domain.MovieDetail{}, false, f.detailErr
	}
	detail, ok := f.detail[code]
	return detail, ok, nil
}

type fakePerformances struct {
	mu            sync.Mutex
	calls         int
	filters       []upstream.PerformanceFilter
	byGenre       map[string][]domain.Performance
	genreErr      map[string]error
	detail        map[string]domain.PerformanceDetail
	facilities    []domain.Facility
	facilityErr   error
	facilityByID  map[string]domain.FacilityDetail
	facilityFails map[string]error
	detailCalls   []string
}

func (f *fakePerformances) SearchPerformances(_ context.Context, filter upstream.PerformanceFilter) ([]domain.Performance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filters = append(f.filters, filter)
	if err := f.genreErr[filter.GenreCode]; err != nil {
		return nil, err
	}
	return f.byGenre[filter.GenreCode], nil
}

func (f *fakePerformances) Performance(_ context.Context, id string) (domain.PerformanceDetail, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	detail, ok := f.detail[id]
	return detail, ok, nil
}

func (f *fakePerformances) SearchFacilities(context.Context, upstream.FacilityFilter) ([]domain.Facility, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.facilities, f.facilityErr
}

func (f *fakePerformances) Facility(_ context.Context, id string) (domain.FacilityDetail, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.detailCalls = append(f.detailCalls, id)
	if err := f.facilityFails[id]; err != nil {
		return domain.FacilityDetail{}, false, err
	}
	detail, ok := f.facilityByID[id]
	return detail, ok, nil
}

type festivalQuery struct {
	start, end, area string
	limit            int
}

type fakeTour struct {
	mu        sync.Mutex
	calls     int
	festivals []domain.TourItem
	lastFest  festivalQuery
	places    []domain.TourItem
	lastPlace upstream.TourFilter
	err       error
}

func (f *fakeTour) Festivals(_ context.Context, start, end, areaCode string, limit int) ([]domain.TourItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastFest = festivalQuery{start: start, end: end, area: areaCode, limit: limit}
	return f.festivals, f.err
}

func (f *fakeTour) Search(_ context.Context, filter upstream.TourFilter) ([]domain.TourItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPlace = filter
	return f.places, f.err
}

type fixture struct {
	movies       *fakeMovies
	performances *fakePerformances
	tour         *fakeTour
	service      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		movies:       &fakeMovies{},
		performances: &fakePerformances{},
		tour:         &fakeTour{},
	}
	service, err := NewService(Options{
		Movies:       f.movies,
		Performances: f.performances,
		Tour:         f.tour,
		Now:          fixedNow,
	})
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *fixture) upstreamCalls() int {
	f.movies.mu.Lock()
	defer f.movies.mu.Unlock()
	f.performances.mu.Lock()
	defer f.performances.mu.Unlock()
	f.tour.mu.Lock()
	defer f.tour.mu.Unlock()
	return f.movies.calls + f.performances.calls + f.tour.calls
}
