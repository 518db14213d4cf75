// Package tools implements the culture tool catalog: argument handling,
// upstream orchestration and the documents each tool renders.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/render"
	"kculture/internal/infra/telemetry"
	"kculture/internal/infra/upstream"
)

// MovieSource is the film data provider.
type MovieSource interface {
	BoxOffice(ctx context.Context, kind domain.BoxOfficeKind, date string) ([]domain.BoxOfficeEntry, error)
	SearchMovies(ctx context.Context, title string) ([]domain.MovieSummary, error)
	MovieInfo(ctx context.Context, code string) (domain.MovieDetail, bool, error)
}

// PerformanceSource is the performing arts provider.
type PerformanceSource interface {
	SearchPerformances(ctx context.Context, filter upstream.PerformanceFilter) ([]domain.Performance, error)
	Performance(ctx context.Context, id string) (domain.PerformanceDetail, bool, error)
	SearchFacilities(ctx context.Context, filter upstream.FacilityFilter) ([]domain.Facility, error)
	Facility(ctx context.Context, id string) (domain.FacilityDetail, bool, error)
}

// TourSource is the tourism provider.
type TourSource interface {
	Festivals(ctx context.Context, start, end, areaCode string, limit int) ([]domain.TourItem, error)
	Search(ctx context.Context, filter upstream.TourFilter) ([]domain.TourItem, error)
}

type Options struct {
	Movies       MovieSource
	Performances PerformanceSource
	Tour         TourSource
	Lookups      domain.Lookups
	Tools        domain.ToolsConfig
	Now          func() time.Time
	Logger       *zap.Logger
	Metrics      domain.Metrics
}

type runFunc func(ctx context.Context, raw json.RawMessage) (render.Document, error)

type toolSpec struct {
	name        string
	title       string
	description string
	// failure prefixes upstream and internal errors, e.g. "공연 검색" -> "공연 검색 실패: ...".
	failure string
	args    any
	run     runFunc
}

// Service dispatches tool calls. It is safe for concurrent use.
type Service struct {
	movies       MovieSource
	performances PerformanceSource
	tour         TourSource
	lookups      domain.Lookups
	now          func() time.Time
	location     *time.Location
	limit        int
	endDate      string
	logger       *zap.Logger
	metrics      domain.Metrics

	specs   map[string]toolSpec
	catalog []*mcp.Tool
}

func NewService(opts Options) (*Service, error) {
	if opts.Movies == nil || opts.Performances == nil || opts.Tour == nil {
		return nil, fmt.Errorf("tools: every upstream source is required")
	}
	timezone := opts.Tools.Timezone
	if timezone == "" {
		timezone = domain.DefaultTimezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("tools: load timezone %q: %w", timezone, err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	limit := opts.Tools.CharacterLimit
	if limit <= 0 {
		limit = domain.DefaultCharacterLimit
	}
	endDate := opts.Tools.PerformanceEndDate
	if endDate == "" {
		endDate = domain.DefaultPerformanceEndDate
	}
	lookups := opts.Lookups
	if lookups.PerformanceGenres == nil {
		lookups = domain.DefaultLookups()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}

	s := &Service{
		movies:       opts.Movies,
		performances: opts.Performances,
		tour:         opts.Tour,
		lookups:      lookups,
		now:          now,
		location:     location,
		limit:        limit,
		endDate:      endDate,
		logger:       logger.Named("tools").With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceCore)),
		metrics:      metrics,
	}
	specs := s.toolSpecs()
	s.specs = make(map[string]toolSpec, len(specs))
	for _, spec := range specs {
		s.specs[spec.name] = spec
	}
	catalog, err := buildCatalog(specs)
	if err != nil {
		return nil, err
	}
	s.catalog = catalog
	return s, nil
}

// Tools returns the catalog in a stable order. Callers must not mutate it.
func (s *Service) Tools() []*mcp.Tool {
	return s.catalog
}

// Has reports whether name is a known tool.
func (s *Service) Has(name string) bool {
	_, ok := s.specs[name]
	return ok
}

// Call runs one tool. Unknown tools fail with domain.ErrUnknownTool before any
// upstream request; every other failure is rendered into the output.
func (s *Service) Call(ctx context.Context, name string, raw json.RawMessage) (domain.ToolOutput, error) {
	spec, ok := s.specs[name]
	if !ok {
		return domain.ToolOutput{}, domain.E(domain.CodeInvalidRequest, "tools.call",
			"Unknown tool: "+name, domain.ErrUnknownTool)
	}

	format := formatOf(raw)
	logger := telemetry.LoggerWithRequest(ctx, s.logger).With(telemetry.ToolField(name))
	start := time.Now()
	doc, err := s.invoke(ctx, spec, raw)
	duration := time.Since(start)

	out := domain.ToolOutput{Tool: name, Format: format}
	if err == nil {
		text, truncated, renderErr := render.Render(format, doc, s.limit)
		if renderErr == nil {
			out.Text, out.Truncated = text, truncated
			s.metrics.ObserveToolCall(name, domain.ToolOutcomeSuccess, duration)
			logger.Info("tool call",
				telemetry.EventField(telemetry.EventToolCall),
				telemetry.DurationField(duration),
				zap.Bool("truncated", truncated),
			)
			return out, nil
		}
		err = domain.Wrap(domain.CodeInternal, "tools.render", renderErr)
	}

	failure := failureFor(spec, err)
	out.Failure = &failure
	out.Text, out.Truncated = render.Truncate(render.Failure(format, failure), s.limit)
	s.metrics.ObserveToolCall(name, domain.ToolOutcomeFailure, duration)
	logger.Warn("tool call failed",
		telemetry.EventField(telemetry.EventToolFailure),
		telemetry.DurationField(duration),
		zap.String("code", string(failure.Code)),
		zap.Error(err),
	)
	return out, nil
}

func (s *Service) invoke(ctx context.Context, spec toolSpec, raw json.RawMessage) (doc render.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = domain.E(domain.CodeInternal, "tools."+spec.name, fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	return spec.run(ctx, raw)
}

// failureFor keeps user-facing messages of not-found and invalid-argument
// errors as they are and prefixes everything else with the tool's label.
func failureFor(spec toolSpec, err error) domain.Failure {
	code, ok := domain.CodeFrom(err)
	if !ok {
		code = domain.CodeInternal
	}
	msg := domain.MessageFrom(err)
	switch code {
	case domain.CodeNotFound, domain.CodeInvalidRequest:
		return domain.Failure{Code: code, Message: msg}
	default:
		return domain.Failure{Code: code, Message: spec.failure + " 실패: " + msg}
	}
}

func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

func yyyymmdd(t time.Time) string {
	return t.Format("20060102")
}

func (s *Service) toolSpecs() []toolSpec {
	return []toolSpec{
		{
			name:        domain.ToolBoxOffice,
			title:       "박스오피스 조회",
			description: "영화 박스오피스 순위를 조회합니다. 일별 또는 주간 박스오피스를 확인할 수 있으며, 관객수와 누적 매출 정보를 제공합니다.",
			failure:     "박스오피스 조회",
			args:        &boxOfficeArgs{},
			run:         s.boxOffice,
		},
		{
			name:        domain.ToolMovieDetail,
			title:       "영화 상세정보 조회",
			description: "영화의 상세 정보를 조회합니다. 영화 제목 또는 영화 코드로 검색할 수 있으며, 감독, 배우, 장르, 관람등급 등의 정보를 제공합니다.",
			failure:     "영화 상세정보 조회",
			args:        &movieDetailArgs{},
			run:         s.movieDetail,
		},
		{
			name:        domain.ToolSearchPerformance,
			title:       "공연 검색",
			description: "공연 정보를 검색합니다. 연극, 뮤지컬, 클래식, 국악 등 다양한 장르의 공연을 지역별로 검색할 수 있습니다.",
			failure:     "공연 검색",
			args:        &performanceSearchArgs{},
			run:         s.searchPerformance,
		},
		{
			name:        domain.ToolPerformanceDetail,
			title:       "공연 상세정보 조회",
			description: "공연의 상세 정보를 조회합니다. 출연진, 제작진, 관람료, 공연 시간 등의 정보를 제공합니다.",
			failure:     "공연 상세정보 조회",
			args:        &performanceDetailArgs{},
			run:         s.performanceDetail,
		},
		{
			name:        domain.ToolFacilityInfo,
			title:       "공연장 정보 조회",
			description: "공연장(공연시설) 정보를 검색합니다. 공연장 이름이나 지역으로 검색할 수 있으며, 좌석 수, 편의시설, 공연장 내 홀 정보 등을 제공합니다.",
			failure:     "공연장 검색",
			args:        &facilityArgs{},
			run:         s.facilityInfo,
		},
		{
			name:        domain.ToolRecommendations,
			title:       "오늘의 문화 추천",
			description: "오늘의 문화생활 추천 정보를 제공합니다. 인기 영화 박스오피스와 진행 중인 뮤지컬, 연극을 한 번에 확인할 수 있습니다.",
			failure:     "추천 정보 조회",
			args:        &recommendationArgs{},
			run:         s.recommendations,
		},
		{
			name:        domain.ToolSearchFestival,
			title:       "축제 검색",
			description: "전국의 축제 및 행사 정보를 검색합니다. 지역과 월별로 축제를 찾을 수 있으며, 축제 기간과 장소 정보를 제공합니다.",
			failure:     "축제 검색",
			args:        &festivalArgs{},
			run:         s.searchFestival,
		},
		{
			name:        domain.ToolSearchTouristSpot,
			title:       "관광지 검색",
			description: "전국의 관광지, 문화시설, 레포츠, 쇼핑 장소를 검색합니다. 지역과 키워드로 검색할 수 있으며, 주소와 지도 정보를 제공합니다.",
			failure:     "관광지 검색",
			args:        &touristSpotArgs{},
			run:         s.searchTouristSpot,
		},
		{
			name:        domain.ToolSearchRestaurant,
			title:       "음식점 검색",
			description: "전국의 맛집과 음식점 정보를 검색합니다. 지역과 키워드로 검색할 수 있으며, 주소와 연락처 정보를 제공합니다.",
			failure:     "음식점 검색",
			args:        &restaurantArgs{},
			run:         s.searchRestaurant,
		},
	}
}
