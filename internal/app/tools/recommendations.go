package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/aggregator"
	"kculture/internal/infra/render"
	"kculture/internal/infra/telemetry"
	"kculture/internal/infra/upstream"
)

// recommendationDoc holds three independently fetched sections. A nil slice
// marks a section whose lookup failed; an empty one had no results.
type recommendationDoc struct {
	Date     string            `json:"date"`
	Region   string            `json:"region"`
	Movies   []boxOfficeMovie  `json:"movies"`
	Musicals []performanceView `json:"musicals"`
	Theaters []performanceView `json:"theaters"`
}

func (d recommendationDoc) Markdown() string {
	var md render.Markdown
	md.Heading(1, "✨ 오늘의 추천 ("+render.Date(d.Date)+")")

	md.Heading(2, fmt.Sprintf("🎬 인기 영화 TOP %d", domain.RecommendationSize))
	switch {
	case d.Movies == nil:
		md.Line("데이터를 불러올 수 없습니다.")
	case len(d.Movies) == 0:
		md.Line("조회된 영화가 없습니다.")
	default:
		for _, m := range d.Movies {
			md.Linef("%s **%s** (누적 %s명)", rankBadge(m.Rank), m.Title, m.AudienceTotal)
		}
	}
	md.Blank()

	writeSection := func(title, kind string, items []performanceView) {
		md.Heading(2, title)
		switch {
		case items == nil:
			md.Line("데이터를 불러올 수 없습니다.")
		case len(items) == 0:
			md.Linef("진행 중인 %s이 없습니다.", kind)
		default:
			for _, p := range items {
				md.Linef("- %s **%s** @ %s (%s)", stateBadge(p.Status), p.Name, p.Venue, p.Period)
			}
		}
		md.Blank()
	}
	writeSection("🎭 "+d.Region+" 뮤지컬", "뮤지컬", d.Musicals)
	writeSection("🎪 "+d.Region+" 연극", "연극", d.Theaters)

	md.Tip("각 항목의 상세정보는 `culture_get_movie_detail`, `culture_get_performance_detail` 도구로 확인할 수 있습니다.")
	return md.String()
}

func (s *Service) recommendations(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args recommendationArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	region := strings.TrimSpace(args.Region)
	if region == "" {
		region = domain.DefaultRecommendationRegion
	}
	today := s.today()
	doc := recommendationDoc{Date: yyyymmdd(today), Region: region}

	searchGenre := func(genre string, out *[]performanceView) aggregator.Task {
		return func(ctx context.Context) error {
			performances, err := s.performances.SearchPerformances(ctx, upstream.PerformanceFilter{
				GenreCode:  s.lookups.GenreCode(genre),
				RegionCode: s.lookups.RegionCode(region),
				From:       doc.Date,
				To:         s.endDate,
				Limit:      domain.RecommendationSize,
			})
			if err != nil {
				return err
			}
			*out = newPerformanceViews(firstN(performances, domain.RecommendationSize))
			return nil
		}
	}

	errs := aggregator.All(ctx,
		func(ctx context.Context) error {
			entries, err := s.movies.BoxOffice(ctx, domain.BoxOfficeDaily, yyyymmdd(today.AddDate(0, 0, -1)))
			if err != nil {
				return err
			}
			doc.Movies = newBoxOfficeMovies(entries, domain.RecommendationSize)
			return nil
		},
		searchGenre("뮤지컬", &doc.Musicals),
		searchGenre("연극", &doc.Theaters),
	)

	sections := []string{"movies", "musicals", "theaters"}
	logger := telemetry.LoggerWithRequest(ctx, s.logger)
	for i, err := range errs {
		if err == nil {
			continue
		}
		logger.Warn("recommendation section unavailable",
			telemetry.EventField(telemetry.EventToolFailure),
			zap.String("section", sections[i]),
			zap.Error(err),
		)
	}
	return doc, nil
}
