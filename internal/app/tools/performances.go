package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kculture/internal/domain"
	"kculture/internal/infra/render"
	"kculture/internal/infra/upstream"
)

func stateBadge(state string) string {
	switch state {
	case "공연중":
		return "🟢"
	case "공연예정":
		return "🟡"
	default:
		return "⚫"
	}
}

func period(from, to string) string {
	return from + " ~ " + to
}

type performanceView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Period string `json:"period"`
	Venue  string `json:"venue"`
	Genre  string `json:"genre"`
	Status string `json:"status"`
	Area   string `json:"area"`
	Poster string `json:"poster"`
}

func newPerformanceViews(performances []domain.Performance) []performanceView {
	views := make([]performanceView, 0, len(performances))
	for _, p := range performances {
		views = append(views, performanceView{
			ID:     p.ID,
			Name:   p.Name,
			Period: period(p.From, p.To),
			Venue:  p.Venue,
			Genre:  p.Genre,
			Status: p.State,
			Area:   p.Area,
			Poster: p.Poster,
		})
	}
	return views
}

func writePerformance(md *render.Markdown, p performanceView) {
	md.Heading(3, stateBadge(p.Status)+" "+p.Name)
	md.Bullet("기간", p.Period)
	md.Bullet("장소", p.Venue)
	md.Bullet("장르", p.Genre)
	md.Bullet("상태", p.Status)
	md.Bullet("공연ID", "`"+p.ID+"`")
	md.Blank()
}

type performanceSearchDoc struct {
	Keyword      *string           `json:"keyword"`
	Genre        *string           `json:"genre"`
	Region       *string           `json:"region"`
	Count        int               `json:"count"`
	Performances []performanceView `json:"performances"`
}

func (d performanceSearchDoc) Markdown() string {
	var md render.Markdown
	md.Heading(1, "🎭 공연 검색 결과")
	var filters []string
	if d.Keyword != nil {
		filters = append(filters, "키워드: "+*d.Keyword)
	}
	if d.Genre != nil {
		filters = append(filters, "장르: "+*d.Genre)
	}
	if d.Region != nil {
		filters = append(filters, "지역: "+*d.Region)
	}
	if len(filters) > 0 {
		md.Quotef("검색 조건: %s", strings.Join(filters, ", "))
		md.Blank()
	}
	md.Linef("총 **%d**개의 공연", d.Count)
	md.Blank()
	if d.Count == 0 {
		md.Line("검색된 공연이 없습니다.")
		return md.String()
	}
	for _, p := range d.Performances {
		writePerformance(&md, p)
	}
	md.Tip("공연 상세정보는 `culture_get_performance_detail` 도구에 공연ID를 입력하여 확인할 수 있습니다.")
	return md.String()
}

func (s *Service) searchPerformance(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args performanceSearchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	keyword := strings.TrimSpace(args.Keyword)
	genre := strings.TrimSpace(args.Genre)
	region := strings.TrimSpace(args.Region)
	limit := clampLimit(args.Limit, domain.ListMaxLimit)
	performances, err := s.performances.SearchPerformances(ctx, upstream.PerformanceFilter{
		Keyword:    keyword,
		GenreCode:  s.lookups.GenreCode(genre),
		RegionCode: s.lookups.RegionCode(region),
		From:       yyyymmdd(s.today()),
		To:         s.endDate,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	performances = firstN(performances, limit)
	return performanceSearchDoc{
		Keyword:      nullable(keyword),
		Genre:        nullable(genre),
		Region:       nullable(region),
		Count:        len(performances),
		Performances: newPerformanceViews(performances),
	}, nil
}

type performanceDetailDoc struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Period    string   `json:"period"`
	Venue     string   `json:"venue"`
	Cast      string   `json:"cast"`
	Crew      string   `json:"crew"`
	Runtime   string   `json:"runtime"`
	AgeLimit  string   `json:"ageLimit"`
	Price     string   `json:"price"`
	Poster    string   `json:"poster"`
	Genre     string   `json:"genre"`
	Status    string   `json:"status"`
	Schedule  string   `json:"schedule"`
	StyleURLs []string `json:"styleUrls"`
}

func (d performanceDetailDoc) Markdown() string {
	var md render.Markdown
	md.Heading(1, stateBadge(d.Status)+" "+d.Name)
	md.Heading(2, "📋 공연 정보")
	md.TableHeader()
	md.Row("공연ID", "`"+d.ID+"`")
	md.Row("기간", d.Period)
	md.Row("장소", render.OrDefault(d.Venue, "-"))
	md.Row("장르", render.OrDefault(d.Genre, "-"))
	md.Row("상태", render.OrDefault(d.Status, "-"))
	md.Row("관람시간", render.OrDefault(d.Runtime, "-"))
	md.Row("관람연령", render.OrDefault(d.AgeLimit, "-"))
	md.Blank()

	if d.Price != "" {
		md.Heading(2, "💰 관람료")
		for _, line := range splitPrices(d.Price) {
			md.Line(line)
		}
		md.Blank()
	}
	if d.Schedule != "" {
		md.Heading(2, "🕐 공연 시간")
		md.Line(d.Schedule)
		md.Blank()
	}
	if d.Cast != "" {
		md.Heading(2, "🎭 출연진")
		md.Line(d.Cast)
		md.Blank()
	}
	if d.Crew != "" {
		md.Heading(2, "🎬 제작진")
		md.Line(d.Crew)
		md.Blank()
	}
	if len(d.StyleURLs) > 0 {
		md.Heading(2, "🖼️ 소개 이미지")
		for i, url := range d.StyleURLs {
			md.Linef("- [이미지 %d](%s)", i+1, url)
		}
		md.Blank()
	}
	if d.Poster != "" {
		md.Linef("![포스터](%s)", d.Poster)
	}
	return md.String()
}

// splitPrices breaks "R석 70,000원, S석 50,000원" into one line per seat
// class without cutting thousands separators.
func splitPrices(price string) []string {
	parts := strings.Split(price, ", ")
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part)
		}
	}
	return lines
}

func (s *Service) performanceDetail(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args performanceDetailArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(args.PerformanceID)
	if id == "" {
		return nil, invalid("performance_id를 입력해주세요.")
	}
	detail, found, err := s.performances.Performance(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(fmt.Sprintf("공연 정보를 찾을 수 없습니다. (ID: %s)", id))
	}
	return performanceDetailDoc{
		ID:        detail.ID,
		Name:      detail.Name,
		Period:    period(detail.From, detail.To),
		Venue:     detail.Venue,
		Cast:      detail.Cast,
		Crew:      detail.Crew,
		Runtime:   detail.Runtime,
		AgeLimit:  detail.AgeLimit,
		Price:     detail.Price,
		Poster:    detail.Poster,
		Genre:     detail.Genre,
		Status:    detail.State,
		Schedule:  detail.Schedule,
		StyleURLs: orEmpty(detail.StyleURLs),
	}, nil
}

// nullable maps blank strings to JSON null.
func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
