package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kculture/internal/domain"
	"kculture/internal/infra/render"
)

var medals = []string{"🥇", "🥈", "🥉"}

func rankBadge(rank int) string {
	if rank >= 1 && rank <= len(medals) {
		return medals[rank-1]
	}
	return fmt.Sprintf("%d.", rank)
}

type boxOfficeMovie struct {
	Rank          int    `json:"rank"`
	Title         string `json:"title"`
	OpenDate      string `json:"openDate"`
	AudienceToday string `json:"audienceToday"`
	AudienceTotal string `json:"audienceTotal"`
	SalesTotal    string `json:"salesTotal"`
	MovieCode     string `json:"movieCode"`
}

type boxOfficeDoc struct {
	Type   string           `json:"type"`
	Date   string           `json:"date"`
	Movies []boxOfficeMovie `json:"movies"`
}

func newBoxOfficeMovies(entries []domain.BoxOfficeEntry, limit int) []boxOfficeMovie {
	if len(entries) > limit {
		entries = entries[:limit]
	}
	movies := make([]boxOfficeMovie, 0, len(entries))
	for _, e := range entries {
		movies = append(movies, boxOfficeMovie{
			Rank:          e.Rank,
			Title:         e.Title,
			OpenDate:      render.Date(e.OpenDate),
			AudienceToday: render.Number(e.AudienceToday),
			AudienceTotal: render.Number(e.AudienceTotal),
			SalesTotal:    render.Number(e.SalesTotal),
			MovieCode:     e.MovieCode,
		})
	}
	return movies
}

func (d boxOfficeDoc) Markdown() string {
	var md render.Markdown
	label := "일별"
	if d.Type == string(domain.BoxOfficeWeekly) {
		label = "주간"
	}
	md.Heading(1, fmt.Sprintf("🎬 %s 박스오피스 (%s)", label, d.Date))
	if len(d.Movies) == 0 {
		md.Line("조회된 영화가 없습니다.")
		return md.String()
	}
	for _, m := range d.Movies {
		md.Heading(3, rankBadge(m.Rank)+" "+m.Title)
		md.Bullet("개봉일", render.OrDefault(m.OpenDate, "미정"))
		md.Bullet("관객수", m.AudienceToday+"명")
		md.Bullet("누적관객", m.AudienceTotal+"명")
		md.Bullet("누적매출", m.SalesTotal+"원")
		md.Bullet("영화코드", "`"+m.MovieCode+"`")
		md.Blank()
	}
	md.Tip("영화 상세정보는 `culture_get_movie_detail` 도구에 영화코드를 입력하여 확인할 수 있습니다.")
	return md.String()
}

func (s *Service) boxOffice(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args boxOfficeArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	kind := domain.BoxOfficeDaily
	if args.Type == string(domain.BoxOfficeWeekly) {
		kind = domain.BoxOfficeWeekly
	}
	date := strings.TrimSpace(args.Date)
	if date == "" {
		date = yyyymmdd(s.today().AddDate(0, 0, -1))
	} else if !s.isDate(date) {
		return nil, invalid("date는 YYYYMMDD 형식이어야 합니다.")
	}
	limit := clampLimit(args.Limit, domain.BoxOfficeMaxLimit)

	entries, err := s.movies.BoxOffice(ctx, kind, date)
	if err != nil {
		return nil, err
	}
	return boxOfficeDoc{
		Type:   string(kind),
		Date:   render.Date(date),
		Movies: newBoxOfficeMovies(entries, limit),
	}, nil
}

// isDate reports whether value is a real calendar day in YYYYMMDD form.
func (s *Service) isDate(value string) bool {
	if len(value) != 8 {
		return false
	}
	_, err := time.ParseInLocation("20060102", value, s.location)
	return err == nil
}

type movieActorView struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type movieDoc struct {
	Code         string           `json:"code"`
	Title        string           `json:"title"`
	TitleEn      string           `json:"titleEn"`
	Runtime      string           `json:"runtime"`
	OpenDate     string           `json:"openDate"`
	Status       string           `json:"status"`
	Type         string           `json:"type"`
	Nations      []string         `json:"nations"`
	Genres       []string         `json:"genres"`
	Directors    []string         `json:"directors"`
	Actors       []movieActorView `json:"actors"`
	Producers    []string         `json:"producers"`
	Distributors []string         `json:"distributors"`
	Rating       string           `json:"rating"`
}

const maxActors = 10

func newMovieDoc(detail domain.MovieDetail) movieDoc {
	doc := movieDoc{
		Code:         detail.Code,
		Title:        detail.Title,
		TitleEn:      detail.TitleEn,
		Runtime:      detail.Runtime,
		OpenDate:     detail.OpenDate,
		Status:       detail.Status,
		Type:         detail.Type,
		Nations:      orEmpty(detail.Nations),
		Genres:       orEmpty(detail.Genres),
		Directors:    orEmpty(detail.Directors),
		Actors:       make([]movieActorView, 0, min(len(detail.Actors), maxActors)),
		Producers:    []string{},
		Distributors: []string{},
		Rating:       render.OrDefault(detail.WatchGrade, "정보 없음"),
	}
	for i, actor := range detail.Actors {
		if i == maxActors {
			break
		}
		doc.Actors = append(doc.Actors, movieActorView{Name: actor.Name, Role: actor.Role})
	}
	for _, company := range detail.Companies {
		switch {
		case strings.Contains(company.Part, "제작"):
			doc.Producers = append(doc.Producers, company.Name)
		case strings.Contains(company.Part, "배급"):
			doc.Distributors = append(doc.Distributors, company.Name)
		}
	}
	return doc
}

func (d movieDoc) Markdown() string {
	var md render.Markdown
	md.Heading(1, "🎬 "+d.Title)
	if d.TitleEn != "" {
		md.Quote(d.TitleEn)
		md.Blank()
	}
	md.Heading(2, "📋 기본 정보")
	md.TableHeader()
	md.Row("영화코드", "`"+d.Code+"`")
	md.Row("상영시간", render.OrDefault(d.Runtime, "-")+"분")
	md.Row("개봉일", render.OrDefault(render.Date(d.OpenDate), "미정"))
	md.Row("제작상태", render.OrDefault(d.Status, "-"))
	md.Row("영화유형", render.OrDefault(d.Type, "-"))
	md.Row("제작국가", render.OrDefault(strings.Join(d.Nations, ", "), "-"))
	md.Row("장르", render.OrDefault(strings.Join(d.Genres, ", "), "-"))
	md.Row("관람등급", d.Rating)
	md.Blank()

	if len(d.Directors) > 0 {
		md.Heading(2, "🎬 감독")
		md.Line(strings.Join(d.Directors, ", "))
		md.Blank()
	}
	if len(d.Actors) > 0 {
		md.Heading(2, "🎭 출연진")
		for _, actor := range d.Actors {
			if actor.Role != "" {
				md.Linef("- %s (%s 역)", actor.Name, actor.Role)
			} else {
				md.Linef("- %s", actor.Name)
			}
		}
		md.Blank()
	}
	if len(d.Producers) > 0 || len(d.Distributors) > 0 {
		md.Heading(2, "🏢 제작/배급")
		if len(d.Producers) > 0 {
			md.Bullet("제작사", strings.Join(d.Producers, ", "))
		}
		if len(d.Distributors) > 0 {
			md.Bullet("배급사", strings.Join(d.Distributors, ", "))
		}
		md.Blank()
	}
	return md.String()
}

func (s *Service) movieDetail(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args movieDetailArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(args.MovieCode)
	name := strings.TrimSpace(args.MovieName)

	if code == "" {
		if name == "" {
			return nil, invalid("movie_name 또는 movie_code 중 하나를 입력해주세요.")
		}
		movies, err := s.movies.SearchMovies(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(movies) == 0 {
			return nil, notFound(fmt.Sprintf("\"%s\" 영화를 찾을 수 없습니다.", name))
		}
		code = movies[0].Code
	}

	detail, found, err := s.movies.MovieInfo(ctx, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound(fmt.Sprintf("영화 정보를 찾을 수 없습니다. (코드: %s)", code))
	}
	return newMovieDoc(detail), nil
}

func orEmpty[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
