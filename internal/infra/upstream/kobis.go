package upstream

import (
	"context"
	"strconv"
	"strings"

	"kculture/internal/domain"
)

// KOBIS is the film box office and catalogue API (JSON).
type KOBIS struct {
	client *Client
	base   string
	key    string
}

func NewKOBIS(client *Client, cfg domain.SourceConfig) *KOBIS {
	base := cfg.BaseURL
	if base == "" {
		base = domain.DefaultKOBISBaseURL
	}
	return &KOBIS{client: client, base: base, key: cfg.APIKey}
}

type kobisFault struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

type kobisBoxOfficeEntry struct {
	Rank     string `json:"rank"`
	MovieCd  string `json:"movieCd"`
	MovieNm  string `json:"movieNm"`
	OpenDt   string `json:"openDt"`
	AudiCnt  string `json:"audiCnt"`
	AudiAcc  string `json:"audiAcc"`
	SalesAcc string `json:"salesAcc"`
}

type kobisBoxOfficeResponse struct {
	FaultInfo       *kobisFault `json:"faultInfo"`
	BoxOfficeResult struct {
		Daily  []kobisBoxOfficeEntry `json:"dailyBoxOfficeList"`
		Weekly []kobisBoxOfficeEntry `json:"weeklyBoxOfficeList"`
	} `json:"boxOfficeResult"`
}

type kobisMovieListResponse struct {
	FaultInfo       *kobisFault `json:"faultInfo"`
	MovieListResult struct {
		MovieList []struct {
			MovieCd   string `json:"movieCd"`
			MovieNm   string `json:"movieNm"`
			MovieNmEn string `json:"movieNmEn"`
			OpenDt    string `json:"openDt"`
		} `json:"movieList"`
	} `json:"movieListResult"`
}

type kobisMovieInfoResponse struct {
	FaultInfo       *kobisFault `json:"faultInfo"`
	MovieInfoResult struct {
		MovieInfo *struct {
			MovieCd    string `json:"movieCd"`
			MovieNm    string `json:"movieNm"`
			MovieNmEn  string `json:"movieNmEn"`
			ShowTm     string `json:"showTm"`
			OpenDt     string `json:"openDt"`
			PrdtStatNm string `json:"prdtStatNm"`
			TypeNm     string `json:"typeNm"`
			Nations    []struct {
				NationNm string `json:"nationNm"`
			} `json:"nations"`
			Genres []struct {
				GenreNm string `json:"genreNm"`
			} `json:"genres"`
			Directors []struct {
				PeopleNm string `json:"peopleNm"`
			} `json:"directors"`
			Actors []struct {
				PeopleNm string `json:"peopleNm"`
				Cast     string `json:"cast"`
			} `json:"actors"`
			Companys []struct {
				CompanyNm     string `json:"companyNm"`
				CompanyPartNm string `json:"companyPartNm"`
			} `json:"companys"`
			Audits []struct {
				WatchGradeNm string `json:"watchGradeNm"`
			} `json:"audits"`
		} `json:"movieInfo"`
	} `json:"movieInfoResult"`
}

func (k *KOBIS) query(path string) (Query, error) {
	if k.key == "" {
		return Query{}, missingKey(SourceKOBIS, domain.EnvKOBISAPIKey)
	}
	return NewQuery(k.base, path).AddSecret("key", k.key), nil
}

func (k *KOBIS) fault(f *kobisFault) error {
	if f == nil {
		return nil
	}
	msg := strings.TrimSpace(f.Message)
	if msg == "" {
		msg = "오류 코드 " + f.ErrorCode
	}
	return failure(SourceKOBIS, KindStatus, msg, nil)
}

// BoxOffice returns the ranking for date (YYYYMMDD) in upstream order.
func (k *KOBIS) BoxOffice(ctx context.Context, kind domain.BoxOfficeKind, date string) ([]domain.BoxOfficeEntry, error) {
	path := "boxoffice/searchDailyBoxOfficeList.json"
	if kind == domain.BoxOfficeWeekly {
		path = "boxoffice/searchWeeklyBoxOfficeList.json"
	}
	q, err := k.query(path)
	if err != nil {
		return nil, err
	}
	q = q.Add("targetDt", date)
	if kind == domain.BoxOfficeWeekly {
		q = q.Add("weekGb", "0")
	}

	var resp kobisBoxOfficeResponse
	if err := k.client.FetchJSON(ctx, SourceKOBIS, q, &resp); err != nil {
		return nil, err
	}
	if err := k.fault(resp.FaultInfo); err != nil {
		return nil, err
	}

	rows := resp.BoxOfficeResult.Daily
	if kind == domain.BoxOfficeWeekly {
		rows = resp.BoxOfficeResult.Weekly
	}
	entries := make([]domain.BoxOfficeEntry, 0, len(rows))
	for _, row := range rows {
		if row.MovieCd == "" {
			continue
		}
		entries = append(entries, domain.BoxOfficeEntry{
			Rank:          atoi(row.Rank),
			MovieCode:     row.MovieCd,
			Title:         row.MovieNm,
			OpenDate:      row.OpenDt,
			AudienceToday: parseCount(row.AudiCnt),
			AudienceTotal: parseCount(row.AudiAcc),
			SalesTotal:    parseCount(row.SalesAcc),
		})
	}
	return entries, nil
}

// SearchMovies looks films up by title.
func (k *KOBIS) SearchMovies(ctx context.Context, title string) ([]domain.MovieSummary, error) {
	q, err := k.query("movie/searchMovieList.json")
	if err != nil {
		return nil, err
	}
	q = q.Add("movieNm", title)

	var resp kobisMovieListResponse
	if err := k.client.FetchJSON(ctx, SourceKOBIS, q, &resp); err != nil {
		return nil, err
	}
	if err := k.fault(resp.FaultInfo); err != nil {
		return nil, err
	}

	movies := make([]domain.MovieSummary, 0, len(resp.MovieListResult.MovieList))
	for _, m := range resp.MovieListResult.MovieList {
		if m.MovieCd == "" {
			continue
		}
		movies = append(movies, domain.MovieSummary{
			Code:     m.MovieCd,
			Title:    m.MovieNm,
			TitleEn:  m.MovieNmEn,
			OpenDate: m.OpenDt,
		})
	}
	return movies, nil
}

// MovieInfo fetches one film by code. found is false for unknown codes.
func (k *KOBIS) MovieInfo(ctx context.Context, code string) (domain.MovieDetail, bool, error) {
	q, err := k.query("movie/searchMovieInfo.json")
	if err != nil {
		return domain.MovieDetail{}, false, err
	}
	q = q.Add("movieCd", code)

	var resp kobisMovieInfoResponse
	if err := k.client.FetchJSON(ctx, SourceKOBIS, q, &resp); err != nil {
		return domain.MovieDetail{}, false, err
	}
	if err := k.fault(resp.FaultInfo); err != nil {
		return domain.MovieDetail{}, false, err
	}
	info := resp.MovieInfoResult.MovieInfo
	if info == nil || info.MovieCd == "" {
		return domain.MovieDetail{}, false, nil
	}

	detail := domain.MovieDetail{
		Code:     info.MovieCd,
		Title:    info.MovieNm,
		TitleEn:  info.MovieNmEn,
		Runtime:  info.ShowTm,
		OpenDate: info.OpenDt,
		Status:   info.PrdtStatNm,
		Type:     info.TypeNm,
	}
	for _, n := range info.Nations {
		detail.Nations = append(detail.Nations, n.NationNm)
	}
	for _, g := range info.Genres {
		detail.Genres = append(detail.Genres, g.GenreNm)
	}
	for _, d := range info.Directors {
		detail.Directors = append(detail.Directors, d.PeopleNm)
	}
	for _, a := range info.Actors {
		detail.Actors = append(detail.Actors, domain.MovieActor{Name: a.PeopleNm, Role: a.Cast})
	}
	for _, c := range info.Companys {
		detail.Companies = append(detail.Companies, domain.MovieCompany{Name: c.CompanyNm, Part: c.CompanyPartNm})
	}
	if len(info.Audits) > 0 {
		detail.WatchGrade = info.Audits[0].WatchGradeNm
	}
	return detail, true, nil
}

func atoi(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func parseCount(value string) int64 {
	n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(value), ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
