package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kculture/internal/domain"
	"kculture/internal/infra/render"
)

func call(t *testing.T, s *Service, name string, args string) domain.ToolOutput {
	t.Helper()
	out, err := s.Call(context.Background(), name, json.RawMessage(args))
	require.NoError(t, err)
	return out
}

func decodeJSON(t *testing.T, text string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func rankedMovies(n int) []domain.BoxOfficeEntry {
	entries := make([]domain.BoxOfficeEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, domain.BoxOfficeEntry{
			Rank:          i,
			MovieCode:     fmt.Sprintf("2024%04d", i),
			Title:         fmt.Sprintf("영화 %d", i),
			OpenDate:      "2024-01-01",
			AudienceToday: int64(1000 * i),
			AudienceTotal: int64(1234567 * i),
			SalesTotal:    int64(9876543210),
		})
	}
	return entries
}

func TestService_UnknownToolMakesNoUpstreamCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Call(context.Background(), "culture_nope", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownTool))
	assert.Contains(t, err.Error(), "Unknown tool: culture_nope")
	assert.Zero(t, f.upstreamCalls())
}

func TestBoxOffice_LimitKeepsUpstreamOrder(t *testing.T) {
	f := newFixture(t)
	f.movies.boxOffice = rankedMovies(5)

	out := call(t, f.service, domain.ToolBoxOffice,
		`{"type":"daily","date":"20240101","limit":3,"response_format":"json"}`)
	require.False(t, out.Failed())

	var doc boxOfficeDoc
	require.NoError(t, json.Unmarshal([]byte(out.Text), &doc))
	require.Len(t, doc.Movies, 3)
	for i, movie := range doc.Movies {
		assert.Equal(t, i+1, movie.Rank)
	}
	assert.Equal(t, "20240101", f.movies.lastDate)
	assert.Equal(t, domain.BoxOfficeDaily, f.movies.lastKind)
	assert.Equal(t, "1,234,567", doc.Movies[0].AudienceTotal)
	assert.Equal(t, "2024.01.01", doc.Date)
}

func TestBoxOffice_DatesAreDotted(t *testing.T) {
	f := newFixture(t)
	f.movies.boxOffice = []domain.BoxOfficeEntry{
		{Rank: 1, Title: "파묘", OpenDate: "20240222", MovieCode: "20231234"},
		{Rank: 2, Title: "듄", OpenDate: "2024-02-28", MovieCode: "20235678"},
	}

	out := call(t, f.service, domain.ToolBoxOffice, `{"date":"20240310","response_format":"json"}`)
	require.False(t, out.Failed())
	doc := decodeJSON(t, out.Text)
	assert.Equal(t, "2024.03.10", doc["date"])
	movies := doc["movies"].([]any)
	assert.Equal(t, "2024.02.22", movies[0].(map[string]any)["openDate"])
	assert.Equal(t, "2024-02-28", movies[1].(map[string]any)["openDate"])

	out = call(t, f.service, domain.ToolBoxOffice, `{"date":"20240310"}`)
	assert.Contains(t, out.Text, "# 🎬 일별 박스오피스 (2024.03.10)")
	assert.Contains(t, out.Text, "- **개봉일**: 2024.02.22")
}

func TestBoxOffice_Defaults(t *testing.T) {
	f := newFixture(t)
	f.movies.boxOffice = rankedMovies(12)

	out := call(t, f.service, domain.ToolBoxOffice, ``)
	require.False(t, out.Failed())
	assert.Equal(t, "20240314", f.movies.lastDate)
	assert.Contains(t, out.Text, "# 🎬 일별 박스오피스 (2024.03.14)")
	assert.Contains(t, out.Text, "### 🥇 영화 1")
	assert.Contains(t, out.Text, "### 4. 영화 4")
	assert.Contains(t, out.Text, "💡 **Tip**")
	assert.NotContains(t, out.Text, "영화 11")
}

func TestBoxOffice_WeeklyAndStringLimit(t *testing.T) {
	f := newFixture(t)
	f.movies.boxOffice = rankedMovies(10)

	out := call(t, f.service, domain.ToolBoxOffice, `{"type":"weekly","limit":"2","response_format":"json"}`)
	doc := decodeJSON(t, out.Text)
	assert.Equal(t, "weekly", doc["type"])
	assert.Len(t, doc["movies"], 2)
	assert.Equal(t, domain.BoxOfficeWeekly, f.movies.lastKind)
}

func TestBoxOffice_Empty(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolBoxOffice, `{"date":"20240101"}`)
	require.False(t, out.Failed())
	assert.Contains(t, out.Text, "조회된 영화가 없습니다.")
}

func TestBoxOffice_InvalidDate(t *testing.T) {
	for _, date := range []string{"2024-01-01", "20241399", "20230229", "2024011a"} {
		t.Run(date, func(t *testing.T) {
			f := newFixture(t)

			out := call(t, f.service, domain.ToolBoxOffice, `{"date":"`+date+`"}`)
			require.True(t, out.Failed())
			assert.Equal(t, domain.CodeInvalidRequest, out.Failure.Code)
			assert.Zero(t, f.upstreamCalls())
		})
	}
}

func TestBoxOffice_UpstreamFailureIsPrefixed(t *testing.T) {
	f := newFixture(t)
	f.movies.boxErr = domain.E(domain.CodeUpstreamTimeout, "upstream.kobis",
		"KOBIS 응답 시간이 초과되었습니다 (15000ms)", domain.ErrUpstreamTimeout)

	out := call(t, f.service, domain.ToolBoxOffice, `{}`)
	require.True(t, out.Failed())
	assert.Equal(t, domain.CodeUpstreamTimeout, out.Failure.Code)
	assert.Equal(t, "❌ 박스오피스 조회 실패: KOBIS 응답 시간이 초과되었습니다 (15000ms)", out.Text)

	out = call(t, f.service, domain.ToolBoxOffice, `{"response_format":"json"}`)
	doc := decodeJSON(t, out.Text)
	failure := doc["error"].(map[string]any)
	assert.Equal(t, "UPSTREAM_TIMEOUT", failure["code"])
}

func TestMovieDetail_NotFoundByName(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolMovieDetail, `{"movie_name":"존재하지않는영화"}`)
	require.True(t, out.Failed())
	assert.Equal(t, domain.CodeNotFound, out.Failure.Code)
	assert.Equal(t, `❌ "존재하지않는영화" 영화를 찾을 수 없습니다.`, out.Text)
}

func TestMovieDetail_RequiresNameOrCode(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolMovieDetail, `{}`)
	require.True(t, out.Failed())
	assert.Equal(t, "❌ movie_name 또는 movie_code 중 하나를 입력해주세요.", out.Text)
	assert.Zero(t, f.upstreamCalls())
}

func TestMovieDetail_SearchUsesFirstMatch(t *testing.T) {
	f := newFixture(t)
	f.movies.search = []domain.MovieSummary{{Code: "20183867", Title: "기생충"}, {Code: "1", Title: "기생충 2"}}
	actors := make([]domain.MovieActor, 0, 12)
	for i := range 12 {
		actors = append(actors, domain.MovieActor{Name: fmt.Sprintf("배우%d", i), Role: "역할"})
	}
	f.movies.detail = map[string]domain.MovieDetail{
		"20183867": {
			Code:      "20183867",
			Title:     "기생충",
			TitleEn:   "Parasite",
			Runtime:   "131",
			OpenDate:  "20190530",
			Genres:    []string{"드라마"},
			Directors: []string{"봉준호"},
			Actors:    actors,
			Companies: []domain.MovieCompany{
				{Name: "바른손이앤에이", Part: "제작사"},
				{Name: "CJ ENM", Part: "배급사"},
				{Name: "기타", Part: "수입사"},
			},
		},
	}

	out := call(t, f.service, domain.ToolMovieDetail, `{"movie_name":"기생충","response_format":"json"}`)
	require.False(t, out.Failed())
	var doc movieDoc
	require.NoError(t, json.Unmarshal([]byte(out.Text), &doc))
	assert.Equal(t, "20183867", doc.Code)
	assert.Len(t, doc.Actors, maxActors)
	assert.Equal(t, "정보 없음", doc.Rating)
	assert.Equal(t, []string{"바른손이앤에이"}, doc.Producers)
	assert.Equal(t, []string{"CJ ENM"}, doc.Distributors)
	assert.Equal(t, []string{}, doc.Nations)

	out = call(t, f.service, domain.ToolMovieDetail, `{"movie_code":"20183867"}`)
	assert.Contains(t, out.Text, "# 🎬 기생충")
	assert.Contains(t, out.Text, "| **개봉일** | 2019.05.30 |")
	assert.Contains(t, out.Text, "- **제작사**: 바른손이앤에이")
}

func TestMovieDetail_UnknownCode(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolMovieDetail, `{"movie_code":"X1"}`)
	require.True(t, out.Failed())
	assert.Equal(t, "❌ 영화 정보를 찾을 수 없습니다. (코드: X1)", out.Text)
}

func TestSearchPerformance_BuildsFilter(t *testing.T) {
	f := newFixture(t)
	f.performances.byGenre = map[string][]domain.Performance{
		"GGGA": {{ID: "PF1", Name: "레미제라블", From: "2024.03.01", To: "2024.04.01", State: "공연중", Venue: "블루스퀘어"}},
	}

	out := call(t, f.service, domain.ToolSearchPerformance,
		`{"genre":"뮤지컬","region":"서울","limit":50,"response_format":"json"}`)
	require.False(t, out.Failed())
	require.Len(t, f.performances.filters, 1)
	filter := f.performances.filters[0]
	assert.Equal(t, "GGGA", filter.GenreCode)
	assert.Equal(t, "11", filter.RegionCode)
	assert.Equal(t, "20240315", filter.From)
	assert.Equal(t, domain.DefaultPerformanceEndDate, filter.To)
	assert.Equal(t, domain.ListMaxLimit, filter.Limit)

	doc := decodeJSON(t, out.Text)
	assert.Nil(t, doc["keyword"])
	assert.Equal(t, "서울", doc["region"])
	performances := doc["performances"].([]any)
	require.Len(t, performances, 1)
	assert.Equal(t, "2024.03.01 ~ 2024.04.01", performances[0].(map[string]any)["period"])

	out = call(t, f.service, domain.ToolSearchPerformance, `{"genre":"뮤지컬"}`)
	assert.Contains(t, out.Text, "### 🟢 레미제라블")
}

func TestPerformanceDetail(t *testing.T) {
	f := newFixture(t)
	f.performances.detail = map[string]domain.PerformanceDetail{
		"PF1": {
			Performance: domain.Performance{ID: "PF1", Name: "햄릿", From: "2024.03.01", To: "2024.03.31", State: "공연예정"},
			Price:       "R석 70,000원, S석 50,000원",
			StyleURLs:   []string{"http://img/1.jpg"},
		},
	}

	out := call(t, f.service, domain.ToolPerformanceDetail, `{"performance_id":"PF1"}`)
	require.False(t, out.Failed())
	assert.Contains(t, out.Text, "# 🟡 햄릿")
	assert.Contains(t, out.Text, "R석 70,000원\nS석 50,000원\n")
	assert.Contains(t, out.Text, "[이미지 1](http://img/1.jpg)")

	out = call(t, f.service, domain.ToolPerformanceDetail, `{"performance_id":"PF9"}`)
	require.True(t, out.Failed())
	assert.Equal(t, "❌ 공연 정보를 찾을 수 없습니다. (ID: PF9)", out.Text)

	out = call(t, f.service, domain.ToolPerformanceDetail, `{}`)
	assert.Equal(t, domain.CodeInvalidRequest, out.Failure.Code)
}

func facilities(n int) []domain.Facility {
	out := make([]domain.Facility, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Facility{
			ID:       fmt.Sprintf("FC%d", i),
			Name:     fmt.Sprintf("극장 %d", i),
			Sido:     "서울",
			Gugun:    "종로구",
			Address:  "요약 주소",
			Latitude: "37.5", Longitude: "126.9",
		})
	}
	return out
}

func TestFacilityInfo_EnrichesSmallResultSets(t *testing.T) {
	f := newFixture(t)
	f.performances.facilities = facilities(3)
	f.performances.facilityByID = map[string]domain.FacilityDetail{
		"FC1": {
			Facility: domain.Facility{ID: "FC1", Address: "상세 주소", OpenYear: "1978"},
			Parking:  "Y",
			Halls:    []domain.Hall{{Name: "대극장", SeatCount: "3022", StageWidth: "18", OrchestraPit: "Y"}},
		},
		"FC3": {Facility: domain.Facility{ID: "FC3"}, Cafe: "N"},
	}
	f.performances.facilityFails = map[string]error{"FC2": errors.New("boom")}

	out := call(t, f.service, domain.ToolFacilityInfo, `{"region":"서울","response_format":"json"}`)
	require.False(t, out.Failed())

	doc := decodeJSON(t, out.Text)
	list := doc["facilities"].([]any)
	require.Len(t, list, 3)

	first := list[0].(map[string]any)
	assert.Equal(t, "FC1", first["id"])
	assert.Equal(t, "상세 주소", first["address"])
	assert.Equal(t, "극장 1", first["name"])
	assert.Equal(t, "서울 종로구", first["area"])
	assert.Equal(t, "Y", first["parking"])
	assert.Equal(t, "1978", first["openDate"])
	assert.Len(t, first["halls"], 1)

	second := list[1].(map[string]any)
	assert.Equal(t, "FC2", second["id"])
	assert.Nil(t, second["parking"])
	assert.Equal(t, "요약 주소", second["address"])

	third := list[2].(map[string]any)
	assert.Equal(t, "FC3", third["id"])
	assert.Equal(t, "N", third["cafe"])

	out = call(t, f.service, domain.ToolFacilityInfo, `{"region":"서울"}`)
	assert.Contains(t, out.Text, "🅿️ 주차장")
	assert.Contains(t, out.Text, "폭 18m, 오케스트라피트 있음")
	assert.Contains(t, out.Text, "https://map.kakao.com/link/map/")
}

func TestFacilityInfo_SkipsEnrichmentAboveThreshold(t *testing.T) {
	f := newFixture(t)
	f.performances.facilities = facilities(4)

	out := call(t, f.service, domain.ToolFacilityInfo, `{"response_format":"json"}`)
	require.False(t, out.Failed())
	assert.Empty(t, f.performances.detailCalls)

	doc := decodeJSON(t, out.Text)
	for _, item := range doc["facilities"].([]any) {
		facility := item.(map[string]any)
		assert.Nil(t, facility["parking"])
		assert.Nil(t, facility["openDate"])
		assert.Equal(t, []any{}, facility["halls"])
	}
}

func TestFacilityInfo_Empty(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolFacilityInfo, `{"facility_name":"없는곳","response_format":"json"}`)
	doc := decodeJSON(t, out.Text)
	assert.EqualValues(t, 0, doc["count"])
	assert.Equal(t, []any{}, doc["facilities"])

	out = call(t, f.service, domain.ToolFacilityInfo, `{"facility_name":"없는곳"}`)
	assert.Contains(t, out.Text, "검색된 공연장이 없습니다.")
}

func TestRecommendations_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.movies.boxErr = errors.New("down")
	f.performances.byGenre = map[string][]domain.Performance{
		"GGGA": {{ID: "M1", Name: "위키드", State: "공연중"}},
	}

	out := call(t, f.service, domain.ToolRecommendations, `{"response_format":"json"}`)
	require.False(t, out.Failed())
	doc := decodeJSON(t, out.Text)
	assert.Nil(t, doc["movies"])
	assert.Len(t, doc["musicals"], 1)
	assert.Equal(t, []any{}, doc["theaters"])
	assert.Equal(t, "서울", doc["region"])
	assert.Equal(t, "20240314", f.movies.lastDate)

	for _, filter := range f.performances.filters {
		assert.Equal(t, "11", filter.RegionCode)
		assert.Equal(t, domain.RecommendationSize, filter.Limit)
	}

	out = call(t, f.service, domain.ToolRecommendations, `{"region":"부산"}`)
	assert.Contains(t, out.Text, "데이터를 불러올 수 없습니다.")
	assert.Contains(t, out.Text, "## 🎭 부산 뮤지컬")
	assert.Contains(t, out.Text, "진행 중인 연극이 없습니다.")
}

func TestSearchFestival_MonthWindow(t *testing.T) {
	f := newFixture(t)
	f.tour.festivals = []domain.TourItem{
		{ContentID: "1", Title: "진해 군항제", Addr1: "경남 창원시", Addr2: "진해구", EventStart: "20240322", EventEnd: "20240401"},
		{ContentID: "2", Title: "서울 벚꽃축제", EventStart: "20240301", EventEnd: "20240310"},
	}

	out := call(t, f.service, domain.ToolSearchFestival, `{"region":"서울","month":"03","response_format":"json"}`)
	require.False(t, out.Failed())
	assert.Equal(t, festivalQuery{start: "20240301", end: "20240331", area: "1", limit: domain.DefaultListLimit}, f.tour.lastFest)

	doc := decodeJSON(t, out.Text)
	assert.Equal(t, "03", doc["month"])
	assert.EqualValues(t, 2, doc["count"])
	festivals := doc["festivals"].([]any)
	assert.Equal(t, "경남 창원시 진해구", festivals[0].(map[string]any)["address"])

	out = call(t, f.service, domain.ToolSearchFestival, `{"month":2,"keyword":"벚꽃","response_format":"json"}`)
	assert.Equal(t, "20240229", f.tour.lastFest.end)
	assert.Empty(t, f.tour.lastFest.area)
	doc = decodeJSON(t, out.Text)
	assert.EqualValues(t, 1, doc["count"])
}

func TestSearchFestival_InvalidMonth(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolSearchFestival, `{"month":"13"}`)
	require.True(t, out.Failed())
	assert.Equal(t, domain.CodeInvalidRequest, out.Failure.Code)
	assert.Zero(t, f.upstreamCalls())
}

func TestSearchFestival_Empty(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolSearchFestival, `{}`)
	assert.Equal(t, "20240301", f.tour.lastFest.start)
	assert.Contains(t, out.Text, "검색된 축제가 없습니다. 다른 월이나 지역을 검색해보세요.")
}

func TestSearchTouristSpot_Category(t *testing.T) {
	f := newFixture(t)
	f.tour.places = []domain.TourItem{{ContentID: "1", Title: "경복궁", Addr1: "서울 종로구", MapX: "126.97", MapY: "37.57"}}

	out := call(t, f.service, domain.ToolSearchTouristSpot, `{"region":"서울","category":"쇼핑"}`)
	require.False(t, out.Failed())
	assert.Equal(t, "38", f.tour.lastPlace.ContentTypeID)
	assert.Equal(t, "1", f.tour.lastPlace.AreaCode)
	assert.Contains(t, out.Text, "37.57,126.97")

	out = call(t, f.service, domain.ToolSearchTouristSpot, `{"response_format":"json"}`)
	assert.Equal(t, domain.DefaultTouristContentTypeID, f.tour.lastPlace.ContentTypeID)
	doc := decodeJSON(t, out.Text)
	assert.Equal(t, "관광지", doc["category"])
	assert.Len(t, doc["spots"], 1)
}

func TestSearchRestaurant(t *testing.T) {
	f := newFixture(t)
	f.tour.places = []domain.TourItem{{ContentID: "9", Title: "전주비빔밥", Addr1: "전북 전주시", Addr2: "2층"}}

	out := call(t, f.service, domain.ToolSearchRestaurant, `{"keyword":"비빔밥","response_format":"json"}`)
	require.False(t, out.Failed())
	assert.Equal(t, domain.RestaurantContentTypeID, f.tour.lastPlace.ContentTypeID)
	assert.Equal(t, "비빔밥", f.tour.lastPlace.Keyword)
	doc := decodeJSON(t, out.Text)
	restaurants := doc["restaurants"].([]any)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "전북 전주시 2층", restaurants[0].(map[string]any)["address"])

	f.tour.err = domain.E(domain.CodeUpstreamFailure, "upstream.tourapi", "TourAPI HTTP 500 응답", nil)
	out = call(t, f.service, domain.ToolSearchRestaurant, `{}`)
	assert.Equal(t, "❌ 음식점 검색 실패: TourAPI HTTP 500 응답", out.Text)
}

func TestService_JSONIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.movies.boxOffice = rankedMovies(3)

	first := call(t, f.service, domain.ToolBoxOffice, `{"response_format":"json"}`)
	second := call(t, f.service, domain.ToolBoxOffice, `{"response_format":"json"}`)
	assert.Equal(t, first.Text, second.Text)
}

func TestService_BadArgumentsAreToolFailures(t *testing.T) {
	f := newFixture(t)

	out := call(t, f.service, domain.ToolSearchPerformance, `{"limit":"many"}`)
	require.True(t, out.Failed())
	assert.Equal(t, domain.CodeInvalidRequest, out.Failure.Code)
	assert.True(t, strings.HasPrefix(out.Text, "❌ 인자를 해석할 수 없습니다"))
}

func TestService_TruncatesLongOutput(t *testing.T) {
	f := newFixture(t)
	service, err := NewService(Options{
		Movies:       f.movies,
		Performances: f.performances,
		Tour:         f.tour,
		Now:          fixedNow,
		Tools:        domain.ToolsConfig{CharacterLimit: 50},
	})
	require.NoError(t, err)
	f.movies.boxOffice = rankedMovies(10)

	out := call(t, service, domain.ToolBoxOffice, `{}`)
	assert.True(t, out.Truncated)
	assert.True(t, strings.HasSuffix(out.Text, domain.TruncationMarker))
}

func TestService_RecoversFromPanics(t *testing.T) {
	f := newFixture(t)
	f.service.specs[domain.ToolBoxOffice] = toolSpec{
		name:    domain.ToolBoxOffice,
		failure: "박스오피스 조회",
		run: func(context.Context, json.RawMessage) (render.Document, error) {
			panic("kaboom")
		},
	}

	out := call(t, f.service, domain.ToolBoxOffice, `{}`)
	require.True(t, out.Failed())
	assert.Equal(t, domain.CodeInternal, out.Failure.Code)
	assert.Contains(t, out.Text, "박스오피스 조회 실패")
}

type unencodableDoc struct {
	Updates chan int `json:"updates"`
}

func (unencodableDoc) Markdown() string { return "ok" }

func TestService_EncodeFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.service.specs[domain.ToolBoxOffice] = toolSpec{
		name:    domain.ToolBoxOffice,
		failure: "박스오피스 조회",
		run: func(context.Context, json.RawMessage) (render.Document, error) {
			return unencodableDoc{}, nil
		},
	}

	out := call(t, f.service, domain.ToolBoxOffice, `{"response_format":"json"}`)
	require.True(t, out.Failed())
	assert.Equal(t, domain.CodeInternal, out.Failure.Code)
	assert.Contains(t, out.Failure.Message, "박스오피스 조회 실패: encode json")

	out = call(t, f.service, domain.ToolBoxOffice, `{}`)
	require.False(t, out.Failed())
	assert.Equal(t, "ok", out.Text)
}
