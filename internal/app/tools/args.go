package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	"kculture/internal/domain"
)

// FlexInt accepts a JSON number or a numeric string. Zero means "not given".
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			*n = 0
			return nil
		}
		data = []byte(text)
	}
	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("expected a number, got %s", data)
	}
	*n = FlexInt(math.Trunc(value))
	return nil
}

func (FlexInt) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "number"}
}

// FlexString accepts a JSON string or number and keeps its text form.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(text))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("expected a string or number, got %s", data)
	}
	*s = FlexString(number.String())
	return nil
}

func (FlexString) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}

// FormatArgs carries the response_format argument shared by every tool.
type FormatArgs struct {
	ResponseFormat string `json:"response_format,omitempty" jsonschema:"enum=markdown,enum=json" jsonschema_description:"응답 형식. 기본값: markdown"`
}

func (f FormatArgs) format() domain.ResponseFormat {
	return domain.ParseResponseFormat(f.ResponseFormat)
}

type boxOfficeArgs struct {
	Type  string  `json:"type,omitempty" jsonschema:"enum=daily,enum=weekly" jsonschema_description:"박스오피스 유형: daily(일별), weekly(주간). 기본값: daily"`
	Date  string  `json:"date,omitempty" jsonschema_description:"조회 날짜 (YYYYMMDD 형식). 기본값: 어제 날짜"`
	Limit FlexInt `json:"limit,omitempty" jsonschema_description:"조회할 영화 수 (1-10). 기본값: 10"`
	FormatArgs
}

type movieDetailArgs struct {
	MovieName string `json:"movie_name,omitempty" jsonschema_description:"영화 제목으로 검색"`
	MovieCode string `json:"movie_code,omitempty" jsonschema_description:"KOBIS 영화 코드 (박스오피스에서 확인 가능)"`
	FormatArgs
}

type performanceSearchArgs struct {
	Keyword string  `json:"keyword,omitempty" jsonschema_description:"검색 키워드 (공연명)"`
	Genre   string  `json:"genre,omitempty" jsonschema:"enum=연극,enum=뮤지컬,enum=클래식,enum=국악,enum=대중음악,enum=무용,enum=서커스/마술,enum=복합" jsonschema_description:"공연 장르"`
	Region  string  `json:"region,omitempty" jsonschema_description:"지역명 (예: 서울, 부산, 대구 등)"`
	Limit   FlexInt `json:"limit,omitempty" jsonschema_description:"조회할 공연 수 (1-20). 기본값: 10"`
	FormatArgs
}

type performanceDetailArgs struct {
	PerformanceID string `json:"performance_id" jsonschema:"required" jsonschema_description:"공연 ID (공연 검색에서 확인 가능)"`
	FormatArgs
}

type facilityArgs struct {
	FacilityName string  `json:"facility_name,omitempty" jsonschema_description:"공연장 이름으로 검색"`
	Region       string  `json:"region,omitempty" jsonschema_description:"지역명 (예: 서울, 부산 등)"`
	Limit        FlexInt `json:"limit,omitempty" jsonschema_description:"조회할 공연장 수 (1-20). 기본값: 10"`
	FormatArgs
}

type recommendationArgs struct {
	Region string `json:"region,omitempty" jsonschema_description:"공연 추천 지역 (예: 서울). 기본값: 서울"`
	FormatArgs
}

type festivalArgs struct {
	Keyword string     `json:"keyword,omitempty" jsonschema_description:"검색 키워드 (축제명)"`
	Region  string     `json:"region,omitempty" jsonschema_description:"지역명 (예: 서울, 부산, 제주 등)"`
	Month   FlexString `json:"month,omitempty" jsonschema_description:"조회할 월 (1-12). 기본값: 현재 월"`
	Limit   FlexInt    `json:"limit,omitempty" jsonschema_description:"조회할 축제 수 (1-20). 기본값: 10"`
	FormatArgs
}

type touristSpotArgs struct {
	Keyword  string  `json:"keyword,omitempty" jsonschema_description:"검색 키워드 (관광지명)"`
	Region   string  `json:"region,omitempty" jsonschema_description:"지역명 (예: 서울, 부산, 제주 등)"`
	Category string  `json:"category,omitempty" jsonschema:"enum=관광지,enum=문화시설,enum=레포츠,enum=쇼핑" jsonschema_description:"관광지 유형. 기본값: 관광지"`
	Limit    FlexInt `json:"limit,omitempty" jsonschema_description:"조회할 관광지 수 (1-20). 기본값: 10"`
	FormatArgs
}

type restaurantArgs struct {
	Keyword string  `json:"keyword,omitempty" jsonschema_description:"검색 키워드 (음식점명 또는 음식 종류)"`
	Region  string  `json:"region,omitempty" jsonschema_description:"지역명 (예: 서울, 부산, 전주 등)"`
	Limit   FlexInt `json:"limit,omitempty" jsonschema_description:"조회할 음식점 수 (1-20). 기본값: 10"`
	FormatArgs
}

// decodeArgs fills out from raw. Missing or null arguments leave out zeroed.
func decodeArgs(raw json.RawMessage, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return invalid(fmt.Sprintf("인자를 해석할 수 없습니다: %v", err))
	}
	return nil
}

// formatOf reads response_format without decoding the rest of the arguments.
func formatOf(raw json.RawMessage) domain.ResponseFormat {
	var args FormatArgs
	if err := decodeArgs(raw, &args); err != nil {
		return domain.FormatMarkdown
	}
	return args.format()
}

// clampLimit maps "not given" to the default and clamps to [1, max].
func clampLimit(limit FlexInt, max int) int {
	n := int(limit)
	switch {
	case n == 0:
		n = domain.DefaultListLimit
	case n < domain.MinListLimit:
		n = domain.MinListLimit
	}
	if n > max {
		n = max
	}
	return n
}

// firstN caps a fetched list at n rows; upstreams may ignore the page size.
func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func invalid(msg string) error {
	return domain.E(domain.CodeInvalidRequest, "tools.args", msg, domain.ErrInvalidRequest)
}

func notFound(msg string) error {
	return domain.E(domain.CodeNotFound, "tools", msg, domain.ErrNotFound)
}
