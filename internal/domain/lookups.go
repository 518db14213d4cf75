package domain

// Lookups translates human names into upstream filter codes.
// Built once and shared read-only.
type Lookups struct {
	PerformanceGenres  map[string]string
	PerformanceRegions map[string]string
	TourAreas          map[string]string
	TourContentTypes   map[string]string
}

// PerformanceGenreNames keeps the catalog enum order.
var PerformanceGenreNames = []string{"연극", "뮤지컬", "클래식", "국악", "대중음악", "무용", "서커스/마술", "복합"}

// TouristCategoryNames are the categories offered by the tourist spot tool.
var TouristCategoryNames = []string{"관광지", "문화시설", "레포츠", "쇼핑"}

func DefaultLookups() Lookups {
	return Lookups{
		PerformanceGenres: map[string]string{
			"연극":     "AAAA",
			"뮤지컬":    "GGGA",
			"클래식":    "CCCA",
			"국악":     "CCCC",
			"대중음악":   "CCCD",
			"무용":     "BBBA",
			"서커스/마술": "EEEA",
			"복합":     "EEEB",
		},
		PerformanceRegions: map[string]string{
			"서울": "11",
			"부산": "26",
			"대구": "27",
			"인천": "28",
			"광주": "29",
			"대전": "30",
			"울산": "31",
			"세종": "36",
			"경기": "41",
			"강원": "42",
			"충북": "43",
			"충남": "44",
			"전북": "45",
			"전남": "46",
			"경북": "47",
			"경남": "48",
			"제주": "50",
		},
		TourAreas: map[string]string{
			"서울": "1",
			"인천": "2",
			"대전": "3",
			"대구": "4",
			"광주": "5",
			"부산": "6",
			"울산": "7",
			"세종": "8",
			"경기": "31",
			"강원": "32",
			"충북": "33",
			"충남": "34",
			"경북": "35",
			"경남": "36",
			"전북": "37",
			"전남": "38",
			"제주": "39",
		},
		TourContentTypes: map[string]string{
			"관광지":  "12",
			"문화시설": "14",
			"축제행사": "15",
			"여행코스": "25",
			"레포츠":  "28",
			"숙박":   "32",
			"쇼핑":   "38",
			"음식점":  "39",
		},
	}
}

// GenreCode returns "" for names that are not in the table.
func (l Lookups) GenreCode(name string) string {
	return l.PerformanceGenres[name]
}

func (l Lookups) RegionCode(name string) string {
	return l.PerformanceRegions[name]
}

func (l Lookups) AreaCode(name string) string {
	return l.TourAreas[name]
}

func (l Lookups) ContentTypeID(name string) string {
	return l.TourContentTypes[name]
}
