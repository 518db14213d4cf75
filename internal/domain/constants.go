package domain

import "time"

const (
	// ServerName is reported in initialize and health responses.
	ServerName = "korea-culture-mcp"
	// DefaultProtocolVersion is echoed when the client does not send one.
	DefaultProtocolVersion = "2024-11-05"
	JSONRPCVersion         = "2.0"
)

const (
	DefaultUpstreamTimeout = 15 * time.Second
	DefaultCharacterLimit  = 25000
	TruncationMarker       = "\n\n... (응답이 너무 길어 일부가 생략되었습니다)"

	// EnrichmentThreshold is the largest facility result set that still gets
	// per-facility detail lookups.
	EnrichmentThreshold = 3

	DefaultListLimit   = 10
	BoxOfficeMaxLimit  = 10
	ListMaxLimit       = 20
	MinListLimit       = 1
	RecommendationSize = 5

	DefaultRecommendationRegion = "서울"
	DefaultTouristCategory      = "관광지"
	RestaurantContentTypeID     = "39"
	DefaultTouristContentTypeID = "12"
)

const (
	DefaultKOBISBaseURL   = "http://www.kobis.or.kr/kobisopenapi/webservice/rest"
	DefaultKOPISBaseURL   = "http://www.kopis.or.kr/openApi/restful"
	DefaultTourAPIBaseURL = "http://apis.data.go.kr/B551011/KorService2"
	DefaultTourMobileOS   = "ETC"
	DefaultTourMobileApp  = "KoreaCultureMCP"

	// DefaultPerformanceEndDate bounds performance searches that start today.
	DefaultPerformanceEndDate = "20991231"
	DefaultTimezone           = "Asia/Seoul"
)

const (
	DefaultHTTPListenAddress          = "0.0.0.0:3000"
	DefaultObservabilityListenAddress = "0.0.0.0:9090"
	DefaultMaxRequestBytes            = 1 << 20
	DefaultShutdownTimeout            = 5 * time.Second
	DefaultLogLevel                   = "info"
)

const (
	EnvKOBISAPIKey = "KOBIS_API_KEY"
	EnvKOPISAPIKey = "KOPIS_API_KEY"
	EnvTourAPIKey  = "TOUR_API_KEY"
)
