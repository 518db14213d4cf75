package domain

// Tool names exposed through tools/list and accepted by tools/call.
const (
	ToolBoxOffice         = "culture_get_box_office"
	ToolMovieDetail       = "culture_get_movie_detail"
	ToolSearchPerformance = "culture_search_performance"
	ToolPerformanceDetail = "culture_get_performance_detail"
	ToolFacilityInfo      = "culture_get_facility_info"
	ToolRecommendations   = "culture_get_recommendations"
	ToolSearchFestival    = "culture_search_festival"
	ToolSearchTouristSpot = "culture_search_tourist_spot"
	ToolSearchRestaurant  = "culture_search_restaurant"
)

// ToolNames lists every tool in catalog order.
var ToolNames = []string{
	ToolBoxOffice,
	ToolMovieDetail,
	ToolSearchPerformance,
	ToolPerformanceDetail,
	ToolFacilityInfo,
	ToolRecommendations,
	ToolSearchFestival,
	ToolSearchTouristSpot,
	ToolSearchRestaurant,
}

type ResponseFormat string

const (
	FormatMarkdown ResponseFormat = "markdown"
	FormatJSON     ResponseFormat = "json"
)

// ParseResponseFormat maps anything other than "json" to markdown.
func ParseResponseFormat(value string) ResponseFormat {
	if ResponseFormat(value) == FormatJSON {
		return FormatJSON
	}
	return FormatMarkdown
}

// Failure is the rendered-to-the-user side of a tool error.
type Failure struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ToolOutput is the final text produced by a tool invocation.
type ToolOutput struct {
	Tool      string
	Format    ResponseFormat
	Text      string
	Truncated bool
	Failure   *Failure
}

func (o ToolOutput) Failed() bool {
	return o.Failure != nil
}
