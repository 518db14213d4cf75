package domain

// Record is one normalized item decoded from a semi-structured upstream block.
// Children holds embedded sub-records keyed by their element name, one level deep.
type Record struct {
	Key      string
	Fields   map[string]string
	Lists    map[string][]string
	Children map[string][]Record
}

func (r Record) Get(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

func (r Record) List(name string) []string {
	if r.Lists == nil {
		return nil
	}
	return r.Lists[name]
}

func (r Record) Child(name string) []Record {
	if r.Children == nil {
		return nil
	}
	return r.Children[name]
}

type BoxOfficeKind string

const (
	BoxOfficeDaily  BoxOfficeKind = "daily"
	BoxOfficeWeekly BoxOfficeKind = "weekly"
)

type BoxOfficeEntry struct {
	Rank          int
	MovieCode     string
	Title         string
	OpenDate      string
	AudienceToday int64
	AudienceTotal int64
	SalesTotal    int64
}

type MovieSummary struct {
	Code     string
	Title    string
	TitleEn  string
	OpenDate string
}

type MovieActor struct {
	Name string
	Role string
}

type MovieCompany struct {
	Name string
	Part string
}

type MovieDetail struct {
	Code       string
	Title      string
	TitleEn    string
	Runtime    string
	OpenDate   string
	Status     string
	Type       string
	Nations    []string
	Genres     []string
	Directors  []string
	Actors     []MovieActor
	Companies  []MovieCompany
	WatchGrade string
}

type Performance struct {
	ID      string
	Name    string
	From    string
	To      string
	Venue   string
	Poster  string
	Genre   string
	State   string
	OpenRun string
	Area    string
}

type PerformanceDetail struct {
	Performance
	Cast      string
	Crew      string
	Runtime   string
	AgeLimit  string
	Price     string
	Schedule  string
	StyleURLs []string
}

type Facility struct {
	ID        string
	Name      string
	HallCount string
	Character string
	Sido      string
	Gugun     string
	OpenYear  string
	SeatCount string
	Tel       string
	Website   string
	Address   string
	Latitude  string
	Longitude string
}

type Hall struct {
	ID           string
	Name         string
	SeatCount    string
	OrchestraPit string
	StagePit     string
	StageWidth   string
	StageHeight  string
}

type FacilityDetail struct {
	Facility
	Parking     string
	Restaurant  string
	Cafe        string
	Store       string
	Playroom    string
	NursingRoom string
	BarrierFree string
	Halls       []Hall
}

type TourItem struct {
	ContentID     string
	ContentTypeID string
	Title         string
	Addr1         string
	Addr2         string
	AreaCode      string
	Image         string
	MapX          string
	MapY          string
	Tel           string
	EventStart    string
	EventEnd      string
}
