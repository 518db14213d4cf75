package upstream

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"kculture/internal/domain"
	"kculture/internal/infra/markup"
)

// KOPIS is the performing arts API (XML with <db> item blocks).
type KOPIS struct {
	client *Client
	base   string
	key    string
}

func NewKOPIS(client *Client, cfg domain.SourceConfig) *KOPIS {
	base := cfg.BaseURL
	if base == "" {
		base = domain.DefaultKOPISBaseURL
	}
	return &KOPIS{client: client, base: base, key: cfg.APIKey}
}

var performanceFields = []string{
	"mt20id", "prfnm", "prfpdfrom", "prfpdto", "fcltynm", "poster",
	"genrenm", "prfstate", "openrun", "area",
}

var performanceListMap = markup.FieldMap{
	Item:   "db",
	Key:    "mt20id",
	Fields: performanceFields,
}

var performanceDetailMap = markup.FieldMap{
	Item: "db",
	Key:  "mt20id",
	Fields: append(append([]string{}, performanceFields...),
		"prfcast", "prfcrew", "prfruntime", "prfage", "pcseguidance", "dtguidance",
	),
	Lists: []string{"styurl"},
}

var facilityFields = []string{
	"mt10id", "fcltynm", "mt13cnt", "fcltychartr", "sidonm", "gugunnm",
	"opende", "seatscale", "telno", "relateurl", "adres", "la", "lo",
}

var facilityListMap = markup.FieldMap{
	Item:   "db",
	Key:    "mt10id",
	Fields: facilityFields,
}

var facilityDetailMap = markup.FieldMap{
	Item: "db",
	Key:  "mt10id",
	Fields: append(append([]string{}, facilityFields...),
		"parkinglot", "restaurant", "cafe", "store", "nolibang", "suyu", "barrier",
	),
	Children: []markup.FieldMap{{
		Item: "mt13",
		Fields: []string{
			"mt13id", "prfplcnm", "seatscale", "stageorchat", "stagepitchat", "stagewichat", "stagehechat",
		},
	}},
}

// PerformanceFilter narrows a performance search. Codes are upstream codes,
// already translated from human names.
type PerformanceFilter struct {
	Keyword    string
	GenreCode  string
	RegionCode string
	From       string
	To         string
	Limit      int
}

type FacilityFilter struct {
	Name       string
	RegionCode string
	Limit      int
}

func (k *KOPIS) query(path string) (Query, error) {
	if k.key == "" {
		return Query{}, missingKey(SourceKOPIS, domain.EnvKOPISAPIKey)
	}
	return NewQuery(k.base, path).AddSecret("service", k.key), nil
}

func (k *KOPIS) SearchPerformances(ctx context.Context, filter PerformanceFilter) ([]domain.Performance, error) {
	q, err := k.query("pblprfr")
	if err != nil {
		return nil, err
	}
	q = q.Add("stdate", filter.From).
		Add("eddate", filter.To).
		Add("cpage", "1").
		Add("rows", strconv.Itoa(filter.Limit)).
		AddIf("shprfnm", filter.Keyword).
		AddIf("shcate", filter.GenreCode).
		AddIf("signgucode", filter.RegionCode)

	records, err := k.client.FetchXMLList(ctx, SourceKOPIS, q, performanceListMap)
	if err != nil {
		return nil, err
	}
	performances := make([]domain.Performance, 0, len(records))
	for _, record := range records {
		performances = append(performances, performanceFromRecord(record))
	}
	return performances, nil
}

// Performance fetches one performance. found is false when the response has no named record.
func (k *KOPIS) Performance(ctx context.Context, id string) (domain.PerformanceDetail, bool, error) {
	q, err := k.query("pblprfr/" + url.PathEscape(id))
	if err != nil {
		return domain.PerformanceDetail{}, false, err
	}
	record, found, err := k.client.FetchXMLSingle(ctx, SourceKOPIS, q, performanceDetailMap)
	if err != nil || !found {
		return domain.PerformanceDetail{}, false, err
	}
	detail := domain.PerformanceDetail{
		Performance: performanceFromRecord(record),
		Cast:        record.Get("prfcast"),
		Crew:        record.Get("prfcrew"),
		Runtime:     record.Get("prfruntime"),
		AgeLimit:    record.Get("prfage"),
		Price:       record.Get("pcseguidance"),
		Schedule:    record.Get("dtguidance"),
		StyleURLs:   slices.DeleteFunc(record.List("styurl"), isBlank),
	}
	if detail.Name == "" {
		return domain.PerformanceDetail{}, false, nil
	}
	return detail, true, nil
}

func (k *KOPIS) SearchFacilities(ctx context.Context, filter FacilityFilter) ([]domain.Facility, error) {
	q, err := k.query("prfplc")
	if err != nil {
		return nil, err
	}
	q = q.Add("cpage", "1").
		Add("rows", strconv.Itoa(filter.Limit)).
		AddIf("shprfnmfct", filter.Name).
		AddIf("signgucode", filter.RegionCode)

	records, err := k.client.FetchXMLList(ctx, SourceKOPIS, q, facilityListMap)
	if err != nil {
		return nil, err
	}
	facilities := make([]domain.Facility, 0, len(records))
	for _, record := range records {
		facilities = append(facilities, facilityFromRecord(record))
	}
	return facilities, nil
}

func (k *KOPIS) Facility(ctx context.Context, id string) (domain.FacilityDetail, bool, error) {
	q, err := k.query("prfplc/" + url.PathEscape(id))
	if err != nil {
		return domain.FacilityDetail{}, false, err
	}
	record, found, err := k.client.FetchXMLSingle(ctx, SourceKOPIS, q, facilityDetailMap)
	if err != nil || !found {
		return domain.FacilityDetail{}, false, err
	}
	detail := domain.FacilityDetail{
		Facility:    facilityFromRecord(record),
		Parking:     record.Get("parkinglot"),
		Restaurant:  record.Get("restaurant"),
		Cafe:        record.Get("cafe"),
		Store:       record.Get("store"),
		Playroom:    record.Get("nolibang"),
		NursingRoom: record.Get("suyu"),
		BarrierFree: record.Get("barrier"),
	}
	for _, hall := range record.Child("mt13") {
		detail.Halls = append(detail.Halls, domain.Hall{
			ID:           hall.Get("mt13id"),
			Name:         hall.Get("prfplcnm"),
			SeatCount:    hall.Get("seatscale"),
			OrchestraPit: hall.Get("stageorchat"),
			StagePit:     hall.Get("stagepitchat"),
			StageWidth:   hall.Get("stagewichat"),
			StageHeight:  hall.Get("stagehechat"),
		})
	}
	return detail, true, nil
}

func performanceFromRecord(record domain.Record) domain.Performance {
	return domain.Performance{
		ID:      record.Key,
		Name:    record.Get("prfnm"),
		From:    record.Get("prfpdfrom"),
		To:      record.Get("prfpdto"),
		Venue:   record.Get("fcltynm"),
		Poster:  record.Get("poster"),
		Genre:   record.Get("genrenm"),
		State:   record.Get("prfstate"),
		OpenRun: record.Get("openrun"),
		Area:    record.Get("area"),
	}
}

func facilityFromRecord(record domain.Record) domain.Facility {
	return domain.Facility{
		ID:        record.Key,
		Name:      record.Get("fcltynm"),
		HallCount: record.Get("mt13cnt"),
		Character: record.Get("fcltychartr"),
		Sido:      record.Get("sidonm"),
		Gugun:     record.Get("gugunnm"),
		OpenYear:  record.Get("opende"),
		SeatCount: record.Get("seatscale"),
		Tel:       record.Get("telno"),
		Website:   record.Get("relateurl"),
		Address:   record.Get("adres"),
		Latitude:  record.Get("la"),
		Longitude: record.Get("lo"),
	}
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
