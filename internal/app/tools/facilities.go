package tools

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/aggregator"
	"kculture/internal/infra/render"
	"kculture/internal/infra/telemetry"
	"kculture/internal/infra/upstream"
)

type hallView struct {
	Name         string `json:"name"`
	Seats        string `json:"seats"`
	StageWidth   string `json:"stageWidth,omitempty"`
	StageHeight  string `json:"stageHeight,omitempty"`
	OrchestraPit string `json:"orchestraPit,omitempty"`
}

type facilityView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Area        string     `json:"area"`
	Address     string     `json:"address"`
	SeatCount   string     `json:"seatCount"`
	Tel         string     `json:"tel"`
	Website     string     `json:"website"`
	OpenDate    *string    `json:"openDate"`
	Parking     *string    `json:"parking"`
	Restaurant  *string    `json:"restaurant"`
	Cafe        *string    `json:"cafe"`
	Store       *string    `json:"store"`
	BarrierFree *string    `json:"barrierFree"`
	NursingRoom *string    `json:"nursingRoom"`
	Halls       []hallView `json:"halls"`

	// Markdown-only fields.
	playroom  string
	latitude  string
	longitude string
}

type facilityDoc struct {
	Keyword    *string        `json:"keyword"`
	Region     *string        `json:"region"`
	Count      int            `json:"count"`
	Facilities []facilityView `json:"facilities"`
}

// mergeFacility overlays the detail record on the summary: non-empty detail
// values win, blank ones fall back to the summary.
func mergeFacility(summary domain.Facility, detail domain.FacilityDetail) domain.FacilityDetail {
	merged := detail
	f := &merged.Facility
	f.ID = render.FirstNonEmpty(f.ID, summary.ID)
	f.Name = render.FirstNonEmpty(f.Name, summary.Name)
	f.HallCount = render.FirstNonEmpty(f.HallCount, summary.HallCount)
	f.Character = render.FirstNonEmpty(f.Character, summary.Character)
	f.Sido = render.FirstNonEmpty(f.Sido, summary.Sido)
	f.Gugun = render.FirstNonEmpty(f.Gugun, summary.Gugun)
	f.OpenYear = render.FirstNonEmpty(f.OpenYear, summary.OpenYear)
	f.SeatCount = render.FirstNonEmpty(f.SeatCount, summary.SeatCount)
	f.Tel = render.FirstNonEmpty(f.Tel, summary.Tel)
	f.Website = render.FirstNonEmpty(f.Website, summary.Website)
	f.Address = render.FirstNonEmpty(f.Address, summary.Address)
	f.Latitude = render.FirstNonEmpty(f.Latitude, summary.Latitude)
	f.Longitude = render.FirstNonEmpty(f.Longitude, summary.Longitude)
	return merged
}

func newFacilityView(f domain.Facility) facilityView {
	return facilityView{
		ID:        f.ID,
		Name:      f.Name,
		Type:      f.Character,
		Area:      render.JoinAddress(f.Sido, f.Gugun),
		Address:   f.Address,
		SeatCount: f.SeatCount,
		Tel:       f.Tel,
		Website:   f.Website,
		Halls:     []hallView{},
		latitude:  f.Latitude,
		longitude: f.Longitude,
	}
}

func newEnrichedFacilityView(detail domain.FacilityDetail) facilityView {
	view := newFacilityView(detail.Facility)
	view.OpenDate = nullable(detail.OpenYear)
	view.Parking = nullable(detail.Parking)
	view.Restaurant = nullable(detail.Restaurant)
	view.Cafe = nullable(detail.Cafe)
	view.Store = nullable(detail.Store)
	view.BarrierFree = nullable(detail.BarrierFree)
	view.NursingRoom = nullable(detail.NursingRoom)
	view.playroom = detail.Playroom
	for _, hall := range detail.Halls {
		view.Halls = append(view.Halls, hallView{
			Name:         hall.Name,
			Seats:        hall.SeatCount,
			StageWidth:   hall.StageWidth,
			StageHeight:  hall.StageHeight,
			OrchestraPit: hall.OrchestraPit,
		})
	}
	return view
}

func available(value *string) bool {
	return value != nil && *value == "Y"
}

func (v facilityView) amenities() []string {
	var badges []string
	if available(v.Parking) {
		badges = append(badges, "🅿️ 주차장")
	}
	if available(v.Restaurant) {
		badges = append(badges, "🍽️ 레스토랑")
	}
	if available(v.Cafe) {
		badges = append(badges, "☕ 카페")
	}
	if available(v.Store) {
		badges = append(badges, "🏪 편의점")
	}
	if available(v.NursingRoom) {
		badges = append(badges, "👶 수유실")
	}
	if available(v.BarrierFree) {
		badges = append(badges, "♿ 장애인시설")
	}
	if v.playroom == "Y" {
		badges = append(badges, "🎤 노래방")
	}
	return badges
}

func (d facilityDoc) Markdown() string {
	var md render.Markdown
	md.Heading(1, "🏛️ 공연장 검색 결과")
	if d.Count == 0 {
		md.Line("검색된 공연장이 없습니다.")
		return md.String()
	}
	md.Linef("총 **%d**개의 공연장", d.Count)
	md.Blank()
	for _, f := range d.Facilities {
		md.Heading(2, f.Name)
		md.TableHeader()
		md.RowIf("시설특성", f.Type)
		md.RowIf("지역", f.Area)
		md.RowIf("주소", f.Address)
		if f.SeatCount != "" {
			md.Row("객석수", f.SeatCount+"석")
		}
		md.RowIf("전화번호", f.Tel)
		if f.OpenDate != nil {
			md.Row("개관연도", *f.OpenDate)
		}
		if f.Website != "" {
			md.Row("홈페이지", "["+f.Website+"]("+f.Website+")")
		}
		md.Blank()

		if len(f.Halls) > 0 {
			md.Heading(3, "🎭 공연장 내 홀")
			for _, hall := range f.Halls {
				md.Linef("- **%s**: %s석", hall.Name, render.OrDefault(hall.Seats, "-"))
				var dims []string
				if hall.StageWidth != "" {
					dims = append(dims, "폭 "+hall.StageWidth+"m")
				}
				if hall.StageHeight != "" {
					dims = append(dims, "높이 "+hall.StageHeight+"m")
				}
				if hall.OrchestraPit == "Y" {
					dims = append(dims, "오케스트라피트 있음")
				}
				if len(dims) > 0 {
					md.Linef("  - 무대: %s", strings.Join(dims, ", "))
				}
			}
			md.Blank()
		}
		if badges := f.amenities(); len(badges) > 0 {
			md.Heading(3, "🏢 편의시설")
			md.Line(strings.Join(badges, " | "))
			md.Blank()
		}
		if f.latitude != "" && f.longitude != "" {
			md.Linef("📍 [지도에서 보기](%s)", render.MapLink(f.Name, f.latitude, f.longitude))
			md.Blank()
		}
	}
	return md.String()
}

func (s *Service) facilityInfo(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args facilityArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(args.FacilityName)
	region := strings.TrimSpace(args.Region)
	limit := clampLimit(args.Limit, domain.ListMaxLimit)
	facilities, err := s.performances.SearchFacilities(ctx, upstream.FacilityFilter{
		Name:       name,
		RegionCode: s.lookups.RegionCode(region),
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	facilities = firstN(facilities, limit)

	doc := facilityDoc{
		Keyword:    nullable(name),
		Region:     nullable(region),
		Count:      len(facilities),
		Facilities: make([]facilityView, 0, len(facilities)),
	}
	if len(facilities) == 0 || len(facilities) > domain.EnrichmentThreshold {
		for _, f := range facilities {
			doc.Facilities = append(doc.Facilities, newFacilityView(f))
		}
		return doc, nil
	}

	outcomes := aggregator.Map(ctx, facilities, func(ctx context.Context, f domain.Facility) (domain.FacilityDetail, error) {
		detail, found, err := s.performances.Facility(ctx, f.ID)
		if err != nil {
			return domain.FacilityDetail{}, err
		}
		if !found {
			return domain.FacilityDetail{}, domain.ErrNotFound
		}
		return detail, nil
	})
	logger := telemetry.LoggerWithRequest(ctx, s.logger)
	for i, outcome := range outcomes {
		if !outcome.OK() {
			logger.Debug("facility detail unavailable",
				telemetry.EventField(telemetry.EventEnrichment),
				zap.String("facility_id", facilities[i].ID),
				zap.Error(outcome.Err),
			)
			doc.Facilities = append(doc.Facilities, newFacilityView(facilities[i]))
			continue
		}
		doc.Facilities = append(doc.Facilities, newEnrichedFacilityView(mergeFacility(facilities[i], outcome.Value)))
	}
	return doc, nil
}
