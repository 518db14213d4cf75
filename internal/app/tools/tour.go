package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kculture/internal/domain"
	"kculture/internal/infra/render"
	"kculture/internal/infra/upstream"
)

type festivalView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Address   string `json:"address"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Tel       string `json:"tel"`
	Image     string `json:"image"`
}

type festivalDoc struct {
	Keyword   *string        `json:"keyword"`
	Region    *string        `json:"region"`
	Month     string         `json:"month"`
	Count     int            `json:"count"`
	Festivals []festivalView `json:"festivals"`
}

func (d festivalDoc) Markdown() string {
	var md render.Markdown
	title := "🎉 " + strings.TrimLeft(d.Month, "0") + "월 축제"
	if d.Region != nil {
		title = "🎉 " + *d.Region + " " + strings.TrimLeft(d.Month, "0") + "월 축제"
	}
	md.Heading(1, title)
	if d.Keyword != nil {
		md.Quotef("검색 키워드: %s", *d.Keyword)
		md.Blank()
	}
	if d.Count == 0 {
		md.Line("검색된 축제가 없습니다. 다른 월이나 지역을 검색해보세요.")
		return md.String()
	}
	md.Linef("총 **%d**개의 축제", d.Count)
	md.Blank()
	for _, f := range d.Festivals {
		md.Heading(3, "🎊 "+f.Title)
		md.Bullet("기간", render.Date(f.StartDate)+" ~ "+render.Date(f.EndDate))
		md.Bullet("장소", render.OrDefault(f.Address, "-"))
		if f.Tel != "" {
			md.Bullet("문의", f.Tel)
		}
		md.Blank()
	}
	return md.String()
}

// festivalMonth resolves the month argument to 1..12, defaulting to the current month.
func festivalMonth(value FlexString, now time.Time) (int, error) {
	text := strings.TrimSpace(string(value))
	if text == "" {
		return int(now.Month()), nil
	}
	month, err := strconv.Atoi(text)
	if err != nil || month < 1 || month > 12 {
		return 0, invalid("month는 1부터 12 사이의 값이어야 합니다.")
	}
	return month, nil
}

func (s *Service) searchFestival(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args festivalArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	now := s.today()
	month, err := festivalMonth(args.Month, now)
	if err != nil {
		return nil, err
	}
	first := time.Date(now.Year(), time.Month(month), 1, 0, 0, 0, 0, s.location)
	last := first.AddDate(0, 1, -1)

	keyword := strings.TrimSpace(args.Keyword)
	region := strings.TrimSpace(args.Region)
	limit := clampLimit(args.Limit, domain.ListMaxLimit)
	items, err := s.tour.Festivals(ctx, yyyymmdd(first), yyyymmdd(last), s.lookups.AreaCode(region), limit)
	if err != nil {
		return nil, err
	}

	doc := festivalDoc{
		Keyword:   nullable(keyword),
		Region:    nullable(region),
		Month:     fmt.Sprintf("%02d", month),
		Festivals: make([]festivalView, 0, len(items)),
	}
	needle := strings.ToLower(keyword)
	for _, item := range items {
		if len(doc.Festivals) == limit {
			break
		}
		if needle != "" && !strings.Contains(strings.ToLower(item.Title), needle) {
			continue
		}
		doc.Festivals = append(doc.Festivals, festivalView{
			ID:        item.ContentID,
			Title:     item.Title,
			Address:   render.JoinAddress(item.Addr1, item.Addr2),
			StartDate: item.EventStart,
			EndDate:   item.EventEnd,
			Tel:       item.Tel,
			Image:     item.Image,
		})
	}
	doc.Count = len(doc.Festivals)
	return doc, nil
}

type placeView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Address string `json:"address"`
	Tel     string `json:"tel"`
	Image   string `json:"image"`
	MapX    string `json:"mapx"`
	MapY    string `json:"mapy"`
}

func newPlaceViews(items []domain.TourItem) []placeView {
	views := make([]placeView, 0, len(items))
	for _, item := range items {
		views = append(views, placeView{
			ID:      item.ContentID,
			Title:   item.Title,
			Address: render.JoinAddress(item.Addr1, item.Addr2),
			Tel:     item.Tel,
			Image:   item.Image,
			MapX:    item.MapX,
			MapY:    item.MapY,
		})
	}
	return views
}

func writePlaces(md *render.Markdown, places []placeView) {
	for _, p := range places {
		md.Heading(3, p.Title)
		md.Bullet("주소", render.OrDefault(p.Address, "-"))
		if p.Tel != "" {
			md.Bullet("전화", p.Tel)
		}
		if p.MapX != "" && p.MapY != "" {
			md.Linef("- 📍 [지도에서 보기](%s)", render.MapLink(p.Title, p.MapY, p.MapX))
		}
		md.Blank()
	}
}

type touristSpotDoc struct {
	Keyword  *string     `json:"keyword"`
	Region   *string     `json:"region"`
	Category string      `json:"category"`
	Count    int         `json:"count"`
	Spots    []placeView `json:"spots"`
}

func (d touristSpotDoc) Markdown() string {
	var md render.Markdown
	title := "🏞️ " + d.Category + " 검색 결과"
	if d.Region != nil {
		title = "🏞️ " + *d.Region + " " + d.Category + " 검색 결과"
	}
	md.Heading(1, title)
	if d.Keyword != nil {
		md.Quotef("검색 키워드: %s", *d.Keyword)
		md.Blank()
	}
	if d.Count == 0 {
		md.Linef("검색된 %s가 없습니다.", d.Category)
		return md.String()
	}
	md.Linef("총 **%d**곳", d.Count)
	md.Blank()
	writePlaces(&md, d.Spots)
	return md.String()
}

func (s *Service) searchTouristSpot(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args touristSpotArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(args.Category)
	if category == "" {
		category = domain.DefaultTouristCategory
	}
	contentType := s.lookups.ContentTypeID(category)
	if contentType == "" {
		contentType = domain.DefaultTouristContentTypeID
	}
	keyword := strings.TrimSpace(args.Keyword)
	region := strings.TrimSpace(args.Region)
	limit := clampLimit(args.Limit, domain.ListMaxLimit)
	items, err := s.tour.Search(ctx, upstream.TourFilter{
		Keyword:       keyword,
		AreaCode:      s.lookups.AreaCode(region),
		ContentTypeID: contentType,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	items = firstN(items, limit)
	return touristSpotDoc{
		Keyword:  nullable(keyword),
		Region:   nullable(region),
		Category: category,
		Count:    len(items),
		Spots:    newPlaceViews(items),
	}, nil
}

type restaurantDoc struct {
	Keyword     *string     `json:"keyword"`
	Region      *string     `json:"region"`
	Count       int         `json:"count"`
	Restaurants []placeView `json:"restaurants"`
}

func (d restaurantDoc) Markdown() string {
	var md render.Markdown
	title := "🍽️ 음식점 검색 결과"
	if d.Region != nil {
		title = "🍽️ " + *d.Region + " 음식점 검색 결과"
	}
	md.Heading(1, title)
	if d.Keyword != nil {
		md.Quotef("검색 키워드: %s", *d.Keyword)
		md.Blank()
	}
	if d.Count == 0 {
		md.Line("검색된 음식점이 없습니다.")
		return md.String()
	}
	md.Linef("총 **%d**곳", d.Count)
	md.Blank()
	writePlaces(&md, d.Restaurants)
	return md.String()
}

func (s *Service) searchRestaurant(ctx context.Context, raw json.RawMessage) (render.Document, error) {
	var args restaurantArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	keyword := strings.TrimSpace(args.Keyword)
	region := strings.TrimSpace(args.Region)
	limit := clampLimit(args.Limit, domain.ListMaxLimit)
	items, err := s.tour.Search(ctx, upstream.TourFilter{
		Keyword:       keyword,
		AreaCode:      s.lookups.AreaCode(region),
		ContentTypeID: domain.RestaurantContentTypeID,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	items = firstN(items, limit)
	return restaurantDoc{
		Keyword:     nullable(keyword),
		Region:      nullable(region),
		Count:       len(items),
		Restaurants: newPlaceViews(items),
	}, nil
}
