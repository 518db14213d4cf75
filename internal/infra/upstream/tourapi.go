package upstream

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"kculture/internal/domain"
	"kculture/internal/infra/markup"
)

// TourAPI is the tourism information API (JSON, wrapped in response.header/body).
type TourAPI struct {
	client    *Client
	base      string
	key       string
	mobileOS  string
	mobileApp string
}

func NewTourAPI(client *Client, cfg domain.TourSourceConfig) *TourAPI {
	base := cfg.BaseURL
	if base == "" {
		base = domain.DefaultTourAPIBaseURL
	}
	mobileOS := cfg.MobileOS
	if mobileOS == "" {
		mobileOS = domain.DefaultTourMobileOS
	}
	mobileApp := cfg.MobileApp
	if mobileApp == "" {
		mobileApp = domain.DefaultTourMobileApp
	}
	return &TourAPI{
		client:    client,
		base:      base,
		key:       cfg.APIKey,
		mobileOS:  mobileOS,
		mobileApp: mobileApp,
	}
}

const tourResultOK = "0000"

// TourFilter describes a TourAPI list request.
type TourFilter struct {
	Keyword       string
	AreaCode      string
	ContentTypeID string
	Limit         int
}

func (t *TourAPI) query(operation, arrange string, limit int) (Query, error) {
	if t.key == "" {
		return Query{}, missingKey(SourceTourAPI, domain.EnvTourAPIKey)
	}
	// The portal expects the decoded service key encoded exactly once.
	return NewQuery(t.base, operation).
		AddSecret("serviceKey", url.QueryEscape(t.key)).
		Add("numOfRows", strconv.Itoa(limit)).
		Add("pageNo", "1").
		Add("MobileOS", t.mobileOS).
		Add("MobileApp", t.mobileApp).
		Add("_type", "json").
		Add("listYN", "Y").
		Add("arrange", arrange), nil
}

// Festivals lists events overlapping the [start, end] window (YYYYMMDD).
func (t *TourAPI) Festivals(ctx context.Context, start, end, areaCode string, limit int) ([]domain.TourItem, error) {
	q, err := t.query("searchFestival2", "A", limit)
	if err != nil {
		return nil, err
	}
	q = q.Add("eventStartDate", start).
		Add("eventEndDate", end).
		AddIf("areaCode", areaCode)
	return t.fetch(ctx, q)
}

// Search uses the keyword endpoint when filter.Keyword is set and the
// area-based list otherwise.
func (t *TourAPI) Search(ctx context.Context, filter TourFilter) ([]domain.TourItem, error) {
	operation := "areaBasedList2"
	if filter.Keyword != "" {
		operation = "searchKeyword2"
	}
	q, err := t.query(operation, "P", filter.Limit)
	if err != nil {
		return nil, err
	}
	q = q.AddIf("keyword", filter.Keyword).
		Add("contentTypeId", filter.ContentTypeID).
		AddIf("areaCode", filter.AreaCode)
	return t.fetch(ctx, q)
}

func (t *TourAPI) fetch(ctx context.Context, q Query) ([]domain.TourItem, error) {
	body, err := t.client.FetchRaw(ctx, SourceTourAPI, q)
	if err != nil {
		return nil, err
	}
	return decodeTourItems(body)
}

// decodeTourItems normalizes response.body.items.item, which arrives as an
// array, a single object or an empty string depending on the result count.
func decodeTourItems(body []byte) ([]domain.TourItem, error) {
	if !gjson.ValidBytes(body) {
		// Gateway-level errors come back as XML regardless of _type.
		text := string(body)
		msg := markup.ExtractValue(text, "returnAuthMsg")
		if msg == "" {
			msg = markup.ExtractValue(text, "errMsg")
		}
		if msg == "" {
			msg = "응답을 해석할 수 없습니다"
		}
		return nil, failure(SourceTourAPI, KindDecode, msg, nil)
	}

	root := gjson.ParseBytes(body)
	if code := root.Get("response.header.resultCode"); code.Exists() && code.String() != tourResultOK {
		msg := strings.TrimSpace(root.Get("response.header.resultMsg").String())
		if msg == "" {
			msg = "오류 코드 " + code.String()
		}
		return nil, failure(SourceTourAPI, KindStatus, msg, nil)
	}

	node := root.Get("response.body.items.item")
	var raw []gjson.Result
	switch {
	case node.IsArray():
		raw = node.Array()
	case node.IsObject():
		raw = []gjson.Result{node}
	}

	items := make([]domain.TourItem, 0, len(raw))
	for _, item := range raw {
		decoded := domain.TourItem{
			ContentID:     item.Get("contentid").String(),
			ContentTypeID: item.Get("contenttypeid").String(),
			Title:         item.Get("title").String(),
			Addr1:         item.Get("addr1").String(),
			Addr2:         item.Get("addr2").String(),
			AreaCode:      item.Get("areacode").String(),
			Image:         item.Get("firstimage").String(),
			MapX:          item.Get("mapx").String(),
			MapY:          item.Get("mapy").String(),
			Tel:           item.Get("tel").String(),
			EventStart:    item.Get("eventstartdate").String(),
			EventEnd:      item.Get("eventenddate").String(),
		}
		if decoded.ContentID == "" {
			continue
		}
		items = append(items, decoded)
	}
	return items, nil
}
