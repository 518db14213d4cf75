// Package upstream fetches and decodes the public culture APIs. Every call
// carries its own timeout, is never retried, and reports failures as
// *domain.Error values with UPSTREAM_TIMEOUT or UPSTREAM_FAILURE codes.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"kculture/internal/domain"
	"kculture/internal/infra/markup"
	"kculture/internal/infra/telemetry"
)

type Source string

const (
	SourceKOBIS   Source = "kobis"
	SourceKOPIS   Source = "kopis"
	SourceTourAPI Source = "tourapi"
)

func (s Source) Label() string {
	switch s {
	case SourceKOBIS:
		return "KOBIS"
	case SourceKOPIS:
		return "KOPIS"
	case SourceTourAPI:
		return "TourAPI"
	default:
		return string(s)
	}
}

// Failure kinds stored under domain.MetaKind.
const (
	KindTimeout = "timeout"
	KindNetwork = "network"
	KindStatus  = "status"
	KindDecode  = "decode"
	KindConfig  = "config"
)

const maxResponseBytes = 8 << 20

// HealthRecorder receives the outcome of every fetch.
type HealthRecorder interface {
	RecordUpstream(source string, err error)
}

type ClientOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zap.Logger
	Metrics    domain.Metrics
	Health     HealthRecorder
	UserAgent  string
}

type Client struct {
	http      *http.Client
	timeout   time.Duration
	logger    *zap.Logger
	metrics   domain.Metrics
	health    HealthRecorder
	userAgent string
}

func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultUpstreamTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = domain.ServerName
	}
	return &Client{
		http:      httpClient,
		timeout:   timeout,
		logger:    logger.Named("upstream").With(zap.String(telemetry.FieldLogSource, telemetry.LogSourceUpstream)),
		metrics:   metrics,
		health:    opts.Health,
		userAgent: userAgent,
	}
}

// FetchRaw performs one GET and returns the response body.
func (c *Client) FetchRaw(ctx context.Context, source Source, query Query) ([]byte, error) {
	start := time.Now()
	body, outcome, err := c.do(ctx, source, query)
	duration := time.Since(start)

	c.metrics.ObserveUpstream(string(source), outcome, duration)
	if c.health != nil {
		c.health.RecordUpstream(string(source), err)
	}

	logger := telemetry.LoggerWithRequest(ctx, c.logger).With(
		telemetry.SourceField(string(source)),
		telemetry.EndpointField(query.Redacted()),
		telemetry.DurationField(duration),
	)
	if err != nil {
		logger.Warn("upstream fetch failed",
			telemetry.EventField(telemetry.EventUpstreamFailure),
			telemetry.OutcomeField(string(outcome)),
			zap.Error(err),
		)
		return nil, err
	}
	logger.Debug("upstream fetch", telemetry.EventField(telemetry.EventUpstreamFetch), zap.Int("bytes", len(body)))
	return body, nil
}

func (c *Client) do(ctx context.Context, source Source, query Query) ([]byte, domain.UpstreamOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, query.URL(), nil)
	if err != nil {
		return nil, domain.UpstreamOutcomeNetwork, failure(source, KindNetwork, "요청을 만들 수 없습니다", stripURL(err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		err = stripURL(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.UpstreamOutcomeTimeout, c.timeoutError(source, err)
		}
		return nil, domain.UpstreamOutcomeNetwork, failure(source, KindNetwork, "연결에 실패했습니다", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.UpstreamOutcomeTimeout, c.timeoutError(source, err)
		}
		return nil, domain.UpstreamOutcomeNetwork, failure(source, KindNetwork, "응답을 읽는 중 연결이 끊겼습니다", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := failure(source, KindStatus, fmt.Sprintf("HTTP %d 응답", resp.StatusCode), nil).
			WithMeta(domain.MetaStatus, strconv.Itoa(resp.StatusCode))
		return nil, domain.UpstreamOutcomeStatus, err
	}
	return body, domain.UpstreamOutcomeSuccess, nil
}

// FetchJSON decodes the response body into out.
func (c *Client) FetchJSON(ctx context.Context, source Source, query Query, out any) error {
	body, err := c.FetchRaw(ctx, source, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return failure(source, KindDecode, "응답을 해석할 수 없습니다", err)
	}
	return nil
}

// FetchXMLList decodes every fm.Item block of the response.
func (c *Client) FetchXMLList(ctx context.Context, source Source, query Query, fm markup.FieldMap) ([]domain.Record, error) {
	body, err := c.FetchRaw(ctx, source, query)
	if err != nil {
		return nil, err
	}
	return markup.DecodeAll(string(body), fm), nil
}

// FetchXMLSingle decodes the first fm.Item block. found is false when the
// response carries no record with a key.
func (c *Client) FetchXMLSingle(ctx context.Context, source Source, query Query, fm markup.FieldMap) (domain.Record, bool, error) {
	records, err := c.FetchXMLList(ctx, source, query, fm)
	if err != nil {
		return domain.Record{}, false, err
	}
	if len(records) == 0 {
		return domain.Record{}, false, nil
	}
	return records[0], true, nil
}

func (c *Client) timeoutError(source Source, cause error) *domain.Error {
	msg := fmt.Sprintf("%s 응답 시간이 초과되었습니다 (%dms)", source.Label(), c.timeout.Milliseconds())
	return domain.E(domain.CodeUpstreamTimeout, "upstream."+string(source), msg, errors.Join(domain.ErrUpstreamTimeout, cause)).
		WithMeta(domain.MetaSource, string(source)).
		WithMeta(domain.MetaKind, KindTimeout)
}

func failure(source Source, kind, msg string, cause error) *domain.Error {
	text := source.Label() + " " + msg
	if cause != nil {
		text = fmt.Sprintf("%s: %v", text, cause)
	}
	return domain.E(domain.CodeUpstreamFailure, "upstream."+string(source), text, cause).
		WithMeta(domain.MetaSource, string(source)).
		WithMeta(domain.MetaKind, kind)
}

// stripURL drops the request URL, which carries credentials, from transport errors.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func missingKey(source Source, envVar string) *domain.Error {
	return domain.E(domain.CodeUpstreamFailure, "upstream."+string(source),
		envVar+" 환경 변수가 설정되지 않았습니다", domain.ErrMissingAPIKey).
		WithMeta(domain.MetaSource, string(source)).
		WithMeta(domain.MetaKind, KindConfig)
}
