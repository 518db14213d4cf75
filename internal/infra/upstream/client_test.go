package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kculture/internal/domain"
)

type recordingHealth struct {
	mu      sync.Mutex
	sources []string
	errs    []error
}

func (r *recordingHealth) RecordUpstream(source string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
	r.errs = append(r.errs, err)
}

type recordingMetrics struct {
	domain.NoopMetrics
	mu       sync.Mutex
	outcomes []domain.UpstreamOutcome
}

func (r *recordingMetrics) ObserveUpstream(_ string, outcome domain.UpstreamOutcome, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestFetchRaw_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	metrics := &recordingMetrics{}
	health := &recordingHealth{}
	client := NewClient(ClientOptions{Timeout: 50 * time.Millisecond, Metrics: metrics, Health: health})

	start := time.Now()
	_, err := client.FetchRaw(context.Background(), SourceKOBIS, NewQuery(server.URL, "slow"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeUpstreamTimeout, code)
	assert.True(t, errors.Is(err, domain.ErrUpstreamTimeout))
	assert.Contains(t, domain.MessageFrom(err), "50ms")
	assert.Equal(t, []domain.UpstreamOutcome{domain.UpstreamOutcomeTimeout}, metrics.outcomes)
	require.Len(t, health.errs, 1)
	assert.Error(t, health.errs[0])
}

func TestFetchRaw_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{})
	_, err := client.FetchRaw(context.Background(), SourceKOPIS, NewQuery(server.URL, "x"))
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeUpstreamFailure, domainErr.Code)
	assert.Equal(t, KindStatus, domainErr.Meta[domain.MetaKind])
	assert.Equal(t, "502", domainErr.Meta[domain.MetaStatus])
	assert.Equal(t, "kopis", domainErr.Meta[domain.MetaSource])
}

func TestFetchRaw_NetworkErrorHidesCredentials(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := NewClient(ClientOptions{Timeout: time.Second})
	_, err := client.FetchRaw(context.Background(), SourceKOBIS, NewQuery(addr, "x").AddSecret("key", "super-secret"))
	require.Error(t, err)

	code, _ := domain.CodeFrom(err)
	assert.Equal(t, domain.CodeUpstreamFailure, code)
	assert.NotContains(t, err.Error(), "super-secret")
}

func TestFetchJSON_DecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	var out map[string]any
	err := NewClient(ClientOptions{}).FetchJSON(context.Background(), SourceKOBIS, NewQuery(server.URL, "x"), &out)
	require.Error(t, err)

	var domainErr *domain.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, KindDecode, domainErr.Meta[domain.MetaKind])
}

func TestFetchXMLSingle_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<dbs></dbs>"))
	}))
	defer server.Close()

	_, found, err := NewClient(ClientOptions{}).FetchXMLSingle(context.Background(), SourceKOPIS,
		NewQuery(server.URL, "x"), performanceDetailMap)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFetchRaw_SendsUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	_, err := NewClient(ClientOptions{}).FetchRaw(context.Background(), SourceKOBIS, NewQuery(server.URL, ""))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(agent, domain.ServerName))
}
