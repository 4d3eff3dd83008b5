//go:build integration

package nettrust_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"attendly/internal/nettrust"
	platformredis "attendly/internal/platform/redis"
	"attendly/pkg/testutil/containers"
)

type CachedProbeSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	client   *platformredis.Client
	upstream *httptest.Server
	hits     atomic.Int32
}

func TestCachedProbeSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedProbeSuite))
}

func (s *CachedProbeSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.client = &platformredis.Client{Client: s.redis.Client}

	s.upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"proxy":true,"hosting":false}`))
	}))
}

func (s *CachedProbeSuite) TearDownSuite() {
	s.upstream.Close()
}

func (s *CachedProbeSuite) SetupTest() {
	s.hits.Store(0)
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *CachedProbeSuite) newProbe(ttl time.Duration) nettrust.Probe {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inner := nettrust.NewHTTPProbe(s.upstream.URL, time.Second, logger)
	return nettrust.NewCachedProbe(inner, s.client, ttl, logger)
}

func (s *CachedProbeSuite) TestVerdictServedFromCache() {
	probe := s.newProbe(time.Minute)
	ctx := context.Background()

	s.True(probe.IsUntrusted(ctx, "203.0.113.9"))
	s.True(probe.IsUntrusted(ctx, "203.0.113.9"))
	s.True(probe.IsUntrusted(ctx, "203.0.113.9"))

	s.Equal(int32(1), s.hits.Load(), "repeat lookups must hit the cache, not the upstream")
}

func (s *CachedProbeSuite) TestDistinctAddressesProbedSeparately() {
	probe := s.newProbe(time.Minute)
	ctx := context.Background()

	s.True(probe.IsUntrusted(ctx, "203.0.113.9"))
	s.True(probe.IsUntrusted(ctx, "203.0.113.10"))

	s.Equal(int32(2), s.hits.Load())
}

func (s *CachedProbeSuite) TestExpiredEntryProbedAgain() {
	probe := s.newProbe(time.Second)
	ctx := context.Background()

	s.True(probe.IsUntrusted(ctx, "203.0.113.9"))
	time.Sleep(1500 * time.Millisecond)
	s.True(probe.IsUntrusted(ctx, "203.0.113.9"))

	s.Equal(int32(2), s.hits.Load(), "the verdict must be re-probed after the TTL")
}
