//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rdapgate/internal/rdap"
	"rdapgate/pkg/platform/sentinel"
	"rdapgate/pkg/testutil/containers"
)

type RedisStoreIntegrationSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisStore(s.redis.Client)
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreIntegrationSuite) TestMissReturnsNotFound() {
	_, err := s.store.Get(s.ctx, testKey("missing.example"))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreIntegrationSuite) TestRoundTrip() {
	key := testKey("example.com")
	record := rdap.NormalizedRecord{
		Registry:    "verisign",
		Name:        "example.com",
		Status:      []string{"active"},
		Nameservers: []string{"a.iana-servers.net", "b.iana-servers.net"},
	}

	s.Require().NoError(s.store.Set(s.ctx, key, record, time.Minute))

	got, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(record.Registry, got.Registry)
	s.Equal(record.Name, got.Name)
	s.Equal(record.Status, got.Status)
	s.Equal(record.Nameservers, got.Nameservers)
}

func (s *RedisStoreIntegrationSuite) TestTTLExpiry() {
	key := testKey("short.example")

	s.Require().NoError(s.store.Set(s.ctx, key, recordNamed("short"), 100*time.Millisecond))

	_, err := s.store.Get(s.ctx, key)
	s.Require().NoError(err)

	time.Sleep(200 * time.Millisecond)

	_, err = s.store.Get(s.ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreIntegrationSuite) TestDelete() {
	key := testKey("example.com")

	s.Require().NoError(s.store.Set(s.ctx, key, recordNamed("example.com"), time.Minute))
	s.Require().NoError(s.store.Delete(s.ctx, key))

	_, err := s.store.Get(s.ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreIntegrationSuite) TestCorruptEntryReadsAsMiss() {
	key := testKey("corrupt.example")
	s.Require().NoError(s.redis.Client.Set(s.ctx, "rdapgate:record:"+key.String(), "not-json", time.Minute).Err())

	_, err := s.store.Get(s.ctx, key)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
