package database

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolStatsCollector_NotNil(t *testing.T) {
	// NewPoolStatsCollector should return a non-nil collector even with nil pool.
	// (Collect will panic with nil pool, but Describe works.)
	c := NewPoolStatsCollector(nil, "ellabib-server")
	require.NotNil(t, c)
	assert.Equal(t, "ellabib-server", c.service)
}

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(nil, "ellabib-server")

	ch := make(chan *prometheus.Desc, 20)
	c.Describe(ch)
	close(ch)

	descs := make([]*prometheus.Desc, 0, 20)
	for d := range ch {
		descs = append(descs, d)
	}

	// Should have exactly 12 metric descriptors.
	assert.Len(t, descs, 12)
}

func TestPoolStatsCollector_ImplementsCollector(t *testing.T) {
	c := NewPoolStatsCollector(nil, "ellabib-server")

	// Verify interface compliance at compile time via type assertion.
	var _ prometheus.Collector = c
}

func TestPoolStatsCollector_DescriptorNames(t *testing.T) {
	c := NewPoolStatsCollector(nil, "ellabib-server")

	ch := make(chan *prometheus.Desc, 20)
	c.Describe(ch)
	close(ch)

	descStrings := make([]string, 0, 20)
	for d := range ch {
		descStrings = append(descStrings, d.String())
	}

	expectedNames := []string{
		"db_pool_acquired_connections",
		"db_pool_idle_connections",
		"db_pool_total_connections",
		"db_pool_max_connections",
		"db_pool_constructing_connections",
		"db_pool_acquire_count_total",
		"db_pool_acquire_duration_seconds_total",
		"db_pool_canceled_acquire_count_total",
		"db_pool_empty_acquire_count_total",
		"db_pool_new_connections_total",
		"db_pool_max_lifetime_destroy_total",
		"db_pool_max_idle_destroy_total",
	}

	for _, name := range expectedNames {
		found := false
		for _, desc := range descStrings {
			if strings.Contains(desc, name) {
				found = true
				break
			}
		}
		assert.True(t, found, "expected descriptor containing %q", name)
	}
}
