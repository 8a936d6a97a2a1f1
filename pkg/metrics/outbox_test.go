package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsCountPerEventType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncPublished("order_placed")
	m.IncPublished("order_placed")
	m.IncRetried("payment_failed")
	m.IncDeadLettered("cart_merged", "max_attempts")

	mfs := gather(t, reg)
	require.Equal(t, 2.0, sample(t, mfs, "storefront_outbox_published_total", labels{"event_type": "order_placed"}).GetCounter().GetValue())
	require.Equal(t, 1.0, sample(t, mfs, "storefront_outbox_retry_total", labels{"event_type": "payment_failed"}).GetCounter().GetValue())
	require.Equal(t, 1.0, sample(t, mfs, "storefront_outbox_dead_lettered_total", labels{"event_type": "cart_merged", "reason": "max_attempts"}).GetCounter().GetValue())
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.IncPublished("order_placed")
	NewOutboxMetrics(nil).IncDeadLettered("order_placed", "non_retryable")
}
