package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"kohisync_backend/internal/models"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.OrderCreated(models.ChannelKiosk)
	c.OrderCreated(models.ChannelKiosk)
	c.OrderCompleted(models.ChannelPOS, decimal.RequireFromString("104.50"))
	c.SettlementRejected("out_of_stock")
	c.StockAdjusted(models.AdjustmentCorrection)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ordersCreated.WithLabelValues("kiosk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ordersCompleted.WithLabelValues("pos")))
	assert.Equal(t, 104.5, testutil.ToFloat64(c.revenue))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rejections.WithLabelValues("out_of_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.adjustments.WithLabelValues("correction")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.OrderCreated(models.ChannelPOS)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pos_orders_created_total{channel="pos"} 1`)
}

func TestCollector_WatchDB(t *testing.T) {
	// sql.Open only builds the pool; nothing dials until a query runs.
	db, err := sql.Open("postgres", "host=127.0.0.1 dbname=kohisync sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	c := NewCollector()
	c.WatchDB(db, "kohisync")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `go_sql_open_connections{db_name="kohisync"} 0`)
}
