package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockOracle/internal/domain/models"
	xlogger "StockOracle/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertHubBroadcastsEvents(t *testing.T) {
	hub := NewAlertHub(xlogger.Nop(), []string{"*"})
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.OnAlert(context.Background(), models.AlertEvent{
		Ticker: "AAPL",
		Op:     models.AlertOpStart,
		Snapshot: &models.AlertSnapshot{
			Ticker:         "AAPL",
			ReferencePrice: decimal.NewFromInt(100),
			Threshold:      decimal.NewFromInt(15),
			Active:         true,
		},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.AlertEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "AAPL", ev.Ticker)
	assert.Equal(t, models.AlertOpStart, ev.Op)
	require.NotNil(t, ev.Snapshot)
	assert.True(t, ev.Snapshot.Threshold.Equal(decimal.NewFromInt(15)))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestAlertHubRejectsForeignOrigin(t *testing.T) {
	hub := NewAlertHub(xlogger.Nop(), []string{"https://dash.example.com"})
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts"
	header := map[string][]string{"Origin": {"https://evil.example.com"}}
	_, _, err := websocket.DefaultDialer.Dial(url, header)
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Clients())
}
