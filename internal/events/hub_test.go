package events

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"kohisync_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastsToConnectedClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	defer hub.Close()

	router := gin.New()
	router.GET("/feed", hub.ServeWS)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.KioskOrderSubmitted(&models.Order{ID: 42, OrderNumber: "KIOSK-000042", Channel: models.ChannelKiosk})

	var ev Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, TypeKioskOrderSubmitted, ev.Type)
	require.NotNil(t, ev.Order)
	assert.Equal(t, "KIOSK-000042", ev.Order.OrderNumber)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub([]string{"https://pos.example.com"})
	defer hub.Close()

	router := gin.New()
	router.GET("/feed", hub.ServeWS)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/feed"
	header := map[string][]string{"Origin": {"https://evil.example.com"}}
	_, _, err := websocket.DefaultDialer.Dial(url, header)
	assert.Error(t, err)
	assert.Zero(t, hub.ClientCount())
}

func TestHub_BroadcastWithoutClientsIsNoop(t *testing.T) {
	hub := NewHub(nil)
	hub.OrderCompleted(&models.Order{ID: 1})
	hub.Close()
	assert.Zero(t, hub.ClientCount())
}
