package ws

import (
    "encoding/json"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func startHubServer(t *testing.T) (*Hub, string) {
    t.Helper()
    hub := NewHub()
    go hub.Run()

    e := echo.New()
    e.GET("/ws", Serve(hub))
    srv := httptest.NewServer(e)
    t.Cleanup(srv.Close)

    return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
    t.Helper()
    conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
    require.NoError(t, err)
    if resp != nil {
        resp.Body.Close()
    }
    t.Cleanup(func() { _ = conn.Close() })
    return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) SeatEvent {
    t.Helper()
    require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
    _, payload, err := conn.ReadMessage()
    require.NoError(t, err)
    var ev SeatEvent
    require.NoError(t, json.Unmarshal(payload, &ev))
    return ev
}

func TestPublishReachesAllClients(t *testing.T) {
    hub, url := startHubServer(t)

    a := dial(t, url)
    b := dial(t, url)

    // Registration races the publish; give the hub goroutine a beat.
    time.Sleep(50 * time.Millisecond)

    hub.Publish(SeatHeld(7, "A1", 3, 120))

    for _, conn := range []*websocket.Conn{a, b} {
        ev := readEvent(t, conn)
        assert.Equal(t, EventSeatHeld, ev.Type)
        assert.Equal(t, uint64(7), ev.TripID)
        assert.Equal(t, "A1", ev.SeatNumber)
        assert.Equal(t, uint64(3), ev.UserID)
        assert.Equal(t, int64(120), ev.TTLSeconds)
    }
}

func TestPublishOrderPreserved(t *testing.T) {
    hub, url := startHubServer(t)

    conn := dial(t, url)
    time.Sleep(50 * time.Millisecond)

    hub.Publish(SeatHeld(7, "A1", 3, 60))
    hub.Publish(SeatSold(7, "A1", 3))

    first := readEvent(t, conn)
    second := readEvent(t, conn)
    assert.Equal(t, EventSeatHeld, first.Type)
    assert.Equal(t, EventSeatSold, second.Type)
}

func TestReleaseEventOmitsUserAndTTL(t *testing.T) {
    hub, url := startHubServer(t)

    conn := dial(t, url)
    time.Sleep(50 * time.Millisecond)

    hub.Publish(SeatReleased(7, "B2"))

    require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
    _, payload, err := conn.ReadMessage()
    require.NoError(t, err)
    assert.NotContains(t, string(payload), "userId")
    assert.NotContains(t, string(payload), "ttlSeconds")
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
    hub, url := startHubServer(t)

    early := dial(t, url)
    time.Sleep(50 * time.Millisecond)
    hub.Publish(SeatHeld(7, "A1", 1, 60))
    _ = readEvent(t, early)

    late := dial(t, url)
    time.Sleep(50 * time.Millisecond)
    hub.Publish(SeatSold(7, "A1", 1))

    // The late client only sees events published after it connected.
    ev := readEvent(t, late)
    assert.Equal(t, EventSeatSold, ev.Type)
}

func TestDisconnectedClientIsReaped(t *testing.T) {
    hub, url := startHubServer(t)

    conn := dial(t, url)
    keeper := dial(t, url)
    time.Sleep(50 * time.Millisecond)

    require.NoError(t, conn.Close())
    time.Sleep(50 * time.Millisecond)

    // Publishing after the disconnect must not wedge the hub; the
    // surviving client still receives.
    hub.Publish(SeatReleased(7, "C3"))
    ev := readEvent(t, keeper)
    assert.Equal(t, EventSeatReleased, ev.Type)
}
