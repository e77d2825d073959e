package ws

import (
    "net/http"
    "time"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"
)

const (
    // writeWait is how long a single write may take before the
    // connection is considered dead.
    writeWait = 10 * time.Second
    // pingInterval matches the original 30 second heartbeat; a client
    // that misses a pong by pongWait is dropped.
    pingInterval = 30 * time.Second
    pongWait     = pingInterval + 10*time.Second
    // sendBuffer bounds the per-client queue; overflowing it drops the
    // client (see Hub.Run).
    sendBuffer = 32
)

var upgrader = websocket.Upgrader{
    ReadBufferSize:  1024,
    WriteBufferSize: 1024,
    // The broadcast stream is public read-only state; any origin may
    // subscribe.
    CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one connected observer.  Exactly one goroutine (writePump)
// writes to the connection, so no write lock is needed; readPump only
// consumes pongs and discards any inbound frames since the server is
// broadcast-only.
type Client struct {
    hub  *Hub
    conn *websocket.Conn
    send chan []byte
}

// Serve is the Echo handler for GET /ws.  It upgrades the connection,
// registers the client with the hub and starts the two pumps.
func Serve(hub *Hub) echo.HandlerFunc {
    return func(c echo.Context) error {
        conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
        if err != nil {
            return err
        }
        client := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBuffer)}
        hub.register <- client
        go client.writePump()
        go client.readPump()
        return nil
    }
}

// readPump keeps the read side alive for pong handling and tears the
// client down when the connection drops.
func (c *Client) readPump() {
    defer func() {
        c.hub.unregister <- c
        _ = c.conn.Close()
    }()
    c.conn.SetReadLimit(512)
    _ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
    c.conn.SetPongHandler(func(string) error {
        return c.conn.SetReadDeadline(time.Now().Add(pongWait))
    })
    for {
        // Inbound messages are ignored; the server only broadcasts.
        if _, _, err := c.conn.ReadMessage(); err != nil {
            return
        }
    }
}

// writePump is the single writer for this connection.  It drains the
// send queue and pings on a fixed interval so dead connections are
// reaped even when no seat events flow.
func (c *Client) writePump() {
    ticker := time.NewTicker(pingInterval)
    defer func() {
        ticker.Stop()
        _ = c.conn.Close()
    }()
    for {
        select {
        case msg, ok := <-c.send:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if !ok {
                // Hub closed the channel: say goodbye.
                _ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
                return
            }
            if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
                return
            }
        case <-ticker.C:
            _ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
            if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        }
    }
}
