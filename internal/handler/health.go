package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// KeepAlive pings the database so external uptime monitors also keep
// the connection pool warm.  It reports 500 when the database does not
// respond within the timeout.
func KeepAlive(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "DB not responding"})
        }
        return c.JSON(http.StatusOK, echo.Map{"ok": true, "ts": time.Now().UnixMilli()})
    }
}
