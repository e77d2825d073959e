// Package database opens the MySQL connection pool backing the
// purchase ledger and the trip/user catalog.
package database

import (
    "context"
    "database/sql"
    "fmt"
    "os"
    "strconv"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection with a short
// ping.  parseTime maps DATETIME columns onto time.Time and loc=UTC
// keeps every timestamp in UTC, which the ledger relies on.
//
// The pool serves short transactions: the ledger's check-and-insert
// holds row locks only for the lifetime of one request, so a modest
// pool with recycled connections beats a large one.  DB_MAX_OPEN_CONNS
// overrides the default when a deployment needs it.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        auth, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }

    maxOpen := 25
    if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            maxOpen = n
        }
    }
    db.SetMaxOpenConns(maxOpen)
    db.SetMaxIdleConns(maxOpen)
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        return nil, err
    }
    return db, nil
}
