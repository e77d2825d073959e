package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"

    "github.com/iliyamo/bus-seat-reservation/internal/model"
)

// mysqlDupEntry is the MySQL error number for a unique constraint
// violation (ER_DUP_ENTRY).
const mysqlDupEntry = 1062

// PurchaseRepo provides data access to the purchases table, the single
// source of truth for "sold".  Rows are written exactly once through
// CheckAndInsert and are protected by UNIQUE (trip_id, seat_number).
// All timestamps are UTC.
type PurchaseRepo struct {
    db *sql.DB
}

// NewPurchaseRepo returns a new PurchaseRepo bound to the provided database.
func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// DB exposes the underlying handle for callers that need to open their
// own transactions (e.g. the keep-alive ping).
func (r *PurchaseRepo) DB() *sql.DB { return r.db }

// CheckAndInsert records the sale of every seat in the list to userID
// within one transaction, or records nothing at all.  The transaction
// first takes row locks over any existing purchases for the requested
// seats (SELECT ... FOR UPDATE); if any row exists the whole
// transaction aborts with a *SoldSeatsError naming the blockers.
// Otherwise one row per seat is inserted and the transaction commits.
//
// The locking pre-read and the unique index are deliberately layered:
// the pre-read rejects before any partial work, and the index catches
// the race where a competing transaction commits between our lock scan
// and our insert.  A duplicate-key failure at insert time rolls back
// and is reported exactly like a pre-read conflict.
func (r *PurchaseRepo) CheckAndInsert(ctx context.Context, tripID uint64, seats []string, userID uint64) ([]model.Purchase, error) {
    if len(seats) == 0 {
        return nil, errors.New("no seats to purchase")
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("begin purchase tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Locking pre-read over the requested seat set.  Existing rows are
    // returned and block the whole request; absent rows are gap-locked
    // until commit on InnoDB default isolation.
    placeholders := strings.Repeat(",?", len(seats))[1:]
    query := fmt.Sprintf(
        `SELECT seat_number FROM purchases WHERE trip_id = ? AND seat_number IN (%s) FOR UPDATE`,
        placeholders,
    )
    args := make([]interface{}, 0, len(seats)+1)
    args = append(args, tripID)
    for _, s := range seats {
        args = append(args, s)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, fmt.Errorf("lock sold seats: %w", err)
    }
    var taken []string
    for rows.Next() {
        var seat string
        if scanErr := rows.Scan(&seat); scanErr != nil {
            rows.Close()
            return nil, scanErr
        }
        taken = append(taken, seat)
    }
    if err = rows.Close(); err != nil {
        return nil, err
    }
    if len(taken) > 0 {
        return nil, &SoldSeatsError{Seats: taken}
    }

    now := time.Now().UTC()
    purchases := make([]model.Purchase, 0, len(seats))
    const ins = `INSERT INTO purchases (trip_id, seat_number, user_id, purchase_time, receipt_token)
                 VALUES (?, ?, ?, ?, ?)`
    for _, seat := range seats {
        token := uuid.NewString()
        res, err := tx.ExecContext(ctx, ins, tripID, seat, userID, now.Format("2006-01-02 15:04:05"), token)
        if err != nil {
            var me *mysql.MySQLError
            if errors.As(err, &me) && me.Number == mysqlDupEntry {
                // Race lost after the pre-read; same outcome as a
                // pre-read conflict, nothing commits.
                return nil, &SoldSeatsError{Seats: []string{seat}}
            }
            return nil, fmt.Errorf("insert purchase: %w", err)
        }
        id, err := res.LastInsertId()
        if err != nil {
            return nil, err
        }
        purchases = append(purchases, model.Purchase{
            ID:           uint64(id),
            TripID:       tripID,
            SeatNumber:   seat,
            UserID:       userID,
            PurchaseTime: now,
            ReceiptToken: token,
        })
    }
    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("commit purchase tx: %w", err)
    }
    committed = true
    return purchases, nil
}

// ListSoldSeats returns the seat labels sold for a trip.
func (r *PurchaseRepo) ListSoldSeats(ctx context.Context, tripID uint64) ([]string, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT seat_number FROM purchases WHERE trip_id = ?`, tripID)
    if err != nil {
        return nil, fmt.Errorf("list sold seats: %w", err)
    }
    defer rows.Close()
    var seats []string
    for rows.Next() {
        var seat string
        if err := rows.Scan(&seat); err != nil {
            return nil, err
        }
        seats = append(seats, seat)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}

// FindByReceiptToken returns the purchase identified by its receipt
// token.  Re-requesting the same token always resolves to the same
// row, which keeps invoice rendering idempotent.
func (r *PurchaseRepo) FindByReceiptToken(ctx context.Context, token string) (*model.Purchase, error) {
    const q = `SELECT id, trip_id, seat_number, user_id, purchase_time, receipt_token, created_at
               FROM purchases WHERE receipt_token = ?`
    var p model.Purchase
    err := r.db.QueryRowContext(ctx, q, token).Scan(
        &p.ID, &p.TripID, &p.SeatNumber, &p.UserID, &p.PurchaseTime, &p.ReceiptToken, &p.CreatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrPurchaseNotFound
    }
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// DeleteByTrip removes every purchase for a trip and returns how many
// rows were deleted.  This is the administrative reset used by demos
// and sits outside the correctness guarantees of the ledger.
func (r *PurchaseRepo) DeleteByTrip(ctx context.Context, tripID uint64) (int64, error) {
    res, err := r.db.ExecContext(ctx, `DELETE FROM purchases WHERE trip_id = ?`, tripID)
    if err != nil {
        return 0, fmt.Errorf("reset purchases: %w", err)
    }
    return res.RowsAffected()
}
