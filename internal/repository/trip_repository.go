package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/iliyamo/bus-seat-reservation/internal/model"
)

// TripRepo provides data access to the bus_trips table.  The seat
// state machine treats trips as immutable reference data: it only ever
// reads the layout to validate seat labels.
type TripRepo struct {
    db *sql.DB
}

// NewTripRepo returns a new TripRepo bound to the provided database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying handle.
func (r *TripRepo) DB() *sql.DB { return r.db }

// Create inserts a new trip and populates its ID.  The seat layout is
// stored as a JSON column so the schema does not change when bus
// configurations do.
func (r *TripRepo) Create(ctx context.Context, t *model.BusTrip) error {
    layout, err := json.Marshal(t.Layout)
    if err != nil {
        return fmt.Errorf("marshal layout: %w", err)
    }
    const q = `INSERT INTO bus_trips
               (route_details, departure_time, arrival_time, bus_type, layout, price_per_seat, sale_duration)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        t.RouteDetails,
        t.DepartureTime.UTC().Format("2006-01-02 15:04:05"),
        t.ArrivalTime.UTC().Format("2006-01-02 15:04:05"),
        t.BusType,
        layout,
        t.PricePerSeat,
        t.SaleDuration,
    )
    if err != nil {
        return fmt.Errorf("insert trip: %w", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    return nil
}

// List returns all trips ordered by departure time ascending.
func (r *TripRepo) List(ctx context.Context) ([]model.BusTrip, error) {
    const q = `SELECT id, route_details, departure_time, arrival_time, bus_type, layout,
                      price_per_seat, sale_duration, created_at, updated_at
               FROM bus_trips ORDER BY departure_time ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, fmt.Errorf("list trips: %w", err)
    }
    defer rows.Close()
    var trips []model.BusTrip
    for rows.Next() {
        t, err := scanTrip(rows.Scan)
        if err != nil {
            return nil, err
        }
        trips = append(trips, *t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return trips, nil
}

// GetByID returns a single trip or ErrTripNotFound.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.BusTrip, error) {
    const q = `SELECT id, route_details, departure_time, arrival_time, bus_type, layout,
                      price_per_seat, sale_duration, created_at, updated_at
               FROM bus_trips WHERE id = ?`
    t, err := scanTrip(r.db.QueryRowContext(ctx, q, id).Scan)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrTripNotFound
    }
    if err != nil {
        return nil, err
    }
    return t, nil
}

// scanTrip reads one bus_trips row through the supplied scan function
// and decodes the JSON layout column.
func scanTrip(scan func(dest ...interface{}) error) (*model.BusTrip, error) {
    var t model.BusTrip
    var layout []byte
    if err := scan(
        &t.ID, &t.RouteDetails, &t.DepartureTime, &t.ArrivalTime, &t.BusType, &layout,
        &t.PricePerSeat, &t.SaleDuration, &t.CreatedAt, &t.UpdatedAt,
    ); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(layout, &t.Layout); err != nil {
        return nil, fmt.Errorf("unmarshal layout: %w", err)
    }
    return &t, nil
}
