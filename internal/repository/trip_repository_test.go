package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/bus-seat-reservation/internal/model"
)

func newMockTripRepo(t *testing.T) (*TripRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewTripRepo(db), mock
}

func TestTripCreateStoresLayoutJSON(t *testing.T) {
    repo, mock := newMockTripRepo(t)

    dep := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
    trip := &model.BusTrip{
        RouteDetails:  "Tehran -> Isfahan",
        DepartureTime: dep,
        ArrivalTime:   dep.Add(6 * time.Hour),
        BusType:       "standard",
        Layout:        model.SeatLayout{Rows: 2, SeatsPerRow: 2},
        PricePerSeat:  250000,
        SaleDuration:  60,
    }

    mock.ExpectExec("INSERT INTO bus_trips").
        WithArgs(
            "Tehran -> Isfahan",
            "2026-09-01 08:00:00",
            "2026-09-01 14:00:00",
            "standard",
            []byte(`{"rows":2,"seatsPerRow":2}`),
            250000.0,
            60,
        ).
        WillReturnResult(sqlmock.NewResult(11, 1))

    require.NoError(t, repo.Create(context.Background(), trip))
    assert.Equal(t, uint64(11), trip.ID)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestTripGetByIDDecodesLayout(t *testing.T) {
    repo, mock := newMockTripRepo(t)

    now := time.Now().UTC()
    mock.ExpectQuery("SELECT id, route_details").
        WithArgs(uint64(11)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "route_details", "departure_time", "arrival_time", "bus_type", "layout",
            "price_per_seat", "sale_duration", "created_at", "updated_at",
        }).AddRow(11, "Tehran -> Isfahan", now, now.Add(6*time.Hour), "standard",
            []byte(`{"rows":4,"seatsPerRow":12}`), 250000.0, 60, now, now))

    trip, err := repo.GetByID(context.Background(), 11)
    require.NoError(t, err)
    assert.Equal(t, uint64(11), trip.ID)
    assert.Equal(t, model.SeatLayout{Rows: 4, SeatsPerRow: 12}, trip.Layout)
    assert.Len(t, trip.Layout.SeatLabels(), 48)
}

func TestTripGetByIDNotFound(t *testing.T) {
    repo, mock := newMockTripRepo(t)

    mock.ExpectQuery("SELECT id, route_details").
        WithArgs(uint64(99)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "route_details", "departure_time", "arrival_time", "bus_type", "layout",
            "price_per_seat", "sale_duration", "created_at", "updated_at",
        }))

    _, err := repo.GetByID(context.Background(), 99)
    assert.ErrorIs(t, err, ErrTripNotFound)
    require.NoError(t, mock.ExpectationsWereMet())
}
