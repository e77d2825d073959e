package repository

import (
    "context"
    "regexp"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const lockQuery = `SELECT seat_number FROM purchases WHERE trip_id = ? AND seat_number IN (?,?) FOR UPDATE`

var insertRE = regexp.MustCompile(`INSERT INTO purchases`)

func newMockRepo(t *testing.T) (*PurchaseRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    return NewPurchaseRepo(db), mock
}

func TestCheckAndInsertCommitsAllSeats(t *testing.T) {
    repo, mock := newMockRepo(t)

    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
        WithArgs(7, "A1", "A2").
        WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
    mock.ExpectExec(insertRE.String()).
        WillReturnResult(sqlmock.NewResult(101, 1))
    mock.ExpectExec(insertRE.String()).
        WillReturnResult(sqlmock.NewResult(102, 1))
    mock.ExpectCommit()

    purchases, err := repo.CheckAndInsert(context.Background(), 7, []string{"A1", "A2"}, 3)
    require.NoError(t, err)
    require.Len(t, purchases, 2)
    assert.Equal(t, uint64(101), purchases[0].ID)
    assert.Equal(t, "A1", purchases[0].SeatNumber)
    assert.Equal(t, uint64(102), purchases[1].ID)
    assert.Equal(t, "A2", purchases[1].SeatNumber)
    for _, p := range purchases {
        assert.Equal(t, uint64(7), p.TripID)
        assert.Equal(t, uint64(3), p.UserID)
        assert.NotEmpty(t, p.ReceiptToken)
        assert.False(t, p.PurchaseTime.IsZero())
    }
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAndInsertRejectsOnPreRead(t *testing.T) {
    repo, mock := newMockRepo(t)

    // A2 is already sold: the lock scan finds it and the whole request
    // rolls back before any insert.
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
        WithArgs(7, "A1", "A2").
        WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow("A2"))
    mock.ExpectRollback()

    _, err := repo.CheckAndInsert(context.Background(), 7, []string{"A1", "A2"}, 3)
    var sold *SoldSeatsError
    require.ErrorAs(t, err, &sold)
    assert.Equal(t, []string{"A2"}, sold.Seats)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAndInsertDuplicateKeyRace(t *testing.T) {
    repo, mock := newMockRepo(t)

    // A competitor committed A2 between our lock scan and our insert;
    // the unique index turns that into ER_DUP_ENTRY and nothing
    // commits, including the A1 row already written in-tx.
    mock.ExpectBegin()
    mock.ExpectQuery(regexp.QuoteMeta(lockQuery)).
        WithArgs(7, "A1", "A2").
        WillReturnRows(sqlmock.NewRows([]string{"seat_number"}))
    mock.ExpectExec(insertRE.String()).
        WillReturnResult(sqlmock.NewResult(101, 1))
    mock.ExpectExec(insertRE.String()).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-A2' for key 'uq_trip_seat'"})
    mock.ExpectRollback()

    _, err := repo.CheckAndInsert(context.Background(), 7, []string{"A1", "A2"}, 3)
    var sold *SoldSeatsError
    require.ErrorAs(t, err, &sold)
    assert.Equal(t, []string{"A2"}, sold.Seats)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAndInsertEmptySeats(t *testing.T) {
    repo, mock := newMockRepo(t)
    _, err := repo.CheckAndInsert(context.Background(), 7, nil, 3)
    require.Error(t, err)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestListSoldSeats(t *testing.T) {
    repo, mock := newMockRepo(t)

    mock.ExpectQuery(regexp.QuoteMeta(`SELECT seat_number FROM purchases WHERE trip_id = ?`)).
        WithArgs(7).
        WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow("A1").AddRow("B3"))

    seats, err := repo.ListSoldSeats(context.Background(), 7)
    require.NoError(t, err)
    assert.Equal(t, []string{"A1", "B3"}, seats)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByReceiptTokenNotFound(t *testing.T) {
    repo, mock := newMockRepo(t)

    mock.ExpectQuery("SELECT id, trip_id, seat_number").
        WithArgs("no-such-token").
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "trip_id", "seat_number", "user_id", "purchase_time", "receipt_token", "created_at",
        }))

    _, err := repo.FindByReceiptToken(context.Background(), "no-such-token")
    assert.ErrorIs(t, err, ErrPurchaseNotFound)
    require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByTrip(t *testing.T) {
    repo, mock := newMockRepo(t)

    mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM purchases WHERE trip_id = ?`)).
        WithArgs(9).
        WillReturnResult(sqlmock.NewResult(0, 4))

    n, err := repo.DeleteByTrip(context.Background(), 9)
    require.NoError(t, err)
    assert.Equal(t, int64(4), n)
    require.NoError(t, mock.ExpectationsWereMet())
}
