package invoice

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
    pdf, err := Render(Data{
        TripID:       7,
        RouteDetails: "Tehran -> Isfahan",
        SeatNumber:   "A1",
        UserID:       3,
        PricePerSeat: 250000,
        PurchaseTime: time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
    })
    require.NoError(t, err)
    require.NotEmpty(t, pdf)
    assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestRenderIsDeterministicPerPurchase(t *testing.T) {
    d := Data{
        TripID:       7,
        RouteDetails: "Tehran -> Isfahan",
        SeatNumber:   "B4",
        UserID:       3,
        PricePerSeat: 250000,
        PurchaseTime: time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
    }
    first, err := Render(d)
    require.NoError(t, err)
    second, err := Render(d)
    require.NoError(t, err)
    assert.Equal(t, first, second)
}
