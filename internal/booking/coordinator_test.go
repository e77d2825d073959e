package booking

import (
    "context"
    "fmt"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/bus-seat-reservation/internal/model"
    "github.com/iliyamo/bus-seat-reservation/internal/repository"
    "github.com/iliyamo/bus-seat-reservation/internal/ws"
)

// fakeHoldStore is an in-memory stand-in for the Redis hold store.  A
// mutex makes create-if-absent atomic so concurrency tests exercise the
// same exclusivity contract the real store provides.
type fakeHoldStore struct {
    mu    sync.Mutex
    holds map[string]*model.Hold
}

func newFakeHoldStore() *fakeHoldStore {
    return &fakeHoldStore{holds: make(map[string]*model.Hold)}
}

func key(tripID uint64, seat string) string {
    return fmt.Sprintf("%d:%s", tripID, seat)
}

func (f *fakeHoldStore) TryCreateHold(_ context.Context, tripID uint64, seat string, userID uint64, ttl time.Duration) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    k := key(tripID, seat)
    if _, ok := f.holds[k]; ok {
        return false, nil
    }
    f.holds[k] = &model.Hold{
        TripID:     tripID,
        SeatNumber: seat,
        UserID:     userID,
        TTLSeconds: int64(ttl / time.Second),
        CreatedAt:  time.Now().UTC(),
    }
    return true, nil
}

func (f *fakeHoldStore) GetHold(_ context.Context, tripID uint64, seat string) (*model.Hold, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.holds[key(tripID, seat)], nil
}

func (f *fakeHoldStore) ReleaseHold(_ context.Context, tripID uint64, seat string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    delete(f.holds, key(tripID, seat))
    return nil
}

func (f *fakeHoldStore) ListHeldSeats(_ context.Context, tripID uint64) ([]string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var seats []string
    for _, h := range f.holds {
        if h.TripID == tripID {
            seats = append(seats, h.SeatNumber)
        }
    }
    return seats, nil
}

// fakeLedger mimics the purchase repository's all-or-nothing contract.
type fakeLedger struct {
    mu   sync.Mutex
    sold map[string]uint64 // key -> buyer
}

func newFakeLedger() *fakeLedger {
    return &fakeLedger{sold: make(map[string]uint64)}
}

func (f *fakeLedger) CheckAndInsert(_ context.Context, tripID uint64, seats []string, userID uint64) ([]model.Purchase, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var taken []string
    for _, s := range seats {
        if _, ok := f.sold[key(tripID, s)]; ok {
            taken = append(taken, s)
        }
    }
    if len(taken) > 0 {
        return nil, &repository.SoldSeatsError{Seats: taken}
    }
    now := time.Now().UTC()
    purchases := make([]model.Purchase, 0, len(seats))
    for _, s := range seats {
        f.sold[key(tripID, s)] = userID
        purchases = append(purchases, model.Purchase{
            TripID: tripID, SeatNumber: s, UserID: userID, PurchaseTime: now,
        })
    }
    return purchases, nil
}

func (f *fakeLedger) ListSoldSeats(_ context.Context, tripID uint64) ([]string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    prefix := fmt.Sprintf("%d:", tripID)
    var seats []string
    for k := range f.sold {
        if strings.HasPrefix(k, prefix) {
            seats = append(seats, strings.TrimPrefix(k, prefix))
        }
    }
    return seats, nil
}

// recorder captures published events in order.
type recorder struct {
    mu     sync.Mutex
    events []ws.SeatEvent
}

func (r *recorder) Publish(ev ws.SeatEvent) {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
    r.mu.Lock()
    defer r.mu.Unlock()
    out := make([]string, 0, len(r.events))
    for _, ev := range r.events {
        out = append(out, ev.Type)
    }
    return out
}

func newTestCoordinator() (*Coordinator, *fakeHoldStore, *fakeLedger, *recorder) {
    holds := newFakeHoldStore()
    ledger := newFakeLedger()
    rec := &recorder{}
    return New(holds, ledger, rec), holds, ledger, rec
}

func TestHoldPartialSuccess(t *testing.T) {
    coord, _, _, rec := newTestCoordinator()
    ctx := context.Background()

    first := coord.Hold(ctx, 7, []string{"A1"}, 1, 2*time.Minute)
    require.True(t, first.Success())

    res := coord.Hold(ctx, 7, []string{"A1", "A2"}, 2, 2*time.Minute)
    assert.True(t, res.Success())
    assert.Equal(t, []string{"A2"}, res.Held)
    require.Len(t, res.Conflicts, 1)
    assert.Equal(t, "A1", res.Conflicts[0].SeatNumber)
    assert.Equal(t, ReasonAlreadyHeld, res.Conflicts[0].Reason)

    // One seat-held per acquired hold, none for the conflict.
    assert.Equal(t, []string{ws.EventSeatHeld, ws.EventSeatHeld}, rec.types())
}

func TestConcurrentHoldsExactlyOneWins(t *testing.T) {
    coord, _, _, _ := newTestCoordinator()
    ctx := context.Background()

    const holders = 16
    results := make([]HoldResult, holders)
    var wg sync.WaitGroup
    for i := 0; i < holders; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            results[i] = coord.Hold(ctx, 7, []string{"C3"}, uint64(i+1), time.Minute)
        }(i)
    }
    wg.Wait()

    wins := 0
    for _, r := range results {
        if r.Success() {
            wins++
        } else {
            require.Len(t, r.Conflicts, 1)
            assert.Equal(t, ReasonAlreadyHeld, r.Conflicts[0].Reason)
        }
    }
    assert.Equal(t, 1, wins)
}

func TestPurchaseRequiresOwnHold(t *testing.T) {
    coord, _, _, rec := newTestCoordinator()
    ctx := context.Background()

    require.True(t, coord.Hold(ctx, 7, []string{"A1"}, 1, time.Minute).Success())

    // Holder 2 owns nothing; the whole request is rejected and no
    // store is touched.
    _, err := coord.Purchase(ctx, 7, []string{"A1", "B1"}, 2)
    var notHeld *NotHeldError
    require.ErrorAs(t, err, &notHeld)
    assert.ElementsMatch(t, []string{"A1", "B1"}, notHeld.Seats)

    // Holder 1's hold survives and no sale event fired.
    h, err := coord.holds.GetHold(ctx, 7, "A1")
    require.NoError(t, err)
    require.NotNil(t, h)
    assert.Equal(t, uint64(1), h.UserID)
    assert.NotContains(t, rec.types(), ws.EventSeatSold)
}

func TestPurchaseHappyPath(t *testing.T) {
    coord, holds, _, rec := newTestCoordinator()
    ctx := context.Background()

    require.True(t, coord.Hold(ctx, 7, []string{"A1", "A2"}, 1, 2*time.Minute).Success())

    purchases, err := coord.Purchase(ctx, 7, []string{"A1", "A2"}, 1)
    require.NoError(t, err)
    require.Len(t, purchases, 2)

    // Holds are gone after commit.
    for _, seat := range []string{"A1", "A2"} {
        h, err := holds.GetHold(ctx, 7, seat)
        require.NoError(t, err)
        assert.Nil(t, h)
    }
    // Broadcast order: holds first, then sales; never a release in
    // between since the sale supersedes it.
    assert.Equal(t, []string{
        ws.EventSeatHeld, ws.EventSeatHeld,
        ws.EventSeatSold, ws.EventSeatSold,
    }, rec.types())
}

func TestPurchaseLedgerConflictKeepsHolds(t *testing.T) {
    coord, holds, ledger, rec := newTestCoordinator()
    ctx := context.Background()

    // Seat A2 was sold through another channel after the hold check:
    // the pathological race the ledger must win.
    _, err := ledger.CheckAndInsert(ctx, 7, []string{"A2"}, 99)
    require.NoError(t, err)

    require.True(t, coord.Hold(ctx, 7, []string{"A1"}, 1, time.Minute).Success())
    require.True(t, coord.Hold(ctx, 7, []string{"A2"}, 1, time.Minute).Success())

    _, err = coord.Purchase(ctx, 7, []string{"A1", "A2"}, 1)
    var sold *repository.SoldSeatsError
    require.ErrorAs(t, err, &sold)
    assert.Equal(t, []string{"A2"}, sold.Seats)

    // All-or-nothing: A1 did not commit and both holds survive.
    soldSeats, err := ledger.ListSoldSeats(ctx, 7)
    require.NoError(t, err)
    assert.NotContains(t, soldSeats, "A1")
    h, err := holds.GetHold(ctx, 7, "A1")
    require.NoError(t, err)
    assert.NotNil(t, h)
    assert.NotContains(t, rec.types(), ws.EventSeatSold)
}

func TestConcurrentPurchaseSameSeatOneCommits(t *testing.T) {
    coord, _, _, _ := newTestCoordinator()
    ctx := context.Background()

    // Two holders end up racing the ledger for the same seat: simulate
    // by holding, then releasing the hold check barrier via direct
    // ledger contention on different coordinators sharing one ledger.
    require.True(t, coord.Hold(ctx, 7, []string{"D4"}, 1, time.Minute).Success())

    var wg sync.WaitGroup
    errs := make([]error, 2)
    for i := 0; i < 2; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = coord.Purchase(ctx, 7, []string{"D4"}, 1)
        }(i)
    }
    wg.Wait()

    committed := 0
    for _, err := range errs {
        if err == nil {
            committed++
        }
    }
    // Exactly one transaction commits; the loser sees either the
    // ledger conflict or the already-released hold.
    assert.Equal(t, 1, committed)
}

// brokenReleaseStore simulates a hold store that commits holds fine
// but fails every release, as when Redis drops between the ledger
// commit and the cleanup.
type brokenReleaseStore struct {
    *fakeHoldStore
}

func (b *brokenReleaseStore) ReleaseHold(context.Context, uint64, string) error {
    return fmt.Errorf("connection refused")
}

func TestPurchaseSucceedsWhenCleanupFails(t *testing.T) {
    holds := &brokenReleaseStore{newFakeHoldStore()}
    ledger := newFakeLedger()
    rec := &recorder{}
    coord := New(holds, ledger, rec)
    ctx := context.Background()

    require.True(t, coord.Hold(ctx, 7, []string{"A1"}, 1, time.Minute).Success())

    // The ledger commit decides the outcome; the stuck hold just
    // expires on its own TTL.
    purchases, err := coord.Purchase(ctx, 7, []string{"A1"}, 1)
    require.NoError(t, err)
    require.Len(t, purchases, 1)
    assert.Equal(t, "A1", purchases[0].SeatNumber)

    soldSeats, err := ledger.ListSoldSeats(ctx, 7)
    require.NoError(t, err)
    assert.Equal(t, []string{"A1"}, soldSeats)
    assert.Contains(t, rec.types(), ws.EventSeatSold)
}

func TestReleaseIsIdempotent(t *testing.T) {
    coord, _, _, rec := newTestCoordinator()
    ctx := context.Background()

    require.NoError(t, coord.Release(ctx, 7, "Z9"))
    require.NoError(t, coord.Release(ctx, 7, "Z9"))
    assert.Equal(t, []string{ws.EventSeatReleased, ws.EventSeatReleased}, rec.types())
}

func TestTripStatusUnion(t *testing.T) {
    coord, _, ledger, _ := newTestCoordinator()
    ctx := context.Background()

    _, err := ledger.CheckAndInsert(ctx, 7, []string{"A1"}, 9)
    require.NoError(t, err)
    require.True(t, coord.Hold(ctx, 7, []string{"B2"}, 1, time.Minute).Success())

    sold, held, err := coord.TripStatus(ctx, 7)
    require.NoError(t, err)
    assert.Equal(t, []string{"A1"}, sold)
    assert.Equal(t, []string{"B2"}, held)
}
