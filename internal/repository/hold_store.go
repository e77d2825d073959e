package repository

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/bus-seat-reservation/internal/model"
)

// HoldStore provides access to seat holds kept in Redis.  A hold is a
// single key `hold:{tripID}:{seatNumber}` whose value is the JSON
// encoded hold metadata and whose TTL is the hold's lifetime.  The
// store never deletes expired holds itself; Redis expiry is the only
// cleanup mechanism.
//
// Alongside the per-seat keys, the store maintains a per-trip set
// `trip_holds:{tripID}` of held seat labels so that enumeration does
// not require a key scan.  The set is an optimization, not a source of
// truth: its TTL is refreshed to outlive the longest hold it tracks,
// and it may briefly list a seat whose hold has already expired.
// Correctness-sensitive checks must always go through GetHold.
type HoldStore struct {
    rdb *redis.Client
}

// NewHoldStore returns a HoldStore bound to the provided Redis client.
// The client must be non-nil; unlike caching or rate limiting, the
// hold store cannot degrade gracefully without Redis.
func NewHoldStore(rdb *redis.Client) *HoldStore {
    if rdb == nil {
        panic("nil redis client passed to NewHoldStore")
    }
    return &HoldStore{rdb: rdb}
}

func holdKey(tripID uint64, seat string) string {
    return fmt.Sprintf("hold:%d:%s", tripID, seat)
}

func tripHoldsKey(tripID uint64) string {
    return fmt.Sprintf("trip_holds:%d", tripID)
}

// TryCreateHold atomically creates a hold for (tripID, seat) if and
// only if none exists.  The insert uses a single SET NX EX so that two
// concurrent callers for the same seat can never both succeed; there is
// no check-then-set window.  It returns false when another hold is
// already in place.  On success the seat is added to the per-trip
// index and the index TTL is extended to at least the new hold's TTL.
func (s *HoldStore) TryCreateHold(ctx context.Context, tripID uint64, seat string, userID uint64, ttl time.Duration) (bool, error) {
    h := model.Hold{
        TripID:     tripID,
        SeatNumber: seat,
        UserID:     userID,
        TTLSeconds: int64(ttl / time.Second),
        CreatedAt:  time.Now().UTC(),
    }
    val, err := json.Marshal(h)
    if err != nil {
        return false, fmt.Errorf("marshal hold: %w", err)
    }
    ok, err := s.rdb.SetNX(ctx, holdKey(tripID, seat), val, ttl).Result()
    if err != nil {
        return false, fmt.Errorf("setnx hold: %w", err)
    }
    if !ok {
        return false, nil
    }
    // Maintain the enumeration index.  The set TTL only ever grows so
    // it covers the longest-lived hold currently tracked.  The index
    // is advisory (GetHold is the source of truth), so maintenance
    // failures are logged and the hold that now exists is still
    // reported as created.
    setKey := tripHoldsKey(tripID)
    if err := s.rdb.SAdd(ctx, setKey, seat).Err(); err != nil {
        log.Printf("holds: index sadd failed for trip %d seat %s: %v", tripID, seat, err)
        return true, nil
    }
    cur, err := s.rdb.TTL(ctx, setKey).Result()
    if err != nil {
        log.Printf("holds: index ttl read failed for trip %d: %v", tripID, err)
        return true, nil
    }
    if cur < ttl {
        if err := s.rdb.Expire(ctx, setKey, ttl).Err(); err != nil {
            log.Printf("holds: index expire failed for trip %d: %v", tripID, err)
        }
    }
    return true, nil
}

// GetHold returns the hold for (tripID, seat), or nil when no hold
// exists because it was never created, was released, or has expired.
// This point lookup is the authoritative view of a seat's hold state.
func (s *HoldStore) GetHold(ctx context.Context, tripID uint64, seat string) (*model.Hold, error) {
    raw, err := s.rdb.Get(ctx, holdKey(tripID, seat)).Bytes()
    if errors.Is(err, redis.Nil) {
        return nil, nil
    }
    if err != nil {
        return nil, fmt.Errorf("get hold: %w", err)
    }
    var h model.Hold
    if err := json.Unmarshal(raw, &h); err != nil {
        return nil, fmt.Errorf("unmarshal hold: %w", err)
    }
    return &h, nil
}

// ReleaseHold removes the hold for (tripID, seat) and drops the seat
// from the per-trip index.  It is idempotent: releasing a hold that
// never existed or has already expired is a successful no-op.
func (s *HoldStore) ReleaseHold(ctx context.Context, tripID uint64, seat string) error {
    pipe := s.rdb.Pipeline()
    pipe.Del(ctx, holdKey(tripID, seat))
    pipe.SRem(ctx, tripHoldsKey(tripID), seat)
    if _, err := pipe.Exec(ctx); err != nil {
        return fmt.Errorf("release hold: %w", err)
    }
    return nil
}

// ListHeldSeats enumerates the seats currently held for a trip from
// the per-trip index.  The result is eventually consistent: during the
// TTL propagation window it may include a seat whose hold just
// expired.  Callers needing certainty about a single seat must use
// GetHold instead.
func (s *HoldStore) ListHeldSeats(ctx context.Context, tripID uint64) ([]string, error) {
    seats, err := s.rdb.SMembers(ctx, tripHoldsKey(tripID)).Result()
    if err != nil {
        return nil, fmt.Errorf("list held seats: %w", err)
    }
    return seats, nil
}
