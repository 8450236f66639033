package store

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// Record is the fastest win for one pair count.
type Record struct {
	Elapsed  time.Duration
	Achieved time.Time
}

// Records keeps local best times on top of a [Store].
type Records struct {
	s *Store
}

func NewRecords(s *Store) *Records {
	return &Records{s}
}

func recordKey(pairs int) string {
	return "best:" + strconv.Itoa(pairs)
}

// Best returns the record for pairs, or ok == false if there is none yet.
func (r *Records) Best(ctx context.Context, pairs int) (rec Record, ok bool, err error) {
	err = r.s.Get(ctx, recordKey(pairs), &rec)
	if errors.Is(err, ErrNotFound) {
		return Record{}, false, nil
	} else if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Submit stores elapsed as the record for pairs if it beats the current one.
func (r *Records) Submit(
	ctx context.Context, pairs int, elapsed time.Duration,
) (improved bool, err error) {
	best, ok, err := r.Best(ctx, pairs)
	if err != nil {
		return false, err
	}
	if ok && best.Elapsed <= elapsed {
		return false, nil
	}
	rec := Record{Elapsed: elapsed, Achieved: time.Now().UTC()}
	if err := r.s.Set(ctx, recordKey(pairs), rec); err != nil {
		return false, err
	}
	return true, nil
}
