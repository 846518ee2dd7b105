// This file implements a generic, batched loader that drains positional rows
// from a channel and invokes a bulk-insert function (CopyFn) per batch.
//
// Each batch is committed on its own; a failed batch is retried once and, if
// the retry fails too, loading stops with the error while previously committed
// batches stay in place.
package storage

import (
	"context"
	"fmt"
	"time"

	"tripetl/internal/logging"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to columns) and return the number of rows
// written. A call must be atomic so that it can be retried.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// retryBackoff is the pause before the single retry of a failed batch.
var retryBackoff = 500 * time.Millisecond

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total number of rows
// reported by copyFn and the first unrecoverable error.
//
// Cancellation: returns (total, ctx.Err()) when canceled. Progress is logged
// on each successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		if err != nil {
			logging.Warn().Err(err).Int64("batch", batches+1).Int("rows", len(batch)).
				Msg("loader: batch failed, retrying once")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
			n, err = copyFn(ctx, columns, batch)
		}
		if err != nil {
			logging.Error().Err(err).Int64("batch", batches+1).Int64("total_inserted", total).
				Msg("loader: COPY failed after retry")
			return fmt.Errorf("batch %d: %w", batches+1, err)
		}
		total += n

		// Keep capacity; copyFn must not retain rows.
		batch = batch[:0]

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		logging.Info().
			Int64("batch", batches).
			Float64("rps", float64(int64(rps))).
			Int64("inserted", n).
			Int64("total_inserted", total).
			Dur("elapsed", now.Sub(start).Truncate(time.Millisecond)).
			Dur("since_last", sinceLast.Truncate(time.Millisecond)).
			Msg("loader: batch committed")
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				logging.Debug().Int64("batches", batches).Int64("total_inserted", total).
					Msg("loader: input closed")
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
