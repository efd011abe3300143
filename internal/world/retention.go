package world

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/meshbbs/core/internal/store"
)

// errStopScan unwinds ScanPrefix early once the first surviving
// (non-doomed) entry is reached, without being treated as a failure.
var errStopScan = errors.New("world: stop scan")

// pruneByAge deletes every key/value pair in bucket whose timestamp
// prefix (the "%020d:" nanosecond encoding appendWAL/appendAudit use)
// is older than cutoff. Keys sort ascending by that prefix, so this
// stops at the first surviving entry rather than scanning the whole
// bucket every sweep.
func pruneByAge(tx *store.Tx, bucket string, cutoff time.Time) (int, error) {
	var doomed []string
	cutoffNanos := cutoff.UnixNano()
	err := tx.ScanPrefix(bucket, "", func(key string, value []byte) error {
		nanos, ok := keyNanos(key)
		if !ok {
			return nil // malformed key, leave it rather than risk deleting live data
		}
		if nanos >= cutoffNanos {
			return errStopScan
		}
		doomed = append(doomed, key)
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return 0, err
	}
	for _, key := range doomed {
		if err := tx.Delete(bucket, key); err != nil {
			return 0, err
		}
	}
	return len(doomed), nil
}

// keyNanos extracts the leading "%020d" nanosecond timestamp from a
// WAL/audit key of the form "<nanos>:<uuid>".
func keyNanos(key string) (int64, bool) {
	prefix, _, ok := strings.Cut(key, ":")
	if !ok {
		return 0, false
	}
	nanos, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, false
	}
	return nanos, true
}

// PruneAuditLog deletes security-log entries older than maxAge, for
// the DELLOG admin verb and the periodic retention sweep alike
// (§4.6/§4.7). It records no audit entry of its own.
func (e *Engine) PruneAuditLog(ctx context.Context, maxAge time.Duration) (int, error) {
	var n int
	err := e.withTx(ctx, func(tx *store.Tx) error {
		var err error
		n, err = pruneByAge(tx, BucketAudit, time.Now().Add(-maxAge))
		return err
	})
	return n, err
}

// PruneWAL deletes economic-transaction-log entries older than maxAge.
func (e *Engine) PruneWAL(ctx context.Context, maxAge time.Duration) (int, error) {
	var n int
	err := e.withTx(ctx, func(tx *store.Tx) error {
		var err error
		n, err = pruneByAge(tx, BucketWAL, time.Now().Add(-maxAge))
		return err
	})
	return n, err
}
