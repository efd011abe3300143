package transport

import (
	"context"
	"time"

	"go.uber.org/zap"
)

func zapNop() *zap.Logger { return zap.NewNop() }

// noCancelCtx is a context.Context that is never done, used in tests
// that don't need cancellation.
type noCancelCtx struct{}

func (noCancelCtx) Deadline() (time.Time, bool) { return time.Time{}, false }
func (noCancelCtx) Done() <-chan struct{}       { return nil }
func (noCancelCtx) Err() error                  { return nil }
func (noCancelCtx) Value(key any) any           { return nil }
