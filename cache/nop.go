package cache

import (
	"context"
	"time"
)

// Nop is a Cache that stores nothing.
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Nop) Set(context.Context, string, []byte, time.Duration) {}

func (Nop) Delete(context.Context, string) {}

func (Nop) InvalidatePattern(context.Context, string) int { return 0 }

func (Nop) Close() error { return nil }
