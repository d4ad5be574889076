package controller

import (
	"context"

	"github.com/rungalileo/gcache/key"
)

// Oracle is the user-supplied configuration lookup described in spec.md
// §6: "lookup(key) -> Config | none; asynchronous. May raise; exceptions
// are caught and treated as absent config." Go has no exceptions, so
// "raises" becomes a returned error, handled identically — a non-nil error
// is logged and treated the same as a nil Config.
type Oracle interface {
	Lookup(ctx context.Context, k key.Key) (*key.Config, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, k key.Key) (*key.Config, error)

func (f OracleFunc) Lookup(ctx context.Context, k key.Key) (*key.Config, error) {
	return f(ctx, k)
}
