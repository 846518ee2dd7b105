// Package datasource defines where input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens one input for reading. Callers close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}
