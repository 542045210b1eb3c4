package afdb

import (
	"context"

	"github.com/meigma/afdb/config"
)

// Loader is a Data being opened in the background.
type Loader struct {
	done chan struct{}
	data *Data
	err  error
}

// Start begins Open in a new goroutine and returns immediately.
func Start(ctx context.Context, cfg config.Config, opts ...Option) *Loader {
	l := &Loader{done: make(chan struct{})}
	go func() {
		defer close(l.done)
		l.data, l.err = Open(ctx, cfg, opts...)
	}()
	return l
}

// Done is closed once loading has finished, successfully or not.
func (l *Loader) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until loading finishes or ctx ends. Giving up on ctx does not
// stop the load; call Close to release the result.
func (l *Loader) Wait(ctx context.Context) (*Data, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return l.data, l.err
	}
}

// Close waits for loading to finish and closes the loaded Data, if any.
func (l *Loader) Close() error {
	<-l.done
	if l.data == nil {
		return nil
	}
	return l.data.Close()
}
