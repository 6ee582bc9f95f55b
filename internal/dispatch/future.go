package dispatch

// Future is the eventual result of one submitted job.
type Future[T any] interface {
	// Key returns the key the job was submitted with.
	Key() string
	// Result blocks until the job finishes and returns its outcome.
	Result() (T, error)
	// Done is closed once Result will no longer block.
	Done() <-chan struct{}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// resolved is returned in disabled mode: the job already ran.
type resolved[T any] struct {
	key   string
	value T
	err   error
}

func newResolved[T any](key string, value T, err error) *resolved[T] {
	return &resolved[T]{key: key, value: value, err: err}
}

func (f *resolved[T]) Key() string           { return f.key }
func (f *resolved[T]) Result() (T, error)    { return f.value, f.err }
func (f *resolved[T]) Done() <-chan struct{} { return closedChan }

// pending is filled in by a pool goroutine; value and err are written
// before done is closed.
type pending[T any] struct {
	key   string
	value T
	err   error
	done  chan struct{}
}

func newPending[T any](key string) *pending[T] {
	return &pending[T]{key: key, done: make(chan struct{})}
}

func (f *pending[T]) Key() string { return f.key }

func (f *pending[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

func (f *pending[T]) Done() <-chan struct{} { return f.done }
