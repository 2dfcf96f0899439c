package beans

import "sync"

var (
	globalMu sync.Mutex
	global   *Container
)

// Init creates the process-wide container. Only the first successful call
// builds one; later calls return it and ignore their options.
func Init(opts ...Option) (*Container, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return global, nil
	}
	c, err := NewContainer(opts...)
	if err != nil {
		return nil, err
	}
	global = c
	return c, nil
}

// Default returns the process-wide container created by Init.
func Default() (*Container, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil, ErrContainerNotInitialized
	}
	return global, nil
}

// Shutdown destroys the process-wide container. A later Init creates a new
// one. It is a no-op before Init.
func Shutdown() error {
	globalMu.Lock()
	c := global
	global = nil
	globalMu.Unlock()

	if c == nil {
		return nil
	}
	return c.Destroy()
}
