package dispatch

import "github.com/KOMKZ/go-yogan-ioc/logger"

// Option Dispatcher configuration options
type Option func(*Dispatcher)

// WithPoolSize sets the size of the async goroutine pool
func WithPoolSize(size int) Option {
	return func(d *Dispatcher) {
		d.poolSize = size
	}
}

// WithLogger replaces the default "ioc" module logger
func WithLogger(l *logger.CtxZapLogger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}
