package repository

import "time"

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithQueryTimeout bounds every statement issued by the store.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithMaxOpenConns caps the connection pool. SQLite stores default to 1.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
