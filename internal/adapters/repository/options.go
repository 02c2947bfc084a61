package repository

import (
	"io"

	"github.com/okian/squadopt/pkg/logger"
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithStdin replaces the reader used for StdinPath.
func WithStdin(r io.Reader) Option {
	return func(s *FileStore) {
		if r != nil {
			s.stdin = r
		}
	}
}

// WithMaxBytes caps how much input is read.
func WithMaxBytes(n int64) Option {
	return func(s *FileStore) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}
