// Package repository loads player pools and squads from JSON files.
package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/pkg/logger"
	"github.com/okian/squadopt/pkg/metrics"
)

// StdinPath selects standard input instead of a file.
const StdinPath = "-"

// Default store configuration constants.
const (
	defaultMaxBytes = 64 << 20
)

// Store provides read access to player records.
type Store interface {
	// Load returns every player in the source. Elements that fail to decode
	// are reported in the batch, not as an error.
	Load(ctx context.Context) (player.Batch, error)
}

// FileStore reads a JSON document from a file or standard input. The
// document is either an array of players or an object whose "squad" field
// holds one, so an optimize result can be fed back as a squad.
type FileStore struct {
	path     string
	stdin    io.Reader
	maxBytes int64
	logger   logger.Logger
}

// NewFileStore creates a store for path. StdinPath reads standard input.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:     path,
		stdin:    os.Stdin,
		maxBytes: defaultMaxBytes,
		logger:   logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configured source path.
func (s *FileStore) Path() string { return s.path }

// Load reads and decodes the source.
func (s *FileStore) Load(ctx context.Context) (player.Batch, error) {
	if err := ctx.Err(); err != nil {
		return player.Batch{}, err
	}
	data, err := s.read()
	if err != nil {
		metrics.RecordErrorByComponent("repository", "read")
		return player.Batch{}, err
	}

	batch, err := player.Decode(unwrapSquad(data))
	if err != nil {
		metrics.RecordErrorByComponent("repository", "decode")
		return player.Batch{}, fmt.Errorf("%s: %w", s.path, err)
	}

	for _, r := range batch.Rejected {
		s.logger.Warn(ctx, "player rejected",
			logger.String("source", s.path),
			logger.Int("index", r.Index),
			logger.Error(r.Err),
		)
	}
	metrics.RecordPlayersLoaded(len(batch.Records), len(batch.Rejected))
	s.logger.Debug(ctx, "players loaded",
		logger.String("source", s.path),
		logger.Int("accepted", len(batch.Records)),
		logger.Int("rejected", len(batch.Rejected)),
	)
	return batch, nil
}

func (s *FileStore) read() ([]byte, error) {
	if s.path == "" {
		return nil, ErrNoSource
	}

	var r io.Reader
	if s.path == StdinPath {
		r = s.stdin
	} else {
		f, err := os.Open(s.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", s.path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, s.path, s.maxBytes)
	}
	return data, nil
}

// unwrapSquad returns the "squad" array of a result object, or data as is.
func unwrapSquad(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data
	}
	var doc struct {
		Squad json.RawMessage `json:"squad"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil || len(doc.Squad) == 0 {
		return data
	}
	return doc.Squad
}
