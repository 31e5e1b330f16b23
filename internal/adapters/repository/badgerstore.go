package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/vrai/internal/domain/model"
	"github.com/okian/vrai/pkg/logger"
	"github.com/okian/vrai/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	defaultContainer        = "analysis-results"
	defaultWriteTimeout     = 30 * time.Second
	defaultMaxAttempts      = 3
	defaultRetryInterval    = 5 * time.Second
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 30 * time.Second

	breakerName = "analysis-store"
)

// BadgerStore is a Store backed by an embedded BadgerDB.
//
// Records are JSON documents keyed "<container>/<id>". Writes run behind a
// circuit breaker; transaction conflicts are retried at a fixed interval.
type BadgerStore struct {
	db     *badger.DB
	cb     *gobreaker.CircuitBreaker[struct{}]
	logger logger.Logger

	path             string
	inMemory         bool
	container        string
	writeTimeout     time.Duration
	maxAttempts      int
	retryInterval    time.Duration
	breakerThreshold uint32
	breakerTimeout   time.Duration

	count  atomic.Int64
	closed atomic.Bool
}

// Compile-time check.
var _ Store = (*BadgerStore)(nil)

// Open opens (or creates) the database and counts the records already in the container.
func Open(opts ...Option) (*BadgerStore, error) {
	s := &BadgerStore{
		container:        defaultContainer,
		writeTimeout:     defaultWriteTimeout,
		maxAttempts:      defaultMaxAttempts,
		retryInterval:    defaultRetryInterval,
		breakerThreshold: defaultBreakerThreshold,
		breakerTimeout:   defaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}
	if !s.inMemory && strings.TrimSpace(s.path) == "" {
		return nil, fmt.Errorf("%w: database path is empty", ErrUnavailable)
	}

	var bopts badger.Options
	if s.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(s.path)
	}
	bopts = bopts.WithLogger(badgerLogger{l: s.logger.Named("badger")})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrUnavailable, s.path, err)
	}
	s.db = db

	n, err := s.countExisting()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: count records: %v", ErrUnavailable, err)
	}
	s.count.Store(int64(n))
	metrics.UpdateStoredDocuments(n)

	s.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     s.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.breakerThreshold
		},
		// Caller mistakes say nothing about the health of the database.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrInvalidRecord)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			s.logger.Warn(context.Background(), "store circuit breaker state changed",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	metrics.UpdateBreakerState(breakerName, int(gobreaker.StateClosed))

	s.logger.Info(context.Background(), "analysis store opened",
		logger.String("path", s.path),
		logger.Bool("in_memory", s.inMemory),
		logger.String("container", s.container),
		logger.Int("records", n),
	)
	return s, nil
}

// Save stores rec under rec.ID. Existing records are never overwritten.
func (s *BadgerStore) Save(ctx context.Context, rec model.AnalysisRecord) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}
	if strings.TrimSpace(rec.ID) == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: marshal: %v", ErrInvalidRecord, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	_, err = s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.write(ctx, s.key(rec.ID), data)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// write inserts key, retrying transaction conflicts until attempts or ctx run out.
func (s *BadgerStore) write(ctx context.Context, key, data []byte) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			switch {
			case err == nil:
				return ErrAlreadyExists
			case !errors.Is(err, badger.ErrKeyNotFound):
				return fmt.Errorf("lookup: %w", err)
			}
			return txn.Set(key, data)
		})
		if err == nil {
			metrics.UpdateStoredDocuments(int(s.count.Add(1)))
			return nil
		}
		if !errors.Is(err, badger.ErrConflict) || attempt >= s.maxAttempts {
			return err
		}

		metrics.RecordPersistenceRetry()
		s.logger.Warn(ctx, "store write conflicted, retrying",
			logger.String("key", string(key)),
			logger.Int("attempt", attempt),
			logger.Duration("interval", s.retryInterval),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-time.After(s.retryInterval):
		}
	}
}

// Get returns the record stored under id.
func (s *BadgerStore) Get(_ context.Context, id string) (model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	if s.closed.Load() {
		return rec, ErrClosed
	}
	if strings.TrimSpace(id) == "" {
		return rec, ErrNotFound
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return model.AnalysisRecord{}, err
	}
	return rec, nil
}

// Count returns the number of records in the container.
func (s *BadgerStore) Count(_ context.Context) int {
	return int(s.count.Load())
}

// Close closes the database. Further calls return ErrClosed.
func (s *BadgerStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return s.db.Close()
}

func (s *BadgerStore) key(id string) []byte {
	return []byte(s.container + "/" + id)
}

func (s *BadgerStore) countExisting() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(s.container + "/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// badgerLogger routes database engine messages to the service logger.
type badgerLogger struct {
	l logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, args...)))
}
