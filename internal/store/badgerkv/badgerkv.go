// Package badgerkv is a BadgerDB storage backend. It stores the same
// records as the SQLite store as JSON values under prefixed keys.
package badgerkv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/abhisek/sapprep/internal/store"
)

const (
	prefixProgress = "progress/"
	prefixHistory  = "exam/history/"
	prefixLLM      = "llm/"
	keyCurrentExam = "exam/current"
	keyLLMSequence = "seq/llm"
)

// Config configures the badger backend.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string

	// InMemory keeps all data in memory. Used by tests.
	InMemory bool

	// Logger receives badger's internal logs. Nil disables them.
	Logger *slog.Logger
}

// Store is a store.Backend on top of BadgerDB.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

var _ store.Backend = (*Store)(nil)

// Open opens or creates a badger database.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	seq, err := db.GetSequence([]byte(keyLLMSequence), 16)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open sequence: %w", err)
	}

	return &Store{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release sequence: %w", err)
	}
	return s.db.Close()
}

// ProgressRepo returns a ProgressRepo backed by this store.
func (s *Store) ProgressRepo() store.ProgressRepo { return &progressRepo{db: s.db} }

// ExamRepo returns an ExamRepo backed by this store.
func (s *Store) ExamRepo() store.ExamRepo { return &examRepo{db: s.db} }

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() store.EventRepo { return &eventRepo{db: s.db, seq: s.seq} }

// badgerLogger adapts slog to badger's logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func put(db *badger.DB, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), b)
	})
}

// scanPrefix decodes every value under prefix with decode.
func scanPrefix(db *badger.DB, prefix string, decode func(val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(decode); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
		}
		return nil
	})
}

type progressRepo struct {
	db *badger.DB
}

func (r *progressRepo) SaveProgress(_ context.Context, data store.ProgressData) error {
	if err := put(r.db, fmt.Sprintf("%s%d", prefixProgress, data.QuestionID), data); err != nil {
		return fmt.Errorf("save progress %d: %w", data.QuestionID, err)
	}
	return nil
}

func (r *progressRepo) LoadProgress(_ context.Context) ([]store.ProgressData, error) {
	var out []store.ProgressData
	err := scanPrefix(r.db, prefixProgress, func(val []byte) error {
		var d store.ProgressData
		if err := json.Unmarshal(val, &d); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (r *progressRepo) DeleteAllProgress(_ context.Context) error {
	if err := r.db.DropPrefix([]byte(prefixProgress)); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

type examRepo struct {
	db *badger.DB
}

func (r *examRepo) SaveCurrentExam(_ context.Context, data store.ExamSessionData) error {
	if err := put(r.db, keyCurrentExam, data); err != nil {
		return fmt.Errorf("save current exam: %w", err)
	}
	return nil
}

func (r *examRepo) LoadCurrentExam(_ context.Context) (*store.ExamSessionData, error) {
	var data *store.ExamSessionData
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyCurrentExam))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = &store.ExamSessionData{}
			return json.Unmarshal(val, data)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load current exam: %w", err)
	}
	return data, nil
}

func (r *examRepo) ClearCurrentExam(_ context.Context) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyCurrentExam))
	})
	if err != nil {
		return fmt.Errorf("clear current exam: %w", err)
	}
	return nil
}

func (r *examRepo) AppendExamHistory(_ context.Context, data store.ExamSessionData) error {
	if err := put(r.db, prefixHistory+data.ID, data); err != nil {
		return fmt.Errorf("append exam history %s: %w", data.ID, err)
	}
	return nil
}

func (r *examRepo) LoadExamHistory(_ context.Context) ([]store.ExamSessionData, error) {
	var out []store.ExamSessionData
	err := scanPrefix(r.db, prefixHistory, func(val []byte) error {
		var d store.ExamSessionData
		if err := json.Unmarshal(val, &d); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load exam history: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *examRepo) DeleteExamHistory(_ context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(prefixHistory + id))
	})
	if err != nil {
		return fmt.Errorf("delete exam %s: %w", id, err)
	}
	return nil
}

type llmEvent struct {
	store.LLMRequestEventData
	Sequence  uint64
	Timestamp time.Time
}

type eventRepo struct {
	db  *badger.DB
	seq *badger.Sequence
}

func (r *eventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	n, err := r.seq.Next()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	ev := llmEvent{LLMRequestEventData: data, Sequence: n, Timestamp: time.Now().UTC()}
	if err := put(r.db, fmt.Sprintf("%s%020d", prefixLLM, n), ev); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) LLMUsage(_ context.Context) (store.LLMUsage, error) {
	var u store.LLMUsage
	err := scanPrefix(r.db, prefixLLM, func(val []byte) error {
		var ev llmEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		u.Requests++
		if !ev.Success {
			u.Failures++
		}
		u.InputTokens += ev.InputTokens
		u.OutputTokens += ev.OutputTokens
		return nil
	})
	if err != nil {
		return store.LLMUsage{}, fmt.Errorf("query LLM usage: %w", err)
	}
	return u, nil
}

func (r *eventRepo) LLMUsageByModel(_ context.Context) ([]store.ModelUsage, error) {
	byKey := make(map[[2]string]*store.ModelUsage)
	err := scanPrefix(r.db, prefixLLM, func(val []byte) error {
		var ev llmEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		k := [2]string{ev.Provider, ev.Model}
		mu, ok := byKey[k]
		if !ok {
			mu = &store.ModelUsage{Provider: ev.Provider, Model: ev.Model}
			byKey[k] = mu
		}
		mu.Requests++
		if !ev.Success {
			mu.Failures++
		}
		mu.InputTokens += ev.InputTokens
		mu.OutputTokens += ev.OutputTokens
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by model: %w", err)
	}

	out := make([]store.ModelUsage, 0, len(byKey))
	for _, mu := range byKey {
		out = append(out, *mu)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out, nil
}
