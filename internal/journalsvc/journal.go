// Package journalsvc records every emitted event in badger so a time window
// of a session can be exported after the fact.
package journalsvc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/neuroplastio/keybridge/internal/emitsvc"
	"github.com/neuroplastio/keybridge/pkg/bus"
	"go.uber.org/zap"
)

var (
	prefix = []byte("journal/")
	seqKey = []byte("meta/seq")
)

// seqBandwidth is how many sequence numbers are leased at a time. Numbers
// leased but unused when the process dies are skipped on the next open.
const seqBandwidth = 1000

type Journal struct {
	log *zap.Logger
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens or creates the journal database in dir.
func Open(log *zap.Logger, dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{l: log.Named("badger")}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	seq, err := db.GetSequence(seqKey, seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to get journal sequence: %w", err)
	}
	return &Journal{
		log: log,
		db:  db,
		seq: seq,
	}, nil
}

func (j *Journal) Close() error {
	if err := j.seq.Release(); err != nil {
		j.log.Warn("Failed to release journal sequence", zap.Error(err))
	}
	return j.db.Close()
}

// key orders entries by time. The sequence is persisted in the database, so
// entries with equal timestamps stay apart across sessions too.
func (j *Journal) key(at time.Time) ([]byte, error) {
	n, err := j.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to get next sequence: %w", err)
	}
	key := make([]byte, len(prefix)+16)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(at.UnixNano()))
	binary.BigEndian.PutUint64(key[len(prefix)+8:], n)
	return key, nil
}

func timeKey(at time.Time) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(at.UnixNano()))
	return key
}

func (j *Journal) Append(rec emitsvc.Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	key, err := j.key(rec.Time())
	if err != nil {
		return err
	}
	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Range calls fn for records with since <= time < until, oldest first. A
// zero since or until leaves that end open.
func (j *Journal) Range(since, until time.Time, fn func(emitsvc.Record) error) error {
	err := j.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()
		start := prefix
		if !since.IsZero() {
			start = timeKey(since)
		}
		var end []byte
		if !until.IsZero() {
			end = timeKey(until)
		}
		for iter.Seek(start); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			if end != nil && string(item.Key()) >= string(end) {
				return nil
			}
			var rec emitsvc.Record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal record %x: %w", item.Key(), err)
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	return nil
}

// Clicks returns the clicks inside a window, the selection a recording trim
// is based on.
func (j *Journal) Clicks(since, until time.Time) ([]emitsvc.ClickRecord, error) {
	clicks := []emitsvc.ClickRecord{}
	err := j.Range(since, until, func(rec emitsvc.Record) error {
		if rec.Click != nil {
			clicks = append(clicks, *rec.Click)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clicks, nil
}

// Export writes records in the window as JSON lines and returns how many
// were written.
func (j *Journal) Export(w io.Writer, since, until time.Time) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	count := 0
	err := j.Range(since, until, func(rec emitsvc.Record) error {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		count++
		return nil
	})
	return count, err
}

// Run appends records from the subscription until the bus closes it,
// draining whatever is still buffered.
func (j *Journal) Run(sub <-chan bus.Message[string, emitsvc.Record]) error {
	for msg := range sub {
		if err := j.Append(msg.Message); err != nil {
			j.log.Error("Failed to journal record", zap.Error(err), zap.String("kind", msg.Key))
		}
	}
	return nil
}

type badgerLogger struct {
	l *zap.Logger
}

func (l badgerLogger) Errorf(msg string, args ...any) {
	l.l.Error(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Warningf(msg string, args ...any) {
	l.l.Warn(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Infof(msg string, args ...any) {
	l.l.Info(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Debugf(msg string, args ...any) {
	l.l.Debug(fmt.Sprintf(msg, args...))
}
