// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache stores lint results for unchanged files in BadgerDB.
//
// Entries are keyed on a SHA-256 over the tool version, a run digest
// (configuration plus cop selection), the file path and the file content,
// so any change to one of them misses. Values are msgpack-encoded and
// carry a schema version; entries written by another schema are treated
// as misses.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/AleutianAI/yardcop/services/yardcop/lint"
)

// schemaVersion must be bumped whenever entry changes shape.
const schemaVersion uint16 = 1

// AppName is the directory name used under the user cache directory.
const AppName = "yardcop"

// keyPrefix namespaces result entries inside the database.
var keyPrefix = []byte("result/")

var (
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache is closed")

	// ErrNoDir is returned when a persistent cache has no directory.
	ErrNoDir = errors.New("cache directory is required")
)

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yardcop_cache_lookups_total",
	Help: "Result cache lookups by outcome.",
}, []string{"result"})

// Config configures a Cache.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the database in memory only.
	InMemory bool

	// Version is the tool version mixed into every key.
	Version string

	// RunDigest identifies the configuration and cop selection.
	RunDigest string

	// TTL expires entries after the given duration. Zero keeps them until
	// the value log is collected.
	TTL time.Duration

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration

	// Logger receives badger's own log output and cache warnings. Nil
	// silences both.
	Logger *slog.Logger
}

// DefaultConfig returns a persistent configuration rooted at DefaultDir.
func DefaultConfig() Config {
	return Config{
		TTL:        7 * 24 * time.Hour,
		GCInterval: 5 * time.Minute,
	}
}

// DefaultDir returns $XDG_CACHE_HOME/yardcop, falling back to
// ~/.cache/yardcop.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, AppName), nil
}

// entry is the stored value.
type entry struct {
	Schema   uint16
	Path     string
	StoredAt int64
	Offenses []lint.Offense
}

// Stats counts lookups since Open.
type Stats struct {
	Hits   int64
	Misses int64
	Stores int64
}

// Cache is a lint.ResultCache backed by BadgerDB.
//
// Thread Safety:
//
//	Safe for concurrent use. Badger transactions isolate concurrent
//	lookups and stores.
type Cache struct {
	db     *badger.DB
	gc     *gcRunner
	cfg    Config
	logger *slog.Logger
	closed atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
	stores atomic.Int64
}

var _ lint.ResultCache = (*Cache)(nil)

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
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates a cache.
//
// Description:
//
//	A persistent cache creates Dir when missing. Value log GC runs in the
//	background for persistent caches when GCInterval is positive and stops
//	on Close.
//
// Outputs:
//
//	*Cache - The open cache. Callers must Close it.
//	error - ErrNoDir, or the badger open error.
func Open(cfg Config) (*Cache, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, ErrNoDir
		}
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1).WithSyncWrites(false)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open result cache: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Cache{db: db, cfg: cfg, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.gc = newGCRunner(db, cfg.GCInterval, 0.5, logger)
		c.gc.start()
	}
	return c, nil
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory(version, runDigest string) (*Cache, error) {
	return Open(Config{InMemory: true, Version: version, RunDigest: runDigest})
}

// Key returns the database key for a file.
func (c *Cache) Key(path string, content []byte) []byte {
	h := sha256.New()
	for _, part := range []string{c.cfg.Version, c.cfg.RunDigest, filepath.ToSlash(path)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(content)
	return append(append([]byte{}, keyPrefix...), hex.EncodeToString(h.Sum(nil))...)
}

// Lookup implements lint.ResultCache. Decode failures and schema
// mismatches count as misses.
func (c *Cache) Lookup(path string, content []byte) ([]lint.Offense, bool) {
	if c.closed.Load() {
		return nil, false
	}

	var e entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.Key(path, content))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &e)
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		c.miss("miss")
		return nil, false
	case err != nil:
		c.logger.Warn("cache lookup failed", slog.String("file", path), slog.String("error", err.Error()))
		c.miss("error")
		return nil, false
	case e.Schema != schemaVersion:
		c.miss("stale")
		return nil, false
	}

	c.hits.Add(1)
	lookupsTotal.WithLabelValues("hit").Inc()
	if e.Offenses == nil {
		e.Offenses = make([]lint.Offense, 0)
	}
	for i := range e.Offenses {
		e.Offenses[i].File = path
	}
	return e.Offenses, true
}

func (c *Cache) miss(result string) {
	c.misses.Add(1)
	lookupsTotal.WithLabelValues(result).Inc()
}

// Store implements lint.ResultCache.
func (c *Cache) Store(path string, content []byte, offenses []lint.Offense) error {
	if c.closed.Load() {
		return ErrClosed
	}

	val, err := msgpack.Marshal(&entry{
		Schema:   schemaVersion,
		Path:     path,
		StoredAt: time.Now().Unix(),
		Offenses: offenses,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(c.Key(path, content), val)
		if c.cfg.TTL > 0 {
			e = e.WithTTL(c.cfg.TTL)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	c.stores.Add(1)
	return nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.db.DropPrefix(keyPrefix)
}

// Len counts the stored entries.
func (c *Cache) Len() (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Stats returns lookup counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Stores: c.stores.Load(),
	}
}

// Close stops GC and closes the database. Safe to call more than once.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.gc != nil {
		c.gc.stop()
	}
	return c.db.Close()
}
