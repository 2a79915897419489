// Package engine is the quad store's storage layer: a BadgerDB-backed
// keyspace holding four statement indexes plus the namespace and meta
// tables, with parallel per-index batch writers.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"golang.org/x/sync/errgroup"

	"github.com/triplewire/quadstore/internal/keycodec"
	"github.com/triplewire/quadstore/internal/nsprefix"
	"github.com/triplewire/quadstore/internal/planner"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// state is the engine's lifecycle state machine: Open -> Serving is
// entered once the default namespaces are seeded, and Closing ->
// Closed is a one-way transition from either Open or Serving.
type state int32

const (
	stateOpen state = iota
	stateServing
	stateClosing
	stateClosed
)

// DefaultWorkers is the default worker pool size used for parallel
// index writes; at least 4 workers are reserved for the four index
// writers so every index always gets a dedicated goroutine.
const DefaultWorkers = 8

// DefaultSubBatchSize is the default number of key/value operations
// buffered per index before a sub-batch is flushed to BadgerDB.
const DefaultSubBatchSize = 100_000

// Engine is the storage engine: one BadgerDB instance addressed
// through seven logical tables (four statement indexes, two namespace
// indexes, and one meta table).
type Engine struct {
	db          *badger.DB
	state       atomic.Int32
	subBatch    int
	workerCount int

	mu    sync.RWMutex
	count int64
}

// Options configures a new Engine.
type Options struct {
	// SubBatchSize overrides DefaultSubBatchSize. Zero means default.
	SubBatchSize int
	// Workers overrides DefaultWorkers. Zero means default. Values
	// below 4 are raised to 4, since every index writer needs its own
	// goroutine to run in parallel.
	Workers int
	// BlockCacheBytes sets BadgerDB's block cache size. Zero leaves
	// Badger's own default in place.
	BlockCacheBytes int64
}

// Open opens (creating if necessary) a BadgerDB-backed engine rooted
// at dir, seeds the well-known namespace table if it is empty, and
// transitions the engine from Open to Serving.
func Open(dir string, opts Options) (*Engine, error) {
	badgerOpts := badger.DefaultOptions(dir)
	badgerOpts.Logger = nil
	if opts.BlockCacheBytes > 0 {
		badgerOpts = badgerOpts.WithBlockCacheSize(opts.BlockCacheBytes)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("engine: open badger db: %w", err)
	}

	e := &Engine{
		db:          db,
		subBatch:    opts.SubBatchSize,
		workerCount: opts.Workers,
	}
	if e.subBatch <= 0 {
		e.subBatch = DefaultSubBatchSize
	}
	if e.workerCount <= 0 {
		e.workerCount = DefaultWorkers
	} else if e.workerCount < 4 {
		e.workerCount = 4
	}
	e.state.Store(int32(stateOpen))

	if err := e.seedNamespaces(); err != nil {
		db.Close()
		return nil, fmt.Errorf("engine: seed namespaces: %w", err)
	}

	count, err := e.readCount()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("engine: read count: %w", err)
	}
	e.count = count

	e.state.Store(int32(stateServing))
	return e, nil
}

func (e *Engine) requireServing() error {
	if state(e.state.Load()) != stateServing {
		return fmt.Errorf("engine: not serving (state=%d)", e.state.Load())
	}
	return nil
}

// Close transitions the engine through Closing to Closed and releases
// the underlying BadgerDB handle. Close is idempotent.
func (e *Engine) Close() error {
	for {
		cur := state(e.state.Load())
		if cur == stateClosed || cur == stateClosing {
			return nil
		}
		if e.state.CompareAndSwap(int32(cur), int32(stateClosing)) {
			break
		}
	}
	err := e.db.Close()
	e.state.Store(int32(stateClosed))
	return err
}

func (e *Engine) seedNamespaces() error {
	return e.db.Update(func(txn *badger.Txn) error {
		for _, ns := range nsprefix.Entries() {
			key := prefixedKey(tableNSPrefix, []byte(ns.Prefix))
			if _, err := txn.Get(key); err == nil {
				continue
			} else if err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Set(key, []byte(ns.URI)); err != nil {
				return err
			}
			if err := txn.Set(prefixedKey(tableNSURI, []byte(ns.URI)), []byte(ns.Prefix)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) readCount() (int64, error) {
	var count int64
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixedKey(tableMeta, metaCountKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 8 {
				count = int64(beUint64(val))
			}
			return nil
		})
	})
	return count, err
}

// AddNamespaces registers each namespace under both the ns_prefix and
// ns_uri tables in one transaction, ns_prefix first. Re-adding an
// existing prefix overwrites its URI mapping.
func (e *Engine) AddNamespaces(ctx context.Context, namespaces []rdf.Namespace) error {
	if err := e.requireServing(); err != nil {
		return err
	}
	return e.db.Update(func(txn *badger.Txn) error {
		for _, ns := range namespaces {
			if err := txn.Set(prefixedKey(tableNSPrefix, []byte(ns.Prefix)), []byte(ns.URI)); err != nil {
				return err
			}
			if err := txn.Set(prefixedKey(tableNSURI, []byte(ns.URI)), []byte(ns.Prefix)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetNamespace resolves a URI registered under prefix.
func (e *Engine) GetNamespace(ctx context.Context, prefix string) (string, error) {
	if err := e.requireServing(); err != nil {
		return "", err
	}
	var uri string
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixedKey(tableNSPrefix, []byte(prefix)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			uri = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return "", ErrNamespaceNotFound
	}
	return uri, err
}

// NamespacePattern filters namespace lookups. Empty fields are
// wildcards: a registered prefix and URI are both non-empty by
// construction, so the empty string is free to mean "unbound" here,
// unlike statement patterns where every term value is legal.
type NamespacePattern struct {
	Prefix string
	URI    string
}

// FindNamespaces returns the namespaces matching pattern. A bound
// prefix resolves through ns_prefix, a bound URI through ns_uri, and
// an empty pattern returns the full table.
func (e *Engine) FindNamespaces(ctx context.Context, pattern NamespacePattern) ([]rdf.Namespace, error) {
	if err := e.requireServing(); err != nil {
		return nil, err
	}
	switch {
	case pattern.Prefix != "":
		uri, err := e.GetNamespace(ctx, pattern.Prefix)
		if errors.Is(err, ErrNamespaceNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if pattern.URI != "" && pattern.URI != uri {
			return nil, nil
		}
		return []rdf.Namespace{{Prefix: pattern.Prefix, URI: uri}}, nil
	case pattern.URI != "":
		var prefix string
		err := e.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(prefixedKey(tableNSURI, []byte(pattern.URI)))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				prefix = string(val)
				return nil
			})
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []rdf.Namespace{{Prefix: prefix, URI: pattern.URI}}, nil
	default:
		return e.GetNamespaces(ctx)
	}
}

// GetNamespaces returns every registered (prefix, uri) pair.
func (e *Engine) GetNamespaces(ctx context.Context) ([]rdf.Namespace, error) {
	if err := e.requireServing(); err != nil {
		return nil, err
	}
	var out []rdf.Namespace
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{byte(tableNSPrefix)}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			prefix := string(item.KeyCopy(nil)[1:])
			err := item.Value(func(val []byte) error {
				out = append(out, rdf.Namespace{Prefix: prefix, URI: string(val)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// AddStatements inserts statements into all four indexes in parallel,
// one errgroup goroutine per index, in sub-batches of at most subBatch
// statements: all four index writes of a sub-batch are flushed and
// waited for before the next sub-batch starts. Index keys are content hashes, so
// re-adding a statement that is already stored is a no-op write; the
// count is only incremented for statements genuinely new to the
// store, keeping AddStatements idempotent at the statement level.
func (e *Engine) AddStatements(ctx context.Context, statements []*rdf.Statement) error {
	if err := e.requireServing(); err != nil {
		return err
	}
	if len(statements) == 0 {
		return nil
	}

	netNew, err := e.countNetNew(statements)
	if err != nil {
		return fmt.Errorf("engine: add statements: check existing: %w", err)
	}

	for start := 0; start < len(statements); start += e.subBatch {
		end := start + e.subBatch
		if end > len(statements) {
			end = len(statements)
		}
		chunk := statements[start:end]
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workerCount)
		for _, kind := range allIndexKinds {
			kind := kind
			g.Go(func() error {
				return e.writeIndexBatch(gctx, kind, chunk)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("engine: add statements: %w", err)
		}
	}

	if netNew == 0 {
		return nil
	}
	e.mu.Lock()
	e.count += netNew
	newCount := e.count
	e.mu.Unlock()
	return e.writeCount(newCount)
}

// countNetNew reports how many distinct statements in the batch are
// not already present in the store, probing the SPOC index (any one
// index suffices: all four are always written together).
func (e *Engine) countNetNew(statements []*rdf.Statement) (int64, error) {
	seen := make(map[string]bool, len(statements))
	var netNew int64
	err := e.db.View(func(txn *badger.Txn) error {
		for _, s := range statements {
			key := prefixedKey(indexTable(keycodec.IndexSPOC), keycodec.BuildKey(keycodec.IndexSPOC, s).Bytes())
			k := string(key)
			if seen[k] {
				continue
			}
			seen[k] = true
			switch _, err := txn.Get(key); {
			case errors.Is(err, badger.ErrKeyNotFound):
				netNew++
			case err != nil:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return netNew, nil
}

func (e *Engine) writeIndexBatch(ctx context.Context, kind keycodec.IndexKind, statements []*rdf.Statement) error {
	t := indexTable(kind)
	batch := e.db.NewWriteBatch()
	defer batch.Cancel()

	ops := 0
	for _, s := range statements {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		key := keycodec.BuildKey(kind, s)
		if err := batch.Set(prefixedKey(t, key.Bytes()), encodeStatement(s)); err != nil {
			return err
		}
		ops++
		if ops >= e.subBatch {
			if err := batch.Flush(); err != nil {
				return err
			}
			batch = e.db.NewWriteBatch()
			ops = 0
		}
	}
	return batch.Flush()
}

// RemoveStatements deletes every statement matching pattern from all
// four indexes.
func (e *Engine) RemoveStatements(ctx context.Context, pattern planner.Pattern) (int64, error) {
	if err := e.requireServing(); err != nil {
		return 0, err
	}

	matches, err := e.scan(ctx, pattern)
	if err != nil {
		return 0, err
	}

	if len(matches) == 0 {
		return 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)
	for _, kind := range allIndexKinds {
		kind := kind
		g.Go(func() error {
			t := indexTable(kind)
			batch := e.db.NewWriteBatch()
			defer batch.Cancel()
			for _, s := range matches {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				key := keycodec.BuildKey(kind, s)
				if err := batch.Delete(prefixedKey(t, key.Bytes())); err != nil {
					return err
				}
			}
			return batch.Flush()
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("engine: remove statements: %w", err)
	}

	e.mu.Lock()
	e.count -= int64(len(matches))
	newCount := e.count
	e.mu.Unlock()
	if err := e.writeCount(newCount); err != nil {
		return 0, err
	}
	return int64(len(matches)), nil
}

// UpdateOpKind tags a single operation within an Update stream.
type UpdateOpKind int

const (
	OpAddNamespace UpdateOpKind = iota
	OpRemoveNamespace
	OpAddStatement
	OpRemoveStatement
)

// UpdateOp is one tagged operation in an Update stream. Only the field
// matching Kind is read.
type UpdateOp struct {
	Kind      UpdateOpKind
	Namespace rdf.Namespace
	Statement *rdf.Statement
}

// UpdateCounts reports how many operations of each kind an ApplyUpdate
// call actually applied.
type UpdateCounts struct {
	NamespacesAdded   int64
	NamespacesRemoved int64
	StatementsAdded   int64
	StatementsRemoved int64
}

// ApplyUpdate applies a stream of tagged operations in order, as used
// by SPARQL Update translations and by the Update RPC. add_stmt/
// rm_stmt operate one statement at a time; rm_stmt removes by exact,
// fully-bound statement match, not by pattern.
func (e *Engine) ApplyUpdate(ctx context.Context, ops []UpdateOp) (UpdateCounts, error) {
	var counts UpdateCounts
	for _, op := range ops {
		switch op.Kind {
		case OpAddNamespace:
			if err := e.AddNamespaces(ctx, []rdf.Namespace{op.Namespace}); err != nil {
				return counts, fmt.Errorf("engine: update add namespace: %w", err)
			}
			counts.NamespacesAdded++
		case OpRemoveNamespace:
			removed, err := e.RemoveNamespace(ctx, op.Namespace.Prefix)
			if err != nil {
				return counts, fmt.Errorf("engine: update remove namespace: %w", err)
			}
			if removed {
				counts.NamespacesRemoved++
			}
		case OpAddStatement:
			if err := e.AddStatements(ctx, []*rdf.Statement{op.Statement}); err != nil {
				return counts, fmt.Errorf("engine: update add statement: %w", err)
			}
			counts.StatementsAdded++
		case OpRemoveStatement:
			removed, err := e.RemoveStatements(ctx, exactPattern(op.Statement))
			if err != nil {
				return counts, fmt.Errorf("engine: update remove statement: %w", err)
			}
			counts.StatementsRemoved += removed
		default:
			return counts, fmt.Errorf("engine: update: unknown op kind %d", op.Kind)
		}
	}
	return counts, nil
}

// exactPattern binds all four positions of s, including its context,
// so RemoveStatements matches only that statement rather than any
// statement sharing a subset of its terms.
func exactPattern(s *rdf.Statement) planner.Pattern {
	return planner.Pattern{
		Subject:   planner.BoundTo(s.Subject),
		Predicate: planner.BoundTo(s.Predicate),
		Object:    planner.BoundTo(s.Object),
		Context:   planner.BoundTo(s.Context),
	}
}

// RemoveNamespace deletes the namespace registered under prefix from
// both ns_prefix and ns_uri. It reports whether a namespace was
// actually present.
func (e *Engine) RemoveNamespace(ctx context.Context, prefix string) (bool, error) {
	if err := e.requireServing(); err != nil {
		return false, err
	}
	var existed bool
	err := e.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(prefixedKey(tableNSPrefix, []byte(prefix)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		var uri string
		if err := item.Value(func(val []byte) error { uri = string(val); return nil }); err != nil {
			return err
		}
		if err := txn.Delete(prefixedKey(tableNSURI, []byte(uri))); err != nil {
			return err
		}
		return txn.Delete(prefixedKey(tableNSPrefix, []byte(prefix)))
	})
	return existed, err
}

// Clear removes every statement from the store, or, when contexts is
// non-empty, only statements in those named graphs. Namespaces are
// left untouched either way.
func (e *Engine) Clear(ctx context.Context, contexts []rdf.Resource) error {
	if len(contexts) == 0 {
		_, err := e.RemoveStatements(ctx, planner.Pattern{})
		return err
	}
	for _, c := range contexts {
		if _, err := e.RemoveStatements(ctx, planner.Pattern{Context: planner.BoundTo(c)}); err != nil {
			return err
		}
	}
	return nil
}

// GetStatements returns every stored statement matching pattern. It
// reads through a single snapshot-consistent BadgerDB iterator and
// collects the matches into a slice for callers that want one;
// tripleadapter calls ScanFunc directly to stream without buffering.
func (e *Engine) GetStatements(ctx context.Context, pattern planner.Pattern) ([]*rdf.Statement, error) {
	if err := e.requireServing(); err != nil {
		return nil, err
	}
	return e.scan(ctx, pattern)
}

// HasStatement reports whether at least one stored statement matches
// pattern, short-circuiting on the first hit.
func (e *Engine) HasStatement(ctx context.Context, pattern planner.Pattern) (bool, error) {
	if err := e.requireServing(); err != nil {
		return false, err
	}
	found := false
	err := e.ScanFunc(ctx, pattern, func(*rdf.Statement) (bool, error) {
		found = true
		return false, nil
	})
	return found, err
}

// GetContexts returns every distinct context (named graph) currently
// in use.
func (e *Engine) GetContexts(ctx context.Context) ([]rdf.Resource, error) {
	if err := e.requireServing(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []rdf.Resource
	err := e.ScanFunc(ctx, planner.Pattern{}, func(s *rdf.Statement) (bool, error) {
		key := "DEFAULT"
		if s.Context != nil {
			key = s.Context.String()
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, s.Context)
		}
		return true, nil
	})
	return out, err
}

func (e *Engine) scan(ctx context.Context, pattern planner.Pattern) ([]*rdf.Statement, error) {
	var out []*rdf.Statement
	err := e.ScanFunc(ctx, pattern, func(s *rdf.Statement) (bool, error) {
		out = append(out, s)
		return true, nil
	})
	return out, err
}

// ScanFunc walks every stored statement matching pattern in index key
// order, calling fn for each. fn returning false stops the scan early
// without error; this keeps HasStatement from buffering a full result
// set just to answer a yes/no question.
func (e *Engine) ScanFunc(ctx context.Context, pattern planner.Pattern, fn func(*rdf.Statement) (bool, error)) error {
	plan := planner.Select(pattern)
	start, end := planner.BuildRange(plan, pattern)
	t := indexTable(plan.Index)

	return e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{byte(t)}
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := prefixedKey(t, start.Bytes())
		endKey := prefixedKey(t, end.Bytes())
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			item := it.Item()
			if bytes.Compare(item.Key(), endKey) > 0 {
				break
			}
			var stmt *rdf.Statement
			err := item.Value(func(val []byte) error {
				s, decErr := decodeStatement(val)
				if decErr != nil {
					return decErr
				}
				stmt = s
				return nil
			})
			if err != nil {
				return err
			}
			if plan.NeedsFilter && !matchesPattern(stmt, pattern) {
				continue
			}
			cont, err := fn(stmt)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

func matchesPattern(s *rdf.Statement, p planner.Pattern) bool {
	if p.Subject.Bound && !termEq(s.Subject, p.Subject.Term) {
		return false
	}
	if p.Predicate.Bound && !termEq(s.Predicate, p.Predicate.Term) {
		return false
	}
	if p.Object.Bound && !termEq(s.Object, p.Object.Term) {
		return false
	}
	if p.Context.Bound && !termEq(s.Context, p.Context.Term) {
		return false
	}
	return true
}

func termEq(a, b rdf.Term) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// Size returns the number of statements currently tracked. With no
// contexts it returns the persisted whole-database count; with one or
// more contexts it sums each context's count independently, which
// double-counts a statement present in more than one requested named
// graph — a documented quirk, see DESIGN.md.
func (e *Engine) Size(ctx context.Context, contexts []rdf.Resource) (int64, error) {
	if err := e.requireServing(); err != nil {
		return 0, err
	}
	if len(contexts) == 0 {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.count, nil
	}
	var total int64
	for _, c := range contexts {
		n, err := e.countContext(ctx, c)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (e *Engine) countContext(ctx context.Context, c rdf.Resource) (int64, error) {
	var n int64
	err := e.ScanFunc(ctx, planner.Pattern{Context: planner.BoundTo(c)}, func(*rdf.Statement) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

func (e *Engine) writeCount(count int64) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(prefixedKey(tableMeta, metaCountKey), beBytes(uint64(count)))
	})
}

// ErrNamespaceNotFound is returned by GetNamespace when prefix is not
// registered.
var ErrNamespaceNotFound = fmt.Errorf("engine: namespace not found")

func beBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}
