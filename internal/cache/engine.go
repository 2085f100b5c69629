// Package cache implements the local sync engine: an on-disk replica of
// the remote task service kept fresh through incremental delta syncs.
//
// The engine is deliberately invisible when it works. Callers ask for a
// "fresh enough" repository handle; the engine decides whether that
// means serving what's on disk, running one delta cycle first, or (when
// caching is disabled, no credential is configured, or the database
// can't be opened) returning no handle at all so the caller falls back
// to direct remote reads. The only user-facing signal it ever emits is a
// single "serving stale data" warning per process run.
package cache

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/jfeld/taskdeck/internal/api"
	"github.com/jfeld/taskdeck/internal/cache/db"
	"github.com/jfeld/taskdeck/internal/cache/delta"
	"github.com/jfeld/taskdeck/internal/cache/store"
	"github.com/jfeld/taskdeck/internal/model"
)

// Fetcher fetches a delta from the remote service. Satisfied by
// *api.Client.
type Fetcher interface {
	Sync(ctx context.Context, cursor string, kinds []model.Kind) (*api.SyncResponse, error)
}

// Config assembles the engine's collaborators and policy knobs.
type Config struct {
	// Enabled gates the whole engine; when false every call degrades to
	// "no cache".
	Enabled bool
	// DBPath is the cache database file location.
	DBPath string
	// TTL is how long a synced kind stays fresh without a resync.
	TTL time.Duration
	// Token is the active credential. Its hash is the identity
	// fingerprint; an empty token disables the engine.
	Token string
	// Fetcher performs the remote delta call.
	Fetcher Fetcher
	// Logger receives engine diagnostics; nil means stderr.
	Logger *log.Logger
}

// Engine is the freshness orchestrator. Construct one per process with
// New and share it between commands.
type Engine struct {
	cfg    Config
	logger *log.Logger
	runID  string

	mu        sync.Mutex
	st        *store.Store
	attempted bool
	warned    bool
}

// New creates an engine. No I/O happens until the first call that needs
// the database.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[cache] ", log.LstdFlags)
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		runID:  newRunID(),
	}
}

// newRunID generates the per-process marker used to deduplicate the
// stale-data warning across the meta table.
func newRunID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf[:])
}

// enabled reports whether the engine has a usable persistence context at
// all: caching on and a credential to fingerprint.
func (e *Engine) enabled() bool {
	return e.cfg.Enabled && e.cfg.Token != ""
}

// repo lazily opens and migrates the database. A failure is remembered
// and reported as "no cache" for the rest of the process: the cache is
// an optimization, never worth crashing the hosting command.
func (e *Engine) repo(ctx context.Context) *store.Store {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st != nil {
		return e.st
	}
	if e.attempted {
		return nil
	}
	e.attempted = true

	d, err := db.Open(e.cfg.DBPath)
	if err != nil {
		e.logger.Printf("cache unavailable: %v", err)
		return nil
	}
	if err := d.Migrate(ctx); err != nil {
		e.logger.Printf("cache unavailable: %v", err)
		return nil
	}
	e.st = store.New(d)
	return e.st
}

// EnsureFresh returns a repository handle that is fresh enough for the
// requested kinds, syncing first when needed.
//
// A (nil, nil) return means no cache is available (caching disabled, no
// credential, or the database could not be opened) and the caller must
// read from the remote directly. A non-nil error occurs only when a
// first-ever sync fails: there is no snapshot to fall back on, so the
// failure is real. Any later sync failure is absorbed by serving the
// last good snapshot, with a one-per-run stale-data warning.
func (e *Engine) EnsureFresh(ctx context.Context, kinds ...model.Kind) (*store.Store, error) {
	if !e.enabled() {
		return nil, nil
	}
	st := e.repo(ctx)
	if st == nil {
		return nil, nil
	}
	if len(kinds) == 0 {
		kinds = model.CoreKinds
	}

	if err := e.checkFingerprint(ctx, st); err != nil {
		e.logger.Printf("cache unavailable: %v", err)
		return nil, nil
	}

	stale, snapshot, err := e.staleness(ctx, st, kinds)
	if err != nil {
		e.logger.Printf("cache unavailable: %v", err)
		return nil, nil
	}
	if !stale {
		return st, nil
	}

	if err := e.syncOnce(ctx, st); err != nil {
		if !snapshot {
			return nil, fmt.Errorf("initial sync failed: %w", err)
		}
		e.warnStale(ctx, st, err)
		return st, nil
	}
	return st, nil
}

// checkFingerprint compares the hash of the active credential against
// the stored one. A mismatch means the account changed, and data cached
// under the previous identity must never leak into this session: the
// whole cache is wiped before the new fingerprint is recorded.
func (e *Engine) checkFingerprint(ctx context.Context, st *store.Store) error {
	fp := Fingerprint(e.cfg.Token)
	stored, err := st.GetMeta(ctx, store.MetaFingerprint)
	if err != nil {
		return err
	}
	switch stored {
	case fp:
		return nil
	case "":
		return st.SetMeta(ctx, store.MetaFingerprint, fp)
	default:
		e.logger.Printf("credential changed, clearing cache")
		if err := st.ClearAll(ctx); err != nil {
			return err
		}
		return st.SetMeta(ctx, store.MetaFingerprint, fp)
	}
}

// staleness reports whether a resync is needed for kinds, and whether a
// snapshot exists to fall back on if that resync fails.
func (e *Engine) staleness(ctx context.Context, st *store.Store, kinds []model.Kind) (stale, snapshot bool, err error) {
	snapshot, err = st.HasSnapshot(ctx, kinds)
	if err != nil {
		return false, false, err
	}
	if !snapshot {
		return true, false, nil
	}
	dirty, err := st.AnyDirty(ctx, kinds)
	if err != nil {
		return false, snapshot, err
	}
	if dirty {
		return true, snapshot, nil
	}
	expired, err := st.AnyExpired(ctx, kinds, e.cfg.TTL)
	if err != nil {
		return false, snapshot, err
	}
	return expired, snapshot, nil
}

// syncOnce runs one incremental fetch-and-apply cycle. A sync always
// covers the full core resource set: the remote call is the expensive
// part, and one call refreshes everything.
func (e *Engine) syncOnce(ctx context.Context, st *store.Store) error {
	cursor, err := st.GetMeta(ctx, store.MetaSyncToken)
	if err != nil {
		return err
	}
	if cursor == "" {
		cursor = api.FullResync
	}

	resp, err := e.cfg.Fetcher.Sync(ctx, cursor, model.CoreKinds)
	if err != nil {
		return err
	}

	cs, err := delta.MapResponse(resp.Resources)
	if err != nil {
		return err
	}

	// resp.FullSync means the server invalidated our cursor and replayed
	// complete state; the apply wipes the tables before writing it.
	if err := st.ApplyChangeset(ctx, cs, resp.SyncToken, resp.FullSync, time.Now()); err != nil {
		return err
	}
	return nil
}

// warnStale prints the one-time "serving stale data" warning. The meta
// marker records which process run warned last, so retriggers within the
// same run stay silent even across engine restarts against the same
// database handle.
func (e *Engine) warnStale(ctx context.Context, st *store.Store, cause error) {
	e.mu.Lock()
	warned := e.warned
	e.warned = true
	e.mu.Unlock()
	if warned {
		return
	}
	if last, err := st.GetMeta(ctx, store.MetaStaleWarnRun); err == nil && last == e.runID {
		return
	}
	e.logger.Printf("sync failed (%v); serving stale data", cause)
	if err := st.SetMeta(ctx, store.MetaStaleWarnRun, e.runID); err != nil {
		e.logger.Printf("failed to record stale warning marker: %v", err)
	}
}

// Fingerprint is the one-way hash of a credential used to detect
// identity changes between invocations.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
