// Package postgres implements docstore.Store on a PostgreSQL jsonb table,
// using LISTEN/NOTIFY for subscriptions.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/julianstephens/rollcall/internal/constants"
	"github.com/julianstephens/rollcall/internal/docstore"
	"github.com/julianstephens/rollcall/internal/logger"
	"github.com/julianstephens/rollcall/internal/migration"
	"github.com/julianstephens/rollcall/migrations"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

type Store struct {
	connStr string
	db      *sql.DB

	mu       sync.Mutex
	listener *pq.Listener
	watchers map[string]map[*watcher]struct{}
}

type watcher struct {
	fn func(docstore.Document)
}

// ValidateConnString checks that connStr is a PostgreSQL URI or DSN and that
// it carries no password; passwords belong in the keyring or .pgpass.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: invalid connection string format: %v", ErrInvalidConnectionString, err)
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: failed to parse connection URL: %v", ErrInvalidConnectionString, err)
		}
		if _, isSet := u.User.Password(); isSet {
			return ErrEmbeddedCredentials
		}
		return nil
	}

	for _, pair := range strings.Fields(connStr) {
		k, _, ok := strings.Cut(pair, "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), "password") {
			return ErrEmbeddedCredentials
		}
	}
	return nil
}

// hasSSLMode reports whether connStr sets sslmode, in URI or DSN form.
func hasSSLMode(connStr string) bool {
	if u, err := url.Parse(connStr); err == nil && u.Scheme != "" {
		for key := range u.Query() {
			if strings.EqualFold(key, "sslmode") {
				return true
			}
		}
	}
	for _, pair := range strings.Fields(connStr) {
		if k, _, ok := strings.Cut(pair, "="); ok && strings.EqualFold(k, "sslmode") {
			return true
		}
	}
	return false
}

// Open validates connStr, connects, and applies the documents schema.
// Embedded passwords are refused unless allowPassword is set, which callers
// do only for strings read from the OS keyring.
func Open(ctx context.Context, connStr string, allowPassword bool) (*Store, error) {
	if err := ValidateConnString(connStr); err != nil {
		if !allowPassword || !errors.Is(err, ErrEmbeddedCredentials) {
			return nil, err
		}
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(connStr) {
			return nil, fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		connStr:  connStr,
		db:       db,
		watchers: make(map[string]map[*watcher]struct{}),
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	runner := migration.NewRunner(s.db, subFS, migration.Postgres)
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Debug(msg)
	})
	return err
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = $1 AND id = $2", collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return decode(body, id)
}

func (s *Store) Put(ctx context.Context, collection, id string, doc docstore.Document, merge bool) error {
	clean := docstore.Clone(doc)
	delete(clean, docstore.IDField)
	if clean == nil {
		clean = docstore.Document{}
	}
	body, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("failed to serialize %s/%s: %w", collection, id, err)
	}

	conflict := "body = excluded.body"
	if merge {
		conflict = "body = documents.body || excluded.body"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, body, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id) DO UPDATE SET `+conflict+`, updated_at = now()`,
		collection, id, body)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", constants.PostgresNotifyChannel, channelKey(collection, id)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to notify %s/%s: %w", collection, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, collection, id string, fn func(docstore.Document)) (docstore.Subscription, error) {
	if err := s.ensureListener(); err != nil {
		return nil, err
	}

	key := channelKey(collection, id)
	w := &watcher{fn: fn}
	s.mu.Lock()
	if s.watchers[key] == nil {
		s.watchers[key] = make(map[*watcher]struct{})
	}
	s.watchers[key][w] = struct{}{}
	s.mu.Unlock()

	current, err := s.Get(ctx, collection, id)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		s.removeWatcher(key, w)
		return nil, err
	}
	fn(current)

	var once sync.Once
	unsubscribe := func() error {
		once.Do(func() { s.removeWatcher(key, w) })
		return nil
	}
	go func() {
		<-ctx.Done()
		_ = unsubscribe()
	}()
	return docstore.SubscriptionFunc(unsubscribe), nil
}

func (s *Store) removeWatcher(key string, w *watcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers[key], w)
	if len(s.watchers[key]) == 0 {
		delete(s.watchers, key)
	}
}

// ensureListener starts the shared LISTEN connection on first use.
func (s *Store) ensureListener() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	l := pq.NewListener(s.connStr, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Postgres listener event", "event", ev, "error", err)
		}
	})
	if err := l.Listen(constants.PostgresNotifyChannel); err != nil {
		l.Close()
		return fmt.Errorf("failed to listen on %s: %w", constants.PostgresNotifyChannel, err)
	}
	s.listener = l
	go s.dispatch(l)
	return nil
}

func (s *Store) dispatch(l *pq.Listener) {
	for n := range l.Notify {
		// A nil notification follows a reconnect; events may have been missed.
		if n == nil {
			s.refreshAll()
			continue
		}
		s.refresh(n.Extra)
	}
}

func (s *Store) refreshAll() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.watchers))
	for key := range s.watchers {
		keys = append(keys, key)
	}
	s.mu.Unlock()
	for _, key := range keys {
		s.refresh(key)
	}
}

func (s *Store) refresh(key string) {
	s.mu.Lock()
	fns := make([]func(docstore.Document), 0, len(s.watchers[key]))
	for w := range s.watchers[key] {
		fns = append(fns, w.fn)
	}
	s.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	collection, id, _ := strings.Cut(key, "/")
	ctx, cancel := context.WithTimeout(context.Background(), constants.RemoteTimeout)
	defer cancel()
	doc, err := s.Get(ctx, collection, id)
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		logger.Warn("Failed to re-read document after notify", "key", key, "error", err)
		return
	}
	for _, fn := range fns {
		fn(docstore.Clone(doc))
	}
}

func (s *Store) QueryRange(ctx context.Context, collection, field, start, end string) ([]docstore.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, body FROM documents
		WHERE collection = $1 AND body->>($2::text) BETWEEN $3 AND $4
		ORDER BY body->>($2::text)`,
		collection, field, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		doc, err := decode(body, id)
		if err != nil {
			logger.Warn("Skipping unreadable document", "collection", collection, "id", id, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	l := s.listener
	s.listener = nil
	s.watchers = make(map[string]map[*watcher]struct{})
	s.mu.Unlock()

	if l != nil {
		_ = l.Close()
	}
	return s.db.Close()
}

func channelKey(collection, id string) string {
	return collection + "/" + id
}

func decode(body []byte, id string) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	if doc == nil {
		doc = docstore.Document{}
	}
	doc[docstore.IDField] = id
	return doc, nil
}
