// Package memory is an in-process docstore.Store, used when no remote is
// configured and as the remote double in tests.
package memory

import (
	"context"
	"sync"

	"github.com/julianstephens/rollcall/internal/docstore"
)

type key struct {
	collection string
	id         string
}

type listener struct {
	fn func(docstore.Document)
}

type Store struct {
	mu        sync.RWMutex
	docs      map[key]docstore.Document
	listeners map[key]map[*listener]struct{}
}

func New() *Store {
	return &Store{
		docs:      make(map[key]docstore.Document),
		listeners: make(map[key]map[*listener]struct{}),
	}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key{collection, id}]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return docstore.Clone(doc), nil
}

func (s *Store) Put(ctx context.Context, collection, id string, doc docstore.Document, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := key{collection, id}

	s.mu.Lock()
	next := docstore.Clone(doc)
	if merge {
		next = docstore.Merge(s.docs[k], doc)
	}
	if next == nil {
		next = docstore.Document{}
	}
	next[docstore.IDField] = id
	s.docs[k] = next

	fns := make([]func(docstore.Document), 0, len(s.listeners[k]))
	for l := range s.listeners[k] {
		fns = append(fns, l.fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(docstore.Clone(next))
	}
	return nil
}

// Subscribe delivers synchronously: the current document before it returns,
// and each later write from within Put.
func (s *Store) Subscribe(ctx context.Context, collection, id string, fn func(docstore.Document)) (docstore.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := key{collection, id}
	l := &listener{fn: fn}

	s.mu.Lock()
	if s.listeners[k] == nil {
		s.listeners[k] = make(map[*listener]struct{})
	}
	s.listeners[k][l] = struct{}{}
	current := docstore.Clone(s.docs[k])
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	unsubscribe := func() error {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners[k], l)
			if len(s.listeners[k]) == 0 {
				delete(s.listeners, k)
			}
			s.mu.Unlock()
		})
		return nil
	}
	go func() {
		<-ctx.Done()
		_ = unsubscribe()
	}()
	return docstore.SubscriptionFunc(unsubscribe), nil
}

func (s *Store) QueryRange(ctx context.Context, collection, field, start, end string) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var out []docstore.Document
	for k, doc := range s.docs {
		if k.collection == collection && docstore.InRange(doc, field, start, end) {
			out = append(out, docstore.Clone(doc))
		}
	}
	s.mu.RUnlock()

	docstore.SortByField(out, field)
	return out, nil
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	s.listeners = make(map[key]map[*listener]struct{})
	s.mu.Unlock()
	return nil
}
