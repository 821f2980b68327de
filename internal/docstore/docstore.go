// Package docstore defines the remote document store the tracker syncs
// attendance and roster documents through.
package docstore

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned by Get when no document exists under the id.
var ErrNotFound = errors.New("document not found")

// IDField is the key every returned Document carries its id under.
const IDField = "id"

// Document is a schemaless JSON-like object. Nested values are plain
// map[string]any, []any, string, float64, bool or nil.
type Document map[string]any

// Subscription is a live listener on one document.
type Subscription interface {
	Close() error
}

// Store is a remote document store keyed by collection and id.
type Store interface {
	// Get returns the document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Put writes doc under id. With merge, top-level fields are combined with
	// the existing document; otherwise the document is replaced.
	Put(ctx context.Context, collection, id string, doc Document, merge bool) error
	// Subscribe calls fn with the current document and again after every
	// change until ctx is done or the subscription is closed. fn receives nil
	// when the document does not exist.
	Subscribe(ctx context.Context, collection, id string, fn func(Document)) (Subscription, error)
	// QueryRange returns documents whose string field lies in [start, end],
	// ordered by that field.
	QueryRange(ctx context.Context, collection, field, start, end string) ([]Document, error)
	Close(ctx context.Context) error
}

// Clone deep-copies a document's maps and slices.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return Document(cloneValue(map[string]any(doc)).(map[string]any))
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return cloneValue(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	}
	return v
}

// Merge returns base with every top-level field of patch applied.
func Merge(base, patch Document) Document {
	out := Clone(base)
	if out == nil {
		out = Document{}
	}
	for k, v := range Clone(patch) {
		out[k] = v
	}
	return out
}

// InRange reports whether doc[field] is a string within [start, end].
func InRange(doc Document, field, start, end string) bool {
	v, ok := doc[field].(string)
	return ok && v >= start && v <= end
}

// SortByField orders documents by a string field, ascending.
func SortByField(docs []Document, field string) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, _ := docs[i][field].(string)
		b, _ := docs[j][field].(string)
		return a < b
	})
}

// SubscriptionFunc adapts a cancel function to Subscription.
type SubscriptionFunc func() error

func (f SubscriptionFunc) Close() error { return f() }
