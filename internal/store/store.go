// Package store is the boundary to the host application's annotation
// persistence. The viewer core only emits and consumes annotation
// records; where they live is the host's business, reached through the
// Store callbacks. The HTTP client below is the default implementation
// for hosts exposing an annotation service.
package store

import (
	"context"

	"github.com/dgallion1/docview/internal/annotation"
)

// Store is the persistence callback surface the session layer calls.
// Implementations must treat records as opaque: the position payload is
// stored verbatim and returned bit-exact.
type Store interface {
	Save(ctx context.Context, docID string, a *annotation.Annotation) error
	List(ctx context.Context, docID string) ([]*annotation.Annotation, error)
	Delete(ctx context.Context, docID, annotationID string) error
}

// Funcs adapts plain callbacks to the Store interface, for hosts that
// wire persistence without a client struct.
type Funcs struct {
	SaveFunc   func(ctx context.Context, docID string, a *annotation.Annotation) error
	ListFunc   func(ctx context.Context, docID string) ([]*annotation.Annotation, error)
	DeleteFunc func(ctx context.Context, docID, annotationID string) error
}

func (f Funcs) Save(ctx context.Context, docID string, a *annotation.Annotation) error {
	if f.SaveFunc == nil {
		return nil
	}
	return f.SaveFunc(ctx, docID, a)
}

func (f Funcs) List(ctx context.Context, docID string) ([]*annotation.Annotation, error) {
	if f.ListFunc == nil {
		return nil, nil
	}
	return f.ListFunc(ctx, docID)
}

func (f Funcs) Delete(ctx context.Context, docID, annotationID string) error {
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, docID, annotationID)
}
