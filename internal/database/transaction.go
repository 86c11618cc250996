package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs a unit of work. When Atomic reports true every repository
// call made with the ctx passed to fn commits or aborts together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Atomic() bool
}

type mongoTransactor struct {
	client  *mongo.Client
	enabled bool
}

// NewTransactor returns a transactor backed by Mongo sessions. Standalone
// servers do not support multi-document transactions, so enabled=false runs
// fn directly and leaves compensation to the caller.
func NewTransactor(client *mongo.Client, enabled bool) Transactor {
	return &mongoTransactor{client: client, enabled: enabled}
}

func (t *mongoTransactor) Atomic() bool {
	return t.enabled
}

func (t *mongoTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// Direct runs work without a session.
type Direct struct{}

func (Direct) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (Direct) Atomic() bool {
	return false
}
