package repository

import (
	"context"

	"pocketmirror/internal/mirror/domain/model"
)

// ListOptions are the request parameters for one page of the remote list
// endpoint. Impersonated marks Token as an impersonation-style credential so
// access rejections can be reported distinctly.
type ListOptions struct {
	Collection   string
	Page         int
	PerPage      int
	Filter       string
	Sort         string
	Fields       []string
	Token        string
	Impersonated bool
}

// RemoteClient is the transport boundary to the remote record store. All
// methods surface the mirror error taxonomy: authentication (403), not found
// (404), remote (any other non-2xx).
type RemoteClient interface {
	// ListRecords fetches one page of records.
	ListRecords(ctx context.Context, opts ListOptions) (*model.ListResult, error)

	// GetRecord fetches a single record by remote id.
	GetRecord(ctx context.Context, collection, id string, fields []string, token string) (model.Record, error)

	// GetCollection fetches the collection schema. Requires elevated
	// credentials.
	GetCollection(ctx context.Context, collection, token string) (*model.CollectionSchema, error)

	// Authenticate exchanges superuser identity/password for a token.
	Authenticate(ctx context.Context, identity, password string) (string, error)
}
