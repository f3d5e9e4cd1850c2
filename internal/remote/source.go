// Package remote implements the record source client: paginated fetches of
// raw CRM records with bounded retries and pluggable authentication.
package remote

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

// Page is one page of raw records from the remote source. Records stay as raw
// JSON until the mapper decodes them into per-kind structs.
type Page struct {
	Records []json.RawMessage
	HasMore bool
}

// RecordSource fetches pages of a named record collection, optionally
// filtered to records modified after a watermark.
//
// Implementations own their retry policy; a returned error means retries are
// exhausted and the caller should abort the current kind's run.
type RecordSource interface {
	FetchPage(ctx context.Context, kind models.RecordKind, page, perPage int, modifiedSince *time.Time) (*Page, error)
}

// TokenProvider supplies the bearer token for remote requests. Token refresh
// mechanics live behind this interface, outside the sync core.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed token.
type StaticTokenProvider string

// Token implements TokenProvider.
func (p StaticTokenProvider) Token(context.Context) (string, error) {
	return string(p), nil
}
