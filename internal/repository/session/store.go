// Package session persists shared agent session state in Redis hashes. The
// pipeline publishes its side effects (resolved data source, dialect, search
// flags) through this store for downstream agent tools.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
)

// State keys written by the search pipeline.
const (
	keyUserPrompt       = "user_prompt"
	keyDataSourceID     = "data_source_id"
	keyDataSourceSyntax = "data_source_syntax"
	keyDataContext      = "data_context"
	keyCatalogSearched  = "searched_data_catalog"
)

// Store implements the pipeline's session context over rueidis.
type Store struct {
	client rueidis.Client
	ttl    time.Duration
}

// New creates a session store. Every write refreshes the session TTL.
func New(client rueidis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func sessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("agent:session:%s", sessionID)
}

// UserPrompt reads the stored user request for the session. A missing field
// is not an error; the second return reports presence.
func (s *Store) UserPrompt(ctx context.Context, sessionID uuid.UUID) (string, bool, error) {
	cmd := s.client.B().Hget().Key(sessionKey(sessionID)).Field(keyUserPrompt).Build()
	val, err := s.client.Do(ctx, cmd).ToString()
	if rueidis.IsRedisNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read user prompt: %w", err)
	}
	return val, true, nil
}

// PublishDataSourceID publishes the resolved data source. A nil id records an
// explicit null (no data source resolved).
func (s *Store) PublishDataSourceID(ctx context.Context, sessionID uuid.UUID, id *uuid.UUID) error {
	val := ""
	if id != nil {
		val = id.String()
	}
	return s.setField(ctx, sessionID, keyDataSourceID, val)
}

// PublishDataSourceSyntax publishes the data source dialect. An empty dialect
// records an explicit null (lookup failed).
func (s *Store) PublishDataSourceSyntax(ctx context.Context, sessionID uuid.UUID, dialect string) error {
	return s.setField(ctx, sessionID, keyDataSourceSyntax, dialect)
}

// PublishSearchFlags records that the catalog was searched and whether any
// data context was found.
func (s *Store) PublishSearchFlags(ctx context.Context, sessionID uuid.UUID, dataContextFound bool) error {
	key := sessionKey(sessionID)
	cmd := s.client.B().Hset().Key(key).FieldValue().
		FieldValue(keyDataContext, fmt.Sprintf("%t", dataContextFound)).
		FieldValue(keyCatalogSearched, "true").
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("publish search flags: %w", err)
	}
	return s.touch(ctx, key)
}

func (s *Store) setField(ctx context.Context, sessionID uuid.UUID, field, value string) error {
	key := sessionKey(sessionID)
	cmd := s.client.B().Hset().Key(key).FieldValue().FieldValue(field, value).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("publish %s: %w", field, err)
	}
	return s.touch(ctx, key)
}

func (s *Store) touch(ctx context.Context, key string) error {
	if s.ttl <= 0 {
		return nil
	}
	cmd := s.client.B().Expire().Key(key).Seconds(int64(s.ttl.Seconds())).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("refresh session ttl: %w", err)
	}
	return nil
}
