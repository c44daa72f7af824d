// Package session stores conversation sessions in Redis, one hash per user.
// Hash fields are the dotted session paths and values are JSON.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/ticketassistant/internal/domain/entities"
	"github.com/zatekoja/ticketassistant/internal/domain/repositories"
	redisclient "github.com/zatekoja/ticketassistant/internal/infrastructure/clients/redis"
	apperrors "github.com/zatekoja/ticketassistant/pkg/errors"
)

const keyPrefix = "session:"

type RedisSessionAdapter struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisSessionAdapter creates the adapter. Every write pushes the key's
// expiry ttl into the future; a zero ttl never expires sessions.
func NewRedisSessionAdapter(client *redisclient.Client, ttl time.Duration) repositories.SessionRepository {
	return &RedisSessionAdapter{client: client, ttl: ttl}
}

func sessionKey(userID string) string {
	return keyPrefix + userID
}

func (a *RedisSessionAdapter) Find(ctx context.Context, userID string) (*entities.Session, error) {
	fields, err := a.client.Client().HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return nil, apperrors.NewExternalError("failed to load session", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	s, err := decodeSession(userID, fields)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to decode session", err)
	}
	return s, nil
}

func (a *RedisSessionAdapter) Create(ctx context.Context, s *entities.Session) error {
	return a.UpdateFields(ctx, s.UserID, entities.SessionFields(s))
}

// UpdateFields writes present values with HSET and removes cleared ones with
// HDEL inside one MULTI/EXEC.
func (a *RedisSessionAdapter) UpdateFields(ctx context.Context, userID string, updates entities.FieldUpdates) error {
	set, del, err := encodeUpdates(updates)
	if err != nil {
		return apperrors.NewInternalError("failed to encode session update", err)
	}
	if len(set) == 0 && len(del) == 0 {
		return nil
	}

	key := sessionKey(userID)
	_, err = a.client.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, key, set)
		}
		if len(del) > 0 {
			pipe.HDel(ctx, key, del...)
		}
		if a.ttl > 0 {
			pipe.Expire(ctx, key, a.ttl)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewExternalError("failed to save session", err)
	}
	return nil
}

// encodeUpdates splits updates into JSON values to set and fields to delete.
// Deleted fields are sorted for a stable command order.
func encodeUpdates(updates entities.FieldUpdates) (map[string]any, []string, error) {
	set := make(map[string]any)
	var del []string
	for path, value := range updates {
		if value == nil {
			del = append(del, path)
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", path, err)
		}
		set[path] = string(data)
	}
	sort.Strings(del)
	return set, del, nil
}

// decodeSession rebuilds a session from a stored hash. Unknown fields are
// ignored so older deployments can add fields.
func decodeSession(userID string, fields map[string]string) (*entities.Session, error) {
	s := &entities.Session{UserID: userID, State: entities.SessionStateIdle}
	updates := make(entities.FieldUpdates, len(fields))
	for _, path := range entities.SessionFieldPaths {
		raw, ok := fields[path]
		if !ok {
			continue
		}
		v, err := entities.DecodeField(path, []byte(raw))
		if err != nil {
			return nil, err
		}
		updates[path] = v
	}
	if err := s.Apply(updates); err != nil {
		return nil, err
	}
	if !s.State.Valid() {
		s.State = entities.SessionStateIdle
	}
	return s, nil
}
