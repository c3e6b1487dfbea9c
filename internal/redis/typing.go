package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TypingState is the ephemeral per-(conversation, actor) typing record.
// It lives only in Redis with a short TTL; no history is retained.
type TypingState struct {
	UserID    string    `json:"user_id"`
	IsTyping  bool      `json:"is_typing"`
	UpdatedAt time.Time `json:"updated_at"`
}

const typingKeyPrefix = "typing:"

// TypingStore upserts and reads typing indicators.
type TypingStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewTypingStore(client *goredis.Client, ttl time.Duration) *TypingStore {
	if ttl == 0 {
		ttl = 10 * time.Second
	}
	return &TypingStore{client: client, ttl: ttl}
}

func typingKey(conversationID, userID string) string {
	return typingKeyPrefix + conversationID + ":" + userID
}

// Set upserts the typing state. A false state is written rather than deleted
// so a poller can distinguish "stopped typing" from "never typed".
func (t *TypingStore) Set(ctx context.Context, conversationID, userID string, isTyping bool) error {
	state := TypingState{
		UserID:    userID,
		IsTyping:  isTyping,
		UpdatedAt: time.Now(),
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, typingKey(conversationID, userID), data, t.ttl).Err()
}

// Get returns the typing state for one actor in a conversation. Expired or
// absent keys read as not typing.
func (t *TypingStore) Get(ctx context.Context, conversationID, userID string) (TypingState, error) {
	raw, err := t.client.Get(ctx, typingKey(conversationID, userID)).Result()
	if err == goredis.Nil {
		return TypingState{UserID: userID}, nil
	}
	if err != nil {
		return TypingState{}, err
	}
	var state TypingState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return TypingState{}, err
	}
	return state, nil
}

// AnyTyping reports whether any actor other than userID is typing in the
// conversation.
func (t *TypingStore) AnyTyping(ctx context.Context, conversationID, excludeUserID string) (bool, error) {
	pattern := typingKeyPrefix + conversationID + ":*"
	iter := t.client.Scan(ctx, 0, pattern, 50).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == typingKey(conversationID, excludeUserID) {
			continue
		}
		raw, err := t.client.Get(ctx, key).Result()
		if err == goredis.Nil {
			continue
		}
		if err != nil {
			return false, err
		}
		var state TypingState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			continue
		}
		if state.IsTyping {
			return true, nil
		}
	}
	return false, iter.Err()
}
