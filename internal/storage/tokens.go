package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenKey holds the cached OAuth grant used for silent reconnects
const TokenKey = "ohm-drive-token"

// TokenCache keeps the OAuth token in the local store
type TokenCache struct {
	kv KV
}

// NewTokenCache creates a token cache over kv
func NewTokenCache(kv KV) *TokenCache {
	return &TokenCache{kv: kv}
}

// Load returns the cached token
func (c *TokenCache) Load(ctx context.Context) (*oauth2.Token, error) {
	raw, err := c.kv.Get(ctx, TokenKey)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return &tok, nil
}

// Save replaces the cached token
func (c *TokenCache) Save(ctx context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return c.kv.Set(ctx, TokenKey, string(data))
}

// Clear drops the cached token
func (c *TokenCache) Clear(ctx context.Context) error {
	return c.kv.Delete(ctx, TokenKey)
}
