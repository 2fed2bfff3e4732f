package models

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Continuation is the state threaded between successive pages of a sync.
type Continuation struct {
	PageNumber int `json:"pageNumber"`
}

// Encode renders the continuation as an opaque URL-safe token.
func (c Continuation) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeContinuation parses a token produced by Encode. An empty token means
// "start from the beginning" and yields nil.
func DecodeContinuation(token string) (*Continuation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, InvalidValuef("malformed continuation token")
	}
	var c Continuation
	if err := json.Unmarshal(b, &c); err != nil || c.PageNumber < 1 {
		return nil, InvalidValuef("malformed continuation token")
	}
	return &c, nil
}
