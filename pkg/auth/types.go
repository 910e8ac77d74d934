// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"context"
	"fmt"
)

// Credential is a stored secret identified by an opaque id. Secret holds the
// plaintext and must never be logged or included in errors.
type Credential struct {
	ID     string
	Secret []byte
}

// String implements fmt.Stringer without exposing the secret.
func (c *Credential) String() string {
	if c == nil {
		return "<nil credential>"
	}
	return fmt.Sprintf("credential(%s)", c.ID)
}

// GoString keeps %#v from printing the secret.
func (c *Credential) GoString() string {
	return c.String()
}

// Token is a session token and the cookie it was extracted from.
// Tokens carry no expiry; callers request a new one on 401.
type Token struct {
	Value      string
	CookieName string
}

// HeaderValue returns the Authorization header value for the token.
func (t *Token) HeaderValue() string {
	return "token=" + t.Value
}

// Equal reports whether two tokens carry the same value. Nil tokens are equal
// only to each other.
func (t *Token) Equal(o *Token) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Value == o.Value
}

// String implements fmt.Stringer without exposing the token value.
func (t *Token) String() string {
	if t == nil {
		return "<nil token>"
	}
	return fmt.Sprintf("token(cookie=%s)", t.CookieName)
}

// Provider acquires tokens for the orchestrator.
type Provider interface {
	// Token performs a fresh token acquisition.
	Token(ctx context.Context) (*Token, error)

	// UpdateCredential acquires a fresh token and writes it back to the
	// credential store under existing.ID. It reports whether the stored
	// value changed.
	UpdateCredential(ctx context.Context, existing *Credential) (bool, error)
}

// CredentialStore looks up and updates credentials by id. Implementations
// must serialize concurrent access to the same id.
type CredentialStore interface {
	Lookup(ctx context.Context, id string) (*Credential, error)
	Update(ctx context.Context, id string, secret []byte) (bool, error)
}
