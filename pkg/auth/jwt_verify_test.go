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
	"crypto"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// verificationKey returns the key that verifies tokens signed with secret.
func verificationKey(scheme string, secret []byte) (any, error) {
	_, key, err := signingKey(scheme, secret)
	if err != nil {
		return nil, err
	}
	if signer, ok := key.(crypto.Signer); ok {
		return signer.Public(), nil
	}
	return key, nil
}

// verifyToken parses a signed login token with the key derived from secret
// and returns its uid claim.
func verifyToken(signed, scheme string, secret []byte) (string, error) {
	key, err := verificationKey(scheme, secret)
	if err != nil {
		return "", err
	}
	tok, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{strings.ToUpper(strings.TrimSpace(scheme))}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeAuthentication, "login token verification failed", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.New(apperrors.ErrCodeAuthentication, "unexpected claims type")
	}
	uid, _ := claims["uid"].(string)
	return uid, nil
}
