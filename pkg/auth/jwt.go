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
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/NVIDIA/marathon-deployer/pkg/errors"
)

// supportedSchemes lists the accepted signing algorithm names in the order
// reported back to users.
var supportedSchemes = []string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512"}

// SupportedSchemes returns the signing algorithm names accepted by SignToken.
func SupportedSchemes() []string {
	return append([]string(nil), supportedSchemes...)
}

// signingKey selects the JWT method for scheme and decodes the key material.
// Symmetric schemes sign with the raw secret; asymmetric schemes expect a PEM
// encoded RSA private key.
func signingKey(scheme string, secret []byte) (jwt.SigningMethod, any, error) {
	switch strings.ToUpper(strings.TrimSpace(scheme)) {
	case "HS256":
		return jwt.SigningMethodHS256, secret, nil
	case "HS384":
		return jwt.SigningMethodHS384, secret, nil
	case "HS512":
		return jwt.SigningMethodHS512, secret, nil
	case "RS256", "RS384", "RS512":
		key, err := jwt.ParseRSAPrivateKeyFromPEM(secret)
		if err != nil {
			// the parse error is dropped; it can quote key material
			return nil, nil, apperrors.New(apperrors.ErrCodeAuthentication,
				"private key is not a PEM encoded RSA private key")
		}
		return jwt.GetSigningMethod(strings.ToUpper(strings.TrimSpace(scheme))), key, nil
	default:
		return nil, nil, apperrors.NewWithContext(apperrors.ErrCodeAuthentication,
			fmt.Sprintf("unsupported algorithm %q, supported schemes: %s", scheme, strings.Join(SupportedSchemes(), ", ")),
			map[string]any{"scheme": scheme})
	}
}

// SignToken builds the login JWT carrying the uid claim, an issued-at time of
// now and an expiry of now plus ttl.
func SignToken(uid, scheme string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	method, key, err := signingKey(scheme, secret)
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"uid": uid,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeAuthentication, "failed to sign login token", err)
	}
	return signed, nil
}
