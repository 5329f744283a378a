// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/eclipse-hono/regctl/cli/api"
)

func TestHashPasswordAndVerify(t *testing.T) {
	password := "correct-horse-battery-staple"

	for _, fn := range HashFunctions {
		t.Run(fn, func(t *testing.T) {
			secret, err := HashPassword(password, fn)
			if err != nil {
				t.Fatalf("HashPassword returned error: %v", err)
			}
			if secret.HashFunction != fn {
				t.Errorf("unexpected hash function: %s", secret.HashFunction)
			}
			if secret.PwdPlain != "" {
				t.Error("plain password must not be part of a hashed secret")
			}

			ok, err := VerifyPassword(password, secret)
			if err != nil {
				t.Fatalf("VerifyPassword returned error: %v", err)
			}
			if !ok {
				t.Error("VerifyPassword should return true for the correct password")
			}

			ok, err = VerifyPassword("wrong-password", secret)
			if err != nil {
				t.Fatalf("VerifyPassword returned error: %v", err)
			}
			if ok {
				t.Error("VerifyPassword should return false for an incorrect password")
			}
		})
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	s1, err := HashPassword("same-password", HashSha256)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	s2, err := HashPassword("same-password", HashSha256)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if s1.Salt == s2.Salt || s1.PwdHash == s2.PwdHash {
		t.Error("Two hashes of the same password should differ due to random salts")
	}
}

func TestVerifyPasswordSaltPrefix(t *testing.T) {
	salt := []byte("salt")
	sum := sha256.Sum256(append(append([]byte{}, salt...), "secret"...))
	secret := api.Secret{
		HashFunction: HashSha256,
		PwdHash:      base64.StdEncoding.EncodeToString(sum[:]),
		Salt:         base64.StdEncoding.EncodeToString(salt),
	}
	ok, err := VerifyPassword("secret", secret)
	if err != nil {
		t.Fatalf("VerifyPassword returned error: %v", err)
	}
	if !ok {
		t.Error("salt must be prepended to the password")
	}
}

func TestVerifyPasswordInvalidSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret api.Secret
	}{
		{"no hash", api.Secret{HashFunction: HashSha256}},
		{"unknown function", api.Secret{HashFunction: "md5", PwdHash: "aGFzaA=="}},
		{"invalid base64", api.Secret{HashFunction: HashSha512, PwdHash: "%%%"}},
		{"invalid salt", api.Secret{HashFunction: HashSha512, PwdHash: "aGFzaA==", Salt: "%%%"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyPassword("password", tc.secret)
			if err == nil {
				t.Error("VerifyPassword should return an error for an invalid secret")
			}
		})
	}

	if _, err := HashPassword("", HashSha256); err == nil {
		t.Error("HashPassword should reject an empty password")
	}
	if _, err := HashPassword("password", "md5"); err == nil {
		t.Error("HashPassword should reject an unknown hash function")
	}
}
