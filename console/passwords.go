// Copyright (c) Qualcomm Technologies, Inc. and/or its subsidiaries.
// SPDX-License-Identifier: BSD-3-Clause-Clear

package console

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/eclipse-hono/regctl/cli/api"
)

// Hash functions of hashed-password secrets understood by the registry.
const (
	HashBcrypt = "bcrypt"
	HashSha256 = "sha-256"
	HashSha512 = "sha-512"
)

var HashFunctions = []string{HashBcrypt, HashSha256, HashSha512}

const saltLen = 16

// HashPassword returns a hashed-password secret for password. bcrypt
// carries its salt inside the hash, the sha variants get a random salt that
// is prepended to the password before hashing.
func HashPassword(password, hashFunction string) (api.Secret, error) {
	if password == "" {
		return api.Secret{}, errors.New("password must not be empty")
	}
	if hashFunction == HashBcrypt {
		dk, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return api.Secret{}, fmt.Errorf("unexpected error hashing password: %w", err)
		}
		return api.Secret{HashFunction: HashBcrypt, PwdHash: string(dk)}, nil
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return api.Secret{}, fmt.Errorf("unable to generate salt: %w", err)
	}
	dk, err := saltedHash(hashFunction, salt, password)
	if err != nil {
		return api.Secret{}, err
	}
	return api.Secret{
		HashFunction: hashFunction,
		PwdHash:      base64.StdEncoding.EncodeToString(dk),
		Salt:         base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// VerifyPassword checks password against a hashed-password secret.
func VerifyPassword(password string, secret api.Secret) (bool, error) {
	if secret.PwdHash == "" {
		return false, errors.New("secret has no password hash")
	}
	if secret.HashFunction == HashBcrypt {
		err := bcrypt.CompareHashAndPassword([]byte(secret.PwdHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}
	storedHash, err := base64.StdEncoding.DecodeString(secret.PwdHash)
	if err != nil {
		return false, fmt.Errorf("unexpected error decoding password hash: %w", err)
	}
	var salt []byte
	if secret.Salt != "" {
		if salt, err = base64.StdEncoding.DecodeString(secret.Salt); err != nil {
			return false, fmt.Errorf("unexpected error decoding salt: %w", err)
		}
	}
	dk, err := saltedHash(secret.HashFunction, salt, password)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(dk, storedHash) == 1, nil
}

func saltedHash(hashFunction string, salt []byte, password string) ([]byte, error) {
	data := append(append([]byte{}, salt...), password...)
	switch hashFunction {
	case HashSha256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case HashSha512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash function: %q", hashFunction)
	}
}
