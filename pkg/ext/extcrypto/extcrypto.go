// Package extcrypto provides identifier and hashing functions for gospel
// expressions.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5"  //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/gospel/pkg/ext/extutil"
	"github.com/sandrolain/gospel/pkg/functions"
	"github.com/sandrolain/gospel/pkg/types"
)

// All returns all cryptographic function definitions.
func All() []functions.CustomFunctionDef {
	return []functions.CustomFunctionDef{
		UUID(),
		IsUUID(),
		Hash(),
		HMAC(),
		Base64Encode(),
		Base64Decode(),
	}
}

// UUID returns the definition for #uuid(): a random version 4 UUID string.
func UUID() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "uuid",
		MinArgs: 0,
		MaxArgs: 0,
		Fn: func(_ context.Context, _ ...any) (any, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return nil, types.Errorf(types.ErrCallFailed, "#uuid: %v", err).WithCause(err)
			}
			return id.String(), nil
		},
	}
}

// IsUUID returns the definition for #isUUID(str).
func IsUUID() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "isUUID",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, ok := args[0].(string)
			if !ok {
				return false, nil
			}
			_, err := uuid.Parse(str)
			return err == nil, nil
		},
	}
}

// Hash returns the definition for #hash(str, algorithm).
// Supported algorithms: "md5", "sha1", "sha256", "sha384", "sha512".
// Returns a lowercase hex-encoded digest.
func Hash() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "hash",
		MinArgs: 2,
		MaxArgs: 2,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("hash", args, 0)
			if err != nil {
				return nil, err
			}
			algorithm, err := extutil.String("hash", args, 1)
			if err != nil {
				return nil, err
			}
			newHash, err := hasher("hash", algorithm)
			if err != nil {
				return nil, err
			}
			h := newHash()
			h.Write([]byte(str))
			return hex.EncodeToString(h.Sum(nil)), nil
		},
	}
}

// HMAC returns the definition for #hmac(str, key, algorithm).
// Returns a lowercase hex-encoded HMAC.
func HMAC() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "hmac",
		MinArgs: 3,
		MaxArgs: 3,
		Fn: func(_ context.Context, args ...any) (any, error) {
			var s [3]string
			for i := range s {
				v, err := extutil.String("hmac", args, i)
				if err != nil {
					return nil, err
				}
				s[i] = v
			}
			newHash, err := hasher("hmac", s[2])
			if err != nil {
				return nil, err
			}
			mac := hmac.New(newHash, []byte(s[1]))
			mac.Write([]byte(s[0]))
			return hex.EncodeToString(mac.Sum(nil)), nil
		},
	}
}

// Base64Encode returns the definition for #base64Encode(str).
func Base64Encode() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "base64Encode",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("base64Encode", args, 0)
			if err != nil {
				return nil, err
			}
			return base64.StdEncoding.EncodeToString([]byte(str)), nil
		},
	}
}

// Base64Decode returns the definition for #base64Decode(str).
func Base64Decode() functions.CustomFunctionDef {
	return functions.CustomFunctionDef{
		Name:    "base64Decode",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(_ context.Context, args ...any) (any, error) {
			str, err := extutil.String("base64Decode", args, 0)
			if err != nil {
				return nil, err
			}
			b, err := base64.StdEncoding.DecodeString(str)
			if err != nil {
				return nil, types.Errorf(types.ErrInvalidArgument, "#base64Decode: %v", err).WithCause(err)
			}
			return string(b), nil
		},
	}
}

func hasher(fn, algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil //nolint:gosec
	case "sha1":
		return sha1.New, nil //nolint:gosec
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	}
	return nil, types.Errorf(types.ErrInvalidArgument,
		"#%s: unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", fn, algorithm)
}
