// Package devtoken is a minimal HMAC-signed token minter/validator for the
// /doc/:doc_id/auth and websocket-upgrade flows. Real token issuance is out
// of scope per spec.md §1; this exists only so relayctl token mint and the
// dev/test server have something to exercise the TokenMinter/TokenValidator
// seams with, matching SPEC_FULL.md §10 "supplemented features".
/*
 * Copyright (c) 2024-2025, Lens Academy. All rights reserved.
 */
package devtoken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"time"
)

// Signer mints and validates doc_id-scoped tokens of the form
// "<base64-expiry>.<base64-hmac>", where the expiry is the Unix time as 8
// big-endian bytes and both parts use unpadded URL-safe base64. Not a substitute for a real auth scheme --
// a single shared secret, no revocation, no per-user claims.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func New(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

func (s *Signer) Mint(docID string) (string, error) {
	exp := time.Now().Add(s.ttl).Unix()
	return s.sign(docID, exp), nil
}

// Validate implements synctransport.TokenValidator.
func (s *Signer) Validate(_ context.Context, docID, token string) bool {
	return s.verify(docID, token)
}

func (s *Signer) sign(docID string, exp int64) string {
	mac := s.mac(docID, exp)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(exp))
	return base64.RawURLEncoding.EncodeToString(buf[:]) + "." + base64.RawURLEncoding.EncodeToString(mac)
}

func (s *Signer) mac(docID string, exp int64) []byte {
	h := hmac.New(sha256.New, s.secret)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(exp))
	h.Write([]byte(docID))
	h.Write(buf[:])
	return h.Sum(nil)
}

func (s *Signer) verify(docID, token string) bool {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}
	expBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(expBytes) != 8 {
		return false
	}
	exp := int64(binary.BigEndian.Uint64(expBytes))
	if time.Now().Unix() > exp {
		return false
	}
	got, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want := s.mac(docID, exp)
	return subtle.ConstantTimeCompare(got, want) == 1
}
