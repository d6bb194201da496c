package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	siwe "github.com/spruceid/siwe-go"

	"github.com/musicnerd/musicnerd/internal/constants"
)

var (
	ErrMalformedMessage = errors.New("malformed sign-in message")
	ErrBadSignature     = errors.New("signature does not match address")
	ErrUnknownNonce     = errors.New("nonce expired or already used")
	ErrExpiredMessage   = errors.New("sign-in message expired or not yet valid")
	ErrWrongDomain      = errors.New("sign-in message is for another domain")
	ErrWrongURI         = errors.New("sign-in message is for another origin")
)

// NonceStore is the slice of the cache table SIWE needs.
type NonceStore interface {
	SetCache(ctx context.Context, key string, data []byte, ttl time.Duration) error
	ConsumeCache(ctx context.Context, key string) (bool, error)
}

// SIWE issues nonces and verifies EIP-4361 sign-in messages.
type SIWE struct {
	nonces NonceStore
	domain string
	origin *url.URL
	now    func() time.Time
}

// NewSIWE builds a verifier bound to domain (the message's authority, e.g.
// "musicnerd.xyz") and, when uri is set, to that URI's scheme and host. An empty
// domain accepts any domain; config refuses that in production.
func NewSIWE(nonces NonceStore, domain, uri string) *SIWE {
	s := &SIWE{nonces: nonces, domain: strings.TrimSpace(domain), now: time.Now}
	if uri = strings.TrimSpace(uri); uri != "" {
		if u, err := url.Parse(uri); err == nil && u.Host != "" {
			s.origin = u
		}
	}
	return s
}

// NewNonce stores a single-use nonce valid for constants.NonceTTL.
func (s *SIWE) NewNonce(ctx context.Context) (string, error) {
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.nonces.SetCache(ctx, constants.CachePrefixNonce+nonce, []byte("1"), constants.NonceTTL); err != nil {
		return "", fmt.Errorf("failed to store nonce: %w", err)
	}
	return nonce, nil
}

// Verify checks the message binding, its validity window and the signature, then
// consumes the nonce. It returns the checksummed wallet that signed. A failed
// attempt leaves the nonce usable.
func (s *SIWE) Verify(ctx context.Context, rawMessage, signature string) (string, error) {
	msg, err := siwe.ParseMessage(rawMessage)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if s.domain != "" && !strings.EqualFold(msg.GetDomain(), s.domain) {
		return "", ErrWrongDomain
	}
	if s.origin != nil {
		got := msg.GetURI()
		if !strings.EqualFold(got.Scheme, s.origin.Scheme) || !strings.EqualFold(got.Host, s.origin.Host) {
			return "", ErrWrongURI
		}
	}
	if ok, err := msg.ValidAt(s.now()); !ok || err != nil {
		return "", fmt.Errorf("%w: %v", ErrExpiredMessage, err)
	}
	if _, err := msg.VerifyEIP191(signature); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	ok, err := s.nonces.ConsumeCache(ctx, constants.CachePrefixNonce+msg.GetNonce())
	if err != nil {
		return "", fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !ok {
		return "", ErrUnknownNonce
	}
	return msg.GetAddress().Hex(), nil
}
