package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/apikey"
	"github.com/agentdeck/agentdeck/internal/port/database"
)

// apiKeySecretBytes is the random secret length behind each key; hex
// encoding doubles it on the wire. The full plaintext stays well under
// bcrypt's 72 byte input limit.
const apiKeySecretBytes = 24

// Bounds on operator-chosen secrets. The lower bound keeps the display
// prefix extractable; the upper bound keeps the full plaintext inside
// bcrypt's 72 byte input limit.
const (
	minKeySecretLen    = apikey.DisplayPrefixLen - len(apikey.KeyPrefix)
	maxKeyPlaintextLen = 72
)

// errInvalidKey keeps rejection reasons indistinguishable to callers: an
// unknown, revoked, or expired key all read the same from outside.
var errInvalidKey = errors.New("invalid api key")

// AuthService mints and validates API keys. Only a bcrypt hash of the key
// is stored; lookup goes through the stored display prefix, then each
// candidate is compared against the presented plaintext.
type AuthService struct {
	store database.Store
	cfg   *config.Auth
}

// NewAuthService creates a new AuthService.
func NewAuthService(store database.Store, cfg *config.Auth) *AuthService {
	return &AuthService{store: store, cfg: cfg}
}

// CreateKey mints a new API key with a generated random secret. The
// plaintext is returned exactly once.
func (s *AuthService) CreateKey(ctx context.Context, req *apikey.CreateRequest) (*apikey.CreateResponse, error) {
	raw, err := generateRandomToken(apiKeySecretBytes)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return s.MintKey(ctx, req, raw)
}

// MintKey mints a key whose secret the caller chose. The admin CLI uses it
// for operator-supplied secrets; the HTTP surface always generates.
func (s *AuthService) MintKey(ctx context.Context, req *apikey.CreateRequest, secret string) (*apikey.CreateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(secret) < minKeySecretLen {
		return nil, fmt.Errorf("secret must be at least %d characters: %w", minKeySecretLen, domain.ErrValidation)
	}
	plainKey := apikey.KeyPrefix + secret
	if len(plainKey) > maxKeyPlaintextLen {
		return nil, fmt.Errorf("secret longer than %d characters: %w", maxKeyPlaintextLen-len(apikey.KeyPrefix), domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainKey), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	var expiresAt time.Time
	if req.ExpiresIn > 0 {
		expiresAt = time.Now().UTC().Add(time.Duration(req.ExpiresIn) * time.Second)
	}

	k := &apikey.Key{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Prefix:     plainKey[:apikey.DisplayPrefixLen],
		SecretHash: string(hash),
		Scopes:     req.Scopes,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.CreateAPIKey(ctx, k); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	slog.Info("api key created", "key_id", k.ID, "name", k.Name, "scopes", k.Scopes)
	return &apikey.CreateResponse{Key: *k, PlainKey: plainKey}, nil
}

// ValidateKey resolves a presented key to its stored record, or reports it
// invalid.
func (s *AuthService) ValidateKey(ctx context.Context, rawKey string) (*apikey.Key, error) {
	prefix := apikey.DisplayPrefix(rawKey)
	if prefix == "" {
		return nil, errInvalidKey
	}

	candidates, err := s.store.GetAPIKeysByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("lookup api key: %w", err)
	}

	now := time.Now().UTC()
	for i := range candidates {
		k := &candidates[i]
		if bcrypt.CompareHashAndPassword([]byte(k.SecretHash), []byte(rawKey)) != nil {
			continue
		}
		if !k.Active(now) {
			return nil, errInvalidKey
		}
		return k, nil
	}
	return nil, errInvalidKey
}

// List returns all keys, hashes never included in their JSON form.
func (s *AuthService) List(ctx context.Context) ([]apikey.Key, error) {
	return s.store.ListAPIKeys(ctx)
}

// Revoke disables a key immediately.
func (s *AuthService) Revoke(ctx context.Context, id string) error {
	if err := s.store.RevokeAPIKey(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	slog.Info("api key revoked", "key_id", id)
	return nil
}

// --- Helpers ---

func generateRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
