package securestore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

var (
	ErrNotFound = errors.New("securestore: not found")
	ErrSealed   = errors.New("securestore: cannot open sealed value")
)

// Store persists small secrets (the auth token) at rest.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Sealer encrypts values with nacl/secretbox.
type Sealer struct{ key [32]byte }

// NewSealer takes either 64 hex chars (a raw key) or a passphrase, which is
// hashed to 32 bytes.
func NewSealer(key string) (*Sealer, error) {
	if key == "" {
		return nil, errors.New("securestore: empty key")
	}
	s := &Sealer{}
	if raw, err := hex.DecodeString(key); err == nil && len(raw) == 32 {
		copy(s.key[:], raw)
		return s, nil
	}
	s.key = sha256.Sum256([]byte(key))
	return s, nil
}

type record struct {
	Value     string `json:"value"`
	UpdatedAt int64  `json:"updated_at"`
}

// Seal returns base64(nonce || box).
func (s *Sealer) Seal(value string) (string, error) {
	plain, err := json.Marshal(record{Value: value, UpdatedAt: time.Now().Unix()})
	if err != nil {
		return "", errors.Wrap(err, "marshal record")
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", errors.Wrap(err, "nonce")
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(box) < 24+secretbox.Overhead {
		return "", ErrSealed
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return "", ErrSealed
	}
	var rec record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return "", errors.Wrap(ErrSealed, err.Error())
	}
	return rec.Value, nil
}
