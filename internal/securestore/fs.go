package securestore

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FSStore keeps one sealed file per key. Used when no database is
// configured.
type FSStore struct {
	base   string
	sealer *Sealer
}

func NewFSStore(base string, sealer *Sealer) (*FSStore, error) {
	if base == "" {
		base = "./.revise"
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return nil, errors.Wrap(err, "mkdir store")
	}
	return &FSStore{base: base, sealer: sealer}, nil
}

func (s *FSStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." {
		return "", errors.Errorf("bad key %q", key)
	}
	return filepath.Join(s.base, url.PathEscape(key)), nil
}

func (s *FSStore) Get(_ context.Context, key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "read %s", key)
	}
	return s.sealer.Open(string(b))
}

func (s *FSStore) Set(_ context.Context, key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(sealed), 0o600); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return errors.Wrapf(os.Rename(tmp, p), "rename %s", key)
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}
