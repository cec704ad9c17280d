package cryptox

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/dmitrijs2005/homeserver/internal/filex"
)

const keyAlgorithm = "ed25519"

var (
	ErrMalformedKey = errors.New("malformed signing key")
	ErrNoKeys       = errors.New("no signing keys")
)

// SigningKey is a versioned ed25519 key used to sign events.
type SigningKey struct {
	Version string
	Key     ed25519.PrivateKey
}

// KeyID is the identifier signatures are published under.
func (k SigningKey) KeyID() string {
	return keyAlgorithm + ":" + k.Version
}

func (k SigningKey) Public() ed25519.PublicKey {
	return k.Key.Public().(ed25519.PublicKey)
}

// GenerateSigningKey creates a key with a random "a_" version.
func GenerateSigningKey() (SigningKey, error) {
	suffix, err := common.MakeRandHexString(2)
	if err != nil {
		return SigningKey{}, err
	}
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SigningKey{}, err
	}
	return SigningKey{Version: "a_" + suffix, Key: priv}, nil
}

// WriteSigningKey writes key as "ed25519 <version> <seed>" on its own line.
func WriteSigningKey(w io.Writer, key SigningKey) error {
	_, err := fmt.Fprintf(w, "%s %s %s\n", keyAlgorithm, key.Version, EncodeBase64(key.Key.Seed()))
	return err
}

// ReadSigningKeys parses one key per non-empty line.
func ReadSigningKeys(r io.Reader) ([]SigningKey, error) {
	var keys []SigningKey
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		parts := strings.Fields(text)
		if len(parts) != 3 || parts[0] != keyAlgorithm {
			return nil, fmt.Errorf("%w: line %d", ErrMalformedKey, line)
		}
		seed, err := DecodeBase64(parts[2])
		if err != nil || len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: line %d: bad seed", ErrMalformedKey, line)
		}
		keys = append(keys, SigningKey{Version: parts[1], Key: ed25519.NewKeyFromSeed(seed)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// LoadOrCreateSigningKey returns the first key in the file at path, creating
// the file with a fresh key when it does not exist. created reports which.
func LoadOrCreateSigningKey(path string) (key SigningKey, created bool, err error) {
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		keys, err := ReadSigningKeys(f)
		if err != nil {
			return SigningKey{}, false, fmt.Errorf("%s: %w", path, err)
		}
		if len(keys) == 0 {
			return SigningKey{}, false, fmt.Errorf("%s: %w", path, ErrNoKeys)
		}
		return keys[0], false, nil

	case !errors.Is(err, fs.ErrNotExist):
		return SigningKey{}, false, err
	}

	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return SigningKey{}, false, err
	}

	key, err = GenerateSigningKey()
	if err != nil {
		return SigningKey{}, false, err
	}

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return SigningKey{}, false, err
	}
	if err := WriteSigningKey(out, key); err != nil {
		_ = out.Close()
		return SigningKey{}, false, err
	}
	if err := out.Close(); err != nil {
		return SigningKey{}, false, err
	}
	return key, true, nil
}
