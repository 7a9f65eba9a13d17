// Package attest signs and verifies report files with detached OpenPGP signatures.
package attest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ErrNoKey is returned when a keyring holds no key usable for the operation
var ErrNoKey = errors.New("no usable OpenPGP key")

// Signer produces armored detached signatures
type Signer struct {
	entity *openpgp.Entity
}

// NewSigner wraps an entity whose private key is already decrypted
func NewSigner(e *openpgp.Entity) *Signer {
	return &Signer{entity: e}
}

// LoadSigner reads an armored private key and decrypts it with passphrase if needed
func LoadSigner(r io.Reader, passphrase []byte) (*Signer, error) {
	entities, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	for _, e := range entities {
		if e.PrivateKey == nil {
			continue
		}
		if e.PrivateKey.Encrypted {
			if len(passphrase) == 0 {
				return nil, fmt.Errorf("%w: private key is encrypted and no passphrase was given", ErrNoKey)
			}
			if err := e.PrivateKey.Decrypt(passphrase); err != nil {
				return nil, fmt.Errorf("failed to decrypt private key: %w", err)
			}
			for _, sub := range e.Subkeys {
				if sub.PrivateKey != nil && sub.PrivateKey.Encrypted {
					if err := sub.PrivateKey.Decrypt(passphrase); err != nil {
						return nil, fmt.Errorf("failed to decrypt subkey: %w", err)
					}
				}
			}
		}
		return &Signer{entity: e}, nil
	}
	return nil, ErrNoKey
}

// LoadSignerFile is LoadSigner for a key file on disk
func LoadSignerFile(path string, passphrase []byte) (*Signer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer f.Close()
	return LoadSigner(f, passphrase)
}

// Sign returns an armored detached signature over data
func (s *Signer) Sign(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), nil); err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return buf.Bytes(), nil
}

// Verify checks an armored detached signature against an armored public keyring and
// returns the primary identity of the signer.
func Verify(keyring io.Reader, data, signature []byte) (string, error) {
	entities, err := openpgp.ReadArmoredKeyRing(keyring)
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	if len(entities) == 0 {
		return "", ErrNoKey
	}

	signer, err := openpgp.CheckArmoredDetachedSignature(entities, bytes.NewReader(data), bytes.NewReader(signature), nil)
	if err != nil {
		return "", fmt.Errorf("signature verification failed: %w", err)
	}
	for name := range signer.Identities {
		return name, nil
	}
	return fmt.Sprintf("%X", signer.PrimaryKey.Fingerprint), nil
}
