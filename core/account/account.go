package account

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	"github.com/google/uuid"
)

// Account is the locally persisted identity of an ACME registration: the
// private key the CA knows this client by, the contact emails it was
// registered with, and the account URI the CA assigned.
type Account struct {
	ID         string   `json:"id"`
	Emails     []string `json:"emails"`
	PrivateKey []byte   `json:"private_key"` // PKCS#8 DER
	URI        string   `json:"uri,omitempty"`
}

// New creates an account with a fresh ECDSA P-256 key and no registration
// URI yet.
func New(emails []string) (*Account, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate account key: %w", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal account key: %w", err)
	}

	return &Account{
		ID:         uuid.NewString(),
		Emails:     emails,
		PrivateKey: der,
	}, nil
}

// Signer parses the stored private key.
func (a *Account) Signer() (crypto.Signer, error) {
	key, err := x509.ParsePKCS8PrivateKey(a.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse account key: %w", err)
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
	return signer, nil
}

// Contacts returns the emails as mailto: contact URLs for registration.
func (a *Account) Contacts() []string {
	contacts := make([]string, 0, len(a.Emails))
	for _, email := range a.Emails {
		if email == "" {
			continue
		}
		contacts = append(contacts, "mailto:"+email)
	}
	return contacts
}
