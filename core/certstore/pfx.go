package certstore

import (
	"crypto"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	"software.sslmate.com/src/go-pkcs12"
)

// EncodePFX serializes the bundle as a password-protected PKCS#12 payload.
func EncodePFX(cert *Certificate, password string) ([]byte, error) {
	if cert == nil || cert.Leaf() == nil {
		return nil, ErrEmptyChain
	}

	data, err := pkcs12.Encode(rand.Reader, cert.PrivateKey, cert.Leaf(), cert.Chain[1:], password)
	if err != nil {
		return nil, fmt.Errorf("encode pkcs12 bundle: %w", err)
	}
	return data, nil
}

// DecodePFX parses a PKCS#12 payload back into a bundle.
func DecodePFX(data []byte, password string) (*Certificate, error) {
	key, leaf, caCerts, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode pkcs12 bundle: %w", err)
	}
	if leaf == nil {
		return nil, ErrEmptyChain
	}

	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}

	return &Certificate{
		PrivateKey: signer,
		Chain:      append([]*x509.Certificate{leaf}, caCerts...),
	}, nil
}
