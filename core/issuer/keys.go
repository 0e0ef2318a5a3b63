package issuer

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"

	"github.com/go-acme/lego/v4/certcrypto"
)

// KeyAlgorithm selects the certificate private key algorithm.
type KeyAlgorithm string

const (
	RS256 KeyAlgorithm = "RS256" // RSA 2048
	ES256 KeyAlgorithm = "ES256" // ECDSA P-256
	ES384 KeyAlgorithm = "ES384" // ECDSA P-384
	ES512 KeyAlgorithm = "ES512" // ECDSA P-521
)

// Valid reports whether the algorithm is one of the supported constants.
func (a KeyAlgorithm) Valid() bool {
	switch a {
	case RS256, ES256, ES384, ES512:
		return true
	}
	return false
}

// generateKey creates a fresh private key for the algorithm. Each issuance
// gets its own key.
func generateKey(alg KeyAlgorithm) (crypto.Signer, error) {
	switch alg {
	case RS256:
		return legoKey(certcrypto.RSA2048)
	case ES256:
		return legoKey(certcrypto.EC256)
	case ES384:
		return legoKey(certcrypto.EC384)
	case ES512:
		return ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyAlgorithm, alg)
	}
}

// legoKey narrows certcrypto's crypto.PrivateKey result to crypto.Signer.
// Both RSA and ECDSA keys it produces implement the interface.
func legoKey(kt certcrypto.KeyType) (crypto.Signer, error) {
	key, err := certcrypto.GeneratePrivateKey(kt)
	if err != nil {
		return nil, fmt.Errorf("generate %s key: %w", kt, err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("generated %s key is not a crypto.Signer: %T", kt, key)
	}
	return signer, nil
}
