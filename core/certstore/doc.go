// Package certstore defines the issued-certificate bundle model and the
// persistence contracts around it.
//
// A Certificate pairs a private key with its chain, leaf first, and derives
// everything storage needs from the leaf: the SHA-1 thumbprint that names
// the bundle, the expiry, and the covered domains.
//
// Repository persists bundles and Source loads them back; FileStore
// implements both over password-protected PKCS#12 files written atomically.
// Cloud-backed implementations live under integration/storage.
package certstore
