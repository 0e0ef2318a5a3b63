// Package account models the locally stored ACME account: an ECDSA P-256
// key in PKCS#8 form, contact emails, and the CA-assigned account URI.
//
// The Store contract keys accounts by CA directory host so a staging
// registration never shadows the production one. FileStore implements it
// with atomic JSON writes; an S3-backed implementation lives under
// integration/storage.
package account
