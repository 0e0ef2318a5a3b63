// Package keeper drives the certificate lifecycle as a sequential state
// machine.
//
// The states run in order: ServerStartup seeds the selector from stored
// bundles and halts when no publicly resolvable domain is configured;
// InitializeAccount loads the stored ACME account for the configured CA,
// branching to CreateAccount or RevalidateAccount; GenerateCertificate
// issues through the certificate factory when the held certificate is
// missing, incomplete, or inside the renewal window; CheckForRenewal sleeps
// one check period and loops back. A state error stops the machine.
//
// Exactly one issuance is in flight at any time. Issued bundles are pushed
// to the selector first and then persisted to every configured repository
// concurrently; persistence failures are logged, never fatal.
package keeper
