// Package console abstracts interactive operator prompts.
//
// The certificate automation loop occasionally needs a human decision, most
// notably agreeing to a CA's terms of service on first account registration.
// Stdio prompts on the process terminal; Accept answers yes unconditionally
// for non-interactive deployments that pre-accept the terms via
// configuration.
package console
