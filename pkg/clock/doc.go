// Package clock provides a minimal time abstraction with context-aware
// sleeping.
//
// Production code uses the System clock; tests inject a Manual clock to make
// retry loops and renewal schedules run instantly while still asserting the
// durations that would have been slept.
package clock
