// Package session owns the console's client-side credential lifecycle.
//
// A Store keeps the short-lived access credential in memory and mirrors the
// durable session flags. A Manager wraps the Store with the renewal protocol:
// the first caller that sees an unauthorized response renews the credential
// through the refresh endpoint, every caller arriving while that renewal is in
// flight waits for its single outcome, and a rejected refresh credential ends
// the session exactly once.
package session
