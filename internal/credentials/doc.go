// Package credentials remembers derived page keys between unlocks.
//
// A credential belongs to a scope: "*" for a whole document, or a section id
// when sections are unlocked one at a time. Each scope uses two entries in a
// key/value Storage, mirroring browser localStorage:
//
//	pagelock_passphrase[_<section>]  derived key, hex
//	pagelock_expiration[_<section>]  expiry as unix milliseconds, optional
//
// Stores built WithNamespace prefix both entries with "<namespace>." so that
// pages sharing one Storage keep separate credentials, the way a browser
// keeps localStorage per origin.
//
// Recall never returns an expired credential: it evicts the entry and
// reports ErrExpiredCredential instead.
package credentials
