// Package bots onboards, lists and removes tenant bots.
//
// Onboarding checks the token against the Bot API, registers the tenant,
// stores its credential in the secret store, seeds the credential cache and
// points the bot's webhook at /webhook/<tenant id>. The tenant id is derived
// from the bot id, so registering the same bot twice reports
// ErrAlreadyExists.
//
// Listing heals itself: a bot whose token the Bot API rejects is removed on
// the spot and left out of the result.
package bots
