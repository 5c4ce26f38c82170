// Package updates routes decoded webhook updates to command handlers.
//
// Dispatcher implements gateway.Dispatcher. It binds the sender's user id to
// the request context, marks the request as coming from an administrator
// when the sender is in the AdminSet, and routes "/command" text to the
// registered handler. Register handlers before the dispatcher starts serving.
package updates
