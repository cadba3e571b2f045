// Package middleware decorates a SubmissionStore so captured leads can be encrypted at rest
// or have personal fields masked before they are persisted.
package middleware

import "github.com/aretw0/chatter/pkg/ports"

// Middleware allows wrapping a SubmissionStore to add behavior.
type Middleware func(ports.SubmissionStore) ports.SubmissionStore

// Chain wraps store with mws. The first middleware sees a Save first.
func Chain(store ports.SubmissionStore, mws ...Middleware) ports.SubmissionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
