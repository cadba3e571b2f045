/*
Package controller drives one conversation session: it sends user actions to a Resolver,
applies the resulting Resolution to the session, and delivers lead-form submissions.

At most one interaction is in flight per session. A second submit while resolving is
dropped with a warning and never reaches the resolver. Every failure path removes the
typing indicator and returns the session to AwaitingInput.

Renderers observe the session through Observer callbacks, which receive the diff of each
transition together with a snapshot. Observers run synchronously and in transition order,
so they must not call mutating Controller methods.
*/
package controller
