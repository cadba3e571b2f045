/*
Package observability provides lifecycle hooks for monitoring conversations.

Metrics exports Prometheus counters and a resolve-duration histogram, and keeps the
tallies behind the dashboard analytics summary. LoggingHooks writes the same events
to a structured logger.
*/
package observability
