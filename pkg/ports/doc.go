/*
Package ports defines the driven ports (interfaces) of the chatter flow engine.

These interfaces decouple the editor and the interaction controller from storage and
transport, so the same flow logic runs against memory, SQLite, Redis, YAML files or a
remote chatbot API.

# Key Interfaces

  - Resolver: turns a (kind, payload) request into a Resolution.
  - SubmissionSink: delivers validated lead-form fields.
  - NodeStore: the authoritative persistence of the flow graph.
  - SubmissionStore: persists captured leads.
  - DistributedLocker: serializes graph edits across dashboard replicas.
*/
package ports
