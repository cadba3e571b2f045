/*
Package domain contains the core models of the Chatter guided flow engine.

It defines the authoring side of a flow (Nodes, Options and the FlowGraph that holds them)
and the runtime side (the conversation Session, its append-only transcript and the tagged
Resolution variants returned by a resolver). This package is kept pure and free of I/O, so
that the editor, the controller and every adapter share the same vocabulary.

# Key Entities

  - Node: one addressable point of the flow, either a plain text answer or a rich message with options.
  - Option: a labeled quick reply whose payload names another node or free text for the resolver.
  - FlowGraph: the ordered, keyed set of nodes used by authoring tools.
  - Session: one open widget instance (transcript, quick replies, phase and UI mode).
  - Resolution: the outcome of resolving a transition (text, rich, form escalation or failure).
*/
package domain
