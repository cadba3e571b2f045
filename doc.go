/*
Package chatter is a guided customer-support chat: a keyed flow graph of bot messages and
quick-reply options, a widget-side conversation state machine, and a lead-capture form.

# Concept

The flow is a graph of nodes. A node either answers with plain text or shows a message
followed by options; each option names the node it leads to. Two nodes always exist:
welcome_node opens every conversation and show_form escalates it to the lead form.

The conversation itself runs in the widget. The controller owns one session, sends each
interaction to a Resolver, folds the reply into the transcript and notifies observers with
a diff. Storage, transport and rendering are adapters behind the ports in pkg/ports.

# Packages

  - pkg/domain: nodes, the flow graph, sessions, diffs and errors. No I/O.
  - pkg/editor: authoring against an authoritative NodeStore.
  - pkg/controller: the interaction state machine.
  - pkg/resolver: the server-side resolver (flow lookups and FAQ matching).
  - pkg/runner: a terminal rendering of the widget.
  - pkg/adapters: memory, file, sqlite and redis stores, the HTTP server and client, MCP tools.

# Usage

	store, _ := memory.NewNodeStore()
	ed := editor.New(store)
	if _, err := ed.Load(ctx); err != nil {
		log.Fatal(err)
	}

	ctrl := controller.New(resolver.New(store), sink, "acme")
	ctrl.Subscribe(func(d *domain.SessionDiff, s *domain.Session) {
		// paint d
	})
	ctrl.Open(ctx)
*/
package chatter
