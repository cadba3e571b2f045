/*
Package dsl provides a fluent Go builder for chat flows.

It lets a host define nodes and quick replies in code instead of through the rules API,
which is handy for seeding a fresh install, demos and tests.

Example usage:

	b := dsl.New()

	b.Welcome("Hi! What brings you here?").
		Option("Pricing", "pricing").
		Option("Talk to a human", domain.ShowFormNodeID)

	b.Add("pricing").
		Text("Plans start at $10 per month.")

	// In-memory store for tests...
	store, err := b.Build()

	// ...or seed an existing flow through the editor.
	created, err := b.Seed(ctx, ed)
*/
package dsl
