package main

import (
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/dsl"
)

// demoFlow is the sample flow seeded by "serve --demo".
func demoFlow() *dsl.Builder {
	b := dsl.New()

	b.Welcome("Hi there! 👋 How can we help you today?").
		Option("See pricing", "pricing").
		Option("Product tour", "tour").
		Option("Talk to a human", domain.ShowFormNodeID)

	b.Add("pricing").
		Rich("We have two plans. Which one fits you?").
		Option("Starter", "plan_starter").
		Option("Business", "plan_business").
		Back()

	b.Add("plan_starter").
		Text("**Starter** is free for up to 100 chats a month.")

	b.Add("plan_business").
		Text("**Business** is $49/month with unlimited chats and lead export.")

	b.Add("tour").
		Text("Chatter answers common questions with quick replies and hands the visitor to your team when needed.")

	return b
}
