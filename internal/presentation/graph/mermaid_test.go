package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/chatter/internal/presentation/graph"
	"github.com/aretw0/chatter/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []domain.Node
		contains []string
		excludes []string
	}{
		{
			name:  "Core Node Shapes",
			nodes: []domain.Node{domain.NewWelcomeNode(), domain.NewShowFormNode()},
			contains: []string{
				"welcome_node((\"welcome_node\"))",
				"show_form[[\"show_form\"]]",
			},
		},
		{
			name: "Text And Rich Shapes",
			nodes: []domain.Node{
				{ID: "pricing", ResponseType: domain.ResponseText, AnswerText: "From $10"},
				{ID: "menu", ResponseType: domain.ResponseRich, Message: "Pick one"},
			},
			contains: []string{
				"pricing(\"pricing\")",
				"menu[\"menu\"]",
			},
		},
		{
			name: "Option Edges",
			nodes: []domain.Node{
				{ID: domain.WelcomeNodeID, ResponseType: domain.ResponseRich, Options: []domain.Option{
					{Text: "See \"plans\"", Payload: "pricing"},
					{Text: "Talk to us", Payload: domain.ShowFormNodeID},
				}},
				{ID: "pricing", ResponseType: domain.ResponseText, AnswerText: "From $10"},
			},
			contains: []string{
				"welcome_node -- \"See 'plans'\" --> pricing",
				"welcome_node -- \"Talk to us\" --> show_form",
			},
			excludes: []string{".->"},
		},
		{
			name: "Dangling Payload",
			nodes: []domain.Node{
				{ID: "menu", ResponseType: domain.ResponseRich, Options: []domain.Option{
					{Text: "Gone", Payload: "old-page"},
				}},
			},
			contains: []string{"menu -. \"Gone\" .-> old_page"},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := graph.GenerateMermaid(tt.nodes, nil)
			if !strings.HasPrefix(output, "graph TD\n") {
				t.Errorf("expected output to start with 'graph TD', got:\n%s", output)
			}
			for _, s := range tt.contains {
				if !strings.Contains(output, s) {
					t.Errorf("expected output to contain %q, got:\n%s", s, output)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(output, s) {
					t.Errorf("expected output not to contain %q, got:\n%s", s, output)
				}
			}
		})
	}
}

func TestGenerateMermaid_LintOverlay(t *testing.T) {
	g, err := domain.NewFlowGraph(
		domain.NewWelcomeNode(),
		domain.NewShowFormNode(),
		domain.Node{ID: "orphan", ResponseType: domain.ResponseRich, Message: "Lost", Options: []domain.Option{
			{Text: "Nowhere", Payload: "ghost"},
		}},
	)
	if err != nil {
		t.Fatal(err)
	}
	report := domain.Lint(g)

	output := graph.GenerateMermaid(g.ListNodes(), &report)

	for _, s := range []string{
		"classDef missing",
		"class ghost missing;",
		"class orphan unreachable;",
	} {
		if !strings.Contains(output, s) {
			t.Errorf("expected output to contain %q, got:\n%s", s, output)
		}
	}
}
