package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatter/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the chat flow.
// Shapes:
// - welcome_node: ((Circle))
// - show_form: [[Subroutine]]
// - text nodes: (Rounded), since they end the branch
// - rich nodes: [Rectangle]
// Options become labeled edges. When report is given, payloads that name no node are drawn
// as dashed edges to a "missing" placeholder and unreachable nodes are highlighted.
func GenerateMermaid(nodes []domain.Node, report *domain.LintReport) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		known[node.ID] = true
	}

	missing := make(map[string]bool)
	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == domain.WelcomeNodeID:
			opener, closer = "((", "))"
		case node.ID == domain.ShowFormNodeID:
			opener, closer = "[[", "]]"
		case node.ResponseType == domain.ResponseText:
			opener, closer = "(", ")"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.ID), closer)

		for _, opt := range node.Options {
			target := sanitizeMermaidID(opt.Payload)
			arrow := fmt.Sprintf("-- \"%s\" -->", escapeLabel(opt.Text))
			if !known[opt.Payload] && !domain.IsProtected(opt.Payload) {
				arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(opt.Text))
				missing[target] = true
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, target)
		}
	}

	if report == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Lint\n")
	sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
	sb.WriteString("    classDef unreachable fill:#fff8e1,stroke:#f9a825,stroke-width:2px,color:#000;\n")
	for _, u := range report.Unresolved {
		target := sanitizeMermaidID(u.Option.Payload)
		if missing[target] {
			fmt.Fprintf(&sb, "    class %s missing;\n", target)
			delete(missing, target)
		}
	}
	for _, id := range report.Unreachable {
		fmt.Fprintf(&sb, "    class %s unreachable;\n", sanitizeMermaidID(id))
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
