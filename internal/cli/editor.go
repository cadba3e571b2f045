package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aretw0/chatter/internal/config"
	"github.com/aretw0/chatter/pkg/adapters/api"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/aretw0/chatter/pkg/ports"
	"github.com/aretw0/chatter/pkg/resolver"
)

// Workspace is a loaded flow ready for authoring, plus a resolver to try it out.
type Workspace struct {
	Editor   *editor.Editor
	Resolver ports.Resolver

	release func() error
}

// Close releases the storage backend.
func (w *Workspace) Close() error {
	if w.release == nil {
		return nil
	}
	return w.release()
}

// OpenWorkspace loads the flow for authoring. With remote set, rules are edited through
// the server's rules API and interactions are resolved by the server itself.
// Otherwise the configured storage backend and FAQs are used.
func OpenWorkspace(ctx context.Context, cfg *config.Config, remote bool, logger *slog.Logger) (*Workspace, error) {
	ws := &Workspace{}

	if remote {
		client := api.New(cfg.Widget.APIURL, cfg.Widget.ClientID,
			api.WithHTTPClient(&http.Client{Timeout: cfg.Widget.Timeout}),
			api.WithLogger(logger),
		)
		ws.Editor = editor.New(client.Rules(), editor.WithLogger(logger))
		ws.Resolver = client
	} else {
		stores, err := OpenStores(ctx, cfg.Storage, logger)
		if err != nil {
			return nil, err
		}
		opts := []editor.Option{editor.WithLogger(logger)}
		if stores.Locker != nil {
			opts = append(opts, editor.WithLocker(stores.Locker))
		}
		ws.Editor = editor.New(stores.Nodes, opts...)
		ws.Resolver = resolver.New(stores.Nodes,
			resolver.WithMatcher(resolver.NewMatcher(cfg.FAQs, 0)),
			resolver.WithLogger(logger),
		)
		ws.release = stores.Close
	}

	if _, err := ws.Editor.Load(ctx); err != nil {
		_ = ws.Close()
		return nil, err
	}
	return ws, nil
}
