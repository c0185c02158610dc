package toolset

import (
	"context"
	"fmt"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"

	"github.com/jonwraymond/rigorexec/backend"
)

// Documented is implemented by backends that carry tool documentation.
type Documented interface {
	Def(name string) (ToolDef, bool)
}

// Publish registers every tool of b in idx and, when docs is non-nil, its
// summary and notes in docs. It returns the registered tool IDs.
func Publish(ctx context.Context, idx index.Index, docs *tooldoc.InMemoryStore, b backend.Backend) ([]string, error) {
	tools, err := b.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools of %s: %w", b.Name(), err)
	}
	documented, _ := b.(Documented)

	ids := make([]string, 0, len(tools))
	for _, tool := range tools {
		if tool.Namespace == "" {
			tool.Namespace = b.Name()
		}
		id := backend.FormatToolID(tool.Namespace, tool.Name)
		if err := idx.RegisterTool(tool, model.NewLocalBackend(id)); err != nil {
			return ids, fmt.Errorf("register %s: %w", id, err)
		}
		ids = append(ids, id)

		if docs == nil || documented == nil {
			continue
		}
		def, ok := documented.Def(tool.Name)
		if !ok || (def.Summary == "" && def.Notes == "") {
			continue
		}
		if err := docs.RegisterDoc(id, tooldoc.DocEntry{Summary: def.Summary, Notes: def.Notes}); err != nil {
			return ids, fmt.Errorf("document %s: %w", id, err)
		}
	}
	return ids, nil
}
