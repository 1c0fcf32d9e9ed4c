package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/storage-mcp/application"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
	"github.com/felixgeelhaar/storage-mcp/pack/objectstore"
)

// toolInfo is one entry of the tool catalogue.
type toolInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema tool.Schema      `json:"input_schema"`
	Annotations tool.Annotations `json:"annotations"`
}

func (a *App) newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalogue as JSON",
		Long: `Print every tool the server exposes, with its description, input schema
and behavioral annotations. No backend is contacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listTools()
		},
	}
}

func (a *App) listTools() error {
	p, err := objectstore.New(application.NewSession())
	if err != nil {
		return err
	}

	catalogue := make([]toolInfo, 0, len(p.Tools))
	for _, t := range p.Tools {
		catalogue = append(catalogue, toolInfo{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
			Annotations: t.Annotations(),
		})
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(catalogue)
}
