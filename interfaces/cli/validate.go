package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

func (a *App) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Load the configuration (from --config or $STORAGE_MCP_CONFIG), expand
environment variables and check every section, including the default
storage backend configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate()
		},
	}
}

func (a *App) validate() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(a.stdout, "Configuration is valid\n")
	_, _ = fmt.Fprintf(a.stdout, "  Server: %s\n", cfg.Server.Name)
	_, _ = fmt.Fprintf(a.stdout, "  Log: %s/%s\n", cfg.Log.Level, cfg.Log.Format)
	_, _ = fmt.Fprintf(a.stdout, "  Max concurrent calls: %d\n", cfg.Limits.MaxConcurrent)

	req := cfg.Storage.InitRequest()
	if req.IsEmpty() {
		_, _ = fmt.Fprintf(a.stdout, "  Storage: none (init-backend required)\n")
		return nil
	}
	sc, err := storage.ParseConfig(req)
	if err != nil {
		return fmt.Errorf("storage configuration: %w", err)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Storage: %s", sc.Backend)
	if sc.Bucket != "" {
		_, _ = fmt.Fprintf(a.stdout, " (bucket %s)", sc.Bucket)
	}
	if cfg.Storage.AutoInit {
		_, _ = fmt.Fprintf(a.stdout, ", initialized at startup")
	}
	_, _ = fmt.Fprintln(a.stdout)
	return nil
}
