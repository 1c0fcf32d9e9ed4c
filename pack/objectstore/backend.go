package objectstore

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

type initBackendOutput struct {
	Backend string `json:"backend"`
	Bucket  string `json:"bucket"`
}

func initBackendTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("init-backend").
		WithDescription("Create the storage client from a configuration: {config:{lithops:{backend, storage_bucket}, <backend>:{...}}, backend?, storage_config?}. Replaces any previous client; the cloudobject registry is kept.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"config":         tool.Property("object", "Configuration with a lithops section and one section per backend"),
			"backend":        tool.Property("string", "Backend overriding lithops.backend"),
			"storage_config": tool.Property("object", "Settings overriding the backend section"),
		})).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			var in initInput
			if err := decode("init-backend", input, &in); err != nil {
				return tool.Result{}, err
			}

			client, err := cfg.Session.Init(ctx, in.InitRequest)
			if err != nil {
				return tool.Result{}, err
			}

			return jsonResult(initBackendOutput{
				Backend: client.Backend(),
				Bucket:  client.Bucket(),
			})
		}).
		MustBuild()
}

func getStorageConfigTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("get-storage-config").
		WithDescription("Return the effective storage configuration with secrets masked").
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			client, err := cfg.Session.Client("get-storage-config")
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode("get-storage-config", input, &emptyInput{}); err != nil {
				return tool.Result{}, err
			}
			return jsonResult(client.StorageConfig())
		}).
		MustBuild()
}
