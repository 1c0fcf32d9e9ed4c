package objectstore

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

type createBucketOutput struct {
	Bucket  string `json:"bucket"`
	Created bool   `json:"created"`
}

func createBucketTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("create-bucket").
		WithDescription("Create a bucket: {args:{bucket}}").
		WithInputSchema(bucketSchema()).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "create-bucket"
			var in bucketInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			if err := client.CreateBucket(ctx, in.Args.Bucket); err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(createBucketOutput{Bucket: in.Args.Bucket, Created: true})
		}).
		MustBuild()
}

func headBucketTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("head-bucket").
		WithDescription("Check whether a bucket exists: {args:{bucket}}").
		WithInputSchema(bucketSchema()).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "head-bucket"
			var in bucketInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			status, err := client.HeadBucket(ctx, in.Args.Bucket)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(status)
		}).
		MustBuild()
}
