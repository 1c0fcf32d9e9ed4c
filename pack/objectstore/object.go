package objectstore

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

type putObjectOutput struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int    `json:"size"`
}

func putObjectTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("put-object").
		WithDescription("Write an object: {args:{bucket, key, body | body_base64}, aux:{file, text_io, path_to_file}}. With aux.file the body is read from path_to_file.").
		WithInputSchema(putSchema("bucket", "key")).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "put-object"
			var in putObjectInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}
			body, err := in.Aux.payload(op, in.Args)
			if err != nil {
				return tool.Result{}, err
			}

			if err := client.PutObject(ctx, in.Args.Bucket, in.Args.Key, body); err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(putObjectOutput{Bucket: in.Args.Bucket, Key: in.Args.Key, Size: len(body)})
		}).
		MustBuild()
}

func getObjectTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("get-object").
		WithDescription("Read an object: {args:{bucket, key, stream?, extra_get_args?:{Range:\"bytes=a-b\"}}}. Returns content as text, or content_base64 for binary data.").
		WithInputSchema(argsSchema(map[string]json.RawMessage{
			"bucket":         bucketProp,
			"key":            keyProp,
			"stream":         streamProp,
			"extra_get_args": extraProp,
		}, "bucket", "key")).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "get-object"
			var in getObjectInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			rc, err := client.GetObject(ctx, in.Args.Bucket, in.Args.Key, storage.GetOptions{
				Stream: in.Args.Stream,
				Range:  in.rng,
			})
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			out, err := readContent(rc, cfg.MaxObjectSize, in.Args.Stream)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(out)
		}).
		MustBuild()
}

func headObjectTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("head-object").
		WithDescription("Return object metadata without its content: {args:{bucket, key}}").
		WithInputSchema(objectSchema()).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "head-object"
			var in objectInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			meta, err := client.HeadObject(ctx, in.Args.Bucket, in.Args.Key)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(meta)
		}).
		MustBuild()
}

type deleteObjectOutput struct {
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
	Deleted bool   `json:"deleted"`
}

func deleteObjectTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("delete-object").
		WithDescription("Delete an object: {args:{bucket, key}}").
		WithInputSchema(objectSchema()).
		Destructive().
		Idempotent().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "delete-object"
			var in objectInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			if err := client.DeleteObject(ctx, in.Args.Bucket, in.Args.Key); err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(deleteObjectOutput{Bucket: in.Args.Bucket, Key: in.Args.Key, Deleted: true})
		}).
		MustBuild()
}

type deleteObjectsOutput struct {
	Bucket  string `json:"bucket"`
	Deleted int    `json:"deleted"`
}

func deleteObjectsTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("delete-objects").
		WithDescription("Delete several objects of one bucket in a single batch: {args:{bucket, key_list}}").
		WithInputSchema(argsSchema(map[string]json.RawMessage{
			"bucket":   bucketProp,
			"key_list": tool.ArrayProperty("string", "Keys to delete"),
		}, "bucket", "key_list")).
		Destructive().
		Idempotent().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "delete-objects"
			var in deleteObjectsInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			if err := client.DeleteObjects(ctx, in.Args.Bucket, in.Args.KeyList); err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(deleteObjectsOutput{Bucket: in.Args.Bucket, Deleted: len(in.Args.KeyList)})
		}).
		MustBuild()
}

func listObjectsTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list-objects").
		WithDescription("List objects with size and modification time: {args:{bucket, prefix?, match_pattern?}}. match_pattern keeps keys containing it.").
		WithInputSchema(argsSchema(map[string]json.RawMessage{
			"bucket":        bucketProp,
			"prefix":        prefixProp,
			"match_pattern": tool.Property("string", "Only keys containing this substring"),
		}, "bucket")).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "list-objects"
			var in listInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			objects, err := client.ListObjects(ctx, in.Args.Bucket, in.Args.Prefix, in.Args.MatchPattern)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(objects)
		}).
		MustBuild()
}

func listKeysTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list-keys").
		WithDescription("List object keys: {args:{bucket, prefix?}}").
		WithInputSchema(argsSchema(map[string]json.RawMessage{
			"bucket": bucketProp,
			"prefix": prefixProp,
		}, "bucket")).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "list-keys"
			var in listInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			keys, err := client.ListKeys(ctx, in.Args.Bucket, in.Args.Prefix)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(keys)
		}).
		MustBuild()
}
