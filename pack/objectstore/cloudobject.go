package objectstore

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/logging"
)

type putCloudObjectOutput struct {
	Index  int    `json:"index"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func putCloudObjectTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("put-cloudobject").
		WithDescription("Store a body and register a cloudobject handle for it: {args:{bucket?, key?, body | body_base64}, aux:{file, text_io, path_to_file}}. Returns the handle's index; bucket defaults to storage_bucket and key to a generated temporary key.").
		WithInputSchema(putSchema()).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "put-cloudobject"
			var in putInput
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

			obj, err := client.PutCloudObject(ctx, body, in.Args.Bucket, in.Args.Key)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			index := cfg.Session.Registry().Append(obj)

			logging.Debug().
				Add(logging.Index(index)).
				Add(logging.Bucket(obj.Bucket())).
				Add(logging.Key(obj.Key())).
				Msg("cloudobject registered")

			return jsonResult(putCloudObjectOutput{Index: index, Bucket: obj.Bucket(), Key: obj.Key()})
		}).
		MustBuild()
}

func getCloudObjectTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("get-cloudobject").
		WithDescription("Read the object behind a registered cloudobject: {index, stream?}").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"index":  indexProp,
			"stream": streamProp,
		}, "index")).
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "get-cloudobject"
			var in indexInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			obj, err := cfg.Session.Registry().Get(*in.Index)
			if err != nil {
				return tool.Result{}, err
			}
			rc, err := client.GetCloudObject(ctx, obj, storage.GetOptions{Stream: in.Stream})
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			out, err := readContent(rc, cfg.MaxObjectSize, in.Stream)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(out)
		}).
		MustBuild()
}

type deleteCloudObjectOutput struct {
	Index   int  `json:"index"`
	Deleted bool `json:"deleted"`
}

// deleteCloudObjectTool deletes the object before dropping its handle, so a
// failed backend call leaves the registry untouched.
func deleteCloudObjectTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("delete-cloudobject").
		WithDescription("Delete the object behind a registered cloudobject and drop its handle: {index}. Later indices shift down by one.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{"index": indexProp}, "index")).
		Destructive().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "delete-cloudobject"
			var in indexInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			registry := cfg.Session.Registry()
			obj, err := registry.Get(*in.Index)
			if err != nil {
				return tool.Result{}, err
			}
			if err := client.DeleteCloudObject(ctx, obj); err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			// By identity: a concurrent delete may have shifted the index.
			registry.Remove(obj)

			return jsonResult(deleteCloudObjectOutput{Index: *in.Index, Deleted: true})
		}).
		MustBuild()
}

type deleteCloudObjectsOutput struct {
	Start   int `json:"start"`
	End     int `json:"end"`
	Deleted int `json:"deleted"`
}

func deleteCloudObjectsTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("delete-cloudobjects").
		WithDescription("Delete the objects behind cloudobjects [start, end) and drop their handles: {start, end}. Objects are deleted in one batch per bucket.").
		WithInputSchema(tool.ObjectSchema(map[string]json.RawMessage{
			"start": tool.Property("integer", "First index, inclusive"),
			"end":   tool.Property("integer", "Last index, exclusive"),
		}, "start", "end")).
		Destructive().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "delete-cloudobjects"
			var in rangeInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			registry := cfg.Session.Registry()
			objs, err := registry.Slice(*in.Start, *in.End)
			if err != nil {
				return tool.Result{}, err
			}
			if len(objs) > 0 {
				if err := client.DeleteCloudObjects(ctx, objs); err != nil {
					return tool.Result{}, storage.Backend(op, err)
				}
			}
			n := registry.Remove(objs...)

			return jsonResult(deleteCloudObjectsOutput{Start: *in.Start, End: *in.End, Deleted: n})
		}).
		MustBuild()
}

type cloudObjectEntry struct {
	Index   int    `json:"index"`
	Backend string `json:"backend"`
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
}

func listCloudObjectsTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("list-cloudobjects").
		WithDescription("List the registered cloudobjects with their current indices").
		ReadOnly().
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "list-cloudobjects"
			if _, err := cfg.Session.Client(op); err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &emptyInput{}); err != nil {
				return tool.Result{}, err
			}

			objs := cfg.Session.Registry().List()
			entries := make([]cloudObjectEntry, len(objs))
			for i, obj := range objs {
				entries[i] = cloudObjectEntry{
					Index:   i,
					Backend: obj.Backend(),
					Bucket:  obj.Bucket(),
					Key:     obj.Key(),
				}
			}
			return jsonResult(entries)
		}).
		MustBuild()
}
