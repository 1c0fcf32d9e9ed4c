package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

var errNotRegularFile = errors.New("not a regular file")

type transferOutput struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	FileName string `json:"file_name,omitempty"`
	Size     int64  `json:"size"`
}

func uploadFileTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("upload-file").
		WithDescription("Upload a local file, using multipart transfers for large files: {args:{file_name, bucket, key?, extra_args?, config?}}. key defaults to the file's base name.").
		WithInputSchema(transferSchema("file_name", "bucket")).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "upload-file"
			var in uploadInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			fi, err := os.Stat(in.Args.FileName)
			if err != nil {
				return tool.Result{}, storage.PayloadRead(in.Args.FileName, err)
			}
			if !fi.Mode().IsRegular() {
				return tool.Result{}, storage.PayloadRead(in.Args.FileName, errNotRegularFile)
			}

			key := in.Args.Key
			if key == "" {
				key = filepath.Base(in.Args.FileName)
			}
			n, err := client.UploadFile(ctx, in.Args.FileName, in.Args.Bucket, key, in.opts)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(transferOutput{Bucket: in.Args.Bucket, Key: key, Size: n})
		}).
		MustBuild()
}

func downloadFileTool(cfg *Config) tool.Tool {
	return tool.NewBuilder("download-file").
		WithDescription("Download an object into a local file, using ranged reads for large objects: {args:{bucket, key, file_name?, extra_args?, config?}}. file_name defaults to the key's base name.").
		WithInputSchema(transferSchema("bucket", "key")).
		WithHandler(func(ctx context.Context, input json.RawMessage) (tool.Result, error) {
			const op = "download-file"
			var in downloadInput
			client, err := cfg.Session.Client(op)
			if err != nil {
				return tool.Result{}, err
			}
			if err := decode(op, input, &in); err != nil {
				return tool.Result{}, err
			}

			fileName := in.Args.FileName
			if fileName == "" {
				fileName = filepath.Base(in.Args.Key)
			}
			n, err := client.DownloadFile(ctx, in.Args.Bucket, in.Args.Key, fileName, in.opts)
			if err != nil {
				return tool.Result{}, storage.Backend(op, err)
			}
			return jsonResult(transferOutput{
				Bucket:   in.Args.Bucket,
				Key:      in.Args.Key,
				FileName: fileName,
				Size:     n,
			})
		}).
		MustBuild()
}
