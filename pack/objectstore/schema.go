package objectstore

import (
	"encoding/json"

	"github.com/felixgeelhaar/storage-mcp/domain/tool"
)

var (
	bucketProp = tool.Property("string", "Bucket name")
	keyProp    = tool.Property("string", "Object key")
	prefixProp = tool.Property("string", "Only keys starting with this prefix")
	indexProp  = tool.Property("integer", "Cloudobject index in the session registry")
	streamProp = tool.Property("boolean", "Read through a streaming reader")
	extraProp  = tool.Property("object", "Extra backend arguments")
)

// argsSchema wraps props into the {args: {...}} envelope.
func argsSchema(props map[string]json.RawMessage, required ...string) tool.Schema {
	args := tool.ObjectSchema(props, required...)
	return tool.ObjectSchema(map[string]json.RawMessage{
		"args": tool.ObjectProperty(args, "Operation arguments"),
	}, "args")
}

func bucketSchema() tool.Schema {
	return argsSchema(map[string]json.RawMessage{"bucket": bucketProp}, "bucket")
}

func objectSchema() tool.Schema {
	return argsSchema(map[string]json.RawMessage{"bucket": bucketProp, "key": keyProp}, "bucket", "key")
}

// putSchema describes the {args, aux} envelope of the content-upload tools.
func putSchema(required ...string) tool.Schema {
	args := tool.ObjectSchema(map[string]json.RawMessage{
		"bucket":      bucketProp,
		"key":         keyProp,
		"body":        tool.Property("string", "Text body"),
		"body_base64": tool.Property("string", "Base64-encoded binary body"),
	}, required...)
	auxSchema := tool.ObjectSchema(map[string]json.RawMessage{
		"file":         tool.Property("boolean", "Read the body from path_to_file"),
		"text_io":      tool.Property("boolean", "Read the file as UTF-8 text"),
		"path_to_file": tool.Property("string", "Local file holding the body"),
	})
	return tool.ObjectSchema(map[string]json.RawMessage{
		"args": tool.ObjectProperty(args, "Operation arguments"),
		"aux":  tool.ObjectProperty(auxSchema, "Payload source"),
	}, "args")
}

func transferSchema(required ...string) tool.Schema {
	return argsSchema(map[string]json.RawMessage{
		"file_name":  tool.Property("string", "Local file path"),
		"bucket":     bucketProp,
		"key":        keyProp,
		"extra_args": tool.Property("object", "ContentType and Metadata for the object"),
		"config":     tool.Property("object", "multipart_threshold, multipart_chunksize, max_concurrency"),
	}, required...)
}
