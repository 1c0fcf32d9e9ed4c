package objectstore_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/felixgeelhaar/storage-mcp/application"
	"github.com/felixgeelhaar/storage-mcp/domain/pack"
	"github.com/felixgeelhaar/storage-mcp/domain/storage"
	"github.com/felixgeelhaar/storage-mcp/infrastructure/backend"
	"github.com/felixgeelhaar/storage-mcp/pack/objectstore"
)

const memoryInit = `{"config":{"lithops":{"backend":"memory","storage_bucket":"b1"}}}`

// countingClient wraps a client, counting backend writes and optionally
// failing deletes.
type countingClient struct {
	storage.Client
	puts       atomic.Int32
	failDelete error
}

func (c *countingClient) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	c.puts.Add(1)
	return c.Client.PutObject(ctx, bucket, key, body)
}

func (c *countingClient) PutCloudObject(ctx context.Context, body []byte, bucket, key string) (*storage.CloudObject, error) {
	c.puts.Add(1)
	return c.Client.PutCloudObject(ctx, body, bucket, key)
}

func (c *countingClient) DeleteCloudObject(ctx context.Context, obj *storage.CloudObject) error {
	if c.failDelete != nil {
		return c.failDelete
	}
	return c.Client.DeleteCloudObject(ctx, obj)
}

type fixture struct {
	session *application.Session
	pack    *pack.Pack
	client  *countingClient
}

func newFixture(t *testing.T, opts ...objectstore.Option) *fixture {
	t.Helper()

	f := &fixture{}
	f.session = application.NewSession(
		application.WithSessionID("s1"),
		application.WithClientFactory(func(_ context.Context, cfg storage.Config) (storage.Client, error) {
			f.client = &countingClient{Client: backend.NewStorage(backend.NewMemoryProvider(), cfg)}
			return f.client, nil
		}),
	)
	p, err := objectstore.New(f.session, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.pack = p
	return f
}

// initialized returns a fixture with the memory backend and bucket b1 ready.
func initialized(t *testing.T, opts ...objectstore.Option) *fixture {
	t.Helper()
	f := newFixture(t, opts...)
	f.mustCall(t, "init-backend", memoryInit)
	f.mustCall(t, "create-bucket", `{"args":{"bucket":"b1"}}`)
	return f
}

func (f *fixture) call(t *testing.T, name, input string) (json.RawMessage, error) {
	t.Helper()
	tl, ok := f.pack.GetTool(name)
	if !ok {
		t.Fatalf("tool %q not found", name)
	}
	res, err := tl.Execute(context.Background(), json.RawMessage(input))
	return res.Output, err
}

func (f *fixture) mustCall(t *testing.T, name, input string) json.RawMessage {
	t.Helper()
	out, err := f.call(t, name, input)
	if err != nil {
		t.Fatalf("%s(%s) error = %v", name, input, err)
	}
	return out
}

func decodeOutput[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func wantKind(t *testing.T, err error, kind storage.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %s", kind)
	}
	if got := storage.KindOf(err); got != kind {
		t.Fatalf("KindOf(%v) = %s, want %s", err, got, kind)
	}
}

type content struct {
	Content       *string `json:"content"`
	ContentBase64 string  `json:"content_base64"`
	Size          int     `json:"size"`
	Streamed      bool    `json:"streamed"`
	Truncated     bool    `json:"truncated"`
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := objectstore.New(nil); err == nil {
		t.Error("New(nil) should fail")
	}

	f := newFixture(t)
	want := []string{
		"init-backend", "get-storage-config", "create-bucket", "head-bucket",
		"put-object", "get-object", "head-object", "delete-object", "delete-objects",
		"list-objects", "list-keys", "upload-file", "download-file",
		"put-cloudobject", "get-cloudobject", "delete-cloudobject", "delete-cloudobjects",
		"list-cloudobjects",
	}
	if got := f.pack.ToolNames(); !slices.Equal(got, want) {
		t.Errorf("ToolNames() = %v, want %v", got, want)
	}
	for _, tl := range f.pack.Tools {
		if tl.Description() == "" {
			t.Errorf("tool %s has no description", tl.Name())
		}
	}
}

func TestTools_Uninitialized(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"get-storage-config":  `{}`,
		"create-bucket":       `{"args":{"bucket":"b"}}`,
		"head-bucket":         `{"args":{"bucket":"b"}}`,
		"put-object":          `{"args":{"bucket":"b","key":"k","body":"x"}}`,
		"get-object":          `{"args":{"bucket":"b","key":"k"}}`,
		"head-object":         `{"args":{"bucket":"b","key":"k"}}`,
		"delete-object":       `{"args":{"bucket":"b","key":"k"}}`,
		"delete-objects":      `{"args":{"bucket":"b","key_list":["k"]}}`,
		"list-objects":        `{"args":{"bucket":"b"}}`,
		"list-keys":           `{"args":{"bucket":"b"}}`,
		"upload-file":         `{"args":{"file_name":"f","bucket":"b"}}`,
		"download-file":       `{"args":{"bucket":"b","key":"k"}}`,
		"put-cloudobject":     `{"args":{"body":"x"}}`,
		"get-cloudobject":     `{"index":0}`,
		"delete-cloudobject":  `{"index":0}`,
		"delete-cloudobjects": `{"start":0,"end":0}`,
		"list-cloudobjects":   `{}`,
	}

	f := newFixture(t)
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := f.call(t, name, input)
			wantKind(t, err, storage.KindUninitializedBackend)
			if !errors.Is(err, storage.ErrUninitializedBackend) {
				t.Errorf("errors.Is(%v, ErrUninitializedBackend) = false", err)
			}
		})
	}
}

func TestTools_UninitializedBeforeDecode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, tc := range []struct{ name, input string }{
		{"put-object", `{"args":{"bucket":"b"}}`},
		{"get-cloudobject", `{"index":"zero"}`},
		{"delete-cloudobjects", `not json`},
		{"list-keys", `{"args":{}}`},
	} {
		_, err := f.call(t, tc.name, tc.input)
		wantKind(t, err, storage.KindUninitializedBackend)
	}
}

func TestInitBackend(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	out := decodeOutput[map[string]string](t, f.mustCall(t, "init-backend", memoryInit))
	if out["backend"] != "memory" || out["bucket"] != "b1" {
		t.Errorf("init-backend = %v", out)
	}

	_, err := f.call(t, "init-backend", `{"config":{"lithops":{"backend":"tape"}}}`)
	wantKind(t, err, storage.KindInvalidArgument)

	// The failed init keeps the previous client.
	if _, err := f.session.Client("test"); err != nil {
		t.Errorf("Client() after failed re-init error = %v", err)
	}
}

func TestCloudObjectLifecycle(t *testing.T) {
	t.Parallel()

	f := initialized(t)

	put := decodeOutput[map[string]any](t, f.mustCall(t, "put-cloudobject", `{"args":{"bucket":"b1","key":"k1","body":"hello"}}`))
	if put["index"] != float64(0) || put["key"] != "k1" {
		t.Fatalf("put-cloudobject = %v, want index 0 and key k1", put)
	}

	got := decodeOutput[content](t, f.mustCall(t, "get-cloudobject", `{"index":0}`))
	if got.Content == nil || *got.Content != "hello" || got.Size != 5 || got.Streamed {
		t.Errorf("get-cloudobject = %+v, want hello", got)
	}

	streamed := decodeOutput[content](t, f.mustCall(t, "get-cloudobject", `{"index":0,"stream":true}`))
	if !streamed.Streamed || streamed.Content == nil || *streamed.Content != "hello" {
		t.Errorf("streamed get-cloudobject = %+v", streamed)
	}

	f.mustCall(t, "delete-cloudobject", `{"index":0}`)

	_, err := f.call(t, "get-cloudobject", `{"index":0}`)
	wantKind(t, err, storage.KindIndexOutOfRange)

	_, err = f.call(t, "get-object", `{"args":{"bucket":"b1","key":"k1"}}`)
	wantKind(t, err, storage.KindBackend)
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Errorf("get-object after delete error = %v, want ErrObjectNotFound", err)
	}
}

func TestPutCloudObject_Defaults(t *testing.T) {
	t.Parallel()

	f := initialized(t)

	for i := range 2 {
		out := decodeOutput[map[string]any](t, f.mustCall(t, "put-cloudobject", `{"args":{"body":"x"}}`))
		if out["index"] != float64(i) {
			t.Errorf("index = %v, want %d", out["index"], i)
		}
		if out["bucket"] != "b1" {
			t.Errorf("bucket = %v, want default b1", out["bucket"])
		}
		key, _ := out["key"].(string)
		if !strings.HasPrefix(key, "lithops.jobs/tmp/s1/cloudobject_") {
			t.Errorf("key = %q, want generated temporary key", key)
		}
	}
}

func TestPutCloudObject_GeneratedKeysSurviveReinit(t *testing.T) {
	t.Parallel()

	provider := backend.NewMemoryProvider()
	session := application.NewSession(
		application.WithSessionID("s1"),
		application.WithClientFactory(func(_ context.Context, cfg storage.Config) (storage.Client, error) {
			return backend.NewStorage(provider, cfg), nil
		}),
	)
	p, err := objectstore.New(session)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f := &fixture{session: session, pack: p}

	f.mustCall(t, "init-backend", memoryInit)
	f.mustCall(t, "create-bucket", `{"args":{"bucket":"b1"}}`)
	first := decodeOutput[map[string]any](t, f.mustCall(t, "put-cloudobject", `{"args":{"body":"first"}}`))

	f.mustCall(t, "init-backend", memoryInit)
	second := decodeOutput[map[string]any](t, f.mustCall(t, "put-cloudobject", `{"args":{"body":"second"}}`))

	if first["key"] == second["key"] {
		t.Fatalf("generated key %v reused after re-init", first["key"])
	}

	got := decodeOutput[content](t, f.mustCall(t, "get-cloudobject", `{"index":0}`))
	if got.Content == nil || *got.Content != "first" {
		t.Errorf("index 0 after re-init = %+v, want first", got)
	}

	f.mustCall(t, "delete-cloudobject", `{"index":1}`)
	got = decodeOutput[content](t, f.mustCall(t, "get-cloudobject", `{"index":0}`))
	if got.Content == nil || *got.Content != "first" {
		t.Errorf("index 0 after deleting index 1 = %+v, want first", got)
	}
}

func TestDeleteCloudObjects(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	for _, k := range []string{"a", "b", "c"} {
		f.mustCall(t, "put-cloudobject", `{"args":{"key":"`+k+`","body":"x"}}`)
	}

	out := decodeOutput[map[string]int](t, f.mustCall(t, "delete-cloudobjects", `{"start":0,"end":3}`))
	if out["deleted"] != 3 {
		t.Errorf("deleted = %d, want 3", out["deleted"])
	}
	if n := f.session.Registry().Len(); n != 0 {
		t.Errorf("registry Len() = %d, want 0", n)
	}

	keys := decodeOutput[[]string](t, f.mustCall(t, "list-keys", `{"args":{"bucket":"b1"}}`))
	if len(keys) != 0 {
		t.Errorf("list-keys = %v, want none", keys)
	}
}

func TestDeleteCloudObjects_PartialRange(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	for _, k := range []string{"a", "b", "c"} {
		f.mustCall(t, "put-cloudobject", `{"args":{"key":"`+k+`","body":"`+k+`"}}`)
	}

	out := decodeOutput[map[string]int](t, f.mustCall(t, "delete-cloudobjects", `{"start":0,"end":2}`))
	if out["deleted"] != 2 {
		t.Errorf("deleted = %d, want 2", out["deleted"])
	}
	if n := f.session.Registry().Len(); n != 1 {
		t.Fatalf("registry Len() = %d, want 1", n)
	}

	got := decodeOutput[content](t, f.mustCall(t, "get-cloudobject", `{"index":0}`))
	if got.Content == nil || *got.Content != "c" {
		t.Errorf("index 0 after range delete = %+v, want c", got)
	}

	keys := decodeOutput[[]string](t, f.mustCall(t, "list-keys", `{"args":{"bucket":"b1"}}`))
	if !slices.Equal(keys, []string{"c"}) {
		t.Errorf("list-keys = %v, want [c]", keys)
	}

	_, err := f.call(t, "get-cloudobject", `{"index":1}`)
	wantKind(t, err, storage.KindIndexOutOfRange)
}

func TestDeleteCloudObjects_InvalidRange(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	f.mustCall(t, "put-cloudobject", `{"args":{"body":"x"}}`)

	for _, input := range []string{`{"start":1,"end":0}`, `{"start":0,"end":2}`, `{"start":-1,"end":1}`} {
		_, err := f.call(t, "delete-cloudobjects", input)
		wantKind(t, err, storage.KindIndexOutOfRange)
	}
	if n := f.session.Registry().Len(); n != 1 {
		t.Errorf("registry Len() = %d, want 1", n)
	}

	out := decodeOutput[map[string]int](t, f.mustCall(t, "delete-cloudobjects", `{"start":1,"end":1}`))
	if out["deleted"] != 0 {
		t.Errorf("empty range deleted = %d", out["deleted"])
	}
}

func TestDeleteCloudObject_BackendFailureKeepsHandle(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	f.mustCall(t, "put-cloudobject", `{"args":{"body":"x"}}`)
	f.client.failDelete = errors.New("service unavailable")

	_, err := f.call(t, "delete-cloudobject", `{"index":0}`)
	wantKind(t, err, storage.KindBackend)

	if n := f.session.Registry().Len(); n != 1 {
		t.Errorf("registry Len() = %d, want 1", n)
	}
}

func TestDeleteCloudObject_ShiftsIndices(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	for _, k := range []string{"a", "b", "c"} {
		f.mustCall(t, "put-cloudobject", `{"args":{"key":"`+k+`","body":"`+k+`"}}`)
	}

	f.mustCall(t, "delete-cloudobject", `{"index":1}`)

	got := decodeOutput[content](t, f.mustCall(t, "get-cloudobject", `{"index":1}`))
	if got.Content == nil || *got.Content != "c" {
		t.Errorf("index 1 after delete = %+v, want c", got)
	}
}

func TestPut_PayloadFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	textFile := filepath.Join(dir, "text.txt")
	binFile := filepath.Join(dir, "bin.dat")
	if err := os.WriteFile(textFile, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(binFile, []byte{0xff, 0xfe, 0x00}, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		tool     string
		input    string
		wantKind storage.Kind
	}{
		{
			name:  "text file",
			tool:  "put-object",
			input: `{"args":{"bucket":"b1","key":"k"},"aux":{"file":true,"text_io":true,"path_to_file":"` + textFile + `"}}`,
		},
		{
			name:  "binary file",
			tool:  "put-cloudobject",
			input: `{"args":{},"aux":{"file":true,"path_to_file":"` + binFile + `"}}`,
		},
		{
			name:     "missing file for put-cloudobject",
			tool:     "put-cloudobject",
			input:    `{"args":{},"aux":{"file":true,"path_to_file":"` + filepath.Join(dir, "nope") + `"}}`,
			wantKind: storage.KindPayloadRead,
		},
		{
			name:     "missing file for put-object",
			tool:     "put-object",
			input:    `{"args":{"bucket":"b1","key":"k"},"aux":{"file":true,"path_to_file":"` + filepath.Join(dir, "nope") + `"}}`,
			wantKind: storage.KindPayloadRead,
		},
		{
			name:     "no body for put-object",
			tool:     "put-object",
			input:    `{"args":{"bucket":"b1","key":"k"},"aux":{"file":false}}`,
			wantKind: storage.KindInvalidArgument,
		},
		{
			name:     "no body for put-cloudobject",
			tool:     "put-cloudobject",
			input:    `{"args":{}}`,
			wantKind: storage.KindInvalidArgument,
		},
		{
			name:  "empty text body",
			tool:  "put-object",
			input: `{"args":{"bucket":"b1","key":"k","body":""}}`,
		},
		{
			name:     "invalid utf-8 as text",
			tool:     "put-object",
			input:    `{"args":{"bucket":"b1","key":"k"},"aux":{"file":true,"text_io":true,"path_to_file":"` + binFile + `"}}`,
			wantKind: storage.KindPayloadRead,
		},
		{
			name:     "file without path",
			tool:     "put-object",
			input:    `{"args":{"bucket":"b1","key":"k"},"aux":{"file":true}}`,
			wantKind: storage.KindInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := initialized(t)

			_, err := f.call(t, tt.tool, tt.input)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("%s error = %v", tt.tool, err)
				}
				if f.client.puts.Load() != 1 {
					t.Errorf("backend puts = %d, want 1", f.client.puts.Load())
				}
				return
			}

			wantKind(t, err, tt.wantKind)
			if f.client.puts.Load() != 0 {
				t.Errorf("backend called %d times on payload failure", f.client.puts.Load())
			}
			if f.session.Registry().Len() != 0 {
				t.Error("registry grew on payload failure")
			}
		})
	}
}

func TestPutObject_Base64(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	body := []byte{0x00, 0x9f, 0x92, 0x96}
	enc := base64.StdEncoding.EncodeToString(body)

	out := decodeOutput[map[string]any](t, f.mustCall(t, "put-object", `{"args":{"bucket":"b1","key":"bin","body_base64":"`+enc+`"}}`))
	if out["size"] != float64(len(body)) {
		t.Errorf("size = %v, want %d", out["size"], len(body))
	}

	got := decodeOutput[content](t, f.mustCall(t, "get-object", `{"args":{"bucket":"b1","key":"bin"}}`))
	if got.Content != nil || got.ContentBase64 != enc {
		t.Errorf("get-object = %+v, want base64 %s", got, enc)
	}

	_, err := f.call(t, "put-object", `{"args":{"bucket":"b1","key":"bin","body_base64":"***"}}`)
	wantKind(t, err, storage.KindInvalidArgument)
}

func TestGetObject(t *testing.T) {
	t.Parallel()

	f := initialized(t, objectstore.WithMaxObjectSize(8))
	f.mustCall(t, "put-object", `{"args":{"bucket":"b1","key":"small","body":"0123456789"}}`)
	f.mustCall(t, "put-object", `{"args":{"bucket":"b1","key":"tiny","body":"abc"}}`)

	tests := []struct {
		name          string
		input         string
		wantContent   string
		wantTruncated bool
		wantKind      storage.Kind
	}{
		{name: "within limit", input: `{"args":{"bucket":"b1","key":"tiny"}}`, wantContent: "abc"},
		{name: "range", input: `{"args":{"bucket":"b1","key":"small","extra_get_args":{"Range":"bytes=2-4"}}}`, wantContent: "234"},
		{name: "suffix range", input: `{"args":{"bucket":"b1","key":"small","extra_get_args":{"Range":"bytes=-3"}}}`, wantContent: "789"},
		{name: "too large", input: `{"args":{"bucket":"b1","key":"small"}}`, wantKind: storage.KindBackend},
		{name: "streamed and truncated", input: `{"args":{"bucket":"b1","key":"small","stream":true}}`, wantContent: "01234567", wantTruncated: true},
		{name: "bad range", input: `{"args":{"bucket":"b1","key":"small","extra_get_args":{"Range":"items=1-2"}}}`, wantKind: storage.KindInvalidArgument},
		{name: "missing key", input: `{"args":{"bucket":"b1","key":"nope"}}`, wantKind: storage.KindBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := f.call(t, "get-object", tt.input)
			if tt.wantKind != "" {
				wantKind(t, err, tt.wantKind)
				return
			}
			if err != nil {
				t.Fatalf("get-object error = %v", err)
			}
			got := decodeOutput[content](t, out)
			if got.Content == nil || *got.Content != tt.wantContent {
				t.Errorf("content = %+v, want %q", got, tt.wantContent)
			}
			if got.Truncated != tt.wantTruncated {
				t.Errorf("truncated = %v, want %v", got.Truncated, tt.wantTruncated)
			}
		})
	}
}

func TestObjectTools(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	for _, k := range []string{"logs/b.txt", "logs/a.txt", "data/c.json"} {
		f.mustCall(t, "put-object", `{"args":{"bucket":"b1","key":"`+k+`","body":"{}"}}`)
	}

	keys := decodeOutput[[]string](t, f.mustCall(t, "list-keys", `{"args":{"bucket":"b1","prefix":"logs/"}}`))
	if !slices.Equal(keys, []string{"logs/a.txt", "logs/b.txt"}) {
		t.Errorf("list-keys = %v", keys)
	}

	objs := decodeOutput[[]storage.ObjectInfo](t, f.mustCall(t, "list-objects", `{"args":{"bucket":"b1","match_pattern":"json"}}`))
	if len(objs) != 1 || objs[0].Key != "data/c.json" || objs[0].Size != 2 {
		t.Errorf("list-objects = %+v", objs)
	}

	meta := decodeOutput[storage.ObjectMetadata](t, f.mustCall(t, "head-object", `{"args":{"bucket":"b1","key":"data/c.json"}}`))
	if meta.ContentLength != 2 {
		t.Errorf("head-object content-length = %d, want 2", meta.ContentLength)
	}

	status := decodeOutput[storage.BucketStatus](t, f.mustCall(t, "head-bucket", `{"args":{"bucket":"b1"}}`))
	if !status.Exists || status.StatusCode != 200 {
		t.Errorf("head-bucket = %+v", status)
	}
	missing := decodeOutput[storage.BucketStatus](t, f.mustCall(t, "head-bucket", `{"args":{"bucket":"nope"}}`))
	if missing.Exists || missing.StatusCode != 404 {
		t.Errorf("head-bucket(nope) = %+v", missing)
	}

	f.mustCall(t, "delete-object", `{"args":{"bucket":"b1","key":"data/c.json"}}`)
	out := decodeOutput[map[string]any](t, f.mustCall(t, "delete-objects", `{"args":{"bucket":"b1","key_list":["logs/a.txt","logs/b.txt"]}}`))
	if out["deleted"] != float64(2) {
		t.Errorf("delete-objects = %v", out)
	}

	keys = decodeOutput[[]string](t, f.mustCall(t, "list-keys", `{"args":{"bucket":"b1"}}`))
	if len(keys) != 0 {
		t.Errorf("list-keys after deletes = %v", keys)
	}

	_, err := f.call(t, "create-bucket", `{"args":{"bucket":"b1"}}`)
	wantKind(t, err, storage.KindBackend)
	if !errors.Is(err, storage.ErrBucketExists) {
		t.Errorf("create-bucket twice error = %v, want ErrBucketExists", err)
	}
}

func TestInvalidArguments(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	tests := []struct {
		tool  string
		input string
	}{
		{"create-bucket", `{"args":{}}`},
		{"create-bucket", `not json`},
		{"put-object", `{"args":{"bucket":"b1"}}`},
		{"put-object", `{"args":{"bucket":"b1","key":"k","body":"x","body_base64":"eA=="}}`},
		{"get-object", `{"args":{"bucket":"b1"}}`},
		{"delete-objects", `{"args":{"bucket":"b1"}}`},
		{"get-cloudobject", `{}`},
		{"get-cloudobject", `{"index":"zero"}`},
		{"delete-cloudobjects", `{"start":0}`},
		{"upload-file", `{"args":{"bucket":"b1"}}`},
		{"upload-file", `{"args":{"file_name":"f","bucket":"b1","config":{"max_concurrency":"many"}}}`},
		{"download-file", `{"args":{"bucket":"b1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.input, func(t *testing.T) {
			t.Parallel()
			_, err := f.call(t, tt.tool, tt.input)
			wantKind(t, err, storage.KindInvalidArgument)
		})
	}
}

func TestUploadDownloadFile(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "report.csv")
	if err := os.WriteFile(src, []byte("a,b\n1,2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	up := decodeOutput[map[string]any](t, f.mustCall(t, "upload-file", `{"args":{"file_name":"`+src+`","bucket":"b1"}}`))
	if up["key"] != "report.csv" || up["size"] != float64(8) {
		t.Errorf("upload-file = %v", up)
	}

	dst := filepath.Join(dir, "out", "copy.csv")
	down := decodeOutput[map[string]any](t, f.mustCall(t, "download-file", `{"args":{"bucket":"b1","key":"report.csv","file_name":"`+dst+`"}}`))
	if down["file_name"] != dst || down["size"] != float64(8) {
		t.Errorf("download-file = %v", down)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "a,b\n1,2\n" {
		t.Errorf("downloaded %q, %v", data, err)
	}

	_, err = f.call(t, "upload-file", `{"args":{"file_name":"`+filepath.Join(dir, "missing")+`","bucket":"b1"}}`)
	wantKind(t, err, storage.KindPayloadRead)
	_, err = f.call(t, "upload-file", `{"args":{"file_name":"`+dir+`","bucket":"b1"}}`)
	wantKind(t, err, storage.KindPayloadRead)
}

func TestGetStorageConfig(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustCall(t, "init-backend", `{"config":{"lithops":{"backend":"memory","storage_bucket":"b1"},"memory":{"password":"hunter2","note":"x"}}}`)

	cfg := decodeOutput[map[string]any](t, f.mustCall(t, "get-storage-config", `{}`))
	if cfg["backend"] != "memory" || cfg["storage_bucket"] != "b1" {
		t.Errorf("get-storage-config = %v", cfg)
	}
	section, _ := cfg["memory"].(map[string]any)
	if section["password"] != "********" || section["note"] != "x" {
		t.Errorf("memory section = %v, want masked password", section)
	}
}

func TestListCloudObjects(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	f.mustCall(t, "put-cloudobject", `{"args":{"key":"a","body":"x"}}`)
	f.mustCall(t, "put-cloudobject", `{"args":{"key":"b","body":"y"}}`)

	type entry struct {
		Index   int    `json:"index"`
		Backend string `json:"backend"`
		Bucket  string `json:"bucket"`
		Key     string `json:"key"`
	}
	got := decodeOutput[[]entry](t, f.mustCall(t, "list-cloudobjects", ``))
	want := []entry{
		{Index: 0, Backend: "memory", Bucket: "b1", Key: "a"},
		{Index: 1, Backend: "memory", Bucket: "b1", Key: "b"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("list-cloudobjects = %+v, want %+v", got, want)
	}
}

func TestReinitKeepsRegistry(t *testing.T) {
	t.Parallel()

	f := initialized(t)
	f.mustCall(t, "put-cloudobject", `{"args":{"body":"x"}}`)

	f.mustCall(t, "init-backend", memoryInit)
	if n := f.session.Registry().Len(); n != 1 {
		t.Fatalf("registry Len() after re-init = %d, want 1", n)
	}

	// The new memory backend does not hold the old object.
	_, err := f.call(t, "get-cloudobject", `{"index":0}`)
	wantKind(t, err, storage.KindBackend)
}
