package objectstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// validator is implemented by every tool input.
type validator interface {
	validate() error
}

// decode unmarshals input into v and validates it. Empty input decodes as
// an empty object. Failures are InvalidArgument errors for op.
func decode(op string, input json.RawMessage, v validator) error {
	input = bytes.TrimSpace(input)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		input = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return storage.InvalidArgument(op, fmt.Errorf("decode arguments: %w", err))
	}
	if err := v.validate(); err != nil {
		return storage.InvalidArgument(op, err)
	}
	return nil
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

// bucketArgs is the args block of tools addressing a bucket.
type bucketArgs struct {
	Bucket string `json:"bucket"`
}

type bucketInput struct {
	Args bucketArgs `json:"args"`
}

func (in *bucketInput) validate() error {
	return required("args.bucket", in.Args.Bucket)
}

// objectArgs is the args block of tools addressing one object.
type objectArgs struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type objectInput struct {
	Args objectArgs `json:"args"`
}

func (in *objectInput) validate() error {
	return errors.Join(required("args.bucket", in.Args.Bucket), required("args.key", in.Args.Key))
}

type getObjectInput struct {
	Args struct {
		Bucket       string         `json:"bucket"`
		Key          string         `json:"key"`
		Stream       bool           `json:"stream"`
		ExtraGetArgs map[string]any `json:"extra_get_args"`
	} `json:"args"`

	rng *storage.ByteRange
}

func (in *getObjectInput) validate() error {
	if err := errors.Join(required("args.bucket", in.Args.Bucket), required("args.key", in.Args.Key)); err != nil {
		return err
	}
	rng, err := parseExtraGetArgs(in.Args.ExtraGetArgs)
	if err != nil {
		return err
	}
	in.rng = rng
	return nil
}

// parseExtraGetArgs extracts the Range entry; other entries are ignored.
func parseExtraGetArgs(extra map[string]any) (*storage.ByteRange, error) {
	v, ok := extra["Range"]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("extra_get_args.Range: expected string, got %T", v)
	}
	return storage.ParseByteRange(s)
}

type deleteObjectsInput struct {
	Args struct {
		Bucket  string   `json:"bucket"`
		KeyList []string `json:"key_list"`
	} `json:"args"`
}

func (in *deleteObjectsInput) validate() error {
	if in.Args.KeyList == nil {
		return errors.Join(required("args.bucket", in.Args.Bucket), errors.New("args.key_list is required"))
	}
	return required("args.bucket", in.Args.Bucket)
}

type listInput struct {
	Args struct {
		Bucket       string `json:"bucket"`
		Prefix       string `json:"prefix"`
		MatchPattern string `json:"match_pattern"`
	} `json:"args"`
}

func (in *listInput) validate() error {
	return required("args.bucket", in.Args.Bucket)
}

// putArgs is the args block of put-object and put-cloudobject.
type putArgs struct {
	Bucket     string  `json:"bucket"`
	Key        string  `json:"key"`
	Body       *string `json:"body"`
	BodyBase64 string  `json:"body_base64"`
}

type putInput struct {
	Args putArgs `json:"args"`
	Aux  aux     `json:"aux"`
}

func (in *putInput) validate() error {
	return in.Aux.validate(in.Args)
}

type putObjectInput struct {
	putInput
}

func (in *putObjectInput) validate() error {
	return errors.Join(
		required("args.bucket", in.Args.Bucket),
		required("args.key", in.Args.Key),
		in.putInput.validate(),
	)
}

type indexInput struct {
	Index  *int `json:"index"`
	Stream bool `json:"stream"`
}

func (in *indexInput) validate() error {
	if in.Index == nil {
		return errors.New("index is required")
	}
	return nil
}

type rangeInput struct {
	Start *int `json:"start"`
	End   *int `json:"end"`
}

func (in *rangeInput) validate() error {
	if in.Start == nil || in.End == nil {
		return errors.New("start and end are required")
	}
	return nil
}

type transferArgs struct {
	FileName  string         `json:"file_name"`
	Bucket    string         `json:"bucket"`
	Key       string         `json:"key"`
	ExtraArgs map[string]any `json:"extra_args"`
	Config    map[string]any `json:"config"`
}

func (a transferArgs) options() (storage.TransferOptions, error) {
	return storage.ParseTransferOptions(a.ExtraArgs, a.Config)
}

type uploadInput struct {
	Args transferArgs `json:"args"`

	opts storage.TransferOptions
}

func (in *uploadInput) validate() error {
	if err := errors.Join(required("args.file_name", in.Args.FileName), required("args.bucket", in.Args.Bucket)); err != nil {
		return err
	}
	opts, err := in.Args.options()
	in.opts = opts
	return err
}

type downloadInput struct {
	Args transferArgs `json:"args"`

	opts storage.TransferOptions
}

func (in *downloadInput) validate() error {
	if err := errors.Join(required("args.bucket", in.Args.Bucket), required("args.key", in.Args.Key)); err != nil {
		return err
	}
	opts, err := in.Args.options()
	in.opts = opts
	return err
}

type initInput struct {
	storage.InitRequest
}

func (in *initInput) validate() error {
	return nil
}

type emptyInput struct{}

func (emptyInput) validate() error { return nil }
