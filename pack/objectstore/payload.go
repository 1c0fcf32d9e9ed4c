package objectstore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// errInvalidUTF8 is reported when a text_io payload is not valid UTF-8.
var errInvalidUTF8 = errors.New("file is not valid UTF-8 text")

// aux is the control block of the content-upload tools.
type aux struct {
	File       bool   `json:"file"`
	TextIO     bool   `json:"text_io"`
	PathToFile string `json:"path_to_file"`
}

func (a aux) validate(args putArgs) error {
	if a.File {
		return required("aux.path_to_file", a.PathToFile)
	}
	if args.Body != nil && args.BodyBase64 != "" {
		return errors.New("args.body and args.body_base64 are mutually exclusive")
	}
	if args.Body == nil && args.BodyBase64 == "" {
		return errors.New("args.body or args.body_base64 is required unless aux.file is set")
	}
	return nil
}

// payload resolves the bytes to upload. File payloads are read before any
// backend call; read and decode failures are PayloadReadError. A malformed
// body_base64 is an InvalidArgument error for op.
func (a aux) payload(op string, args putArgs) ([]byte, error) {
	if a.File {
		return readPayloadFile(a.PathToFile, a.TextIO)
	}
	if args.BodyBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(args.BodyBase64)
		if err != nil {
			return nil, storage.InvalidArgument(op, fmt.Errorf("args.body_base64: %w", err))
		}
		return data, nil
	}
	return []byte(*args.Body), nil
}

func readPayloadFile(path string, textIO bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, storage.PayloadRead(path, err)
	}
	if textIO && !utf8.Valid(data) {
		return nil, storage.PayloadRead(path, errInvalidUTF8)
	}
	return data, nil
}
