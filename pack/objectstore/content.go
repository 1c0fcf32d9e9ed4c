package objectstore

import (
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// contentOutput is the result of get-object and get-cloudobject. Content is
// set for valid UTF-8 data and ContentBase64 otherwise.
type contentOutput struct {
	Content       *string `json:"content,omitempty"`
	ContentBase64 string  `json:"content_base64,omitempty"`
	Size          int     `json:"size"`
	Streamed      bool    `json:"streamed"`
	Truncated     bool    `json:"truncated,omitempty"`
}

// readContent drains rc into a contentOutput. Bodies larger than limit fail
// with ErrObjectTooLarge unless stream is set, in which case they are cut at
// limit and marked truncated. A limit <= 0 disables the check.
func readContent(rc io.ReadCloser, limit int64, stream bool) (contentOutput, error) {
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return contentOutput{}, fmt.Errorf("read object: %w", err)
	}

	out := contentOutput{Streamed: stream}
	if limit > 0 && int64(len(data)) > limit {
		if !stream {
			return contentOutput{}, fmt.Errorf("%w: more than %d bytes", storage.ErrObjectTooLarge, limit)
		}
		data = data[:limit]
		out.Truncated = true
	}

	out.Size = len(data)
	if utf8.Valid(data) {
		s := string(data)
		out.Content = &s
	} else {
		out.ContentBase64 = base64.StdEncoding.EncodeToString(data)
	}
	return out, nil
}
