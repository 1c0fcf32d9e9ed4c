package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange is a single HTTP-style byte range ("bytes=a-b", "bytes=a-" or "bytes=-n").
type ByteRange struct {
	// Start is the first byte offset; ignored for suffix ranges.
	Start int64
	// End is the last byte offset, inclusive, or -1 for an open-ended range.
	End int64
	// Suffix, when positive, selects the last Suffix bytes.
	Suffix int64
}

// ParseByteRange parses a Range header value.
func ParseByteRange(s string) (*ByteRange, error) {
	spec, ok := strings.CutPrefix(strings.TrimSpace(s), "bytes=")
	if !ok {
		return nil, fmt.Errorf("%w: %q must start with bytes=", ErrInvalidRange, s)
	}
	if strings.Contains(spec, ",") {
		return nil, fmt.Errorf("%w: multiple ranges are not supported", ErrInvalidRange)
	}

	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: bad suffix length in %q", ErrInvalidRange, s)
		}
		return &ByteRange{Start: -1, End: -1, Suffix: n}, nil
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return nil, fmt.Errorf("%w: bad start in %q", ErrInvalidRange, s)
	}
	r := &ByteRange{Start: start, End: -1}
	if last != "" {
		end, err := strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return nil, fmt.Errorf("%w: bad end in %q", ErrInvalidRange, s)
		}
		r.End = end
	}
	return r, nil
}

// String renders the range as a Range header value.
func (r ByteRange) String() string {
	switch {
	case r.Suffix > 0:
		return fmt.Sprintf("bytes=-%d", r.Suffix)
	case r.End < 0:
		return fmt.Sprintf("bytes=%d-", r.Start)
	default:
		return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
	}
}

// Resolve maps the range onto an object of the given size and returns the
// offset and length to read.
func (r ByteRange) Resolve(size int64) (offset, length int64, err error) {
	if r.Suffix > 0 {
		n := min(r.Suffix, size)
		return size - n, n, nil
	}
	if r.Start >= size {
		return 0, 0, fmt.Errorf("%w: start %d beyond object size %d", ErrInvalidRange, r.Start, size)
	}
	end := r.End
	if end < 0 || end >= size {
		end = size - 1
	}
	return r.Start, end - r.Start + 1, nil
}
