package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/storage-mcp/domain/storage"
)

// rangeFetcher opens one byte range of an object.
type rangeFetcher func(ctx context.Context, rng storage.ByteRange) (io.ReadCloser, error)

// part is one chunk of a multipart transfer.
type part struct {
	number int32
	offset int64
	size   int64
}

// splitParts cuts size bytes into parts of partSize, numbered from 1.
func splitParts(size, partSize int64) []part {
	if partSize <= 0 {
		partSize = storage.DefaultPartSize
	}
	var parts []part
	for offset, n := int64(0), int32(1); offset < size; offset, n = offset+partSize, n+1 {
		parts = append(parts, part{number: n, offset: offset, size: min(partSize, size-offset)})
	}
	return parts
}

// downloadRanges fetches an object of the given size in parallel ranged
// reads and writes it to fileName. The file only appears once every part
// has landed.
func downloadRanges(ctx context.Context, fileName string, size int64, opts storage.TransferOptions, fetch rangeFetcher) (int64, error) {
	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(fileName)+".*"+partialSuffix)
	if err != nil {
		return 0, err
	}
	cleanup := func(err error) (int64, error) {
		f.Close()
		os.Remove(f.Name())
		return 0, err
	}
	if err := f.Truncate(size); err != nil {
		return cleanup(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))
	for _, p := range splitParts(size, opts.PartSize) {
		g.Go(func() error {
			body, err := fetch(gctx, storage.ByteRange{Start: p.offset, End: p.offset + p.size - 1})
			if err != nil {
				return fmt.Errorf("part %d: %w", p.number, err)
			}
			defer body.Close()
			n, err := io.Copy(io.NewOffsetWriter(f, p.offset), io.LimitReader(body, p.size))
			if err != nil {
				return fmt.Errorf("part %d: %w", p.number, err)
			}
			if n != p.size {
				return fmt.Errorf("part %d: short read %d of %d bytes", p.number, n, p.size)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cleanup(err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return 0, err
	}
	if err := os.Rename(f.Name(), fileName); err != nil {
		os.Remove(f.Name())
		return 0, err
	}
	return size, nil
}
