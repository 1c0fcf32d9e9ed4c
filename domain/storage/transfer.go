package storage

import (
	"fmt"
)

// Transfer defaults, matching the usual S3 transfer manager settings.
const (
	DefaultMultipartThreshold = 8 * 1024 * 1024
	DefaultPartSize           = 8 * 1024 * 1024
	DefaultConcurrency        = 10

	// MaxConcurrency caps max_concurrency so every backend's worker count
	// fits its SDK's integer type.
	MaxConcurrency = 256

	// MinPartSize is the smallest part S3-compatible services accept.
	MinPartSize = 5 * 1024 * 1024
)

// TransferOptions controls upload-file and download-file.
type TransferOptions struct {
	ContentType        string
	Metadata           map[string]string
	MultipartThreshold int64
	PartSize           int64
	Concurrency        int

	// Extra holds extra_args entries not understood here; backends may use
	// them and otherwise ignore them.
	Extra map[string]any
}

// DefaultTransferOptions returns options with the transfer defaults applied.
func DefaultTransferOptions() TransferOptions {
	return TransferOptions{
		MultipartThreshold: DefaultMultipartThreshold,
		PartSize:           DefaultPartSize,
		Concurrency:        DefaultConcurrency,
	}
}

// ParseTransferOptions builds TransferOptions from the free-form extra_args
// and transfer config maps of the upload-file and download-file tools.
func ParseTransferOptions(extraArgs, config map[string]any) (TransferOptions, error) {
	opts := DefaultTransferOptions()

	for k, v := range extraArgs {
		switch k {
		case "ContentType":
			s, ok := v.(string)
			if !ok {
				return opts, fmt.Errorf("extra_args.ContentType: expected string, got %T", v)
			}
			opts.ContentType = s
		case "Metadata":
			m, ok := v.(map[string]any)
			if !ok {
				return opts, fmt.Errorf("extra_args.Metadata: expected object, got %T", v)
			}
			opts.Metadata = make(map[string]string, len(m))
			for mk, mv := range m {
				opts.Metadata[mk] = fmt.Sprint(mv)
			}
		default:
			if opts.Extra == nil {
				opts.Extra = make(map[string]any)
			}
			opts.Extra[k] = v
		}
	}

	section := Section(config)
	var err error
	if opts.MultipartThreshold, err = section.Int64("multipart_threshold", opts.MultipartThreshold); err != nil {
		return opts, err
	}
	if opts.PartSize, err = section.Int64("multipart_chunksize", opts.PartSize); err != nil {
		return opts, err
	}
	concurrency, err := section.Int64("max_concurrency", int64(opts.Concurrency))
	if err != nil {
		return opts, err
	}
	opts.Concurrency = int(min(max(concurrency, 1), MaxConcurrency))

	if opts.PartSize < MinPartSize {
		opts.PartSize = MinPartSize
	}
	return opts, nil
}
