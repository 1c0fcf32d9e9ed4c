package storage

import "testing"

func TestParseTransferOptions_Concurrency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config map[string]any
		want   int
	}{
		{name: "default", want: DefaultConcurrency},
		{name: "explicit", config: map[string]any{"max_concurrency": 4}, want: 4},
		{name: "zero", config: map[string]any{"max_concurrency": 0}, want: 1},
		{name: "negative", config: map[string]any{"max_concurrency": -3}, want: 1},
		{name: "above uint16", config: map[string]any{"max_concurrency": 70000}, want: MaxConcurrency},
		{name: "huge", config: map[string]any{"max_concurrency": int64(1) << 40}, want: MaxConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts, err := ParseTransferOptions(nil, tt.config)
			if err != nil {
				t.Fatalf("ParseTransferOptions() error = %v", err)
			}
			if opts.Concurrency != tt.want {
				t.Errorf("Concurrency = %d, want %d", opts.Concurrency, tt.want)
			}
		})
	}
}

func TestParseTransferOptions_PartSizeFloor(t *testing.T) {
	t.Parallel()

	opts, err := ParseTransferOptions(nil, map[string]any{"multipart_chunksize": 1024})
	if err != nil {
		t.Fatalf("ParseTransferOptions() error = %v", err)
	}
	if opts.PartSize != MinPartSize {
		t.Errorf("PartSize = %d, want %d", opts.PartSize, MinPartSize)
	}
}
