package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/eunmann/splat4d/internal/logctx"
	"github.com/eunmann/splat4d/pkg/membudget"
)

// readZstd decompresses path onto the heap. When the frame header records the
// content size it is reserved before decoding; otherwise the actual size is
// reserved afterwards. Decoding never grows past the budget total. The
// reserved byte count is returned for release on close.
func readZstd(ctx context.Context, path string, budget *membudget.Budget) ([]byte, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	contentSize, known, err := peekContentSize(f)
	if err != nil {
		return nil, 0, fmt.Errorf("read zstd header %s: %w", path, err)
	}

	limit := budget.Total()
	if known {
		if err := budget.Reserve(contentSize); err != nil {
			return nil, 0, fmt.Errorf("decompress %s: %w", path, err)
		}
	}
	release := func() {
		if known {
			budget.Release(contentSize)
		}
	}

	dec, err := zstd.NewReader(f, zstd.WithDecoderMaxMemory(max(limit, 1)))
	if err != nil {
		release()
		return nil, 0, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	if known {
		buf.Grow(int(contentSize))
	}
	if _, err := buf.ReadFrom(readerWithContext{ctx: ctx, r: dec}); err != nil {
		release()
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, 0, fmt.Errorf("decompress %s beyond %d bytes: %w", path, limit, membudget.ErrExceedsBudget)
		}
		return nil, 0, fmt.Errorf("decompress %s: %w", path, err)
	}

	data := buf.Bytes()
	reserved := contentSize
	if !known {
		reserved = uint64(len(data))
		if err := budget.Reserve(reserved); err != nil {
			return nil, 0, fmt.Errorf("decompress %s: %w", path, err)
		}
	}

	log := logctx.FromContext(ctx)
	log.Debug().
		Uint64("decompressed_bytes", uint64(len(data))).
		Bool("size_in_header", known).
		Msg("zstd video decompressed")
	return data, reserved, nil
}

// peekContentSize reads the first frame header and rewinds f.
func peekContentSize(f *os.File) (uint64, bool, error) {
	var hdr [zstd.HeaderMaxSize]byte
	n, err := io.ReadFull(f, hdr[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, false, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, false, err
	}

	var h zstd.Header
	if err := h.Decode(hdr[:n]); err != nil {
		return 0, false, err
	}
	return h.FrameContentSize, h.HasFCS, nil
}

// readerWithContext stops a long decompression when ctx is cancelled.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
