// Package source opens 4Splat videos by URI.
//
// A URI is a local path, a zstd-compressed local path ending in .zst, or an
// s3://bucket/key object (optionally .zst as well). Plain files are mapped
// with mmap and decoded in place. Compressed files are decompressed onto the
// heap after reserving their size from a membudget.Budget. S3 objects are
// downloaded to a temp file first and then opened like local files.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eunmann/splat4d/internal/logctx"
	"github.com/eunmann/splat4d/pkg/format"
	"github.com/eunmann/splat4d/pkg/logging"
	"github.com/eunmann/splat4d/pkg/membudget"
	"github.com/eunmann/splat4d/pkg/s3fetch"
)

// ZstdSuffix marks zstd-compressed videos.
const ZstdSuffix = ".zst"

// Kind is where a video's bytes live.
type Kind string

const (
	KindMmap Kind = "mmap"
	KindHeap Kind = "heap"
)

// Downloader fetches an S3 object to local disk. *s3fetch.Client implements it.
type Downloader interface {
	Download(ctx context.Context, bucket, key string) (*s3fetch.TempFile, *s3fetch.DownloadResult, error)
}

// Options configures Open.
type Options struct {
	// Budget caps heap-resident videos. Nil means NewFromSystemRAM.
	Budget *membudget.Budget

	// S3 downloads s3:// URIs. Nil builds an s3fetch.Client from the default
	// AWS configuration on first use.
	S3 Downloader

	// Download configures the default S3 client.
	Download s3fetch.DownloaderConfig
}

// Video is an opened video and the resources backing it. The decoded video
// references those resources, so it must not be used after Close.
type Video struct {
	uri    string
	kind   Kind
	data   []byte
	video  *format.Video
	closer []func() error
}

// URI returns the URI the video was opened from.
func (v *Video) URI() string { return v.uri }

// Kind reports whether the bytes are mapped or on the heap.
func (v *Video) Kind() Kind { return v.kind }

// Data returns the raw container bytes.
func (v *Video) Data() []byte { return v.data }

// Video returns the decoded video.
func (v *Video) Video() *format.Video { return v.video }

// Close releases mappings, heap reservations and temp files, in reverse
// order of acquisition. It is safe to call more than once.
func (v *Video) Close() error {
	var errs []error
	for i := len(v.closer) - 1; i >= 0; i-- {
		if err := v.closer[i](); err != nil {
			errs = append(errs, err)
		}
	}
	v.closer = nil
	v.data = nil
	v.video = nil
	return errors.Join(errs...)
}

func (v *Video) onClose(fn func() error) {
	v.closer = append(v.closer, fn)
}

// Open loads and decodes the video at uri.
func Open(ctx context.Context, uri string, opts Options) (*Video, error) {
	if opts.Budget == nil {
		opts.Budget = membudget.NewFromSystemRAM()
	}
	ctx = logctx.WithSource(ctx, uri)
	start := time.Now()

	v := &Video{uri: uri}
	if err := open(ctx, v, uri, opts); err != nil {
		v.Close()
		return nil, err
	}

	h := v.video.Header()
	log := logctx.FromContext(ctx)
	logging.PhaseComplete(log, "open", time.Since(start)).
		Str("kind", string(v.kind)).
		Bytes("bytes", int64(len(v.data))).
		Count("voxels", int64(h.TotalVoxels())).
		Int("palette_size", v.video.PaletteSize()).
		LogDebug("video opened")
	return v, nil
}

func open(ctx context.Context, v *Video, uri string, opts Options) error {
	path := uri
	if s3fetch.IsS3URI(uri) {
		tmp, err := download(ctx, uri, opts)
		if err != nil {
			return err
		}
		v.onClose(tmp.Close)
		path = tmp.Path()
	}

	if strings.HasSuffix(uri, ZstdSuffix) {
		data, reserved, err := readZstd(ctx, path, opts.Budget)
		if err != nil {
			return err
		}
		v.onClose(func() error {
			opts.Budget.Release(reserved)
			return nil
		})

		video, err := format.Decode(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", uri, err)
		}
		v.kind, v.data, v.video = KindHeap, data, video
		return nil
	}

	f, err := format.OpenFile(path)
	if err != nil {
		return err
	}
	v.onClose(f.Close)
	v.kind, v.data, v.video = KindMmap, f.Data(), f.Video()
	return nil
}

func download(ctx context.Context, uri string, opts Options) (*s3fetch.TempFile, error) {
	bucket, key, err := s3fetch.ParseObjectURI(uri)
	if err != nil {
		return nil, err
	}

	dl := opts.S3
	if dl == nil {
		client, err := s3fetch.NewClient(ctx, opts.Download)
		if err != nil {
			return nil, fmt.Errorf("create S3 client: %w", err)
		}
		dl = client
	}

	tmp, result, err := dl.Download(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	logging.DownloadComplete(logctx.FromContext(ctx), "open", result.Duration).
		Bytes("bytes", result.BytesDownloaded).
		Int("concurrency", result.Concurrency).
		Throughput(result.BytesDownloaded).
		Log("video downloaded")
	return tmp, nil
}
