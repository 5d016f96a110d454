package s3fetch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DownloaderConfig configures the S3 Download Manager.
type DownloaderConfig struct {
	// Concurrency is the number of concurrent download parts.
	// Default: NumCPU clamped to [4, 16].
	Concurrency int

	// PartSize is the size of each download part in bytes.
	// Default: 16MB.
	PartSize int64

	// TempDir is the directory for downloaded videos.
	// If empty, os.TempDir() is used.
	TempDir string
}

// DefaultDownloaderConfig returns sensible defaults based on the current machine.
func DefaultDownloaderConfig() DownloaderConfig {
	return DownloaderConfig{
		Concurrency: min(max(runtime.NumCPU(), 4), 16),
		PartSize:    16 * 1024 * 1024,
	}
}

func (cfg DownloaderConfig) withDefaults() DownloaderConfig {
	def := DefaultDownloaderConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.PartSize <= 0 {
		cfg.PartSize = def.PartSize
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return cfg
}

// Downloader wraps the AWS S3 Download Manager for high-throughput downloads.
type Downloader struct {
	manager *manager.Downloader
	config  DownloaderConfig
}

// NewDownloader creates an S3 Downloader from an existing S3 client.
func NewDownloader(s3Client *s3.Client, cfg DownloaderConfig) *Downloader {
	cfg = cfg.withDefaults()

	mgr := manager.NewDownloader(s3Client, func(d *manager.Downloader) {
		d.Concurrency = cfg.Concurrency
		d.PartSize = cfg.PartSize
		d.BufferProvider = manager.NewPooledBufferedWriterReadFromProvider(int(cfg.PartSize))
	})

	return &Downloader{
		manager: mgr,
		config:  cfg,
	}
}

// DownloadResult contains information about a completed download.
type DownloadResult struct {
	BytesDownloaded int64
	Duration        time.Duration
	Concurrency     int
	PartSize        int64
}

// DownloadToTemp downloads an object into a new file under TempDir.
// The file is removed when the returned TempFile is closed.
func (d *Downloader) DownloadToTemp(ctx context.Context, bucket, key string) (*TempFile, *DownloadResult, error) {
	f, err := os.CreateTemp(d.config.TempDir, "splat4d-*.download")
	if err != nil {
		return nil, nil, fmt.Errorf("create temp file: %w", err)
	}
	tmp := NewTempFile(f.Name())

	result, err := d.download(ctx, f, bucket, key)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close temp file: %w", closeErr)
	}
	if err != nil {
		tmp.Close()
		return nil, nil, err
	}
	return tmp, result, nil
}

// DownloadToFile downloads an object to destPath.
func (d *Downloader) DownloadToFile(ctx context.Context, bucket, key, destPath string) (*DownloadResult, error) {
	f, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create destination file: %w", err)
	}

	result, err := d.download(ctx, f, bucket, key)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close destination file: %w", closeErr)
	}
	if err != nil {
		os.Remove(destPath)
		return nil, err
	}
	return result, nil
}

func (d *Downloader) download(ctx context.Context, f *os.File, bucket, key string) (*DownloadResult, error) {
	start := time.Now()
	n, err := d.manager.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return &DownloadResult{
		BytesDownloaded: n,
		Duration:        time.Since(start),
		Concurrency:     d.config.Concurrency,
		PartSize:        d.config.PartSize,
	}, nil
}

// Config returns the downloader configuration.
func (d *Downloader) Config() DownloaderConfig {
	return d.config
}

// TempFile is a downloaded object on local disk.
type TempFile struct {
	path string
}

// NewTempFile takes ownership of an existing file; Close deletes it.
func NewTempFile(path string) *TempFile {
	return &TempFile{path: path}
}

// Path returns the local file path.
func (t *TempFile) Path() string {
	return t.path
}

// Close deletes the file. It is safe to call more than once.
func (t *TempFile) Close() error {
	if t.path == "" {
		return nil
	}
	path := t.path
	t.path = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}
