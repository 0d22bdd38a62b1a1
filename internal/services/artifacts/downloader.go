// Package artifacts fetches the local model files the inference pipelines
// load at startup. Direct downloads resume partial files and retry with
// exponential backoff; hf: sources go through the hub client's own cache.
package artifacts

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/creaza/ai-service/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/cozy-creator/hf-hub/hub"
	"github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"go.uber.org/zap"
)

type Downloader struct {
	modelsDir string
	hubClient *hub.Client
	logger    *zap.Logger
}

func NewDownloader(cfg *config.Config, logger *zap.Logger) *Downloader {
	return &Downloader{
		modelsDir: cfg.ModelsDir,
		hubClient: hub.DefaultClient(),
		logger:    logger.Named("artifacts"),
	}
}

// DownloadAll fetches every default artifact that is not already on disk.
func (d *Downloader) DownloadAll() error {
	if err := os.MkdirAll(d.modelsDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	for filename, source := range DefaultSources {
		if err := d.Download(filename, source); err != nil {
			return fmt.Errorf("failed to download %s: %w", filename, err)
		}
	}

	return nil
}

// Download fetches a single artifact, skipping files that already exist.
func (d *Downloader) Download(filename, source string) error {
	destPath := filepath.Join(d.modelsDir, filename)
	if _, err := os.Stat(destPath); err == nil {
		d.logger.Info("artifact already present", zap.String("file", filename))
		return nil
	}

	src, err := ParseSource(source)
	if err != nil {
		return err
	}

	d.logger.Info("downloading artifact",
		zap.String("file", filename),
		zap.String("source", src.Location))

	switch src.Type {
	case SourceTypeHuggingFace:
		return d.downloadRepo(src.Location)
	case SourceTypeDirect:
		return d.downloadWithProgress(src.Location, destPath)
	default:
		return fmt.Errorf("unsupported source type: %s", src.Type)
	}
}

func (d *Downloader) downloadRepo(repoID string) error {
	if _, err := d.hubClient.Download(repoParams(repoID)); err != nil {
		return fmt.Errorf("failed to download repo %s: %w", repoID, err)
	}
	return nil
}

func repoParams(repoID string) *hub.DownloadParams {
	return &hub.DownloadParams{
		Repo: &hub.Repo{Id: repoID, Type: hub.ModelRepoType},
	}
}

func (d *Downloader) downloadWithProgress(url, destPath string) error {
	tmpPath := destPath + ".tmp"

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 5 * time.Minute
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second

	return backoff.Retry(func() error {
		return d.downloadWithResume(url, destPath, tmpPath)
	}, b)
}

func (d *Downloader) downloadWithResume(url, destPath, tmpPath string) error {
	var initialSize int64
	if info, err := os.Stat(tmpPath); err == nil {
		initialSize = info.Size()
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	if initialSize > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", initialSize))
	}

	client := &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 60 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   60 * time.Second,
			ResponseHeaderTimeout: 60 * time.Second,
			IdleConnTimeout:       60 * time.Second,
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var totalSize int64
	if initialSize > 0 {
		switch resp.StatusCode {
		case http.StatusPartialContent:
			totalSize = initialSize + resp.ContentLength
		case http.StatusOK:
			// server does not support resume, start over
			d.logger.Warn("server does not support resume, restarting download")
			initialSize = 0
			totalSize = resp.ContentLength
		default:
			return fmt.Errorf("resume failed with status %d", resp.StatusCode)
		}
	} else {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download failed with status %d", resp.StatusCode)
		}
		totalSize = resp.ContentLength
	}

	flag := os.O_CREATE | os.O_WRONLY
	if initialSize > 0 {
		flag |= os.O_APPEND
	} else {
		flag |= os.O_TRUNC
	}

	f, err := os.OpenFile(tmpPath, flag, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(180*time.Millisecond),
	)
	bar := progress.AddBar(totalSize,
		mpb.PrependDecorators(
			decor.Name(filepath.Base(destPath), decor.WC{W: 40, C: decor.DidentRight}),
			decor.CountersKibiByte("% .2f / % .2f"),
		),
		mpb.AppendDecorators(
			decor.EwmaETA(decor.ET_STYLE_GO, 90),
			decor.Name(" ] "),
			decor.EwmaSpeed(decor.UnitKiB, "% .2f", 60),
		),
	)
	if initialSize > 0 {
		bar.SetCurrent(initialSize)
	}

	downloadedSize := initialSize
	reader := bar.ProxyReader(resp.Body)
	buf := make([]byte, 32*1024)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write failed: %w", werr)
			}
			downloadedSize += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
	}

	if totalSize > 0 && downloadedSize != totalSize {
		return fmt.Errorf("download size mismatch: expected %d, got %d", totalSize, downloadedSize)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}

	return nil
}
