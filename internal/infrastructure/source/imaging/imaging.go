// Package imaging downloads product images and fits them into the storefront bounding box.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	// Registered decoders for image.Decode
	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/enrichment/backend/internal/infrastructure/source"
)

// Defaults for downloads and resizing
const (
	DefaultMaxDimension = 2000
	DefaultJPEGQuality  = 85
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBytes     = 25 << 20
	DefaultMaxPixels    = 50_000_000
)

// Errors returned by the downloader
var (
	ErrDownloadFailed = errors.New("imaging: download failed")
	ErrTooLarge       = errors.New("imaging: image exceeds size limit")
	ErrDecode         = errors.New("imaging: cannot decode image")
)

// Image is a downloaded, ready to store image
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Resized     bool
}

// Config holds downloader settings
type Config struct {
	Timeout      time.Duration
	MaxDimension int
	JPEGQuality  int
	MaxBytes     int64
	MaxPixels    int64 // decoded width*height limit
	UserAgent    string
}

// DefaultConfig returns the default downloader settings
func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		MaxDimension: DefaultMaxDimension,
		JPEGQuality:  DefaultJPEGQuality,
		MaxBytes:     DefaultMaxBytes,
		MaxPixels:    DefaultMaxPixels,
		UserAgent:    source.DefaultUserAgent,
	}
}

// Fetcher downloads and optimizes images
type Fetcher struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetcher creates a new image fetcher
func NewFetcher(config Config, logger *zap.Logger) *Fetcher {
	if config.MaxDimension <= 0 {
		config.MaxDimension = DefaultMaxDimension
	}
	if config.JPEGQuality <= 0 || config.JPEGQuality > 100 {
		config.JPEGQuality = DefaultJPEGQuality
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if config.MaxPixels <= 0 {
		config.MaxPixels = DefaultMaxPixels
	}
	if config.UserAgent == "" {
		config.UserAgent = source.DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		config:     config,
		httpClient: source.NewHTTPClient(config.Timeout),
		logger:     logger,
	}
}

// Fetch downloads and optimizes an image. Failures are logged and reported as ok=false.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Image, bool) {
	data, err := f.Download(ctx, url)
	if err != nil {
		f.logger.Warn("Image download failed", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	img, err := f.Optimize(data)
	if err != nil {
		f.logger.Warn("Could not optimize image, skipping", zap.String("url", url), zap.Error(err))
		return nil, false
	}
	if img.Resized {
		f.logger.Debug("Image resized",
			zap.String("url", url),
			zap.Int("width", img.Width),
			zap.Int("height", img.Height),
		)
	}
	return img, true
}

// Download fetches the raw image bytes
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, source.ClassifyTransportError(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrDownloadFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if int64(len(data)) > f.config.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Optimize keeps images within the bounding box untouched and re-encodes larger ones as JPEG
func (f *Fetcher) Optimize(data []byte) (*Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	maxDim := f.config.MaxDimension
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return &Image{
			Data:        data,
			ContentType: http.DetectContentType(data),
			Width:       cfg.Width,
			Height:      cfg.Height,
		}, nil
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > f.config.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, cfg.Width, cfg.Height, f.config.MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	width, height := FitWithin(cfg.Width, cfg.Height, maxDim)
	dst := newCanvas(src, width, height)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: f.config.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
	}
	return &Image{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       width,
		Height:      height,
		Resized:     true,
	}, nil
}

// newCanvas returns a grayscale canvas for grayscale sources and an opaque white RGBA one otherwise,
// so transparent and CMYK sources flatten to plain RGB.
func newCanvas(src image.Image, width, height int) draw.Image {
	rect := image.Rect(0, 0, width, height)
	switch src.(type) {
	case *image.Gray, *image.Gray16:
		return image.NewGray(rect)
	}
	canvas := image.NewRGBA(rect)
	draw.Draw(canvas, rect, image.NewUniform(color.White), image.Point{}, draw.Src)
	return canvas
}

// FitWithin scales width and height down to fit a square box, keeping the aspect ratio
func FitWithin(width, height, maxDim int) (int, int) {
	if width <= maxDim && height <= maxDim {
		return width, height
	}
	if width > height {
		return maxDim, max(1, height*maxDim/width)
	}
	return max(1, width*maxDim/height), maxDim
}
