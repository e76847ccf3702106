// Package handlers implements the preview server endpoints.
package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"thesisgen/internal/config"
	"thesisgen/internal/domain"
	"thesisgen/internal/infra/chrome"
	"thesisgen/internal/infra/logging"
	"thesisgen/internal/placeholder"
	"thesisgen/internal/render"
	"thesisgen/internal/thesis"
)

// maxPlaceholderText bounds the caption accepted by the placeholder endpoint.
const maxPlaceholderText = 256

// PDFBackend converts HTML to PDF and reports its browser pool.
type PDFBackend interface {
	render.PDFConverter
	Stats() (chrome.Stats, error)
}

// Service bundles configuration and dependencies of the endpoints.
type Service struct {
	Config *config.Config
	Redis  *redis.Client
	PDF    PDFBackend

	genMu sync.Mutex
	gen   *placeholder.Generator
}

// NewService creates a Service. rdb and pdf may be nil.
func NewService(cfg config.Config, rdb *redis.Client, pdf PDFBackend) *Service {
	return &Service{
		Config: &cfg,
		Redis:  rdb,
		PDF:    pdf,
		gen: placeholder.New(placeholder.Options{
			FontPath: cfg.Placeholder.FontPath,
			FontSize: cfg.Placeholder.FontSize,
		}),
	}
}

// HandleDocument assembles the thesis and returns it in the requested format
// (docx by default), serving a cached copy when one exists.
func (svc *Service) HandleDocument(c *fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", render.FormatDOCX))
	switch format {
	case render.FormatDOCX, render.FormatHTML, render.FormatPDF:
	default:
		return fiber.NewError(fiber.StatusBadRequest, "Invalid format: must be docx, html or pdf")
	}

	b, err := thesis.Compose(*svc.Config)
	if err != nil {
		logging.Error("Document assembly failed", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Document assembly failed: "+err.Error())
	}
	if svc.PDF != nil {
		b.WithPDF(svc.PDF)
	}

	filename := downloadName(svc.Config.Output.Path, format)
	cacheKey := computeDocumentCacheKey(format, b.Document().Fingerprint())
	caching := svc.Redis != nil && svc.Config.Cache.DocumentCacheEnabled

	if caching {
		if cached, err := getCached(c, svc.Redis, cacheKey); err == nil && cached != nil {
			return sendDocument(c, format, filename, cached)
		}
	}

	out, err := b.Render(c.UserContext(), format)
	if err != nil {
		return renderError(svc.Config.PDF.TimeoutSecs, err)
	}

	if caching {
		setCached(c, svc.Redis, cacheKey, out, svc.Config.Cache.DocumentCacheTTL)
	}

	logging.Info("Document rendered", "format", format, "bytes", len(out), "request_id", c.GetRespHeader(fiber.HeaderXRequestID))
	return sendDocument(c, format, filename, out)
}

func renderError(timeoutSecs int, err error) error {
	switch {
	case errors.Is(err, domain.ErrPDFUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, "PDF rendering is not configured")
	case errors.Is(err, context.DeadlineExceeded):
		logging.Error("Document rendering timeout", "timeout_secs", timeoutSecs, "error", err.Error())
		return fiber.NewError(fiber.StatusRequestTimeout, "Document rendering took too long")
	case chrome.IsSessionInterrupted(err):
		logging.Error("Chrome session interrupted", "error", err.Error())
		return fiber.NewError(fiber.StatusServiceUnavailable, "Chrome session interrupted")
	}
	logging.Error("Document rendering failed", "error", err.Error())
	return fiber.NewError(fiber.StatusInternalServerError, "Document rendering failed: "+err.Error())
}

func sendDocument(c *fiber.Ctx, format, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, render.ContentType(format))
	if format == render.FormatHTML {
		c.Set(fiber.HeaderContentDisposition, "inline; filename="+filename)
	} else {
		c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	}
	return c.Send(data)
}

// downloadName swaps the extension of the configured output file for format.
func downloadName(outputPath, format string) string {
	base := filepath.Base(outputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + format
}

// computeDocumentCacheKey derives the cache key from the format and the
// document fingerprint.
func computeDocumentCacheKey(format, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(format))
	h.Write([]byte(fingerprint))
	return "doccache:" + hex.EncodeToString(h.Sum(nil))
}

func getCached(c *fiber.Ctx, rdb *redis.Client, key string) ([]byte, error) {
	ctxRedis, cancel := context.WithTimeout(c.Context(), 1*time.Second)
	defer cancel()

	cached, err := rdb.Get(ctxRedis, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logging.Warn("Redis read failed", "error", err)
		return nil, err
	}
	logging.Info("Document cache hit", "key", key)
	return cached, nil
}

func setCached(c *fiber.Ctx, rdb *redis.Client, key string, data []byte, ttl time.Duration) {
	ctxRedis, cancel := context.WithTimeout(c.Context(), 1*time.Second)
	defer cancel()

	if ttl <= 0 {
		ttl = 1 * time.Minute
	}
	if err := rdb.Set(ctxRedis, key, data, ttl).Err(); err != nil {
		logging.Warn("Redis write failed", "error", err)
	}
}

// HandlePlaceholder renders the placeholder for ?text= as PNG.
func (svc *Service) HandlePlaceholder(c *fiber.Ctx) error {
	text := c.Query("text")
	if strings.TrimSpace(text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid text: missing")
	}
	if len(text) > maxPlaceholderText {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid text: too long")
	}

	// faces loaded from font files are not safe for concurrent use
	svc.genMu.Lock()
	img := svc.gen.Render(text)
	svc.genMu.Unlock()

	c.Set(fiber.HeaderContentType, "image/png")
	return imaging.Encode(c.Response().BodyWriter(), img, imaging.PNG)
}

// HandleChromeStats exposes the Chrome pool state.
func (svc *Service) HandleChromeStats(c *fiber.Ctx) error {
	if svc.PDF == nil {
		return c.JSON(chrome.Stats{TimeoutSecs: svc.Config.PDF.TimeoutSecs})
	}
	s, err := svc.PDF.Stats()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Chrome pool init failed: "+err.Error())
	}
	return c.JSON(s)
}
