package ebook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/maestriajurisp/leads-api/internal/cache"
	"github.com/maestriajurisp/leads-api/internal/models"
	"github.com/maestriajurisp/leads-api/pkg/circuitbreaker"
	apperrors "github.com/maestriajurisp/leads-api/pkg/errors"
	"github.com/maestriajurisp/leads-api/pkg/jwt"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Asset is the download token audience for the e-book
const Asset = "ebook"

// DownloadPath is the route that resolves download tokens
const DownloadPath = "/api/v1/ebook/download"

// ErrInvalidDownloadToken is returned for missing, forged or expired tokens
var ErrInvalidDownloadToken = errors.New("invalid download token")

// LeadLookup finds recorded leads
type LeadLookup interface {
	GetByID(ctx context.Context, id string) (*models.Lead, error)
}

// Presigner signs object storage URLs
type Presigner interface {
	PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Options describes the e-book asset
type Options struct {
	Title        string
	BaseURL      string
	PublicURL    string
	ObjectKey    string
	PDFJSVersion string
	PreviewPages int
	URLTTL       time.Duration
}

// Service issues and resolves gated download links
type Service struct {
	opts      Options
	tokens    *jwt.DownloadTokenManager
	leads     LeadLookup
	presigner Presigner
	urls      *cache.URLCache
	breaker   *gobreaker.CircuitBreaker
}

// NewService creates the e-book service. presigner may be nil, in which case
// downloads resolve to the public URL.
func NewService(opts Options, tokens *jwt.DownloadTokenManager, leads LeadLookup, presigner Presigner) *Service {
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	InitViewer(opts.PDFJSVersion)

	return &Service{
		opts:      opts,
		tokens:    tokens,
		leads:     leads,
		presigner: presigner,
		// Half the signature lifetime so a cached URL is never about to expire
		urls:    cache.NewURLCache("ebook_download_url", opts.URLTTL/2),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("object_storage")),
	}
}

// Preview returns the metadata the landing page needs to render the preview
func (s *Service) Preview() models.EbookPreview {
	return models.EbookPreview{
		Title:        s.opts.Title,
		FileURL:      s.opts.PublicURL,
		WorkerURL:    WorkerURL(),
		PreviewPages: s.opts.PreviewPages,
	}
}

// IssueDownloadURL returns the gated download link for a recorded lead
func (s *Service) IssueDownloadURL(lead *models.Lead) (string, error) {
	token, err := s.tokens.GenerateToken(lead.ID, lead.Email, Asset)
	if err != nil {
		return "", fmt.Errorf("failed to issue download token: %w", err)
	}

	q := url.Values{}
	q.Set("token", token)
	return s.opts.BaseURL + DownloadPath + "?" + q.Encode(), nil
}

// ResolveDownload validates token and returns the URL the client should be
// redirected to.
func (s *Service) ResolveDownload(ctx context.Context, token string) (string, error) {
	if token == "" {
		metrics.EbookDownloads.WithLabelValues("invalid_token").Inc()
		return "", apperrors.UnauthorizedError(ErrInvalidDownloadToken.Error())
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil || claims.Asset != Asset {
		metrics.EbookDownloads.WithLabelValues("invalid_token").Inc()
		logger.Warn("Rejected e-book download token", zap.Error(err))
		return "", apperrors.UnauthorizedError(ErrInvalidDownloadToken.Error())
	}

	if _, err := s.leads.GetByID(ctx, claims.LeadID); err != nil {
		status := "error"
		if errors.Is(err, apperrors.ErrNotFound) {
			status = "unknown_lead"
		}
		metrics.EbookDownloads.WithLabelValues(status).Inc()
		return "", err
	}

	target, err := s.assetURL(ctx)
	if err != nil {
		metrics.EbookDownloads.WithLabelValues("error").Inc()
		return "", err
	}

	metrics.EbookDownloads.WithLabelValues("success").Inc()
	logger.Info("E-book download resolved", zap.String("lead_id", claims.LeadID))
	return target, nil
}

func (s *Service) assetURL(ctx context.Context) (string, error) {
	if s.presigner == nil || s.opts.ObjectKey == "" {
		if s.opts.PublicURL == "" {
			return "", apperrors.InternalError("no e-book source configured")
		}
		return s.opts.PublicURL, nil
	}

	presign := func() (string, error) {
		return s.urls.GetOrLoad(ctx, s.opts.ObjectKey, func(ctx context.Context) (string, error) {
			return s.presigner.PresignGetURL(ctx, s.opts.ObjectKey, s.opts.URLTTL)
		})
	}
	if s.opts.PublicURL == "" {
		target, err := circuitbreaker.Execute(s.breaker, presign)
		if err != nil {
			return "", apperrors.UnavailableError("object_storage", err)
		}
		return target, nil
	}
	return circuitbreaker.ExecuteWithFallback(s.breaker, presign, func() (string, error) {
		return s.opts.PublicURL, nil
	})
}
