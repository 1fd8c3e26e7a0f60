// Package scraper fetches raw ang HTML from the primary source into the
// local page store. It is deliberately polite: rate limiting, random
// jitter, a clear identifying user agent, and a hard stop when the
// server starts answering 403/429.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/gurmukhi-data/granth-corpus/internal/corpus"
	"github.com/gurmukhi-data/granth-corpus/internal/metrics"
	"github.com/gurmukhi-data/granth-corpus/internal/storage/local"
)

// ErrForbidden aborts a run after repeated 403/429 responses; continuing
// would only make the block worse.
var ErrForbidden = errors.New("scraper: repeatedly refused by server")

// Config controls scraper behavior.
type Config struct {
	UserAgent      string `mapstructure:"user_agent"`
	URLPattern     string `mapstructure:"url_pattern"`
	DelayMs        int    `mapstructure:"delay_ms"`
	JitterMs       int    `mapstructure:"jitter_ms"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffBaseMs  int    `mapstructure:"backoff_base_ms"`
	ForbiddenLimit int    `mapstructure:"forbidden_limit"`
	AngStart       int    `mapstructure:"ang_start"`
	AngEnd         int    `mapstructure:"ang_end"`
}

// Summary reports a scrape run.
type Summary struct {
	Fetched int
	Skipped int
	Failed  int
}

// Scraper drives the fetch loop against the page store.
type Scraper struct {
	cfg    Config
	store  *local.PageStore
	state  *State
	logger *zap.Logger

	collector *colly.Collector
}

// New builds a Scraper with a rate-limited collector.
func New(cfg Config, store *local.PageStore, logger *zap.Logger) (*Scraper, error) {
	if cfg.AngStart <= 0 || cfg.AngEnd < cfg.AngStart {
		return nil, fmt.Errorf("invalid ang range %d..%d", cfg.AngStart, cfg.AngEnd)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       time.Duration(cfg.DelayMs) * time.Millisecond,
		RandomDelay: time.Duration(cfg.JitterMs) * time.Millisecond,
	}); err != nil {
		return nil, fmt.Errorf("set rate limit: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.SetRequestTimeout(timeout)

	return &Scraper{
		cfg:       cfg,
		store:     store,
		state:     NewState(store.Dir()),
		logger:    logger,
		collector: c,
	}, nil
}

// Run fetches every ang in the configured range that is not already in
// the page store, saving state after each page so an interrupted run
// resumes where it left off.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	if err := s.state.Load(); err != nil {
		return nil, err
	}

	summary := &Summary{}
	consecutiveForbidden := 0

	for ang := s.cfg.AngStart; ang <= s.cfg.AngEnd; ang++ {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("scrape canceled: %w", err)
		}
		if s.store.Has(ang) {
			summary.Skipped++
			continue
		}

		statusCode, err := s.fetchAng(ang)
		switch {
		case err == nil:
			summary.Fetched++
			consecutiveForbidden = 0
			s.state.MarkCompleted(ang)
		case statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests:
			summary.Failed++
			consecutiveForbidden++
			s.state.MarkFailed(ang, fmt.Sprintf("http %d", statusCode))
			s.logger.Warn("server refused request",
				zap.Int("ang", ang), zap.Int("status", statusCode))
			if consecutiveForbidden >= s.forbiddenLimit() {
				_ = s.state.Save()
				return summary, ErrForbidden
			}
		default:
			summary.Failed++
			consecutiveForbidden = 0
			s.state.MarkFailed(ang, err.Error())
			s.logger.Warn("fetch failed", zap.Int("ang", ang), zap.Error(err))
		}

		if err := s.state.Save(); err != nil {
			return summary, err
		}
	}

	s.logger.Info("scrape finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// fetchAng retrieves one ang with retries and exponential backoff,
// persisting the body through the page store on success. The returned
// status code is the last one seen, 0 when the failure was transport
// level.
func (s *Scraper) fetchAng(ang int) (int, error) {
	pattern := s.cfg.URLPattern
	if pattern == "" {
		pattern = corpus.PageURLPattern
	}
	url := fmt.Sprintf(pattern, ang)

	var lastStatus int
	var lastErr error

	attempts := s.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(s.backoffBase()*(1<<(attempt-1))) * time.Millisecond
			time.Sleep(backoff)
		}

		var (
			body   []byte
			status int
		)
		collector := s.collector.Clone()
		collector.OnResponse(func(r *colly.Response) {
			status = r.StatusCode
			body = r.Body
		})
		collector.OnError(func(r *colly.Response, err error) {
			status = r.StatusCode
			lastErr = err
		})

		if err := collector.Visit(url); err != nil {
			lastErr = err
		}
		collector.Wait()

		lastStatus = status
		metrics.PageFetched(statusClass(status))

		if status == http.StatusOK && len(body) > 0 {
			if _, err := s.store.Put(ang, body); err != nil {
				return status, err
			}
			s.logger.Debug("fetched ang", zap.Int("ang", ang), zap.Int("bytes", len(body)))
			return status, nil
		}
		if status == http.StatusForbidden || status == http.StatusTooManyRequests {
			// Backing off here does not help; the caller decides whether
			// the whole run stops.
			return status, fmt.Errorf("http %d for ang %d", status, ang)
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("http %d for ang %d", status, ang)
		}
	}

	return lastStatus, fmt.Errorf("ang %d failed after %d attempts: %w", ang, attempts, lastErr)
}

func (s *Scraper) forbiddenLimit() int {
	if s.cfg.ForbiddenLimit <= 0 {
		return 3
	}
	return s.cfg.ForbiddenLimit
}

func (s *Scraper) backoffBase() int {
	if s.cfg.BackoffBaseMs <= 0 {
		return 500
	}
	return s.cfg.BackoffBaseMs
}

func statusClass(status int) string {
	if status == 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}
