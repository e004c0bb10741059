package clock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"resty.dev/v3"

	"facturacion/internal/metrics"
)

// Layout is the format of every sale timestamp.
const Layout = "2006-01-02 15:04:05"

const (
	DefaultURL      = "https://timeapi.io/api/Time/current/zone"
	DefaultTimeZone = "America/Argentina/Buenos_Aires"
	DefaultTimeout  = 3 * time.Second
)

var errMissingFields = errors.New("response has neither dateTime nor date and time")

type Config struct {
	URL      string
	TimeZone string
	Timeout  time.Duration
}

// Service stamps sales with the time reported by a remote time API for a fixed
// zone, and with the local clock whenever that lookup fails.
type Service struct {
	client  *resty.Client
	url     string
	zone    string
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func New(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Service {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultTimeZone
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:  resty.New().SetTimeout(cfg.Timeout),
		url:     cfg.URL,
		zone:    cfg.TimeZone,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

type remoteTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

// Now returns the current timestamp formatted with Layout. It never fails.
func (s *Service) Now(ctx context.Context) string {
	var out remoteTime
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("timeZone", s.zone).
		SetResult(&out).
		Get(s.url)
	if err != nil {
		return s.fallback(err)
	}
	if resp.IsError() {
		return s.fallback(fmt.Errorf("time api status %d", resp.StatusCode()))
	}
	ts, err := out.format()
	if err != nil {
		return s.fallback(err)
	}
	return ts
}

func (s *Service) Close() error { return s.client.Close() }

func (s *Service) fallback(err error) string {
	s.metrics.ClockFallback()
	s.logger.Warn("clock.remote.fail", zap.String("url", s.url), zap.String("zone", s.zone), zap.Error(err))
	return s.now().Format(Layout)
}

func (t remoteTime) format() (string, error) {
	if t.DateTime != "" {
		for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339Nano} {
			if v, err := time.Parse(layout, t.DateTime); err == nil {
				return v.Format(Layout), nil
			}
		}
	}
	if t.Date == "" || t.Time == "" {
		return "", errMissingFields
	}
	d, err := parseAny(t.Date, "01/02/2006", "2006-01-02")
	if err != nil {
		return "", fmt.Errorf("date %q: %w", t.Date, err)
	}
	clk, err := parseAny(t.Time, "15:04:05", "15:04")
	if err != nil {
		return "", fmt.Errorf("time %q: %w", t.Time, err)
	}
	v := time.Date(d.Year(), d.Month(), d.Day(), clk.Hour(), clk.Minute(), clk.Second(), 0, time.UTC)
	return v.Format(Layout), nil
}

func parseAny(value string, layouts ...string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var v time.Time
		if v, err = time.Parse(layout, value); err == nil {
			return v, nil
		}
	}
	return time.Time{}, err
}
