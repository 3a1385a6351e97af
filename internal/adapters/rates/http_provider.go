package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
)

const (
	defaultCacheSize = 64
	defaultCacheTTL  = time.Hour
	defaultTimeout   = 5 * time.Second
)

// latestRates is the response of GET {baseURL}/{base}.
type latestRates struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// HTTPProvider fetches live rates from an exchangerate-api compatible endpoint,
// caching the full rate table of each base currency.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	cache   *expirable.LRU[string, latestRates]
}

// Option configures an HTTPProvider.
type Option func(*HTTPProvider)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPProvider) { p.client = c }
}

// WithCacheTTL sets how long a base currency's rate table is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *HTTPProvider) {
		p.cache = expirable.NewLRU[string, latestRates](defaultCacheSize, nil, ttl)
	}
}

var _ portssvc.RateProvider = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider for baseURL, e.g. https://api.exchangerate-api.com/v4/latest
func NewHTTPProvider(baseURL string, opts ...Option) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		cache:   expirable.NewLRU[string, latestRates](defaultCacheSize, nil, defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rate returns how many units of quote one unit of base buys.
func (p *HTTPProvider) Rate(ctx context.Context, base, quote string) (decimal.Decimal, error) {
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)

	table, ok := p.cache.Get(base)
	if !ok {
		fetched, err := p.fetch(ctx, base)
		if err != nil {
			return decimal.Zero, err
		}
		p.cache.Add(base, fetched)
		table = fetched
	}

	rate, ok := table.Rates[quote]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s rate in %s table", apperrors.ErrRateUnavailable, quote, base)
	}
	return rate, nil
}

func (p *HTTPProvider) fetch(ctx context.Context, base string) (latestRates, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	endpoint := p.baseURL + "/" + url.PathEscape(base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return latestRates{}, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		logger.Warn("Exchange rate provider unreachable", slog.String("base", base), slog.String("error", err.Error()))
		return latestRates{}, fmt.Errorf("%w: provider request failed: %v", apperrors.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Exchange rate provider returned an error", slog.String("base", base), slog.Int("status", resp.StatusCode))
		return latestRates{}, fmt.Errorf("%w: provider returned status %d for %s", apperrors.ErrRateUnavailable, resp.StatusCode, base)
	}

	var body latestRates
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return latestRates{}, fmt.Errorf("%w: invalid provider response: %v", apperrors.ErrRateUnavailable, err)
	}
	if len(body.Rates) == 0 {
		return latestRates{}, fmt.Errorf("%w: provider returned no rates for %s", apperrors.ErrRateUnavailable, base)
	}

	logger.Debug("Fetched exchange rates", slog.String("base", base), slog.String("date", body.Date), slog.Int("count", len(body.Rates)))
	return body, nil
}
