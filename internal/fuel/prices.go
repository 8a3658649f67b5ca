// Package fuel resolves the per-litre fuel prices used for running-cost
// derivations. Configured prices always win; a remote national-average feed
// fills whatever is left and is cached between calls.
package fuel

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
)

// Default remote fetch settings.
const (
	DefaultTimeout = 6 * time.Second
	DefaultTTL     = 12 * time.Hour
)

// Prices holds MXN prices. A nil field is unknown.
type Prices struct {
	Magna       *float64 `json:"gasolina_magna_litro"`
	Premium     *float64 `json:"gasolina_premium_litro"`
	Diesel      *float64 `json:"diesel_litro"`
	Electricity *float64 `json:"electricidad_kwh"`
}

// Float returns a pointer to f, or nil when f is not positive.
func Float(f float64) *float64 {
	if f <= 0 {
		return nil
	}
	return &f
}

// PerLitre returns the price that applies to a fuel category: premium and
// diesel have their own price, everything else burns magna.
func (p Prices) PerLitre(category string) (float64, bool) {
	var v *float64
	switch model.NormalizeFuel(category) {
	case model.FuelPremium:
		v = p.Premium
	case model.FuelDiesel:
		v = p.Diesel
	default:
		v = p.Magna
	}
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// Complete reports whether every price is known.
func (p Prices) Complete() bool {
	return p.Magna != nil && p.Premium != nil && p.Diesel != nil && p.Electricity != nil
}

// fill copies the prices p lacks from other.
func (p Prices) fill(other Prices) Prices {
	if p.Magna == nil {
		p.Magna = other.Magna
	}
	if p.Premium == nil {
		p.Premium = other.Premium
	}
	if p.Diesel == nil {
		p.Diesel = other.Diesel
	}
	if p.Electricity == nil {
		p.Electricity = other.Electricity
	}
	return p
}

// remotePayload is the shape of the national-average feed.
type remotePayload struct {
	Magna        float64 `json:"magna"`
	Premium      float64 `json:"premium"`
	Diesel       float64 `json:"diesel"`
	Electricidad float64 `json:"electricidad"`
}

func (r remotePayload) prices() Prices {
	return Prices{
		Magna:       Float(r.Magna),
		Premium:     Float(r.Premium),
		Diesel:      Float(r.Diesel),
		Electricity: Float(r.Electricidad),
	}
}

// Options configures a Resolver.
type Options struct {
	Static    Prices
	RemoteURL string
	Timeout   time.Duration
	TTL       time.Duration
}

// Resolver merges configured prices with the cached remote feed.
type Resolver struct {
	opts    Options
	fetcher *fetcher.HTTPFetcher
	now     func() time.Time

	mu        sync.Mutex
	cached    *Prices
	fetchedAt time.Time
}

// NewResolver creates a Resolver. With an empty RemoteURL only the static
// prices are ever returned.
func NewResolver(opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Resolver{
		opts: opts,
		fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:     opts.Timeout,
			MaxAttempts: 1,
		}),
		now: time.Now,
	}
}

// Prices returns the resolved prices. Remote failures are logged and never
// returned; a stale cached copy is served instead, and without one the
// unresolved prices stay nil.
func (r *Resolver) Prices(ctx context.Context) Prices {
	p := r.opts.Static
	if p.Complete() || r.opts.RemoteURL == "" {
		return p
	}
	if remote, ok := r.remote(ctx); ok {
		p = p.fill(remote)
	}
	return p
}

func (r *Resolver) remote(ctx context.Context) (Prices, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil && r.now().Sub(r.fetchedAt) < r.opts.TTL {
		return *r.cached, true
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	payload, err := fetcher.GetJSON[remotePayload](ctx, r.fetcher, r.opts.RemoteURL)
	if err != nil {
		zap.L().Warn("fuel: remote price fetch failed",
			zap.String("url", r.opts.RemoteURL),
			zap.Bool("stale", r.cached != nil),
			zap.Error(err),
		)
		if r.cached != nil {
			return *r.cached, true
		}
		return Prices{}, false
	}

	p := payload.prices()
	r.cached = &p
	r.fetchedAt = r.now()
	return p, true
}
