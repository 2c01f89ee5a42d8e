package service

import (
	"time"
)

const DefaultLowStockThreshold = 10

type options struct {
	now               func() time.Time
	cache             CatalogCache
	notifier          Notifier
	lowStockThreshold int
}

// Option configure un service à la construction
type Option func(opt *options)

func WithClock(now func() time.Time) Option {
	return func(opt *options) {
		opt.now = now
	}
}

func WithCatalogCache(cache CatalogCache) Option {
	return func(opt *options) {
		opt.cache = cache
	}
}

func WithNotifier(n Notifier) Option {
	return func(opt *options) {
		opt.notifier = n
	}
}

// WithLowStockThreshold fixe le seuil de stock faible du tableau de bord
func WithLowStockThreshold(threshold int) Option {
	return func(opt *options) {
		if threshold > 0 {
			opt.lowStockThreshold = threshold
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:               time.Now,
		lowStockThreshold: DefaultLowStockThreshold,
	}
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
