package extractor

import "golang.org/x/time/rate"

// WithPacing overrides the rate limiter spacing detail fetches.
func WithPacing(l *rate.Limiter) Options {
	return func(o *options) {
		o.pacing = l
	}
}

// WithCheckpointEvery overrides the checkpoint batch size for the combats phase.
func WithCheckpointEvery(n int) Options {
	return func(o *options) {
		o.checkpointEvery = n
	}
}
