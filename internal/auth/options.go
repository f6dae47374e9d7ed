package auth

import "time"

const (
	defaultTokenTTL = 8 * time.Hour
	defaultIssuer   = "fundineed"
)

// Option applies a configuration option to the Authenticator.
type Option func(*Authenticator)

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(a *Authenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithIssuer sets the iss claim written and required.
func WithIssuer(iss string) Option {
	return func(a *Authenticator) {
		if iss != "" {
			a.issuer = iss
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}
