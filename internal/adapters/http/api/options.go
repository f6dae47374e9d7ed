package api

import "time"

const (
	defaultMaxBodyBytes  = 64 << 10
	defaultLoginCapacity = 5
	defaultLoginWindow   = time.Minute
	defaultFormCapacity  = 20
	defaultFormWindow    = time.Minute
	defaultListLimit     = 50
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLoginRateLimit allows capacity login attempts per client per window.
func WithLoginRateLimit(capacity int, window time.Duration) Option {
	return func(s *Server) {
		if capacity > 0 && window > 0 {
			s.loginLimit = limitConfig{capacity: capacity, window: window}
		}
	}
}

// WithFormRateLimit allows capacity form submissions per client per window.
func WithFormRateLimit(capacity int, window time.Duration) Option {
	return func(s *Server) {
		if capacity > 0 && window > 0 {
			s.formLimit = limitConfig{capacity: capacity, window: window}
		}
	}
}
