package api

import "github.com/okian/mdpsurvey/pkg/logger"

const defaultMaxBodyBytes int64 = 1 << 20

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithLogger sets the logger handlers and middleware write to.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps request bodies on write methods.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithProduction enables headers meant only for TLS deployments.
func WithProduction(enabled bool) ServerOption {
	return func(s *Server) {
		s.production = enabled
	}
}
