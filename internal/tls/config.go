// internal/tls/config.go
package tls

import (
	"crypto/tls"
	"fmt"

	"housegate/internal/observability/logging"
)

// Config holds the TLS configuration for the gate's own listener
type Config struct {
	// Logger is the logger to use
	Logger *logging.Logger

	// CertPath is the path to the server certificate
	CertPath string

	// KeyPath is the path to the server key
	KeyPath string
}

// GetTLSConfig loads the server certificate and builds a TLS configuration
func (c *Config) GetTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}

	c.Logger.Info("TLS configuration successful", "cert", c.CertPath)

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
