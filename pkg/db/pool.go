package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// configureTLS trusts the CA bundle at caCertPath for URLs whose sslmode
// asks for encryption. It returns nil, leaving pgx's defaults, for any other
// sslmode or when no bundle is configured.
func configureTLS(databaseURL, caCertPath string) (*tls.Config, error) {
	if caCertPath == "" || !requiresTLS(databaseURL) {
		return nil, nil
	}

	caPEM, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate from %s: %w", caCertPath, err)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no PEM certificates found in %s", caCertPath)
	}

	return &tls.Config{RootCAs: roots, MinVersion: tls.VersionTLS12}, nil
}

func requiresTLS(databaseURL string) bool {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return false
	}
	switch u.Query().Get("sslmode") {
	case "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

// PoolConfig sizes the lead store's pool. Zero values keep pgx defaults.
type PoolConfig struct {
	URL        string
	MaxConns   int32
	MinConns   int32
	CACertPath string
}

// NewPool opens the pool and pings it once, so a bad DATABASE_URL fails at
// startup rather than on the first lead.
func NewPool(ctx context.Context, poolCfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(poolCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	tlsConfig, err := configureTLS(poolCfg.URL, poolCfg.CACertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}
	if tlsConfig != nil {
		config.ConnConfig.TLSConfig = tlsConfig
	}

	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	config.HealthCheckPeriod = 30 * time.Second
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Close closes pool if it was opened
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
