// Package app assembles the HTTP service from configuration: token verification, PII sealing and routing.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fooder/backend/config"
	"github.com/fooder/backend/internal/auth"
	"github.com/fooder/backend/internal/pii"
)

// NewSealer returns a KMS sealer when a key ARN is configured, else the local development sealer.
func NewSealer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (pii.Sealer, error) {
	if cfg.PII.KeyARN != "" {
		s, err := pii.NewKMSSealer(ctx, pii.KMSConfig{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			KeyARN:          cfg.PII.KeyARN,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	logger.Warn("PII sealing with local key; set PII_KEY_ARN in production")
	s, err := pii.NewLocalSealerFromHex(cfg.PII.LocalKeyHex)
	if err != nil {
		return nil, fmt.Errorf("local pii key: %w", err)
	}
	return s, nil
}

// NewVerifier returns the bearer token verifier for the configured auth mode. In cognito mode the
// user pool key set is downloaded once here.
func NewVerifier(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.Verifier, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeHMAC:
		logger.Warn("AUTH_MODE=hmac: tokens are verified with a shared secret")
		return auth.NewHMACVerifier(cfg.Auth.HMACSecret), nil
	case config.AuthModeCognito:
		fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		v, err := auth.NewJWKSVerifier(fetchCtx, &http.Client{Timeout: 10 * time.Second},
			cfg.Auth.JWKSURL(), cfg.Auth.Issuer(), cfg.Auth.CognitoClientID)
		if err != nil {
			return nil, err
		}
		logger.Info("cognito key set loaded", zap.String("issuer", cfg.Auth.Issuer()))
		return v, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}
