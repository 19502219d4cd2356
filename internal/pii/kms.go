package pii

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"go.uber.org/zap"
)

// KMSAPI is the subset of the KMS client used for sealing.
type KMSAPI interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSConfig holds KMS client configuration.
type KMSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	KeyARN          string
}

// KMSSealer seals with an AWS KMS key. Decrypt needs no key id, KMS reads it from the blob.
type KMSSealer struct {
	client KMSAPI
	keyARN string
}

// NewKMSSealer creates a KMS client using static credentials when configured, else the default chain.
func NewKMSSealer(ctx context.Context, cfg KMSConfig, logger *zap.Logger) (*KMSSealer, error) {
	if cfg.KeyARN == "" {
		return nil, errors.New("kms key arn is required")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if logger != nil {
		logger.Info("PII sealing via KMS", zap.String("region", cfg.Region))
	}
	return NewKMSSealerWithClient(kms.NewFromConfig(awsCfg), cfg.KeyARN), nil
}

// NewKMSSealerWithClient wraps an existing KMS client.
func NewKMSSealerWithClient(client KMSAPI, keyARN string) *KMSSealer {
	return &KMSSealer{client: client, keyARN: keyARN}
}

// Seal encrypts plaintext and returns the base64 ciphertext blob.
func (s *KMSSealer) Seal(ctx context.Context, plaintext string) (string, error) {
	out, err := s.client.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(s.keyARN),
		Plaintext: []byte(plaintext),
	})
	if err != nil {
		return "", fmt.Errorf("kms encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(out.CiphertextBlob), nil
}

// Unseal decrypts a base64 ciphertext blob produced by Seal.
func (s *KMSSealer) Unseal(ctx context.Context, token string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	out, err := s.client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return "", fmt.Errorf("kms decrypt: %w", err)
	}
	return string(out.Plaintext), nil
}
