// Package media turns stored object keys into time-bounded, externally
// fetchable URLs at read time. Resolution is a pure function of the key and
// the signer; nothing is cached, and callers must not persist the returned
// URLs as durable references.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Signer produces a fetchable URL for one object key.
type Signer interface {
	SignGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Resolver struct {
	signer Signer
	ttl    time.Duration
	log    *slog.Logger
}

func NewResolver(signer Signer, ttl time.Duration, log *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{signer: signer, ttl: ttl, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, key string) (string, error) {
	return r.signer.SignGetURL(ctx, key, r.ttl)
}

// ResolveAll resolves keys in order, dropping any that fail to sign. A
// partial result is acceptable; every skipped key is logged.
func (r *Resolver) ResolveAll(ctx context.Context, keys []string) []string {
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		u, err := r.signer.SignGetURL(ctx, key, r.ttl)
		if err != nil {
			r.log.Warn("media key failed to resolve", slog.String("key", key), slog.Any("err", err))
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

// S3Config holds explicit construction parameters for the S3 signer.
// Endpoint and PathStyle support MinIO and localstack.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// S3Signer presigns GetObject requests against a single bucket.
type S3Signer struct {
	presign *s3.PresignClient
	bucket  string
}

func NewS3Signer(ctx context.Context, cfg S3Config) (*S3Signer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3Signer{presign: s3.NewPresignClient(client), bucket: cfg.Bucket}, nil
}

func (s *S3Signer) SignGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) { po.Expires = expiry })
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// StaticSigner joins keys onto a fixed base URL. No expiry, no credentials;
// for local development and tests only.
type StaticSigner struct {
	base *url.URL
}

func NewStaticSigner(baseURL string) (*StaticSigner, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &StaticSigner{base: u}, nil
}

func (s *StaticSigner) SignGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	joined := *s.base
	joined.Path = strings.TrimSuffix(joined.Path, "/") + "/" + strings.TrimPrefix(key, "/")
	return joined.String(), nil
}
