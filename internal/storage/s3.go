package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Presigner is the part of s3.PresignClient used to sign GET URLs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest mirrors the fields of v4.PresignedHTTPRequest we read.
type PresignedRequest struct {
	URL string
}

// ObjectAPI is the part of *s3.Client used by S3.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3 struct {
	Client        ObjectAPI
	Presign       Presigner
	Bucket        string
	Prefix        string
	PublicBaseURL string
	TTL           time.Duration

	urls *expirable.LRU[string, string]
}

type S3Config struct {
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
	PresignTTL    time.Duration
}

func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg)
	return newS3(client, presignAdapter{s3.NewPresignClient(client)}, cfg), nil
}

func newS3(client ObjectAPI, presign Presigner, cfg S3Config) *S3 {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	// Cached URLs expire well before the signature does.
	return &S3{
		Client:        client,
		Presign:       presign,
		Bucket:        cfg.Bucket,
		Prefix:        strings.Trim(cfg.Prefix, "/"),
		PublicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		TTL:           ttl,
		urls:          expirable.NewLRU[string, string](1024, nil, ttl/2),
	}
}

func (s *S3) fullKey(key string) string {
	if s.Prefix == "" {
		return key
	}
	return s.Prefix + "/" + key
}

func (s *S3) Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error) {
	key, err := objectKey(in)
	if err != nil {
		return PutResult{}, err
	}
	full := s.fullKey(key)
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.Bucket,
		Key:         &full,
		Body:        r,
		ContentType: &in.ContentType,
	})
	if err != nil {
		return PutResult{}, err
	}
	u, err := s.URL(ctx, key)
	if err != nil {
		return PutResult{}, err
	}
	return PutResult{Key: key, URL: u}, nil
}

// URL returns the public URL when a public base is configured and a cached
// presigned GET URL otherwise.
func (s *S3) URL(ctx context.Context, key string) (string, error) {
	full := s.fullKey(key)
	if s.PublicBaseURL != "" {
		return s.PublicBaseURL + "/" + full, nil
	}
	if u, ok := s.urls.Get(full); ok {
		return u, nil
	}
	req, err := s.Presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.Bucket, Key: &full},
		s3.WithPresignExpires(s.TTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", full, err)
	}
	s.urls.Add(full, req.URL)
	return req.URL, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	full := s.fullKey(key)
	s.urls.Remove(full)
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.Bucket,
		Key:    &full,
	})
	return err
}

func (s *S3) String() string { return fmt.Sprintf("s3(%s/%s)", s.Bucket, s.Prefix) }

type presignAdapter struct{ c *s3.PresignClient }

func (p presignAdapter) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.c.PresignGetObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL}, nil
}
