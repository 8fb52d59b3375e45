package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxCorpusSize caps how much of an object Load will read.
const maxCorpusSize = 16 << 20

// s3API is the slice of the S3 client the source needs.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Options configures an S3Source.
type S3Options struct {
	Bucket string
	Key    string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. A custom
	// endpoint also switches to path-style addressing.
	Endpoint string
	// AccessKey and SecretKey select static credentials; empty uses the
	// default AWS chain.
	AccessKey string
	SecretKey string

	PollInterval time.Duration
	Logger       *slog.Logger
}

// S3Source reads the corpus from an S3 object and detects changes by
// polling the object's ETag.
type S3Source struct {
	client s3API
	bucket string
	key    string
	poll   time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	lastETag string
}

// NewS3 creates an S3-backed source.
func NewS3(ctx context.Context, opts S3Options) (*S3Source, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3(client, opts), nil
}

func newS3(client s3API, opts S3Options) *S3Source {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &S3Source{
		client: client,
		bucket: opts.Bucket,
		key:    opts.Key,
		poll:   opts.PollInterval,
		logger: opts.Logger,
	}
}

// Load fetches the object and records its ETag as the change baseline.
func (s *S3Source) Load(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxCorpusSize))
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key, err)
	}

	s.mu.Lock()
	s.lastETag = aws.ToString(out.ETag)
	s.mu.Unlock()

	return data, nil
}

// Watch polls the object's ETag until ctx is done. The first poll after
// a cold start only records the baseline.
func (s *S3Source) Watch(ctx context.Context, onChange func()) error {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(s.key),
			})
			if err != nil {
				s.logger.Warn("corpus poll failed", "source", s.Describe(), "error", err)
				continue
			}

			etag := aws.ToString(head.ETag)
			s.mu.Lock()
			changed := s.lastETag != "" && etag != s.lastETag
			s.lastETag = etag
			s.mu.Unlock()

			if changed {
				onChange()
			}
		}
	}
}

// Describe names the source for logs.
func (s *S3Source) Describe() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}
