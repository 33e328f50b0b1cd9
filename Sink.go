package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	errTargetExists = errors.New("target exists")
	errBadName      = errors.New("unusable file name")
)

// Sink stores a decoded file and returns where it went.
type Sink interface {
	Store(ctx context.Context, name string, r io.Reader, size int64) (string, error)
}

// safeName reduces a decoded name to its base name. Names come from the
// input and must not leave the output directory.
func safeName(name string) (string, error) {
	name = strings.TrimSpace(name[strings.LastIndexAny(name, `/\`)+1:])
	switch name {
	case "", ".", "..":
		return "", errBadName
	}
	return name, nil
} // end func safeName

type FileSink struct {
	dir       string
	overwrite bool
}

func NewFileSink(dir string, overwrite bool) (*FileSink, error) {
	if !Mkdir(dir) {
		return nil, fmt.Errorf("%w: can not create output_dir '%s'", errConfig, dir)
	}
	return &FileSink{dir: dir, overwrite: overwrite}, nil
}

// Store writes r to a private tmp file in the output dir and publishes it
// under the decoded name. Without overwrite the target is linked into place,
// which fails if any other writer got there first.
func (s *FileSink) Store(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	base, err := safeName(name)
	if err != nil {
		return "", fmt.Errorf("%w: '%s'", err, name)
	}
	target := filepath.Join(s.dir, base)
	if !s.overwrite && FileExists(target) {
		return "", fmt.Errorf("%w: '%s'", errTargetExists, target)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := os.CreateTemp(s.dir, base+".*.tmp")
	if err != nil {
		return "", err
	}
	target_tmp := file.Name()
	defer os.Remove(target_tmp) // no-op once published by rename
	defer file.Close()
	datawriter := bufio.NewWriterSize(file, DefaultBufferSize)
	if _, err := io.Copy(datawriter, r); err != nil {
		return "", err
	}
	if err := datawriter.Flush(); err != nil {
		return "", err
	}
	if err := file.Chmod(0644); err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if s.overwrite {
		if err := os.Rename(target_tmp, target); err != nil {
			return "", err
		}
	} else if err := os.Link(target_tmp, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: '%s'", errTargetExists, target)
		}
		return "", err
	}
	dlog(debugOn(), "FileSink wrote '%s' (b=%d)", target, size)
	return target, nil
} // end func FileSink.Store

// s3API is the part of the S3 client the sink uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Sink struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Sink creates an S3 client from the AWS default credential chain with
// optional region, endpoint and path-style overrides.
func NewS3Sink(ctx context.Context, s3cfg S3Config) (*S3Sink, error) {
	if s3cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket is required", errConfig)
	}
	var opts []func(*config.LoadOptions) error
	if s3cfg.Region != "" {
		opts = append(opts, config.WithRegion(s3cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if s3cfg.Endpoint != "" {
		endpoint := s3cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if s3cfg.PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return newS3Sink(s3.NewFromConfig(awsConfig, s3Opts...), s3cfg.Bucket, s3cfg.Prefix), nil
} // end func NewS3Sink

func newS3Sink(client s3API, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Sink) Store(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	base, err := safeName(name)
	if err != nil {
		return "", fmt.Errorf("%w: '%s'", err, name)
	}
	key := path.Join(s.prefix, base)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put '%s': %w", key, err)
	}
	return "s3://" + s.bucket + "/" + key, nil
} // end func S3Sink.Store

// newSink selects the S3 sink when a bucket is configured.
func newSink(ctx context.Context, cfg *Config) (Sink, error) {
	if cfg.S3.Bucket != "" {
		return NewS3Sink(ctx, cfg.S3)
	}
	return NewFileSink(cfg.OutputDir, cfg.Overwrite)
}
