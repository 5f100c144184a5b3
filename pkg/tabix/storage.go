package tabix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// File is a seekable read handle returned by a Storage backend.
type File interface {
	io.ReadSeekCloser
}

// Storage is an interface for reading data and index files.
// Supports both local filesystem and S3
type Storage interface {
	// Open opens a file for seekable reading
	Open(path string) (File, error)

	// ReadFile reads a whole file
	ReadFile(path string) ([]byte, error)

	// Exists checks if a file exists
	Exists(path string) (bool, error)

	// IsS3 returns true if this is S3 storage
	IsS3() bool
}

// LocalStorage implements Storage for local filesystem
type LocalStorage struct{}

// NewLocalStorage creates a new local storage backend
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

func (s *LocalStorage) Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *LocalStorage) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *LocalStorage) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *LocalStorage) IsS3() bool {
	return false
}

// S3URI represents a parsed S3 URI
type S3URI struct {
	Bucket string
	Key    string
}

// ParseS3URI parses an S3 URI like s3://bucket/path/to/object
func ParseS3URI(uri string) (*S3URI, error) {
	if !IsS3URI(uri) {
		return nil, fmt.Errorf("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid S3 URI: missing bucket name")
	}
	if key == "" {
		return nil, fmt.Errorf("invalid S3 URI: missing object key")
	}

	return &S3URI{Bucket: bucket, Key: key}, nil
}

// IsS3URI checks if a path is an S3 URI
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// S3Storage implements Storage for AWS S3. Objects are read with ranged
// GetObject requests, so seeking costs one request per seek.
type S3Storage struct {
	client *s3.Client
	ctx    context.Context
}

// NewS3Storage creates a new S3 storage backend from the default AWS configuration
func NewS3Storage(ctx context.Context) (*S3Storage, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Storage{
		client: s3.NewFromConfig(cfg),
		ctx:    ctx,
	}, nil
}

func (s *S3Storage) Open(path string) (File, error) {
	uri, err := ParseS3URI(path)
	if err != nil {
		return nil, err
	}

	head, err := s.client.HeadObject(s.ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return nil, s3Error(path, err)
	}

	return &s3Object{
		storage: s,
		uri:     *uri,
		size:    aws.ToInt64(head.ContentLength),
	}, nil
}

func (s *S3Storage) ReadFile(path string) ([]byte, error) {
	f, err := s.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *S3Storage) Exists(path string) (bool, error) {
	uri, err := ParseS3URI(path)
	if err != nil {
		return false, err
	}

	_, err = s.client.HeadObject(s.ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		if errors.Is(s3Error(path, err), fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *S3Storage) IsS3() bool {
	return true
}

// s3Error maps S3 "not found" responses onto fs.ErrNotExist.
func s3Error(path string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "404") {
		return fmt.Errorf("s3 object %s: %w", path, fs.ErrNotExist)
	}
	return fmt.Errorf("failed to access %s: %w", path, err)
}

// s3Object is a seekable reader over one S3 object.
type s3Object struct {
	storage *S3Storage
	uri     S3URI
	size    int64
	pos     int64
	body    io.ReadCloser
}

func (o *s3Object) Read(p []byte) (int, error) {
	if o.pos >= o.size {
		return 0, io.EOF
	}
	if o.body == nil {
		out, err := o.storage.client.GetObject(o.storage.ctx, &s3.GetObjectInput{
			Bucket: aws.String(o.uri.Bucket),
			Key:    aws.String(o.uri.Key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-", o.pos)),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to read s3://%s/%s at %d: %w", o.uri.Bucket, o.uri.Key, o.pos, err)
		}
		o.body = out.Body
	}

	n, err := o.body.Read(p)
	o.pos += int64(n)
	if err == io.EOF && o.pos < o.size {
		o.body.Close()
		o.body = nil
		if n > 0 {
			err = nil
		} else {
			err = io.ErrUnexpectedEOF
		}
	}
	return n, err
}

func (o *s3Object) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = o.pos + offset
	case io.SeekEnd:
		abs = o.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position %d", abs)
	}
	if abs != o.pos && o.body != nil {
		o.body.Close()
		o.body = nil
	}
	o.pos = abs
	return abs, nil
}

func (o *s3Object) Close() error {
	if o.body == nil {
		return nil
	}
	err := o.body.Close()
	o.body = nil
	return err
}

// NewStorage creates the appropriate storage backend based on path
func NewStorage(ctx context.Context, path string) (Storage, error) {
	if IsS3URI(path) {
		return NewS3Storage(ctx)
	}
	return NewLocalStorage(), nil
}
