package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/lmsplatform/backend/libs/config"
)

// ossBucket is the part of *oss.Bucket used by ossStorage
type ossBucket interface {
	PutObject(objectKey string, reader io.Reader, options ...oss.Option) error
	DeleteObject(objectKey string, options ...oss.Option) error
}

// ossStorage implements FileStore on Alibaba Cloud OSS
type ossStorage struct {
	bucket     ossBucket
	bucketName string
	endpoint   string
	prefix     string
}

// NewOSSStorage connects to the configured bucket
func NewOSSStorage(cfg config.OSSConfig) (*ossStorage, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", cfg.Bucket, err)
	}
	return newOSSStorage(bucket, cfg.Bucket, cfg.Endpoint, cfg.Prefix), nil
}

func newOSSStorage(bucket ossBucket, bucketName, endpoint, prefix string) *ossStorage {
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	return &ossStorage{
		bucket:     bucket,
		bucketName: bucketName,
		endpoint:   strings.TrimRight(endpoint, "/"),
		prefix:     strings.Trim(prefix, "/"),
	}
}

// objectKey places name under the configured prefix
func (s *ossStorage) objectKey(name string) string {
	if s.prefix == "" {
		return "objects/" + name
	}
	return s.prefix + "/" + name
}

// PublicURL returns the virtual-hosted URL of an object
func (s *ossStorage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", s.bucketName, s.endpoint, key)
}

// Put uploads the reader as a new object
func (s *ossStorage) Put(ctx context.Context, name string, r io.Reader, contentType string) (*StoredFile, error) {
	key := s.objectKey(name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	counter := &sizeWriter{}
	err := s.bucket.PutObject(key, io.TeeReader(r, counter),
		oss.WithContext(ctx),
		oss.ContentType(contentType),
	)
	if err != nil {
		return nil, fmt.Errorf("oss put %s: %w", key, err)
	}

	return &StoredFile{
		Key:     key,
		URL:     s.PublicURL(key),
		Size:    counter.Size(),
		Backend: BackendOSS,
	}, nil
}

// Delete removes an object; a missing object is not an error
func (s *ossStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		if isOSSNotFound(err) {
			return nil
		}
		return fmt.Errorf("oss delete %s: %w", key, err)
	}
	return nil
}

func isOSSNotFound(err error) bool {
	if se, ok := err.(oss.ServiceError); ok {
		return se.StatusCode == http.StatusNotFound || se.Code == "NoSuchKey"
	}
	return false
}
