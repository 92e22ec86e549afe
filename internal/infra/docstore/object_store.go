package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/newsdigest/internal/domain/docgroup"
	"github.com/yanqian/newsdigest/internal/domain/summarizer"
)

const (
	groupPrefix   = "groups/"
	summaryPrefix = "summaries/"
)

// ObjectStoreOptions configures an S3-compatible bucket.
type ObjectStoreOptions struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
}

// ObjectStore keeps groups under groups/ and summaries under summaries/ of one bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewObjectStore constructs the store. An https endpoint implies TLS.
func NewObjectStore(opts ObjectStoreOptions, logger *slog.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := opts.UseSSL || strings.HasPrefix(strings.ToLower(strings.TrimSpace(opts.Endpoint)), "https")
	client, err := minio.New(sanitizeEndpoint(opts.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &ObjectStore{client: client, bucket: opts.Bucket, logger: logger.With("component", "docstore.object")}, nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

// List returns the group object names, without prefix, in lexical order.
func (s *ObjectStore) List(ctx context.Context) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: groupPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list groups: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		names = append(names, strings.TrimPrefix(obj.Key, groupPrefix))
	}
	sort.Strings(names)
	return names, nil
}

// Load fetches and decodes one group.
func (s *ObjectStore) Load(ctx context.Context, name string) (*docgroup.Group, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, path.Join(groupPrefix, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	defer obj.Close()
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("stat group %s: %w", name, err)
	}
	group, err := Decode(obj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return group, nil
}

// SaveSummary uploads the plain-text summary and its JSON record, returning the text key.
func (s *ObjectStore) SaveSummary(ctx context.Context, summary summarizer.Summary) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}
	key := summaryPrefix + SummaryName(summary)
	if err := s.put(ctx, key, SummaryText(summary), "text/plain; charset=utf-8"); err != nil {
		return "", fmt.Errorf("put summary: %w", err)
	}
	record, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	if err := s.put(ctx, key+".json", record, "application/json"); err != nil {
		return "", fmt.Errorf("put summary record: %w", err)
	}
	s.logger.Debug("summary uploaded", "topic", summary.TopicID, "key", key)
	return key, nil
}

// PutGroup uploads an annotated group under groups/.
func (s *ObjectStore) PutGroup(ctx context.Context, name string, group *docgroup.Group) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, group); err != nil {
		return err
	}
	return s.put(ctx, path.Join(groupPrefix, name), buf.Bytes(), "application/json")
}

func (s *ObjectStore) put(ctx context.Context, key string, data []byte, mimeType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      mimeType,
		DisableMultipart: len(data) < 5*1024*1024,
	})
	return err
}

var _ Store = (*ObjectStore)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
