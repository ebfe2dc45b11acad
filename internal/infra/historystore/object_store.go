package historystore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/synergy-circle/internal/domain/discovery"
	"github.com/yanqian/synergy-circle/pkg/util"
)

// ObjectStoreOptions locates the S3 compatible bucket (R2, MinIO, S3).
type ObjectStoreOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	TTL       time.Duration
}

// ObjectStore keeps each analysis as <prefix>/<id>.json.
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
	ttl    time.Duration
	now    util.Clock
	logger *slog.Logger
}

// NewObjectStore constructs the storage adapter.
func NewObjectStore(opts ObjectStoreOptions, now util.Clock, logger *slog.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(opts.Endpoint)), "http://")
	client, err := minio.New(sanitizeEndpoint(opts.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       useSSL,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	prefix := strings.Trim(opts.Prefix, "/")
	if prefix == "" {
		prefix = "analyses"
	}
	return &ObjectStore{
		client: client,
		bucket: opts.Bucket,
		prefix: prefix,
		ttl:    opts.TTL,
		now:    now.OrNow(),
		logger: logger.With("component", "historystore.object"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
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

func (s *ObjectStore) Save(ctx context.Context, rec discovery.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.objectKey(rec.ID), bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType:      "application/json",
		DisableMultipart: true,
	})
	return err
}

func (s *ObjectStore) Get(ctx context.Context, id string) (discovery.Record, bool, error) {
	if id == "" || strings.ContainsAny(id, "/\\") {
		return discovery.Record{}, false, nil
	}
	rec, err := s.read(ctx, s.objectKey(id))
	if err != nil {
		if isNoSuchKey(err) {
			return discovery.Record{}, false, nil
		}
		return discovery.Record{}, false, err
	}
	if s.expired(rec.CreatedAt) {
		return discovery.Record{}, false, nil
	}
	return rec, true, nil
}

// Recent lists the prefix and loads the newest objects.
func (s *ObjectStore) Recent(ctx context.Context, limit int) ([]discovery.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var infos []minio.ObjectInfo
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix + "/", Recursive: true}) {
		if info.Err != nil {
			return nil, info.Err
		}
		if !strings.HasSuffix(info.Key, ".json") || s.expired(info.LastModified) {
			continue
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastModified.After(infos[j].LastModified)
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}

	out := make([]discovery.Record, 0, len(infos))
	for _, info := range infos {
		rec, err := s.read(ctx, info.Key)
		if err != nil {
			if isNoSuchKey(err) {
				continue
			}
			s.logger.Warn("skipping unreadable analysis object", "key", info.Key, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close is a no-op; the minio client holds no long lived resources.
func (s *ObjectStore) Close() {}

func (s *ObjectStore) read(ctx context.Context, key string) (discovery.Record, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return discovery.Record{}, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return discovery.Record{}, err
	}
	var rec discovery.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return discovery.Record{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return rec, nil
}

func (s *ObjectStore) objectKey(id string) string {
	return path.Join(s.prefix, id+".json")
}

func (s *ObjectStore) expired(created time.Time) bool {
	if s.ttl <= 0 || created.IsZero() {
		return false
	}
	return created.Add(s.ttl).Before(s.now())
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

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

var _ discovery.HistoryStore = (*ObjectStore)(nil)
