package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marketgame/market-engine/internal/model"
)

// ArchiveConfig holds the connection settings for an S3-compatible bucket
// (AWS S3, MinIO, R2).
type ArchiveConfig struct {
	// Endpoint is left empty for AWS S3.
	Endpoint       string
	Region         string
	Bucket         string
	Prefix         string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	ForcePathStyle bool
}

// ObjectAPI is the subset of the S3 client the archive uses.
type ObjectAPI interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client builds an S3 client with static credentials and an optional
// custom endpoint.
func NewS3Client(ctx context.Context, cfg ArchiveConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("store: s3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("store: s3 region is required")
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("store: load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint, cfg.UseSSL)
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

func normaliseEndpoint(endpoint string, useSSL bool) string {
	parsed, err := url.Parse(endpoint)
	if err == nil && parsed.Scheme != "" {
		return endpoint
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + endpoint
}

// ArchiveStore mirrors every save of a primary Store into an S3 bucket.
// Writes go to the primary then the bucket; reads try the primary first
// and fall back to the bucket, so saves survive a lost primary.
type ArchiveStore struct {
	primary  Store
	client   ObjectAPI
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   *slog.Logger
}

// NewArchiveStore wraps primary with an S3 mirror.
func NewArchiveStore(primary Store, client ObjectAPI, bucket, prefix string, logger *slog.Logger) *ArchiveStore {
	return &ArchiveStore{
		primary:  primary,
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		logger:   logger.With(slog.String("component", "archive")),
	}
}

func (s *ArchiveStore) key(slot string) string {
	return path.Join(s.prefix, slot+fileExt)
}

func (s *ArchiveStore) Save(ctx context.Context, slot string, state *model.GameState) error {
	if err := s.primary.Save(ctx, slot, state); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", slot, err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(slot)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("store: archive %s: %w", slot, err)
	}
	s.logger.Debug("save archived", "slot", slot, "bytes", len(data))
	return nil
}

func (s *ArchiveStore) Load(ctx context.Context, slot string) (*model.GameState, error) {
	state, err := s.primary.Load(ctx, slot)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return state, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(slot)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, slot)
		}
		return nil, fmt.Errorf("store: fetch archive %s: %w", slot, err)
	}
	defer out.Body.Close()

	var restored model.GameState
	if err := json.NewDecoder(out.Body).Decode(&restored); err != nil {
		return nil, fmt.Errorf("store: decode archive %s: %w", slot, err)
	}
	s.logger.Info("save restored from archive", "slot", slot)
	return &restored, nil
}

// List merges the primary's saves with archive-only slots. Archive-only
// entries carry the object's modification time and no day.
func (s *ArchiveStore) List(ctx context.Context) ([]model.SaveInfo, error) {
	infos, err := s.primary.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(infos))
	for _, info := range infos {
		seen[info.Slot] = true
	}

	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: list archive: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			slot, ok := strings.CutSuffix(name, fileExt)
			if !ok || seen[slot] || ValidateSlot(slot) != nil {
				continue
			}
			info := model.SaveInfo{Slot: slot}
			if obj.LastModified != nil {
				info.SavedAt = *obj.LastModified
			}
			seen[slot] = true
			infos = append(infos, info)
		}
	}
	sortInfos(infos)
	return infos, nil
}

// Delete removes the slot from both the primary and the bucket. It reports
// ErrNotFound only when neither held it.
func (s *ArchiveStore) Delete(ctx context.Context, slot string) error {
	primaryErr := s.primary.Delete(ctx, slot)
	if primaryErr != nil && !errors.Is(primaryErr, ErrNotFound) {
		return primaryErr
	}

	key := aws.String(s.key(slot))
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key})
	if err != nil {
		if isNotFound(err) {
			return primaryErr
		}
		return fmt.Errorf("store: check archive %s: %w", slot, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return fmt.Errorf("store: delete archive %s: %w", slot, err)
	}
	return nil
}

// isNotFound reports whether err means the object does not exist. HeadObject
// returns a bare 404 instead of NoSuchKey.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}
