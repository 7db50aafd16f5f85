// Package archive stores zone snapshots in S3-compatible object storage,
// with optional long-term archival to AWS Glacier.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/glacier"

	"zonectl/internal/zone"
)

const (
	objectPrefix             = "zone-backups/"
	defaultCapacityThreshold = 95.0
)

// MinioConfig contains configuration for MinIO storage.
type MinioConfig struct {
	Endpoint         string
	AccessKey        string
	SecretKey        string
	Bucket           string
	UseSSL           bool
	BucketPath       string // optional path prefix within bucket
	HTTPTimeout      time.Duration
	AutoCreateBucket bool
}

// AWSConfig contains configuration for AWS Glacier archival.
type AWSConfig struct {
	Vault       string
	AccountID   string
	AccessKey   string
	SecretKey   string
	Region      string
	HTTPTimeout time.Duration
}

// Store handles snapshot storage in MinIO and archival to AWS Glacier.
type Store struct {
	minioClient *minio.Client
	minioConfig *MinioConfig
	adminClient *madmin.AdminClient
	awsClient   *glacier.Client
	awsConfig   *AWSConfig
	verbosity   int // 0=quiet, 1=normal, 2=verbose

	respectCapacity   bool
	capacityThreshold float64
}

// BackupInfo describes one stored snapshot.
type BackupInfo struct {
	Key          string    `json:"key"`
	ZoneName     string    `json:"zone_name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// NewStore creates a snapshot store backed by MinIO.
func NewStore(minioConfig *MinioConfig) *Store {
	return &Store{
		minioConfig:       minioConfig,
		verbosity:         1,
		capacityThreshold: defaultCapacityThreshold,
	}
}

// NewStoreWithAWS creates a store with both MinIO and Glacier configured.
func NewStoreWithAWS(minioConfig *MinioConfig, awsConfig *AWSConfig) *Store {
	s := NewStore(minioConfig)
	s.awsConfig = awsConfig
	return s
}

// SetVerbosity sets the progress output level.
func (s *Store) SetVerbosity(level int) {
	s.verbosity = level
}

// SetCapacityGuard configures whether uploads verify MinIO capacity first.
func (s *Store) SetCapacityGuard(enabled bool, threshold float64) {
	s.respectCapacity = enabled
	if threshold <= 0 {
		threshold = defaultCapacityThreshold
	}
	s.capacityThreshold = threshold
}

func (s *Store) logVerbose(format string, args ...any) {
	if s.verbosity >= 2 {
		fmt.Printf(format+"\n", args...)
	}
}

func (s *Store) initMinioClient() error {
	if s.minioClient != nil {
		return nil
	}
	if s.minioConfig == nil {
		return fmt.Errorf("MinIO configuration is not set")
	}

	tr := &http.Transport{
		IdleConnTimeout:     5 * time.Minute,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
	}
	if s.minioConfig.HTTPTimeout > 0 {
		tr.ResponseHeaderTimeout = s.minioConfig.HTTPTimeout
	}

	client, err := minio.New(s.minioConfig.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(s.minioConfig.AccessKey, s.minioConfig.SecretKey, ""),
		Secure:    s.minioConfig.UseSSL,
		Transport: tr,
	})
	if err != nil {
		return fmt.Errorf("create MinIO client: %w", err)
	}
	s.minioClient = client

	ctx := context.Background()
	exists, err := s.minioClient.BucketExists(ctx, s.minioConfig.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if !s.minioConfig.AutoCreateBucket {
			return fmt.Errorf("bucket %s does not exist", s.minioConfig.Bucket)
		}
		s.logVerbose("bucket %s missing, creating", s.minioConfig.Bucket)
		if err := s.minioClient.MakeBucket(ctx, s.minioConfig.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.minioConfig.Bucket, err)
		}
	}
	return nil
}

func (s *Store) initAdminClient() error {
	if s.adminClient != nil {
		return nil
	}
	if s.minioConfig == nil {
		return fmt.Errorf("MinIO configuration is not set")
	}
	client, err := madmin.New(s.minioConfig.Endpoint, s.minioConfig.AccessKey, s.minioConfig.SecretKey, s.minioConfig.UseSSL)
	if err != nil {
		return fmt.Errorf("create MinIO admin client: %w", err)
	}
	s.adminClient = client
	return nil
}

func (s *Store) ensureCapacity() error {
	if !s.respectCapacity {
		return nil
	}
	if err := s.initAdminClient(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	info, err := s.adminClient.StorageInfo(ctx)
	if err != nil {
		return fmt.Errorf("query MinIO storage info: %w", err)
	}
	var total, used uint64
	for _, disk := range info.Disks {
		total += disk.TotalSpace
		used += disk.UsedSpace
	}
	if total == 0 {
		return fmt.Errorf("MinIO storage reported zero total capacity")
	}
	usage := (float64(used) / float64(total)) * 100
	if usage >= s.capacityThreshold {
		return fmt.Errorf("MinIO storage usage %.1f%% exceeds %.1f%% threshold; migrate or delete old backups first", usage, s.capacityThreshold)
	}
	s.logVerbose("MinIO capacity check: %.1f%% used (threshold %.1f%%)", usage, s.capacityThreshold)
	return nil
}

func (s *Store) initAWSClient() error {
	if s.awsClient != nil {
		return nil
	}
	if s.awsConfig == nil {
		return fmt.Errorf("AWS configuration is not set")
	}

	var httpClient *http.Client
	if s.awsConfig.HTTPTimeout > 0 {
		httpClient = &http.Client{Timeout: s.awsConfig.HTTPTimeout}
	} else {
		httpClient = &http.Client{}
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(s.awsConfig.Region),
		awsconfig.WithCredentialsProvider(awscredentials.NewStaticCredentialsProvider(
			s.awsConfig.AccessKey,
			s.awsConfig.SecretKey,
			"",
		)),
		awsconfig.WithHTTPClient(httpClient),
	)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	s.awsClient = glacier.NewFromConfig(cfg)

	_, err = s.awsClient.DescribeVault(context.Background(), &glacier.DescribeVaultInput{
		AccountId: aws.String(s.accountID()),
		VaultName: aws.String(s.awsConfig.Vault),
	})
	if err != nil {
		return fmt.Errorf("vault %s is not accessible: %w", s.awsConfig.Vault, err)
	}
	return nil
}

func (s *Store) accountID() string {
	if s.awsConfig == nil || s.awsConfig.AccountID == "" {
		return "-"
	}
	return s.awsConfig.AccountID
}

// UploadSnapshot encodes and uploads a zone snapshot to MinIO, returning the
// object key.
func (s *Store) UploadSnapshot(snapshot *zone.Snapshot, format string) (string, error) {
	if err := s.initMinioClient(); err != nil {
		return "", err
	}
	if err := s.ensureCapacity(); err != nil {
		return "", err
	}

	format = normalizeFormat(format)
	content, err := zone.EncodeSnapshot(snapshot, format, true)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	objectName := objectKey(snapshot.ZoneName, snapshot.Exported, format)
	if s.minioConfig.BucketPath != "" {
		objectName = filepath.Join(s.minioConfig.BucketPath, objectName)
	}

	ctx := context.Background()
	_, err = s.minioClient.PutObject(ctx, s.minioConfig.Bucket, objectName,
		bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
			ContentType: "application/" + format,
		})
	if err != nil {
		return "", fmt.Errorf("upload to MinIO: %w", err)
	}

	if s.verbosity >= 1 {
		fmt.Printf("Uploaded zone backup: %s (%d bytes)\n", objectName, len(content))
	}
	return objectName, nil
}

// ListBackups lists stored snapshots, newest first.
func (s *Store) ListBackups(prefix string, limit int) ([]BackupInfo, error) {
	if err := s.initMinioClient(); err != nil {
		return nil, err
	}

	if prefix != "" && !strings.HasPrefix(prefix, objectPrefix) {
		prefix = objectPrefix + prefix
	} else if prefix == "" {
		prefix = objectPrefix
	}
	if s.minioConfig.BucketPath != "" {
		prefix = filepath.Join(s.minioConfig.BucketPath, prefix)
	}

	ctx := context.Background()
	var backups []BackupInfo
	for obj := range s.minioClient.ListObjects(ctx, s.minioConfig.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		backups = append(backups, BackupInfo{
			Key:          obj.Key,
			ZoneName:     extractZoneName(obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return selectNewest(backups, limit), nil
}

// selectNewest orders backups newest first and then truncates to limit.
// Object listings enumerate in ascending key order, which is oldest first
// within a zone prefix, so truncating during enumeration would keep the
// oldest entries.
func selectNewest(backups []BackupInfo, limit int) []BackupInfo {
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].LastModified.After(backups[j].LastModified)
	})
	if limit > 0 && len(backups) > limit {
		backups = backups[:limit]
	}
	return backups
}

// DownloadSnapshot fetches and decodes a stored snapshot.
func (s *Store) DownloadSnapshot(objectKey string) (*zone.Snapshot, error) {
	if err := s.initMinioClient(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	object, err := s.minioClient.GetObject(ctx, s.minioConfig.Bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download from MinIO: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return zone.DecodeSnapshot(data, zone.DetectFormat(objectKey))
}

// DeleteBackups removes stored snapshots. With dryRun only the would-be
// deletions are printed.
func (s *Store) DeleteBackups(objectKeys []string, dryRun bool) error {
	if err := s.initMinioClient(); err != nil {
		return err
	}
	ctx := context.Background()
	for _, key := range objectKeys {
		if dryRun {
			fmt.Printf("[DRY RUN] Would delete: %s\n", key)
			continue
		}
		if err := s.minioClient.RemoveObject(ctx, s.minioConfig.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		if s.verbosity >= 1 {
			fmt.Printf("Deleted: %s\n", key)
		}
	}
	return nil
}

// UploadToGlacier uploads a snapshot directly to AWS Glacier.
func (s *Store) UploadToGlacier(snapshot *zone.Snapshot, format string) error {
	if err := s.initAWSClient(); err != nil {
		return err
	}
	format = normalizeFormat(format)
	content, err := zone.EncodeSnapshot(snapshot, format, true)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	description := fmt.Sprintf("Zone backup: %s (%s)", snapshot.ZoneName, snapshot.Exported.Format("20060102-150405"))

	result, err := s.awsClient.UploadArchive(context.Background(), &glacier.UploadArchiveInput{
		AccountId:          aws.String(s.accountID()),
		VaultName:          aws.String(s.awsConfig.Vault),
		ArchiveDescription: aws.String(description),
		Body:               bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("upload to Glacier: %w", err)
	}
	if s.verbosity >= 1 && result.ArchiveId != nil {
		id := *result.ArchiveId
		if len(id) > 40 {
			id = id[:40] + "..."
		}
		fmt.Printf("Uploaded to Glacier (%d bytes), archive %s\n", len(content), id)
	}
	return nil
}

// MigrateToGlacier moves the oldest stored snapshots to AWS Glacier. percent
// selects how much of the backlog to migrate.
func (s *Store) MigrateToGlacier(percent float64, dryRun bool) error {
	if err := s.initMinioClient(); err != nil {
		return err
	}
	if !dryRun {
		if err := s.initAWSClient(); err != nil {
			return err
		}
	}

	backups, err := s.ListBackups("", 0)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Println("No zone backups found to migrate")
		return nil
	}

	// Oldest first.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].LastModified.Before(backups[j].LastModified)
	})

	numToMigrate := int(math.Ceil(float64(len(backups)) * percent / 100.0))
	if numToMigrate == 0 {
		fmt.Println("No backups to migrate based on percentage")
		return nil
	}
	fmt.Printf("Migrating %d oldest zone backup(s) (%.1f%%) to AWS Glacier...\n", numToMigrate, percent)

	ctx := context.Background()
	for i := 0; i < numToMigrate; i++ {
		backup := backups[i]
		if dryRun {
			fmt.Printf("[DRY RUN] Would migrate: %s (%d bytes, %s)\n",
				backup.Key, backup.Size, backup.LastModified.Format(time.RFC3339))
			continue
		}

		object, err := s.minioClient.GetObject(ctx, s.minioConfig.Bucket, backup.Key, minio.GetObjectOptions{})
		if err != nil {
			fmt.Printf("  skipping %s: download failed: %v\n", backup.Key, err)
			continue
		}
		data, err := io.ReadAll(object)
		object.Close()
		if err != nil {
			fmt.Printf("  skipping %s: read failed: %v\n", backup.Key, err)
			continue
		}

		_, err = s.awsClient.UploadArchive(ctx, &glacier.UploadArchiveInput{
			AccountId:          aws.String(s.accountID()),
			VaultName:          aws.String(s.awsConfig.Vault),
			ArchiveDescription: aws.String(fmt.Sprintf("Zone backup: %s", backup.Key)),
			Body:               bytes.NewReader(data),
		})
		if err != nil {
			fmt.Printf("  skipping %s: Glacier upload failed: %v\n", backup.Key, err)
			continue
		}

		if err := s.minioClient.RemoveObject(ctx, s.minioConfig.Bucket, backup.Key, minio.RemoveObjectOptions{}); err != nil {
			fmt.Printf("  %s migrated but MinIO delete failed: %v\n", backup.Key, err)
			continue
		}
		fmt.Printf("  migrated %s\n", backup.Key)
	}
	return nil
}

func objectKey(zoneName string, exported time.Time, format string) string {
	ext := ".json"
	if normalizeFormat(format) == "yaml" {
		ext = ".yaml"
	}
	return fmt.Sprintf("%s%s-%s%s", objectPrefix, zoneName, exported.Format("20060102-150405"), ext)
}

// normalizeFormat collapses the accepted spellings onto the canonical json
// and yaml names. Unknown formats pass through so encoding rejects them.
func normalizeFormat(format string) string {
	switch f := strings.ToLower(format); f {
	case "", "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	default:
		return f
	}
}

// Expected key format: zone-backups/{zone-name}-YYYYMMDD-HHMMSS.{ext}.
func extractZoneName(key string) string {
	name := strings.TrimSuffix(filepath.Base(key), filepath.Ext(key))
	if len(name) > 16 {
		ts := name[len(name)-16:]
		if ts[0] == '-' && ts[9] == '-' && isDigits(ts[1:9]) && isDigits(ts[10:16]) {
			return name[:len(name)-16]
		}
	}
	return name
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
