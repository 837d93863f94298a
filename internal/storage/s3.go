package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/maukemana/photocore/internal/apperr"
)

// S3Config configures the S3-compatible adapter. InternalEndpoint is used
// for data-plane calls (download/upload/list/multipart); PublicEndpoint is
// used to sign presigned URLs. If PublicEndpoint is empty, InternalEndpoint
// is used for both, per the dual-endpoint rule.
type S3Config struct {
	Bucket           string
	Region           string
	AccessKeyID      string
	SecretAccessKey  string
	InternalEndpoint string
	PublicEndpoint   string
}

// S3Adapter is the primary Adapter implementation, backed by any
// S3-compatible object store (AWS S3, Cloudflare R2, MinIO).
type S3Adapter struct {
	bucket        string
	dataClient    *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Adapter builds an adapter from cfg. Region defaults to "auto" when
// unset, matching the convention used by S3-compatible stores that don't
// enforce AWS regions.
func NewS3Adapter(cfg S3Config) (*S3Adapter, error) {
	if cfg.Bucket == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, apperr.Fatal(errors.New("storage: missing bucket or credentials"))
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	internalEndpoint := cfg.InternalEndpoint
	publicEndpoint := cfg.PublicEndpoint
	if publicEndpoint == "" {
		publicEndpoint = internalEndpoint
	}

	dataClient := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(internalEndpoint),
		Credentials:  creds,
		UsePathStyle: true,
	})
	presignBackingClient := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(publicEndpoint),
		Credentials:  creds,
		UsePathStyle: true,
	})

	return &S3Adapter{
		bucket:        cfg.Bucket,
		dataClient:    dataClient,
		presignClient: s3.NewPresignClient(presignBackingClient),
	}, nil
}

func classifyS3Error(err error) error {
	if err == nil {
		return nil
	}
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		switch {
		case re.HTTPStatusCode() == 404:
			return apperr.NotFound(err)
		case re.HTTPStatusCode() >= 500:
			return apperr.Transient(err)
		}
	}
	return apperr.Transient(err)
}

func (s *S3Adapter) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.dataClient.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(fmt.Errorf("storage: download %s: %w", key, err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.Transient(fmt.Errorf("storage: read body %s: %w", key, err))
	}
	return data, nil
}

func (s *S3Adapter) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string, meta map[string]string) (UploadResult, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}
	if len(meta) > 0 {
		input.Metadata = meta
	}
	out, err := s.dataClient.PutObject(ctx, input)
	if err != nil {
		return UploadResult{}, classifyS3Error(fmt.Errorf("storage: upload %s: %w", key, err))
	}
	result := UploadResult{}
	if out.ETag != nil {
		result.ETag = *out.ETag
	}
	if out.VersionId != nil {
		result.VersionID = *out.VersionId
	}
	return result, nil
}

func (s *S3Adapter) Delete(ctx context.Context, key string) error {
	_, err := s.dataClient.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// NotFound is treated as ok per the contract.
		if apperr.IsNotFound(classifyS3Error(err)) {
			return nil
		}
		return classifyS3Error(fmt.Errorf("storage: delete %s: %w", key, err))
	}
	return nil
}

func (s *S3Adapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.dataClient.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		classified := classifyS3Error(err)
		if apperr.IsNotFound(classified) {
			return false, nil
		}
		return false, classified
	}
	return true, nil
}

func (s *S3Adapter) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var entries []ObjectInfo
	var token *string
	for {
		out, err := s.dataClient.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, classifyS3Error(fmt.Errorf("storage: list %s: %w", prefix, err))
		}
		for _, obj := range out.Contents {
			info := ObjectInfo{Size: aws.ToInt64(obj.Size)}
			if obj.Key != nil {
				info.Key = *obj.Key
			}
			if obj.LastModified != nil {
				info.MTime = *obj.LastModified
			}
			if obj.ETag != nil {
				info.ETag = *obj.ETag
			}
			entries = append(entries, info)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return entries, nil
}

func (s *S3Adapter) Copy(ctx context.Context, src, dst string) error {
	copySource := fmt.Sprintf("%s/%s", s.bucket, src)
	_, err := s.dataClient.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(copySource),
	})
	if err != nil {
		return classifyS3Error(fmt.Errorf("storage: copy %s -> %s: %w", src, dst, err))
	}
	return nil
}

func (s *S3Adapter) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperr.Fatal(fmt.Errorf("storage: presign put %s: %w", key, err))
	}
	return req.URL, nil
}

func (s *S3Adapter) PresignGet(ctx context.Context, key string, ttl time.Duration, contentDisposition string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentDisposition != "" {
		input.ResponseContentDisposition = aws.String(contentDisposition)
	}
	req, err := s.presignClient.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", apperr.Fatal(fmt.Errorf("storage: presign get %s: %w", key, err))
	}
	return req.URL, nil
}

func (s *S3Adapter) InitMultipart(ctx context.Context, key string) (string, error) {
	out, err := s.dataClient.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", apperr.Fatal(fmt.Errorf("storage: init multipart %s: %w", key, err))
	}
	return aws.ToString(out.UploadId), nil
}

func (s *S3Adapter) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body io.Reader, size int64) (UploadResult, error) {
	out, err := s.dataClient.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return UploadResult{}, classifyS3Error(fmt.Errorf("storage: upload part %s: %w", key, err))
	}
	return UploadResult{ETag: aws.ToString(out.ETag)}, nil
}

// PresignPart is not supported by the S3 adapter: presigning an individual
// multipart upload part requires the caller to also carry the upload id and
// part number into the signature, which this adapter does not expose.
func (s *S3Adapter) PresignPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error) {
	return "", apperr.Validation(fmt.Errorf("storage: presign part unsupported"))
}

func (s *S3Adapter) CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) error {
	completed := make([]s3types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = s3types.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.PartNumber),
		}
	}
	_, err := s.dataClient.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return apperr.Fatal(fmt.Errorf("storage: complete multipart %s: %w", key, err))
	}
	return nil
}

func (s *S3Adapter) AbortMultipart(ctx context.Context, key, uploadID string) error {
	_, err := s.dataClient.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return classifyS3Error(fmt.Errorf("storage: abort multipart %s: %w", key, err))
	}
	return nil
}

// EnsureBucket implements BucketEnsurer: creates the bucket if HeadBucket
// reports it missing. Failure to ensure is fatal since the worker cannot
// operate without its bucket.
func (s *S3Adapter) EnsureBucket(ctx context.Context) error {
	_, err := s.dataClient.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !apperr.IsNotFound(classifyS3Error(err)) {
		return apperr.Fatal(fmt.Errorf("storage: head bucket %s: %w", s.bucket, err))
	}
	_, err = s.dataClient.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return apperr.Fatal(fmt.Errorf("storage: create bucket %s: %w", s.bucket, err))
	}
	return nil
}

var _ Adapter = (*S3Adapter)(nil)
var _ BucketEnsurer = (*S3Adapter)(nil)

// uploadBytes is a small helper for a payload already held in memory. It is
// unexported and nothing in this package calls it; FTP ingest and the
// processing pipeline call Adapter.Upload directly.
func uploadBytes(ctx context.Context, a Adapter, key string, data []byte, contentType string, meta map[string]string) (UploadResult, error) {
	return a.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType, meta)
}
