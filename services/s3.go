package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/errs"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps project images in a bucket. The object key doubles as the public id.
type S3Store struct {
	client        ObjectPutter
	bucket        string
	prefix        string
	publicBaseURL string
}

func NewS3Store(client ObjectPutter, bucket, prefix, publicBaseURL string) *S3Store {
	if publicBaseURL == "" && bucket != "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3Store{
		client:        client,
		bucket:        bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func NewS3StoreFromConfig(ctx context.Context, c map[string]string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region := config.GetString(c, "AWS_REGION", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.NewConfigError("AWS", err)
	}
	return NewS3Store(
		s3.NewFromConfig(awsCfg),
		config.GetString(c, "S3_BUCKET", ""),
		config.GetString(c, "S3_PREFIX", "projects/"),
		config.GetString(c, "S3_PUBLIC_BASE_URL", ""),
	), nil
}

func (s *S3Store) Upload(ctx context.Context, file ImageFile) (UploadedImage, error) {
	if s.bucket == "" {
		return UploadedImage{}, errs.NewUploadRefusedError("S3", "S3_BUCKET")
	}

	contentType := file.ContentType
	_, ext, body, err := SniffContentType(file.Body)
	if err != nil {
		return UploadedImage{}, errs.NewUploadError("S3", 0, err)
	}
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(file.Name), ".")
	}
	key := s.prefix + uuid.NewString()
	if ext != "" {
		key += "." + ext
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return UploadedImage{}, errs.NewUploadError("S3", 0, err)
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Msg("Image uploaded to S3")
	return UploadedImage{URL: s.publicBaseURL + "/" + key, PublicID: key}, nil
}
