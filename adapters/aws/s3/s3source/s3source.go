package s3source

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Abraxas-365/docingest/adapters/pdf"
	"github.com/Abraxas-365/docingest/datasource"
	"github.com/Abraxas-365/docingest/document"
	"github.com/Abraxas-365/docingest/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const sourceName = "s3"

// Client is the subset of *s3.Client the source needs.
type Client interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source loads PDF objects stored under a bucket prefix.
type S3Source struct {
	client Client
	bucket string
	prefix string
}

var _ datasource.DataSource = (*S3Source)(nil)

func NewS3Source(client Client, bucket, prefix string) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Load lists the prefix, parses every matching object and returns its pages.
// The "source" of each page is the s3:// URI of its object.
func (s *S3Source) Load(ctx context.Context, opts ...datasource.Option) ([]document.Document, error) {
	options := datasource.Apply(opts...)
	log := logger.FromContext(ctx).With("bucket", s.bucket, "prefix", s.prefix)

	keys, err := s.listKeys(ctx, options)
	if err != nil {
		return nil, err
	}
	log.Debug("Matched S3 objects", "count", len(keys))

	documents := []document.Document{}
	for _, key := range keys {
		data, err := s.getObject(ctx, key)
		if err != nil {
			return nil, err
		}
		pages, err := pdf.ReadBytes(data, "s3://"+s.bucket+"/"+key)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			if options.Keep(page.Metadata) {
				documents = append(documents, page)
			}
		}
	}
	return documents, nil
}

func (s *S3Source) listKeys(ctx context.Context, options *datasource.LoadOptions) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.wrapError("list_objects", "failed to list objects", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
			if rel == "" {
				continue
			}
			ok, err := pdf.MatchPath(options, rel)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			keys = append(keys, key)
			if options.MaxItems > 0 && len(keys) >= options.MaxItems {
				return keys, nil
			}
		}
	}
	return keys, nil
}

func (s *S3Source) getObject(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrapError("get_object", "failed to get object "+key, err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, s.wrapError("get_object", "failed to read object "+key, err)
	}
	return content, nil
}

func (s *S3Source) wrapError(op, message string, err error) error {
	code := datasource.ErrCodeInternal
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			code = datasource.ErrCodeNotFound
		case "AccessDenied", "Forbidden":
			code = datasource.ErrCodeAccessDenied
		case "SlowDown", "Throttling":
			code = datasource.ErrCodeRateLimitExceeded
		}
	}
	return datasource.NewError(sourceName, op, code, message, err)
}
