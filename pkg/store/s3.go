package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dd0wney/cyberdna/pkg/legend"
)

// s3API is the subset of the S3 client the store uses
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options configures an S3Store
type S3Options struct {
	Bucket   string
	Region   string
	Prefix   string
	Endpoint string // custom endpoint for S3-compatible services
	// Static credentials; the default AWS chain is used when empty
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps one object per legend under an optional key prefix
type S3Store struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Store loads AWS configuration and creates the client
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, opError("s3", "open", "", errors.New("bucket is required"))
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, opError("s3", "open", "", fmt.Errorf("failed to load AWS config: %w", err))
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, opts.Bucket, opts.Prefix), nil
}

func newS3Store(client s3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) Backend() string { return "s3" }

func (s *S3Store) key(name string) string {
	if s.prefix == "" {
		return name + ".json"
	}
	return path.Join(s.prefix, name+".json")
}

// Save uploads doc as an indented JSON object
func (s *S3Store) Save(ctx context.Context, name string, doc *legend.Document) error {
	_, err := s.saveSized(ctx, name, doc)
	return err
}

func (s *S3Store) saveSized(ctx context.Context, name string, doc *legend.Document) (int, error) {
	if err := ValidateName(name); err != nil {
		return 0, opError("s3", "save", name, err)
	}
	data, err := encodeDocument(doc, false)
	if err != nil {
		return 0, opError("s3", "save", name, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-id": doc.Metadata.SnapshotID,
			"fingerprint": doc.Metadata.Fingerprint,
		},
	})
	if err != nil {
		return 0, opError("s3", "save", name, err)
	}
	return len(data), nil
}

// Load downloads and decodes the object for name
func (s *S3Store) Load(ctx context.Context, name string) (*legend.Document, error) {
	if err := ValidateName(name); err != nil {
		return nil, opError("s3", "load", name, err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, opError("s3", "load", name, ErrNotFound)
		}
		return nil, opError("s3", "load", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, opError("s3", "load", name, err)
	}
	doc, err := decodeDocument(data, false)
	if err != nil {
		return nil, opError("s3", "load", name, err)
	}
	return doc, nil
}

// List pages through the prefix and returns legend names in lexical order
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, opError("s3", "list", "", err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if strings.Contains(key, "/") || !strings.HasSuffix(key, ".json") {
				continue
			}
			names = append(names, strings.TrimSuffix(key, ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the object for name. S3 deletes are idempotent, so the
// object is checked first to report ErrNotFound.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return opError("s3", "delete", name, err)
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return opError("s3", "delete", name, ErrNotFound)
		}
		return opError("s3", "delete", name, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return opError("s3", "delete", name, err)
}

func (s *S3Store) Close() error { return nil }
