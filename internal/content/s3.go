package content

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	werrors "github.com/vango-dev/waypoint/internal/errors"
)

// ObjectGetter is the part of *s3.Client the S3 backend uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Backend reads documents from an S3 bucket.
//
// Example usage:
//
//	client := content.NewS3Client(content.S3Options{Region: "eu-west-1"})
//	store := content.NewStore(content.NewS3Backend(client, "my-blog", "site/"))
type S3Backend struct {
	client ObjectGetter
	bucket string
	prefix string
}

// NewS3Backend creates a backend reading bucket/prefix+name.
func NewS3Backend(client ObjectGetter, bucket, prefix string) *S3Backend {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Backend{client: client, bucket: bucket, prefix: prefix}
}

// Read implements Backend.
func (b *S3Backend) Read(ctx context.Context, name string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.prefix + name),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, notFound(name, err)
		}
		return nil, werrors.New("W302").WithDetailf("s3 get %s", b.prefix+name).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, werrors.New("W302").WithDetailf("s3 read %s", b.prefix+name).Wrap(err)
	}
	return data, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	Region string

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	// Path-style addressing is used when set.
	Endpoint string
}

// NewS3Client creates a client using the static credentials in
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY, or anonymous credentials
// for public buckets when they are unset.
func NewS3Client(opts S3Options) *s3.Client {
	var creds aws.CredentialsProvider = aws.AnonymousCredentials{}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		creds = aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "Environment",
			}, nil
		}))
	}

	return s3.New(s3.Options{
		Region:      opts.Region,
		Credentials: creds,
	}, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
}
