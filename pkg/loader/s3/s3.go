package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the part of the S3 API the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Loader loads documents from an S3 bucket, treating Document.Path as
// the object key.
type S3Loader struct {
	bucket string
	client ObjectGetter
	cache  *loader.Cache
}

// NewS3Loader creates a loader reading objects from bucket through client.
// Usually client is the *s3.Client built by storage.NewS3Client.
func NewS3Loader(bucket string, client ObjectGetter) *S3Loader {
	return &S3Loader{
		bucket: bucket,
		client: client,
		cache:  loader.NewCache(),
	}
}

// GetFileText retrieves the object named by doc.Path. Results are cached.
func (l *S3Loader) GetFileText(ctx context.Context, doc loader.Document) ([]byte, error) {
	return l.cache.Get(loader.CacheKey(doc), func() ([]byte, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(doc.Path),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get %s from S3: %w", doc.Path, err)
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", doc.Path, err)
		}
		return buf.Bytes(), nil
	})
}
