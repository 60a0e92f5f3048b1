package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	headErr   error
	createErr error
	putErr    error
	created   []string
	puts      []*s3.PutObjectInput
	bodies    []string
}

func (f *fakeObjects) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeObjects) CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, *params.Bucket)
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, params)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

type fakePresigner struct {
	err error
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	return &v4.PresignedHTTPRequest{
		URL:    fmt.Sprintf("https://%s.s3.test/%s?X-Amz-Expires=%d", *params.Bucket, *params.Key, int(opts.Expires.Seconds())),
		Method: "GET",
	}, nil
}

func TestS3ExportStore_EnsureBucketExists(t *testing.T) {
	objects := &fakeObjects{}
	store := newS3ExportStore(objects, &fakePresigner{}, "qfin-exports")

	require.NoError(t, store.ensureBucket(context.Background()))
	assert.Empty(t, objects.created)
}

func TestS3ExportStore_EnsureBucketCreatesMissing(t *testing.T) {
	objects := &fakeObjects{headErr: &types.NotFound{}}
	store := newS3ExportStore(objects, &fakePresigner{}, "qfin-exports")

	require.NoError(t, store.ensureBucket(context.Background()))
	assert.Equal(t, []string{"qfin-exports"}, objects.created)
}

func TestS3ExportStore_EnsureBucketPermissionDenied(t *testing.T) {
	objects := &fakeObjects{headErr: errors.New("403 forbidden")}
	store := newS3ExportStore(objects, &fakePresigner{}, "qfin-exports")

	err := store.ensureBucket(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "may be permission denied")
	assert.Empty(t, objects.created)
}

func TestS3ExportStore_EnsureBucketCreateFails(t *testing.T) {
	objects := &fakeObjects{headErr: &types.NoSuchBucket{}, createErr: errors.New("quota")}
	store := newS3ExportStore(objects, &fakePresigner{}, "qfin-exports")

	err := store.ensureBucket(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create bucket")
}

func TestS3ExportStore_Upload(t *testing.T) {
	objects := &fakeObjects{}
	store := newS3ExportStore(objects, &fakePresigner{}, "qfin-exports")
	content := "date,type\n2024-06-02,EXPENSE\n"

	key, err := store.Upload(context.Background(), "exports/1/transactions/abc-transactions-2024-06-15.csv", strings.NewReader(content), "text/csv", int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, "exports/1/transactions/abc-transactions-2024-06-15.csv", key)

	require.Len(t, objects.puts, 1)
	put := objects.puts[0]
	assert.Equal(t, "qfin-exports", *put.Bucket)
	assert.Equal(t, "text/csv", *put.ContentType)
	assert.Equal(t, int64(len(content)), *put.ContentLength)
	assert.Equal(t, `attachment; filename="abc-transactions-2024-06-15.csv"`, *put.ContentDisposition)
	assert.Equal(t, content, objects.bodies[0])
}

func TestS3ExportStore_UploadUnknownSize(t *testing.T) {
	objects := &fakeObjects{}
	store := newS3ExportStore(objects, &fakePresigner{}, "qfin-exports")

	_, err := store.Upload(context.Background(), "exports/1/document/report.xhtml", strings.NewReader("<html/>"), "application/xhtml+xml", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), *objects.puts[0].ContentLength)
}

func TestS3ExportStore_UploadFails(t *testing.T) {
	objects := &fakeObjects{putErr: errors.New("connection reset")}
	store := newS3ExportStore(objects, &fakePresigner{}, "qfin-exports")

	_, err := store.Upload(context.Background(), "k.csv", strings.NewReader("x"), "text/csv", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload object")
}

func TestS3ExportStore_GeneratePresignedURL(t *testing.T) {
	store := newS3ExportStore(&fakeObjects{}, &fakePresigner{}, "qfin-exports")

	url, err := store.GeneratePresignedURL(context.Background(), "exports/1/x.csv", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://qfin-exports.s3.test/exports/1/x.csv?X-Amz-Expires=600", url)
}

func TestS3ExportStore_GeneratePresignedURLFails(t *testing.T) {
	store := newS3ExportStore(&fakeObjects{}, &fakePresigner{err: errors.New("no credentials")}, "qfin-exports")

	_, err := store.GeneratePresignedURL(context.Background(), "exports/1/x.csv", time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate presigned URL")
}
