package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   map[string]map[int32][]byte
	nextID    int
	completed int
	aborted   int
	failPut   error
	failHead  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, uploads: map[string]map[int32][]byte{}}
}

func (f *fakeS3) CreateMultipartUpload(_ context.Context, _ *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.uploads[id] = map[int32][]byte{}
	return &s3.CreateMultipartUploadOutput{UploadId: aws.String(id)}, nil
}

func (f *fakeS3) UploadPart(_ context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	parts, ok := f.uploads[aws.ToString(in.UploadId)]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	n := aws.ToInt32(in.PartNumber)
	parts[n] = b
	return &s3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("etag-%d", n))}, nil
}

func (f *fakeS3) CompleteMultipartUpload(_ context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := aws.ToString(in.UploadId)
	parts, ok := f.uploads[id]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	var body []byte
	for _, p := range in.MultipartUpload.Parts {
		body = append(body, parts[aws.ToInt32(p.PartNumber)]...)
	}
	f.objects[aws.ToString(in.Key)] = body
	delete(f.uploads, id)
	f.completed++
	return &s3.CompleteMultipartUploadOutput{}, nil
}

func (f *fakeS3) AbortMultipartUpload(_ context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.uploads, aws.ToString(in.UploadId))
	f.aborted++
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut != nil {
		return nil, f.failPut
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.failHead != nil {
		return nil, f.failHead
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for k, v := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(v)))})
		}
	}
	return out, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := newS3StoreWithAPI(fake, "binders", "/docs/")
	ctx := context.Background()

	n, err := s.Put(ctx, "abc_a.pdf", strings.NewReader("pdf-bytes"), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Contains(t, fake.objects, "docs/abc_a.pdf")

	rc, err := s.Open(ctx, "abc_a.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf-bytes", string(body))

	fake.objects["elsewhere/x"] = []byte("ignored")
	used, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), used)

	require.NoError(t, s.Delete(ctx, "abc_a.pdf"))
	_, err = s.Open(ctx, "abc_a.pdf")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	backend, location := s.Describe()
	assert.Equal(t, "s3", backend)
	assert.Equal(t, "s3://binders/docs", location)
}

func TestS3Store_Errors(t *testing.T) {
	fake := newFakeS3()
	s := newS3StoreWithAPI(fake, "binders", "")
	ctx := context.Background()

	_, err := s.Put(ctx, "abc_big", strings.NewReader("0123456789"), 4)
	var tooLarge *common.PayloadTooLargeError
	assert.ErrorAs(t, err, &tooLarge)
	assert.Empty(t, fake.objects)

	_, err = s.Put(ctx, "a/b", strings.NewReader("x"), 4)
	assert.ErrorIs(t, err, ErrInvalidStoredName)

	fake.failPut = errors.New("connection refused")
	_, err = s.Put(ctx, "abc_x", strings.NewReader("x"), 4)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	fake.failHead = errors.New("forbidden")
	assert.ErrorIs(t, s.Check(ctx), common.ErrStorageUnavailable)
}

func TestS3Store_LargeBodyStreamsInParts(t *testing.T) {
	fake := newFakeS3()
	s := newS3StoreWithAPI(fake, "binders", "")
	ctx := context.Background()

	body := bytes.Repeat([]byte("0123456789abcdef"), (12<<20)/16)

	n, err := s.Put(ctx, "abc_scan.pdf", bytes.NewReader(body), 16<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), n)
	assert.Equal(t, 1, fake.completed)
	assert.True(t, bytes.Equal(body, fake.objects["abc_scan.pdf"]), "parts reassemble to the original body")

	// crossing the limit in a later part aborts the whole upload
	_, err = s.Put(ctx, "abc_huge.pdf", bytes.NewReader(body), 11<<20)
	var tooLarge *common.PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, int64(11<<20), tooLarge.Limit)
	assert.NotContains(t, fake.objects, "abc_huge.pdf")
	assert.Equal(t, 1, fake.aborted)
	assert.Empty(t, fake.uploads)
}

func TestNewS3Store_AppliesOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minio", creds.AccessKeyID)
		return aws.Config{Region: lo.Region}, nil
	}

	fake := newFakeS3()
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		var o s3.Options
		for _, fn := range optFns {
			fn(&o)
		}
		assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(o.BaseEndpoint))
		assert.True(t, o.UsePathStyle)
		return fake
	}

	s, err := NewS3Store(context.Background(), S3Options{
		Region: "eu-west-1", AccessKey: "minio", SecretKey: "minio123",
		Bucket: "binders", BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.NoError(t, s.Check(context.Background()))
}

func TestNewS3Store_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}

	_, err := NewS3Store(context.Background(), S3Options{Bucket: "b"})
	assert.ErrorContains(t, err, "no profile")
}
