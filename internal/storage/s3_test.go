package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/yacht-charter/internal/config"
)

type fakeS3 struct {
	s3iface.S3API
	headErr   error
	deleted   []string
	created   []*s3.CreateBucketInput
	policies  map[string]string
	deleteErr error
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deleted = append(f.deleted, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadBucketWithContext(aws.Context, *s3.HeadBucketInput, ...request.Option) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeS3) CreateBucketWithContext(_ aws.Context, in *s3.CreateBucketInput, _ ...request.Option) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, in)
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) PutBucketPolicyWithContext(_ aws.Context, in *s3.PutBucketPolicyInput, _ ...request.Option) (*s3.PutBucketPolicyOutput, error) {
	if f.policies == nil {
		f.policies = map[string]string{}
	}
	f.policies[*in.Bucket] = *in.Policy
	return &s3.PutBucketPolicyOutput{}, nil
}

type fakeUploader struct {
	s3manageriface.UploaderAPI
	inputs []*s3manager.UploadInput
	bodies []string
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	b, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(b))
	return &s3manager.UploadOutput{Location: "ok"}, nil
}

func TestS3Store_PutUsesUploader(t *testing.T) {
	up := &fakeUploader{}
	s := &S3Store{client: &fakeS3{}, uploader: up, region: "eu-central-1"}

	err := s.Put(context.Background(), "media", "1_a.jpg", strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	require.Len(t, up.inputs, 1)
	assert.Equal(t, "media", *up.inputs[0].Bucket)
	assert.Equal(t, "image/jpeg", *up.inputs[0].ContentType)
	assert.Equal(t, "jpeg", up.bodies[0])
}

func TestS3Store_RemoveIgnoresMissingKey(t *testing.T) {
	fake := &fakeS3{deleteErr: awserr.New(s3.ErrCodeNoSuchKey, "gone", nil)}
	s := &S3Store{client: fake}
	assert.NoError(t, s.Remove(context.Background(), "media", "x"))

	fake.deleteErr = awserr.New("AccessDenied", "no", nil)
	assert.Error(t, s.Remove(context.Background(), "media", "x"))
}

func TestS3Store_PublicURL(t *testing.T) {
	hosted := &S3Store{region: "eu-central-1"}
	assert.Equal(t, "https://media.s3.eu-central-1.amazonaws.com/1_deck%20plan.png",
		hosted.PublicURL("media", "1_deck plan.png"))

	minio := &S3Store{region: "us-east-1", endpoint: "http://minio:9000", pathStyle: true}
	assert.Equal(t, "http://minio:9000/media/1_a.png", minio.PublicURL("media", "1_a.png"))
}

func TestS3Store_EnsureBucketCreatesAndOpens(t *testing.T) {
	fake := &fakeS3{headErr: awserr.New("NotFound", "not found", nil)}
	s := &S3Store{client: fake, region: "eu-central-1"}

	require.NoError(t, s.EnsureBucket(context.Background(), "gallery", true))
	require.Len(t, fake.created, 1)
	assert.Equal(t, "eu-central-1", *fake.created[0].CreateBucketConfiguration.LocationConstraint)
	assert.Contains(t, fake.policies["gallery"], "arn:aws:s3:::gallery/*")
}

func TestS3Store_EnsureBucketExistingPrivate(t *testing.T) {
	fake := &fakeS3{}
	s := &S3Store{client: fake, region: "us-east-1"}
	require.NoError(t, s.EnsureBucket(context.Background(), "contracts", false))
	assert.Empty(t, fake.created)
	assert.Empty(t, fake.policies)
}

func TestS3Store_SignedURLIsPresignedOffline(t *testing.T) {
	s, err := NewS3Store(config.StorageConfig{Region: "eu-central-1", AccessKey: "AKIDEXAMPLE", SecretKey: "secret"})
	require.NoError(t, err)

	raw, err := s.SignedURL(context.Background(), "contracts", "1_c.pdf", 10*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Contains(t, u.Path, "1_c.pdf")
}
