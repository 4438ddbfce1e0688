package catalog

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3Client struct {
	objects map[string][]byte
	getErr  error
	putErr  error
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{objects: map[string][]byte{}}
}

func (f *fakeS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "The specified key does not exist."}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Bucket+"/"+*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	client := newFakeS3Client()
	store := NewS3StoreWithClient(client, "firmware-catalog", "betas.json")

	written := testCatalog()
	require.NoError(t, store.Write(context.Background(), written))

	read, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, written, read)
}

func TestS3Store_ReadMissing(t *testing.T) {
	store := NewS3StoreWithClient(newFakeS3Client(), "firmware-catalog", "betas.json")

	_, err := store.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotExists)
}

func TestS3Store_DefaultKey(t *testing.T) {
	client := newFakeS3Client()
	store := NewS3StoreWithClient(client, "firmware-catalog", "")

	require.NoError(t, store.Write(context.Background(), testCatalog()))
	_, ok := client.objects["firmware-catalog/betas.json"]
	assert.True(t, ok)
}

func TestNewS3Store_InvalidConfig(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)

	_, err = NewS3Store(context.Background(), S3Config{Bucket: "b", AccessKeyID: "only-one-half"})
	assert.Error(t, err)
}
