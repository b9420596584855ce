package s3

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broadstream/qgem/pkg/storage"
)

type fakeAPI struct {
	listInput *s3.ListObjectsV2Input
	listOut   *s3.ListObjectsV2Output
	getErr    error
	getBody   string
	putInput  *s3.PutObjectInput
}

func (f *fakeAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listInput = params
	return f.listOut, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.getBody))}, nil
}

func (f *fakeAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInput = params
	return &s3.PutObjectOutput{}, nil
}

func TestList(t *testing.T) {
	older := time.Unix(1_700_000_000, 0)
	newer := older.Add(time.Hour)
	api := &fakeAPI{listOut: &s3.ListObjectsV2Output{
		CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("round_1/deep/")}},
		Contents: []types.Object{
			{Key: aws.String("round_1/"), Size: aws.Int64(0)},
			{Key: aws.String("round_1/a.json"), Size: aws.Int64(10), LastModified: &older, ETag: aws.String(`"etag-a"`)},
			{Key: aws.String("round_1/b.png"), Size: aws.Int64(20), LastModified: &newer},
		},
	}}

	entries, err := NewWithClient(api).List(context.Background(), "sample-data", "round_1", storage.ListOptions{
		Limit: 5000, SortBy: storage.SortByUpdatedAt, SortOrder: storage.SortDesc,
	})
	require.NoError(t, err)

	assert.Equal(t, "round_1/", aws.ToString(api.listInput.Prefix))
	assert.Equal(t, "/", aws.ToString(api.listInput.Delimiter))
	assert.Equal(t, int32(maxPageKeys), aws.ToInt32(api.listInput.MaxKeys))

	require.Len(t, entries, 3)
	assert.Equal(t, "deep", entries[0].Name)
	assert.True(t, entries[0].IsFolder())
	assert.Equal(t, "b.png", entries[1].Name)
	assert.Equal(t, "image/png", entries[1].Metadata.Mimetype)
	assert.Equal(t, "a.json", entries[2].Name)
	assert.Equal(t, "etag-a", entries[2].ID)
}

func TestGetNotFound(t *testing.T) {
	cases := map[string]error{
		"typed":   &types.NoSuchKey{},
		"generic": &smithy.GenericAPIError{Code: "NotFound"},
	}
	for name, apiErr := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewWithClient(&fakeAPI{getErr: apiErr}).Get(context.Background(), "config-data", "x.json")
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}

	_, err := NewWithClient(&fakeAPI{getErr: &smithy.GenericAPIError{Code: "AccessDenied"}}).Get(context.Background(), "config-data", "x.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestGetAndPut(t *testing.T) {
	api := &fakeAPI{getBody: `{"ok":true}`}
	s := NewWithClient(api)

	rc, err := s.Get(context.Background(), "config-data", "x.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, `{"ok":true}`, string(body))

	require.NoError(t, s.Put(context.Background(), "config-data", "x.json", strings.NewReader("{}"), "application/json", 2))
	assert.Equal(t, "application/json", aws.ToString(api.putInput.ContentType))
	assert.Equal(t, int64(2), aws.ToInt64(api.putInput.ContentLength))
	assert.Equal(t, "x.json", aws.ToString(api.putInput.Key))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
