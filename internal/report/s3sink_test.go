package report

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrank/internal/domain"
)

type fakeS3 struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Writer_Uploads(t *testing.T) {
	client := &fakeS3{}
	w := NewS3Writer(client, "reports", "runs/2025", "", nil)

	loc, err := w.Write(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/runs/2025/results.json", loc)
	assert.Equal(t, "reports", client.bucket)
	assert.Equal(t, "runs/2025/results.json", client.key)
	assert.Equal(t, "application/json; charset=utf-8", client.contentType)

	want, err := Encode(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, want, client.body)
}

func TestS3Writer_NoPrefix(t *testing.T) {
	client := &fakeS3{}
	loc, err := NewS3Writer(client, "reports", "", "out.json", nil).Write(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/out.json", loc)
}

func TestS3Writer_Error(t *testing.T) {
	client := &fakeS3{err: errors.New("AccessDenied")}
	_, err := NewS3Writer(client, "reports", "", "", nil).Write(context.Background(), domain.Report{})
	assert.ErrorContains(t, err, "upload report to s3://reports/results.json")
	assert.ErrorContains(t, err, "AccessDenied")
}
