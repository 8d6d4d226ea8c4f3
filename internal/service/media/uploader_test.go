package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoronkov/vidtube/internal/apperrors"
)

// Allow to use a function as the S3 client
type putObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)

func (f putObjectFunc) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return f(ctx, params, optFns...)
}

func Test_S3Uploader_Upload(t *testing.T) {
	t.Parallel()

	t.Run("upload ok", func(t *testing.T) {
		var gotBucket, gotKey, gotContentType string
		var gotBody string

		u := &S3Uploader{
			bucket:  "vidtube-media",
			baseURL: "https://cdn.example/vidtube-media",
			client: putObjectFunc(func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				gotBucket = *params.Bucket
				gotKey = *params.Key
				gotContentType = *params.ContentType
				raw, err := io.ReadAll(params.Body)
				require.NoError(t, err)
				gotBody = string(raw)
				return &s3.PutObjectOutput{}, nil
			}),
		}

		url, err := u.Upload(t.Context(), "media/2026/08/29/avatar.png", strings.NewReader("image-bytes"), "image/png")

		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example/vidtube-media/media/2026/08/29/avatar.png", url)
		assert.Equal(t, "vidtube-media", gotBucket)
		assert.Equal(t, "media/2026/08/29/avatar.png", gotKey)
		assert.Equal(t, "image/png", gotContentType)
		assert.Equal(t, "image-bytes", gotBody)
	})

	t.Run("nil body rejected", func(t *testing.T) {
		u := &S3Uploader{bucket: "b", baseURL: "x", client: putObjectFunc(nil)}

		_, err := u.Upload(t.Context(), "key", nil, "image/png")

		require.ErrorIs(t, err, apperrors.ErrFileRequired)
	})

	t.Run("store failure becomes upload failed", func(t *testing.T) {
		u := &S3Uploader{
			bucket:  "b",
			baseURL: "x",
			client: putObjectFunc(func(_ context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				return nil, errors.New("connection reset")
			}),
		}

		_, err := u.Upload(t.Context(), "key", strings.NewReader("data"), "image/png")

		require.ErrorIs(t, err, apperrors.ErrUploadFailed)
	})
}

func Test_RandomKey(t *testing.T) {
	t.Parallel()

	first := RandomKey("avatar.png")
	second := RandomKey("avatar.png")

	assert.NotEqual(t, first, second, "keys must not collide")
	assert.True(t, strings.HasPrefix(first, "media/"), "keys grouped under media/")
	assert.True(t, strings.HasSuffix(first, ".png"), "extension should survive")
}
