package blob

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressImage_FitsInsideMaxSide(t *testing.T) {
	data, err := CompressImage(bytes.NewReader(pngOf(t, 400, 200)), 100, 70)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestCompressImage_KeepsSmallImages(t *testing.T) {
	data, err := CompressImage(bytes.NewReader(pngOf(t, 40, 30)), 1024, 70)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestCompressImage_RejectsGarbage(t *testing.T) {
	_, err := CompressImage(strings.NewReader("not an image"), 1024, 70)
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	key := ObjectKey("image/jpeg", at)

	assert.True(t, strings.HasPrefix(key, "events/20260314-"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ObjectKey("image/jpeg", at))
}

func TestMemoryStore_UploadAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("https://cdn.test/bucket")

	url, err := store.Upload(ctx, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, store.Owns(url))

	data, ok := store.Get(url)
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), data)

	require.NoError(t, store.Delete(ctx, url))
	assert.Equal(t, 0, store.Len())
	assert.ErrorIs(t, store.Delete(ctx, url), common.ErrNotFound)
}

func TestMemoryStore_RejectsForeignURL(t *testing.T) {
	store := NewMemoryStore("")

	assert.False(t, store.Owns("https://picsum.photos/seed/x/800/400"))
	assert.ErrorIs(t, store.Delete(context.Background(), "https://picsum.photos/seed/x/800/400"), ErrForeignURL)
}
