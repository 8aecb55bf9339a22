package ticket

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		eventID, guestID := uuid.New(), uuid.New()

		p, err := Decode(Encode(eventID, guestID))
		require.NoError(t, err)
		assert.Equal(t, eventID, p.EventID)
		assert.Equal(t, guestID, p.GuestID)
		assert.True(t, p.Valid)
	}
}

func TestDecodeMalformed(t *testing.T) {
	eventID := uuid.New().String()
	cases := map[string]string{
		"empty":            "",
		"whitespace":       "   ",
		"plain text":       "hello",
		"bare guest id":    uuid.New().String(),
		"json array":       `["a","b"]`,
		"truncated":        `{"eventId":"` + eventID,
		"missing guest":    `{"eventId":"` + eventID + `","valid":true}`,
		"missing event":    `{"guestId":"` + eventID + `","valid":true}`,
		"non uuid guest":   `{"eventId":"` + eventID + `","guestId":"42","valid":true}`,
		"wrong field type": `{"eventId":1,"guestId":2}`,
		"binary garbage":   "\x00\xff\xfe{",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrDecode))

			var decodeErr *common.DecodeError
			assert.True(t, errors.As(err, &decodeErr))
		})
	}
}

func TestDecodeValidFlag(t *testing.T) {
	eventID, guestID := uuid.New(), uuid.New()

	p, err := Decode(`{"eventId":"` + eventID.String() + `","guestId":"` + guestID.String() + `","valid":false}`)
	require.NoError(t, err)
	assert.False(t, p.Valid)

	p, err = Decode(`{"eventId":"` + eventID.String() + `","guestId":"` + guestID.String() + `"}`)
	require.NoError(t, err)
	assert.False(t, p.Valid)
}

func TestRenderAndDecodeImage(t *testing.T) {
	payload := Encode(uuid.New(), uuid.New())

	png, err := Render(payload, 256)
	require.NoError(t, err)

	text, ok, err := DecodeEncoded(NewZXingDecoder(), bytes.NewReader(png))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, text)
}

func TestDecodeFrameFromRGBA(t *testing.T) {
	payload := Encode(uuid.New(), uuid.New())

	png, err := Render(payload, 256)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(png))
	require.NoError(t, err)

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	text, ok := DecodeFrame(NewZXingDecoder(), rgba.Pix, rgba.Rect.Dx(), rgba.Rect.Dy())
	require.True(t, ok)
	assert.Equal(t, payload, text)
}

func TestDecodeFrameWithoutCode(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 64, 64))

	_, ok := DecodeFrame(NewZXingDecoder(), blank.Pix, 64, 64)
	assert.False(t, ok)

	_, ok = DecodeFrame(NewZXingDecoder(), []byte{1, 2, 3}, 64, 64)
	assert.False(t, ok)
}
