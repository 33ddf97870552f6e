package models_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaykit/replaykit/pkg/models"
)

func TestImageRef_Representations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ref      models.ImageRef
		isZero   bool
		isInline bool
		isPath   bool
	}{
		{name: "empty", ref: "", isZero: true},
		{
			name:     "data url",
			ref:      models.NewInlineImage("image/png", []byte("pixels")),
			isInline: true,
		},
		{
			name:     "bare base64 payload",
			ref:      "aGVsbG8=",
			isInline: true,
		},
		{
			name:   "relative path",
			ref:    "shots/a-1_screenshot.jpg",
			isPath: true,
		},
		{
			name:   "bare filename",
			ref:    "a-1_screenshot.jpg",
			isPath: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.isZero, tt.ref.IsZero())
			assert.Equal(t, tt.isInline, tt.ref.IsInline())
			assert.Equal(t, tt.isPath, tt.ref.IsPath())
		})
	}
}

func TestImageRef_BareBase64WithSlashes(t *testing.T) {
	t.Parallel()

	// Base64 output of real image bytes routinely contains '/'.
	payload := []byte{0xff, 0xff, 0xff, 0x00}
	encoded := base64.StdEncoding.EncodeToString(payload)
	require.Contains(t, encoded, "/")

	ref := models.ImageRef(encoded)

	assert.True(t, ref.IsInline())
	assert.False(t, ref.IsPath())
	assert.Equal(t, payload, ref.InlineData())
	assert.Equal(t, len(payload), ref.ByteSize())
}

func TestImageRef_InlineDataRoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	ref := models.NewInlineImage("image/png", payload)

	assert.Equal(t, payload, ref.InlineData())
	assert.Equal(t, len(payload), ref.ByteSize())
}

func TestImageRef_PathHasNoInlineData(t *testing.T) {
	t.Parallel()

	ref := models.ImageRef("shots/a.jpg")

	assert.Nil(t, ref.InlineData())
	assert.Zero(t, ref.ByteSize())
}

func TestDecodeFingerprint(t *testing.T) {
	t.Parallel()

	typed := &models.Fingerprint{Text: "Pay"}

	t.Run("nil yields nil", func(t *testing.T) {
		t.Parallel()

		fp, err := models.DecodeFingerprint(nil)
		require.NoError(t, err)
		assert.Nil(t, fp)
	})

	t.Run("typed pointer passes through", func(t *testing.T) {
		t.Parallel()

		fp, err := models.DecodeFingerprint(typed)
		require.NoError(t, err)
		assert.Same(t, typed, fp)
	})

	t.Run("map after a JSON round trip decodes", func(t *testing.T) {
		t.Parallel()

		fp, err := models.DecodeFingerprint(map[string]any{
			"text":      "Pay",
			"timestamp": float64(42),
			"position": map[string]any{
				"absolute": map[string]any{"x": float64(10), "y": float64(20)},
			},
		})
		require.NoError(t, err)
		require.NotNil(t, fp)
		assert.Equal(t, "Pay", fp.Text)
		assert.Equal(t, int64(42), fp.Timestamp)
		assert.Equal(t, 10.0, fp.Position.Absolute.X)
	})

	t.Run("unsupported representation errors", func(t *testing.T) {
		t.Parallel()

		_, err := models.DecodeFingerprint(42)
		assert.Error(t, err)
	})
}

func TestFingerprint_CloneIsDeep(t *testing.T) {
	t.Parallel()

	fp := &models.Fingerprint{
		Text:            "Pay",
		SurroundingText: []string{"a", "b"},
	}

	clone := fp.Clone()
	clone.Text = "changed"
	clone.SurroundingText[0] = "mutated"

	assert.Equal(t, "Pay", fp.Text)
	assert.Equal(t, "a", fp.SurroundingText[0])
}

func TestAction_FingerprintAccessor(t *testing.T) {
	t.Parallel()

	action := &models.Action{
		Params: map[string]any{
			models.ParamFingerprint: models.Fingerprint{Text: "Pay"},
		},
	}

	fp, err := action.Fingerprint()
	require.NoError(t, err)
	require.NotNil(t, fp)
	assert.Equal(t, "Pay", fp.Text)

	bare := &models.Action{}
	fp, err = bare.Fingerprint()
	require.NoError(t, err)
	assert.Nil(t, fp)
}

func TestStringParam(t *testing.T) {
	t.Parallel()

	params := map[string]any{"text": "hello", "amount": 3.0}

	assert.Equal(t, "hello", models.StringParam(params, "text"))
	assert.Empty(t, models.StringParam(params, "amount"), "non-strings yield empty")
	assert.Empty(t, models.StringParam(params, "missing"))
	assert.Empty(t, models.StringParam(nil, "text"))
}
