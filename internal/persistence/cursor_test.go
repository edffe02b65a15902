package persistence

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Alish28/NutriAI/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	in := &domain.Cursor{
		CreatedAt: time.Date(2025, time.May, 4, 8, 30, 15, 123456789, time.UTC),
		ID:        "0b7f7f2e-3c1b-4a53-9a32-2b4d43d8f1d9",
	}

	token := EncodeCursor(in)
	require.NotEmpty(t, token)

	out, err := DecodeCursor(token)
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)
}

func TestDecodeCursorEmptyAndInvalid(t *testing.T) {
	c, err := DecodeCursor("  ")
	require.NoError(t, err)
	require.Nil(t, c)
	require.Empty(t, EncodeCursor(nil))

	_, err = DecodeCursor("not base64!")
	require.ErrorIs(t, err, ErrInvalidCursor)

	_, err = DecodeCursor(rawToken("no-separator"))
	require.ErrorIs(t, err, ErrInvalidCursor)

	_, err = DecodeCursor(rawToken("yesterday|abc"))
	require.ErrorIs(t, err, ErrInvalidCursor)
}

func rawToken(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
