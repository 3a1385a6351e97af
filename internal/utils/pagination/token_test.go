package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	expenseDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 3, 2, 9, 15, 0, 123456789, time.UTC)

	token := EncodeToken(expenseDate, createdAt)
	require.NotEmpty(t, token)

	gotDate, gotCreated, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, expenseDate, gotDate)
	assert.Equal(t, createdAt, gotCreated, "nanoseconds must survive the round trip")
}

func TestDecodeTokenError(t *testing.T) {
	_, _, err := DecodeToken("this is not base64!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	// "2023-05-15T00:00:00Z" without a separator
	_, _, err = DecodeToken("MjAyMy0wNS0xNVQwMDowMDowMFo=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	// "notadate|2023-05-15T14:30:45.123456789Z"
	_, _, err = DecodeToken("bm90YWRhdGV8MjAyMy0wNS0xNVQxNDozMDo0NS4xMjM0NTY3ODla")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort date parse")
}

func TestEncodeDateBasedToken(t *testing.T) {
	now := time.Now().UTC()

	decoded, err := DecodeDateBasedToken(EncodeDateBasedToken(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(decoded))

	_, err = DecodeDateBasedToken("%%%")
	assert.Error(t, err)
}
