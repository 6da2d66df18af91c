package cursor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/pkg/cursor"
)

func TestCursor_EncodeDecode(t *testing.T) {
	eff := time.Date(2026, 5, 4, 10, 30, 0, 123000, time.UTC)
	created := eff.Add(time.Hour)
	c := cursor.New(eff, created, 42, "item=abc")

	token, err := cursor.Encode(c)
	require.NoError(t, err)

	got, err := cursor.Decode(token, "item=abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Seq)
	assert.True(t, eff.Equal(got.Effective()))
	assert.True(t, created.Equal(got.Created()))
}

func TestCursor_RechazaFiltroDistinto(t *testing.T) {
	token, err := cursor.Encode(cursor.New(time.Now(), time.Now(), 1, "item=abc"))
	require.NoError(t, err)

	_, err = cursor.Decode(token, "item=xyz")
	assert.ErrorIs(t, err, cursor.ErrInvalid)
}

func TestCursor_RechazaTokensMalformados(t *testing.T) {
	for _, token := range []string{"", "%%%", "bm90LWpzb24"} {
		_, err := cursor.Decode(token, "")
		assert.ErrorIs(t, err, cursor.ErrInvalid, "token %q", token)
	}
}
