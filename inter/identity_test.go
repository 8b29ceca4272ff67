package inter

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDigest(t *testing.T) {
	for _, tc := range []struct {
		name  string
		value []byte
		exp   Digest
	}{
		{"exact", []byte("ABCDEFGH"), Digest{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H'}},
		{"truncated", []byte("ABCDEFGHIJKL"), Digest{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H'}},
		{"padded", []byte("ABC"), Digest{'A', 'B', 'C'}},
		{"empty", nil, Digest{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.exp, NormalizeDigest(tc.value))
		})
	}
}

func TestDigestString(t *testing.T) {
	require.Equal(t, "ABC", NormalizeDigest([]byte("ABC")).String())
	require.Equal(t, "0x0102000000000000", Digest{1, 2}.String())
}

func TestDigestText(t *testing.T) {
	for _, d := range []Digest{NormalizeDigest([]byte("ABCDEFGH")), NormalizeDigest([]byte("A")), {1, 2}, {}} {
		text, err := d.MarshalText()
		require.NoError(t, err)
		var back Digest
		require.NoError(t, back.UnmarshalText(text))
		require.Equal(t, d, back)
	}

	var d Digest
	require.NoError(t, d.UnmarshalText([]byte("ABCDEFGHIJ")))
	require.Equal(t, NormalizeDigest([]byte("ABCDEFGH")), d)
}

func TestIdentityText(t *testing.T) {
	require := require.New(t)

	id := FakeIdentity(7)
	require.Equal(id, FakeIdentity(7))
	require.NotEqual(id, FakeIdentity(8))

	parsed, err := IdentityFromString(id.String())
	require.NoError(err)
	require.Equal(id, parsed)

	b, err := json.Marshal(struct{ ID Identity }{id})
	require.NoError(err)
	var back struct{ ID Identity }
	require.NoError(json.Unmarshal(b, &back))
	require.Equal(id, back.ID)
}

func TestIdentityDecodeErrors(t *testing.T) {
	for name, s := range map[string]string{
		"invalid base58": "0OIl",
		"too short":      "3mJr7AoUXx2Wqd",
		"empty":          "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := IdentityFromString(s)
			require.True(t, errors.Is(err, ErrDecode), err)
		})
	}

	_, err := IdentityFromBytes(make([]byte, 31))
	require.True(t, errors.Is(err, ErrDecode))
	require.Panics(t, func() { MustIdentityFromString("bad") })
}

func TestIdentityLess(t *testing.T) {
	a := Identity{1}
	b := Identity{2}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
	require.True(t, Identity{}.IsZero())
}
