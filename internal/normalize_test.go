package ttkeep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "already canonical",
			raw:  "https://www.tiktok.com/@creator/video/7123456789012345678",
			want: "https://www.tiktok.com/@creator/video/7123456789012345678",
		},
		{
			name: "tracking query stripped",
			raw:  "https://www.tiktok.com/@creator/video/7123456789012345678?is_from_webapp=1&sender_device=pc",
			want: "https://www.tiktok.com/@creator/video/7123456789012345678",
		},
		{
			name: "fragment stripped",
			raw:  "https://www.tiktok.com/@creator/video/7123456789012345678#comment",
			want: "https://www.tiktok.com/@creator/video/7123456789012345678",
		},
		{
			name: "trailing slash trimmed",
			raw:  "https://www.tiktok.com/@creator/video/7123456789012345678/",
			want: "https://www.tiktok.com/@creator/video/7123456789012345678",
		},
		{
			name: "scheme and host lowercased",
			raw:  "HTTPS://WWW.TikTok.COM/@creator/video/7123456789012345678",
			want: "https://www.tiktok.com/@creator/video/7123456789012345678",
		},
		{
			name: "surrounding whitespace",
			raw:  "  https://www.tiktok.com/@creator/photo/7123456789012345678\t",
			want: "https://www.tiktok.com/@creator/photo/7123456789012345678",
		},
		{
			name: "path case preserved",
			raw:  "https://www.tiktok.com/@Creator/video/7123456789012345678",
			want: "https://www.tiktok.com/@Creator/video/7123456789012345678",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeVariantsCollapse(t *testing.T) {
	variants := []string{
		"https://www.tiktok.com/@creator/video/7123456789012345678",
		"https://www.tiktok.com/@creator/video/7123456789012345678?utm_source=share",
		"https://www.tiktok.com/@creator/video/7123456789012345678/",
		"HTTPS://www.TIKTOK.com/@creator/video/7123456789012345678#x",
	}
	first, err := Normalize(variants[0])
	require.NoError(t, err)
	for _, v := range variants[1:] {
		got, err := Normalize(v)
		require.NoError(t, err)
		assert.Equal(t, first, got, "variant %q should normalize to the same identifier", v)
	}
}

func TestNormalizeInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"no scheme", "www.tiktok.com/@creator/video/1"},
		{"ftp scheme", "ftp://www.tiktok.com/@creator/video/1"},
		{"missing host", "https:///video/1"},
		{"garbage", "not a url at all"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestPostIDFromIdentifier(t *testing.T) {
	assert.Equal(t, "7123456789012345678",
		PostIDFromIdentifier("https://www.tiktok.com/@creator/video/7123456789012345678"))
	assert.Equal(t, "7123456789012345678",
		PostIDFromIdentifier("https://www.tiktok.com/@creator/photo/7123456789012345678"))
	assert.Equal(t, "@creator",
		PostIDFromIdentifier("https://www.tiktok.com/@creator"))
}

func TestKindFromIdentifier(t *testing.T) {
	assert.Equal(t, "video", KindFromIdentifier("https://www.tiktok.com/@creator/video/71234"))
	assert.Equal(t, "photo", KindFromIdentifier("https://www.tiktok.com/@creator/photo/71234"))
	assert.Equal(t, "", KindFromIdentifier("https://www.tiktok.com/@creator"))
	assert.Equal(t, "", KindFromIdentifier("https://example.com/watch/71234"))
}
