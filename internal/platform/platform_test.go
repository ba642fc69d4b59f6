package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		stage    string
		expected string
	}{
		{"linux", "linux-i686"},
		{"linux64", "linux-x86_64"},
		{"macosx64-devedition", "mac"},
		{"win64-aarch64-pinebuild", "win64-aarch64"},
		// Unknown platforms pass through unchanged.
		{"win64", "win64"},
		{"solaris-sparc", "solaris-sparc"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Normalize(tt.stage), "stage platform %q", tt.stage)
	}
}

func TestNormalizeBalrogFallsBackToIdentity(t *testing.T) {
	assert.Equal(t, "linux64", NormalizeBalrog("linux64-devedition"))
	assert.Equal(t, "android-api-16", NormalizeBalrog("android-api-16"))
}

func TestFilenamePlatformsSupersetOfBalrog(t *testing.T) {
	// The filename table carries everything the balrog table does, plus the
	// Android entries.
	assert.Equal(t, "win64", NormalizeFilename("win64-pinebuild"))
	assert.Equal(t, "android-arm", NormalizeFilename("android-api-16"))
	assert.Equal(t, "android-i386", NormalizeFilename("android-x86-old-id"))

	// And the Android entries must not leak into the balrog table.
	assert.Equal(t, "android-x86", NormalizeBalrog("android-x86"))
}

func TestProductPath(t *testing.T) {
	path, err := ProductPath("firefox")
	require.NoError(t, err)
	assert.Equal(t, "pub/firefox/", path)

	path, err = ProductPath("Thunderbird")
	require.NoError(t, err)
	assert.Equal(t, "pub/thunderbird/", path)

	_, err = ProductPath("netscape")
	require.Error(t, err)
}

func TestMIMEType(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"target.dmg", "application/x-iso9660-image"},
		{"target.checksums", "text/plain"},
		{"app.APK", "application/vnd.android.package-archive"},
		{"target.tar.bz2", "application/octet-stream"},
		{"README", "text/plain"},
		{"weird.xyzzy", "text/plain"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MIMEType(tt.path), "path %q", tt.path)
	}
}
