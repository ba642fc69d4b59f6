package mover

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeXPI(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addon.xpi")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	writer := zip.NewWriter(out)
	for name, content := range files {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return path
}

const installRDF = `<?xml version="1.0"?>
<RDF xmlns="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:em="http://www.mozilla.org/2004/em-rdf#">
  <Description about="urn:mozilla:install-manifest">
    <em:id>langpack-fr@firefox.mozilla.org</em:id>
    <em:version>100.0</em:version>
    <em:name>Language Pack</em:name>
  </Description>
</RDF>`

func TestAddonDataFromInstallRDF(t *testing.T) {
	path := writeXPI(t, map[string]string{"install.rdf": installRDF})

	data, err := AddonDataFromXPI(path)
	require.NoError(t, err)
	assert.Equal(t, "langpack-fr@firefox.mozilla.org", data.Name)
	assert.Equal(t, "100.0", data.Version)
}

func TestAddonDataFromManifest(t *testing.T) {
	manifest := `{"version": "100.0", "applications": {"gecko": {"id": "langpack-de@firefox.mozilla.org"}}}`
	path := writeXPI(t, map[string]string{"manifest.json": manifest})

	data, err := AddonDataFromXPI(path)
	require.NoError(t, err)
	assert.Equal(t, "langpack-de@firefox.mozilla.org", data.Name)
	assert.Equal(t, "100.0", data.Version)
}

func TestAddonDataPrefersInstallRDF(t *testing.T) {
	manifest := `{"version": "999", "applications": {"gecko": {"id": "other@example.org"}}}`
	path := writeXPI(t, map[string]string{"install.rdf": installRDF, "manifest.json": manifest})

	data, err := AddonDataFromXPI(path)
	require.NoError(t, err)
	assert.Equal(t, "langpack-fr@firefox.mozilla.org", data.Name)
}

func TestAddonDataBadXPI(t *testing.T) {
	var badXPI *BadXPIError

	// No descriptor at all.
	path := writeXPI(t, map[string]string{"chrome/content.js": "//"})
	_, err := AddonDataFromXPI(path)
	require.Error(t, err)
	assert.True(t, errors.As(err, &badXPI))

	// A manifest missing the version is just as bad.
	path = writeXPI(t, map[string]string{"manifest.json": `{"applications": {"gecko": {"id": "x@y"}}}`})
	_, err = AddonDataFromXPI(path)
	require.Error(t, err)
	assert.True(t, errors.As(err, &badXPI))

	// An unreadable file is an I/O error, not a BadXPIError.
	_, err = AddonDataFromXPI(filepath.Join(t.TempDir(), "missing.xpi"))
	require.Error(t, err)
	assert.False(t, errors.As(err, &badXPI))
}
