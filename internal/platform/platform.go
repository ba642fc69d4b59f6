// Package platform holds the static lookup tables that translate raw build
// system identifiers (stage platforms, app names, file extensions) into the
// canonical names used on the release endpoints. Lookups fall back to the
// input value when a key is unknown so that new platforms keep working before
// a table update lands.
package platform

import (
	"fmt"
	"path/filepath"
	"strings"
)

// stagePlatforms maps the platform emitted by the build system to the
// platform name used in release paths.
var stagePlatforms = map[string]string{
	"linux":                    "linux-i686",
	"linux-devedition":         "linux-i686",
	"linux64":                  "linux-x86_64",
	"linux64-asan-reporter":    "linux-x86_64-asan-reporter",
	"linux64-devedition":       "linux-x86_64",
	"linux64-pinebuild":        "linux-x86_64",
	"macosx64":                 "mac",
	"macosx64-asan-reporter":   "mac-asan-reporter",
	"macosx64-devedition":      "mac",
	"macosx64-pinebuild":       "mac",
	"win32-devedition":         "win32",
	"win64-devedition":         "win64",
	"win64-pinebuild":          "win64",
	"win64-aarch64-devedition": "win64-aarch64",
	"win64-aarch64-pinebuild":  "win64-aarch64",
}

// balrogPlatforms maps stage platforms to the platform names the update
// server expects.
var balrogPlatforms = map[string]string{
	"linux-devedition":         "linux",
	"linux64-devedition":       "linux64",
	"linux64-pinebuild":        "linux64",
	"macosx64-devedition":      "macosx64",
	"macosx64-pinebuild":       "macosx64",
	"win32-devedition":         "win32",
	"win64-devedition":         "win64",
	"win64-pinebuild":          "win64",
	"win64-aarch64-devedition": "win64-aarch64",
	"win64-aarch64-pinebuild":  "win64-aarch64",
}

// filenamePlatforms is balrogPlatforms plus the Android entries used when
// naming files. The two tables are kept separate on purpose; see DESIGN.md.
var filenamePlatforms = func() map[string]string {
	m := make(map[string]string, len(balrogPlatforms)+8)
	for k, v := range balrogPlatforms {
		m[k] = v
	}
	m["android"] = "android-arm"
	m["android-api-15"] = "android-arm"
	m["android-api-15-old-id"] = "android-arm"
	m["android-api-16"] = "android-arm"
	m["android-api-16-old-id"] = "android-arm"
	m["android-x86"] = "android-i386"
	m["android-x86-old-id"] = "android-i386"
	m["android-aarch64"] = "android-aarch64"
	return m
}()

// productPaths maps a product to its path segment on the release endpoint.
var productPaths = map[string]string{
	"mobile":      "pub/mobile/",
	"fennec":      "pub/mobile/",
	"devedition":  "pub/devedition/",
	"pinebuild":   "pub/pinebuild/",
	"firefox":     "pub/firefox/",
	"thunderbird": "pub/thunderbird/",
	"vpn":         "pub/vpn/",
}

// mimeTypes maps file extensions to the Content-Type set on uploads.
var mimeTypes = map[string]string{
	"":           "text/plain",
	".aar":       "application/java-archive",
	".apk":       "application/vnd.android.package-archive",
	".asc":       "text/plain",
	".beet":      "text/plain",
	".bundle":    "application/octet-stream",
	".bz2":       "application/octet-stream",
	".checksums": "text/plain",
	".dmg":       "application/x-iso9660-image",
	".jar":       "application/java-archive",
	".json":      "application/json",
	".mar":       "application/octet-stream",
	".md5":       "text/plain",
	".module":    "application/json",
	".msi":       "application/x-msi",
	".msix":      "application/msix",
	".pkg":       "application/x-newton-compatible-pkg",
	".pom":       "application/xml",
	".rcc":       "application/octet-stream",
	".sha1":      "text/plain",
	".sha256":    "text/plain",
	".sha512":    "text/plain",
	".sig":       "application/octet-stream",
	".snap":      "application/octet-stream",
	".xpi":       "application/x-xpinstall",
}

func lookup(table map[string]string, key string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return key
}

// Normalize returns the release platform for a stage platform.
func Normalize(stagePlatform string) string {
	return lookup(stagePlatforms, stagePlatform)
}

// NormalizeBalrog returns the update-server platform for a stage platform.
func NormalizeBalrog(stagePlatform string) string {
	return lookup(balrogPlatforms, stagePlatform)
}

// NormalizeFilename returns the platform name used in artifact filenames.
func NormalizeFilename(stagePlatform string) string {
	return lookup(filenamePlatforms, stagePlatform)
}

// ProductPath returns the release path segment for a product. Unlike the
// platform tables there is no sane fallback here: a destination prefix cannot
// be derived for a product we know nothing about.
func ProductPath(product string) (string, error) {
	path, ok := productPaths[strings.ToLower(product)]
	if !ok {
		return "", fmt.Errorf("no release path known for product %q", product)
	}
	return path, nil
}

// MIMEType returns the Content-Type for a file, based on its extension.
// Unknown and empty extensions are served as text/plain.
func MIMEType(path string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "text/plain"
}
