// Package apkcheck inspects Android packages for malware indicators in their manifest.
package apkcheck

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shogo82148/androidbinary"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mikey/fraud-detector/internal/core"
)

var (
	// ErrManifestNotFound is returned when the archive has no AndroidManifest.xml entry
	ErrManifestNotFound = errors.New("AndroidManifest.xml not found")
	// ErrUndecodableManifest is returned when the manifest does not render to manifest markup
	ErrUndecodableManifest = errors.New("manifest could not be decoded")
	// ErrManifestTooLarge is returned when the inflated manifest exceeds maxManifestBytes
	ErrManifestTooLarge = errors.New("manifest too large")
)

const (
	manifestName = "AndroidManifest.xml"
	// maxManifestBytes caps the inflated manifest; anything larger is rejected, never truncated
	maxManifestBytes = 8 << 20
	unknown          = "unknown"
)

// axmlMagic starts every compiled binary XML document
var axmlMagic = []byte{0x03, 0x00, 0x08, 0x00}

// Attribute prefixes are optional so both source and rendered binary manifests match.
var (
	packageRe     = regexp.MustCompile(`\bpackage="([^"]+)"`)
	versionNameRe = regexp.MustCompile(`\b(?:[\w.-]+:)?versionName="([^"]+)"`)
	versionCodeRe = regexp.MustCompile(`\b(?:[\w.-]+:)?versionCode="(\d+)"`)
	labelRe       = regexp.MustCompile(`\b(?:[\w.-]+:)?label="([^"]+)"`)
	permissionRe  = regexp.MustCompile(`<uses-permission\b[^>]*?\b(?:[\w.-]+:)?name="([^"]+)"`)
	activityRe    = regexp.MustCompile(`<activity\b`)
	serviceRe     = regexp.MustCompile(`<service\b`)
	receiverRe    = regexp.MustCompile(`<receiver\b`)
	providerRe    = regexp.MustCompile(`<provider\b`)
)

// manifestText locates the manifest entry in the archive and renders it as text
func manifestText(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, manifestName) {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", ErrManifestNotFound
	}

	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", entry.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxManifestBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", entry.Name, err)
	}
	if len(data) > maxManifestBytes {
		return "", fmt.Errorf("%w: %s inflates past %d bytes", ErrManifestTooLarge, entry.Name, maxManifestBytes)
	}

	text, err := decodeManifest(data)
	if err != nil {
		return "", err
	}
	if !strings.Contains(text, "<manifest") {
		return "", ErrUndecodableManifest
	}
	return text, nil
}

// decodeManifest renders binary AXML through androidbinary and decodes anything
// else as text, dropping bytes that are not valid in the detected encoding.
func decodeManifest(data []byte) (string, error) {
	if bytes.HasPrefix(data, axmlMagic) {
		xf, err := androidbinary.NewXMLFile(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUndecodableManifest, err)
		}
		out, err := io.ReadAll(xf.Reader())
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUndecodableManifest, err)
		}
		return string(out), nil
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecodableManifest, err)
	}
	return strings.Map(func(r rune) rune {
		if r == '\uFFFD' || r == 0 {
			return -1
		}
		return r
	}, string(out)), nil
}

// parseManifest extracts manifest fields; anything missing keeps its default
func parseManifest(text string) core.Manifest {
	m := core.Manifest{
		PackageName: unknown,
		AppName:     unknown,
		VersionName: unknown,
		Permissions: []string{},
	}

	if g := packageRe.FindStringSubmatch(text); g != nil {
		m.PackageName = g[1]
	}
	if g := versionNameRe.FindStringSubmatch(text); g != nil {
		m.VersionName = g[1]
	}
	if g := versionCodeRe.FindStringSubmatch(text); g != nil {
		if n, err := strconv.Atoi(g[1]); err == nil {
			m.VersionCode = n
		}
	}
	if g := labelRe.FindStringSubmatch(text); g != nil {
		m.AppName = g[1]
	}
	for _, g := range permissionRe.FindAllStringSubmatch(text, -1) {
		m.Permissions = append(m.Permissions, g[1])
	}
	return m
}

type components struct {
	activities, services, receivers, providers int
}

func countComponents(text string) components {
	return components{
		activities: len(activityRe.FindAllStringIndex(text, -1)),
		services:   len(serviceRe.FindAllStringIndex(text, -1)),
		receivers:  len(receiverRe.FindAllStringIndex(text, -1)),
		providers:  len(providerRe.FindAllStringIndex(text, -1)),
	}
}
