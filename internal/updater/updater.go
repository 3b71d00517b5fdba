// Package updater provides self-update functionality for spotify-dl-go.
// It checks for new releases on GitHub and handles downloading and applying updates
// using the minio/selfupdate library for atomic, cross-platform binary replacement.
package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/imroc/req/v3"
	"github.com/minio/selfupdate"

	"spotify-dl-go/internal/version"
)

const (
	// GitHubRepo is the repository path for releases
	GitHubRepo = "spotify-dl-go/spotify-dl-go"
	// ReleaseAPI is the GitHub API endpoint for the latest release
	ReleaseAPI = "https://api.github.com/repos/" + GitHubRepo + "/releases/latest"

	binaryName = "spotify-dl-go"
)

// httpClient is the package-level HTTP client (can be configured with proxy)
var httpClient = req.C().SetUserAgent(binaryName + "-updater/" + version.Short())

// ReleaseInfo contains information about a GitHub release
type ReleaseInfo struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
	HTMLURL string  `json:"html_url"`
}

// Asset represents a release asset (binary download)
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// UpdateResult contains the result of an update check
type UpdateResult struct {
	CurrentVersion string
	LatestVersion  string
	HasUpdate      bool
	ReleaseInfo    *ReleaseInfo
}

// SetProxy configures the HTTP client to use the specified proxy URL.
// Supports http, https, and socks5 schemes.
func SetProxy(proxyURL string) error {
	if proxyURL == "" {
		return nil
	}
	httpClient.SetProxyURL(proxyURL)
	return nil
}

// CheckForUpdate checks GitHub for the latest release and compares versions.
func CheckForUpdate() (*UpdateResult, error) {
	currentVersion := version.Version

	var release ReleaseInfo
	resp, err := httpClient.R().
		SetSuccessResult(&release).
		Get(ReleaseAPI)
	if err != nil {
		return nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !resp.IsSuccessState() {
		return nil, fmt.Errorf("failed to check for updates: API returned status %d", resp.StatusCode)
	}

	// Extract version number (remove 'v' prefix if present)
	latestVersion := strings.TrimPrefix(release.TagName, "v")
	hasUpdate := compareVersions(currentVersion, latestVersion) < 0

	return &UpdateResult{
		CurrentVersion: currentVersion,
		LatestVersion:  latestVersion,
		HasUpdate:      hasUpdate,
		ReleaseInfo:    &release,
	}, nil
}

// GetPlatformAsset returns the appropriate asset for the current platform
func (r *ReleaseInfo) GetPlatformAsset() (*Asset, error) {
	goos := runtime.GOOS
	goarch := runtime.GOARCH

	// Determine expected file extension
	var ext string
	if goos == "windows" {
		ext = ".zip"
	} else {
		ext = ".tar.gz"
	}

	// Build expected asset name pattern
	pattern := fmt.Sprintf("%s-%s-%s-%s%s", binaryName, r.TagName, goos, goarch, ext)

	for _, asset := range r.Assets {
		if asset.Name == pattern {
			return &asset, nil
		}
	}

	return nil, fmt.Errorf("no release found for %s/%s", goos, goarch)
}

// DownloadAndApply downloads the release and applies it atomically using selfupdate
func DownloadAndApply(asset *Asset, progressFn func(current, total int64)) error {
	// Download the archive into memory (releases are small, ~6MB)
	var buf bytes.Buffer
	request := httpClient.R().SetOutput(&buf)
	if progressFn != nil {
		request.SetDownloadCallback(func(info req.DownloadInfo) {
			progressFn(info.DownloadedSize, asset.Size)
		})
	}
	resp, err := request.Get(asset.BrowserDownloadURL)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	if !resp.IsSuccessState() {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	// Extract binary from archive
	var binaryReader io.Reader
	if strings.HasSuffix(asset.Name, ".zip") {
		binaryReader, err = extractFromZip(buf.Bytes())
	} else {
		binaryReader, err = extractFromTarGz(buf.Bytes())
	}
	if err != nil {
		return fmt.Errorf("failed to extract binary: %w", err)
	}

	// Apply update atomically using selfupdate
	if err := selfupdate.Apply(binaryReader, selfupdate.Options{}); err != nil {
		// Attempt rollback on failure
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			return fmt.Errorf("update failed and rollback also failed: %w", rerr)
		}
		return fmt.Errorf("update failed (rolled back): %w", err)
	}

	return nil
}

// extractFromZip extracts the binary from a zip archive
func extractFromZip(data []byte) (io.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	// Archive structure: spotify-dl-go-v{version}-{os}-{arch}/spotify-dl-go.exe
	expectedName := binaryName + ".exe"

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		if strings.HasSuffix(f.Name, expectedName) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()

			var buf bytes.Buffer
			if _, err := io.Copy(&buf, rc); err != nil {
				return nil, err
			}
			return bytes.NewReader(buf.Bytes()), nil
		}
	}

	return nil, fmt.Errorf("binary not found in archive")
}

// extractFromTarGz extracts the binary from a tar.gz archive
func extractFromTarGz(data []byte) (io.Reader, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	// Archive structure: spotify-dl-go-v{version}-{os}-{arch}/spotify-dl-go
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if header.Typeflag == tar.TypeDir {
			continue
		}

		if strings.HasSuffix(header.Name, "/"+binaryName) {
			var buf bytes.Buffer
			if _, err := io.Copy(&buf, tr); err != nil {
				return nil, err
			}
			return bytes.NewReader(buf.Bytes()), nil
		}
	}

	return nil, fmt.Errorf("binary not found in archive")
}

// compareVersions compares two semantic version strings
// Returns: 1 if v1 > v2, -1 if v1 < v2, 0 if equal
func compareVersions(v1, v2 string) int {
	v1 = strings.TrimPrefix(v1, "v")
	v2 = strings.TrimPrefix(v2, "v")

	// dev builds always count as older than any release
	if strings.HasPrefix(v1, "dev") {
		return -1
	}
	if strings.HasPrefix(v2, "dev") {
		return 1
	}

	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		var n1, n2 int
		if i < len(parts1) {
			fmt.Sscanf(parts1[i], "%d", &n1)
		}
		if i < len(parts2) {
			fmt.Sscanf(parts2[i], "%d", &n2)
		}

		if n1 > n2 {
			return 1
		}
		if n1 < n2 {
			return -1
		}
	}

	return 0
}
