// Fetches the native libraries that the ORT build of daybook links
// against: the ONNX Runtime shared library and the HuggingFace
// tokenizers static library, matched to the current platform.
//
// Required env: ORT_VERSION        (e.g. "1.23.2")
// Optional env: ORT_LIB_DIR        (default "./lib")
//               TOKENIZERS_VERSION (default "1.24.0")
//
// Usage: ORT_VERSION=1.23.2 go run ./tools/download-ort
package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

func main() {
	ortVersion := os.Getenv("ORT_VERSION")
	if ortVersion == "" {
		fmt.Fprintln(os.Stderr, "ORT_VERSION env var is required")
		os.Exit(1)
	}

	tokVersion := os.Getenv("TOKENIZERS_VERSION")
	if tokVersion == "" {
		tokVersion = "1.24.0"
	}

	libDir := os.Getenv("ORT_LIB_DIR")
	if libDir == "" {
		libDir = "./lib"
	}

	if err := os.MkdirAll(libDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", libDir, err)
		os.Exit(1)
	}

	if err := fetchORT(ortVersion, libDir); err != nil {
		fmt.Fprintf(os.Stderr, "onnxruntime: %v\n", err)
		os.Exit(1)
	}

	if err := fetchTokenizers(tokVersion, libDir); err != nil {
		fmt.Fprintf(os.Stderr, "tokenizers: %v\n", err)
		os.Exit(1)
	}
}

func fetchORT(version, libDir string) error {
	archiveName, libraryName, err := ortArtifact(version)
	if err != nil {
		return err
	}

	libPath := filepath.Join(libDir, libraryName)
	if _, statErr := os.Stat(libPath); statErr == nil {
		fmt.Printf("%s already present, skipping\n", libPath)
		return nil
	}

	url := fmt.Sprintf(
		"https://github.com/microsoft/onnxruntime/releases/download/v%s/%s",
		version, archiveName,
	)

	fmt.Printf("fetching onnxruntime %s from %s\n", version, url)
	if err := fetchArchive(url, libDir, libraryName); err != nil {
		return err
	}

	fmt.Printf("installed %s\n", libPath)
	return nil
}

func fetchTokenizers(version, libDir string) error {
	libPath := filepath.Join(libDir, "libtokenizers.a")
	if _, statErr := os.Stat(libPath); statErr == nil {
		fmt.Printf("%s already present, skipping\n", libPath)
		return nil
	}

	archiveName, err := tokenizersArtifact()
	if err != nil {
		return err
	}

	url := fmt.Sprintf(
		"https://github.com/daulet/tokenizers/releases/download/v%s/%s",
		version, archiveName,
	)

	fmt.Printf("fetching tokenizers %s from %s\n", version, url)
	if err := fetchArchive(url, libDir, "libtokenizers.a"); err != nil {
		return err
	}

	fmt.Printf("installed %s\n", libPath)
	return nil
}

func ortArtifact(version string) (archive string, library string, err error) {
	switch platform := runtime.GOOS + "/" + runtime.GOARCH; platform {
	case "linux/amd64":
		return fmt.Sprintf("onnxruntime-linux-x64-%s.tgz", version), "libonnxruntime.so", nil
	case "linux/arm64":
		return fmt.Sprintf("onnxruntime-linux-aarch64-%s.tgz", version), "libonnxruntime.so", nil
	case "darwin/arm64":
		return fmt.Sprintf("onnxruntime-osx-arm64-%s.tgz", version), "libonnxruntime.dylib", nil
	case "darwin/amd64":
		return fmt.Sprintf("onnxruntime-osx-x86_64-%s.tgz", version), "libonnxruntime.dylib", nil
	default:
		return "", "", fmt.Errorf("no onnxruntime release artifact for %s", platform)
	}
}

func tokenizersArtifact() (string, error) {
	switch platform := runtime.GOOS + "/" + runtime.GOARCH; platform {
	case "linux/amd64":
		return "libtokenizers.linux-amd64.tar.gz", nil
	case "linux/arm64":
		return "libtokenizers.linux-arm64.tar.gz", nil
	case "darwin/arm64":
		return "libtokenizers.darwin-arm64.tar.gz", nil
	case "darwin/amd64":
		return "libtokenizers.darwin-x86_64.tar.gz", nil
	default:
		return "", fmt.Errorf("no tokenizers release artifact for %s", platform)
	}
}

// fetchArchive downloads a .tgz and extracts the named library into libDir,
// retrying transient failures with doubling delays.
func fetchArchive(url, libDir, filename string) error {
	delay := 2 * time.Second
	var err error
	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 {
			fmt.Fprintf(os.Stderr, "retrying in %s: %v\n", delay, err)
			time.Sleep(delay)
			delay *= 2
		}
		if err = fetchArchiveOnce(url, libDir, filename); err == nil {
			return nil
		}
	}
	return err
}

func fetchArchiveOnce(url, libDir, filename string) error {
	resp, err := http.Get(url) //nolint:gosec
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	return extractLibrary(resp.Body, libDir, filename)
}

func extractLibrary(body io.Reader, libDir, filename string) error {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close() //nolint:errcheck

	// Releases ship versioned names like libonnxruntime.1.23.2.dylib,
	// so match on the stem as well as the exact name.
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}

		// Regular files only; the archives also carry symlinks.
		if header.Typeflag != tar.TypeReg {
			continue
		}

		base := filepath.Base(header.Name)
		if base != filename && !strings.HasPrefix(base, stem+".") {
			continue
		}

		return writeLibrary(filepath.Join(libDir, filename), tr)
	}

	return fmt.Errorf("%s not found in archive", filename)
}

func writeLibrary(path string, src io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return out.Close()
}
