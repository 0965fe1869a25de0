// Package export packages a stored session into a shareable ZIP
// bundle: the raw session snapshot, its computed statistics, the host
// description, and a manifest with per-file checksums so recipients
// can verify integrity.
package export

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"resmon/internal/logging"
	"resmon/internal/session"
	"resmon/internal/stats"
)

// Manifest describes the bundle contents
type Manifest struct {
	Timestamp string         `json:"timestamp"`
	Host      string         `json:"host"`
	SessionID string         `json:"session_id"`
	Version   string         `json:"resmon_version"`
	Files     []ManifestFile `json:"files"`
}

// ManifestFile is one entry in the bundle manifest
type ManifestFile struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
}

// Packager builds session bundles
type Packager struct {
	version string
	logger  *logging.Logger
}

// NewPackager creates a packager stamping bundles with the given
// application version.
func NewPackager(version string, logger *logging.Logger) *Packager {
	return &Packager{version: version, logger: logger}
}

// DefaultOutputPath derives the bundle filename from the session ID
func DefaultOutputPath(sessionID string) string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("resmon-%s-%s.zip", sessionID, timestamp)
}

// CreateBundle writes the ZIP for one session and returns its path
func (p *Packager) CreateBundle(sess *session.Session, outputPath string) (string, error) {
	p.logger.Info("export.bundle.start", "Creating session bundle", map[string]interface{}{
		"session_id": sess.ID,
		"output":     outputPath,
	})

	files := make(map[string][]byte)

	sessionJSON, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	files["session.json"] = sessionJSON

	if summary := stats.Compute(sess.Measurements); summary != nil {
		statsJSON, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode statistics: %w", err)
		}
		files["stats.json"] = statsJSON
	}

	systemJSON, err := json.MarshalIndent(sess.System, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode system info: %w", err)
	}
	files["system.json"] = systemJSON

	manifest := p.buildManifest(sess.ID, files)
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	files["manifest.json"] = manifestJSON

	if err := writeZIP(outputPath, files); err != nil {
		return "", fmt.Errorf("failed to write bundle: %w", err)
	}

	p.logger.Info("export.bundle.complete", "Session bundle created", map[string]interface{}{
		"session_id": sess.ID,
		"output":     outputPath,
		"file_count": len(files),
	})

	return outputPath, nil
}

func (p *Packager) buildManifest(sessionID string, files map[string][]byte) *Manifest {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	manifest := &Manifest{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Host:      hostname,
		SessionID: sessionID,
		Version:   p.version,
		Files:     make([]ManifestFile, 0, len(files)),
	}

	for path, content := range files {
		manifest.Files = append(manifest.Files, ManifestFile{
			Path:      path,
			SizeBytes: int64(len(content)),
			SHA256:    checksum(content),
		})
	}
	return manifest
}

func writeZIP(path string, files map[string][]byte) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(out)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			zw.Close()
			out.Close()
			return err
		}
		if _, err := w.Write(content); err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
