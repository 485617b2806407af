// Package format validates uploaded audio and converts it to the
// canonical encoding the transcription engine accepts: 16 kHz mono
// 16-bit PCM WAV.
package format

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillsenselab/scribe/internal/apperr"
	"github.com/skillsenselab/scribe/internal/config"
	"github.com/skillsenselab/scribe/internal/logger"
	"github.com/skillsenselab/scribe/internal/process"
)

// SniffLen is how many leading bytes Validate needs for content sniffing.
const SniffLen = 16

// CanonicalExt is the extension of the canonical encoding.
const CanonicalExt = ".wav"

// convertGrace is how long a canceled conversion gets to exit on
// SIGTERM before ffmpeg is killed outright.
const convertGrace = 10 * time.Second

// Normalizer validates uploads and converts them to canonical form.
type Normalizer struct {
	cfg        config.FormatsConfig
	extensions map[string]bool
	ffmpeg     string
	log        *logger.Logger
}

// New creates a Normalizer from the formats configuration.
func New(cfg config.FormatsConfig, log *logger.Logger) *Normalizer {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Normalizer{
		cfg:        cfg,
		extensions: exts,
		ffmpeg:     "ffmpeg",
		log:        log.WithComponent("format"),
	}
}

// Extensions returns the supported extension set in configured order.
func (n *Normalizer) Extensions() []string {
	return n.cfg.Extensions
}

// MaxFileSize returns the upload size limit in bytes.
func (n *Normalizer) MaxFileSize() int64 {
	return n.cfg.MaxFileSizeBytes()
}

// Validate checks the declared name against the supported extension set
// and sniffs the leading bytes for a plausible container signature. It
// never decodes the file.
func (n *Normalizer) Validate(declaredName string, head []byte) error {
	ext := strings.ToLower(filepath.Ext(declaredName))
	if ext == "" {
		return apperr.UnsupportedFormat(declaredName, "file has no extension")
	}
	if !n.extensions[ext] {
		return apperr.UnsupportedFormat(declaredName, fmt.Sprintf("extension %s is not supported", ext))
	}
	if len(head) < 4 {
		return apperr.UnsupportedFormat(declaredName, "file is too small to be audio")
	}
	if !sniff(ext, head) {
		return apperr.UnsupportedFormat(declaredName, fmt.Sprintf("content does not look like %s audio", ext))
	}
	return nil
}

// ToCanonical converts the audio at path to canonical form. WAV input
// passes through untouched (converted=false). Other formats are
// converted through ffmpeg into a temp file the caller must remove.
func (n *Normalizer) ToCanonical(ctx context.Context, path string) (string, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !n.extensions[ext] {
		return "", false, apperr.UnsupportedFormat(filepath.Base(path), fmt.Sprintf("extension %s is not supported", ext))
	}
	if ext == CanonicalExt {
		return path, false, nil
	}

	out, err := os.CreateTemp("", "scribe-canonical-*"+CanonicalExt)
	if err != nil {
		return "", false, fmt.Errorf("create canonical temp file: %w", err)
	}
	outPath := out.Name()
	out.Close()

	// ffmpeg -y -i input -ac 1 -ar 16000 -f wav output
	result, err := process.Run(ctx, process.Command{
		Binary: n.ffmpeg,
		Args: []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", path,
			"-ac", "1", "-ar", "16000",
			"-f", "wav",
			outPath,
		},
		GracePeriod: convertGrace,
	})
	if err != nil {
		os.Remove(outPath)
		if result != nil && len(result.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(result.Stderr)))
		}
		return "", false, apperr.Conversion(path, err)
	}

	n.log.Debug("Converted to canonical form", map[string]interface{}{
		"source": path,
		"output": outPath,
	})
	return outPath, true, nil
}

// sniff checks the leading bytes for the container signature matching ext.
func sniff(ext string, head []byte) bool {
	switch ext {
	case ".wav":
		return len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE"))
	case ".mp3":
		// ID3 tag or a bare MPEG frame sync.
		return bytes.HasPrefix(head, []byte("ID3")) ||
			(len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0)
	case ".ogg":
		return bytes.HasPrefix(head, []byte("OggS"))
	case ".flac":
		return bytes.HasPrefix(head, []byte("fLaC"))
	case ".m4a":
		return len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp"))
	case ".webm":
		return bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3})
	default:
		// Unknown-to-the-sniffer extensions pass on the extension check alone.
		return true
	}
}
