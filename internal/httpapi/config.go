package httpapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"g2pd/internal/common/fsutil"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// requestTimeout bounds /convert and /v1/g2p work, in seconds.
// Zero means no additional timeout beyond server/connection timeouts.
var requestTimeout = int64(0)

// SetRequestTimeoutSeconds sets the request timeout in seconds (0 disables).
func SetRequestTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	requestTimeout = sec
}

func requestTimeoutDuration() time.Duration { return time.Duration(requestTimeout) * time.Second }

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty
// methods/headers fall back to GET, POST, OPTIONS and Content-Type,
// X-Log-Level.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// allowedRoot confines /convert manifest and output paths. Empty allows any
// path the process can reach.
var allowedRoot string

// SetAllowedRoot restricts /convert to paths under dir. An empty dir lifts
// the restriction.
func SetAllowedRoot(dir string) error {
	if strings.TrimSpace(dir) == "" {
		allowedRoot = ""
		return nil
	}
	abs, err := fsutil.Resolve(dir)
	if err != nil {
		return err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fmt.Errorf("allowed root: %w", err)
	}
	allowedRoot = resolved
	return nil
}

// checkAllowedPath rejects p when it resolves outside allowedRoot. Symlinks
// are followed through the deepest existing ancestor, so a link inside the
// root cannot point the request elsewhere.
func checkAllowedPath(p string) error {
	if allowedRoot == "" || p == "" {
		return nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return err
	}
	resolved, err := resolveExisting(abs)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(allowedRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the allowed root", p)
	}
	return nil
}

func resolveExisting(p string) (string, error) {
	var rest []string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p, nil
		}
		rest = append([]string{filepath.Base(p)}, rest...)
		p = parent
	}
}
