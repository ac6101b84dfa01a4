package sync

import (
	"runtime"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// longPathThreshold is the length beyond which some platforms (notably
// Windows, without long-path opt-in) reject absolute paths outright.
// Chosen conservatively below the traditional 260-character MAX_PATH limit
// per spec §9 ("a threshold around 240 characters").
const longPathThreshold = 240

// longPathPrefix is prepended to absolute paths that exceed longPathThreshold
// to opt out of the platform's default path-length limit. This is a pure
// boundary transform: callers never see the escaped form propagate into the
// metadata store or any relative path.
const longPathPrefix = `\\?\`

// normalizeRelPath converts a possibly platform-specific relative path into
// the canonical form used as a Metadata Store key: forward slashes, no
// leading slash, no trailing slash, NFC-normalized (spec §3 "Relative
// path"). NFC normalization is what lets a macOS filesystem's NFD-decomposed
// names (e.g. "e" + combining acute) join against the cloud scanner's
// NFC-composed names for the same document (spec §4.5 step 3's "union of
// paths"). Callers keep the original, un-normalized name for filesystem I/O;
// only the map key seen by the rest of the core is normalized.
func normalizeRelPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.Trim(p, "/")
	p = norm.NFC.String(p)

	return p
}

// longPathSafe prefixes an absolute path with the Windows long-path escape
// form when it exceeds longPathThreshold. On platforms without such a limit
// this is a harmless no-op path the rest of the core never has to special-case,
// since it is only applied at the filesystem-call boundary in the scanner and
// writer, never stored.
func longPathSafe(absPath string) string {
	if runtime.GOOS != "windows" || len(absPath) <= longPathThreshold {
		return absPath
	}

	if strings.HasPrefix(absPath, longPathPrefix) {
		return absPath
	}

	return longPathPrefix + absPath
}
