package sync

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
)

// emptyFileHash is the fixed MD5 digest of zero bytes, used by the dedup
// engine to skip the empty-file group (spec §4.6 step 1).
const emptyFileHash = "d41d8cd98f00b204e9800998ecf8427e"

// utf8BOM is the three-byte UTF-8 byte order mark stripped before hashing.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalizeContentForHash replaces CRLF with LF and strips a leading UTF-8
// BOM, per spec §4.1 compute_content_hash.
func normalizeContentForHash(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)

	return bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
}

// computeContentHash reads the file at absPath, normalizes its content, and
// returns the hex MD5 digest. Returns an error if the file cannot be read.
func computeContentHash(absPath string) (string, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("computing content hash for %s: %w", absPath, err)
	}

	sum := md5.Sum(normalizeContentForHash(data))

	return hex.EncodeToString(sum[:]), nil
}

// isEmptyFileHash reports whether h is the fixed digest of zero bytes.
func isEmptyFileHash(h string) bool {
	return h == emptyFileHash
}
