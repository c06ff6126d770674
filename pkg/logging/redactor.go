// Package logging provides log output helpers for the archiver.
package logging

import (
	"io"
	"regexp"
	"strings"
)

var (
	// postIDRegex matches long numeric strings typical of TikTok post IDs.
	postIDRegex = regexp.MustCompile(`\b\d{18,}\b`)
	// usernameRegex matches the @user segment of post URLs.
	usernameRegex = regexp.MustCompile(`@[\w.\-]+`)
)

// RedactingWriter is an io.Writer that redacts sensitive information before
// writing to an underlying writer. It keeps logs shareable for bug reports.
type RedactingWriter struct {
	underlying   io.Writer
	replacements map[*regexp.Regexp]string
}

// NewRedactingWriter creates a new writer that redacts post IDs, account
// names, and the archive path.
func NewRedactingWriter(w io.Writer, archivePath string) io.Writer {
	replacements := map[*regexp.Regexp]string{
		postIDRegex:   "[POST_ID]",
		usernameRegex: "[ACCOUNT]",
	}

	if archivePath != "" {
		// Quote meta characters in the path and match either separator style.
		sanitizedPath := strings.ReplaceAll(regexp.QuoteMeta(archivePath), `\\`, `[/\\]`)
		replacements[regexp.MustCompile(sanitizedPath)] = "[ARCHIVE_PATH]"
	}

	return &RedactingWriter{
		underlying:   w,
		replacements: replacements,
	}
}

// Write redacts the input byte slice and writes it to the underlying writer.
// It reports the original length to satisfy the io.Writer contract even when
// the redacted message is shorter.
func (rw *RedactingWriter) Write(p []byte) (n int, err error) {
	originalLen := len(p)
	message := string(p)
	for re, repl := range rw.replacements {
		message = re.ReplaceAllString(message, repl)
	}

	if _, err = rw.underlying.Write([]byte(message)); err != nil {
		return 0, err
	}
	return originalLen, nil
}
