package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactingWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewRedactingWriter(&buf, "/home/user/archive")

	msg := "Fetched https://www.tiktok.com/@somecreator/video/7123456789012345678 -> /home/user/archive/media/7123456789012345678.mp4"
	n, err := w.Write([]byte(msg))
	require.NoError(t, err)
	assert.Equal(t, len(msg), n, "reported length must match the input")

	out := buf.String()
	assert.NotContains(t, out, "7123456789012345678")
	assert.NotContains(t, out, "@somecreator")
	assert.NotContains(t, out, "/home/user/archive")
	assert.Contains(t, out, "[POST_ID]")
	assert.Contains(t, out, "[ACCOUNT]")
	assert.Contains(t, out, "[ARCHIVE_PATH]")
}

func TestRedactingWriterLeavesShortNumbersAlone(t *testing.T) {
	var buf bytes.Buffer
	w := NewRedactingWriter(&buf, "")

	_, err := w.Write([]byte("retry 3 of 5 after 429"))
	require.NoError(t, err)
	assert.Equal(t, "retry 3 of 5 after 429", buf.String())
}
