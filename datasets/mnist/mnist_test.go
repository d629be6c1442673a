package mnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func idxImages(count int) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, 16)
	binary.BigEndian.PutUint32(hdr, imagesMagic)
	binary.BigEndian.PutUint32(hdr[4:], uint32(count))
	binary.BigEndian.PutUint32(hdr[8:], ImgSize)
	binary.BigEndian.PutUint32(hdr[12:], ImgSize)
	buf.Write(hdr)
	for i := 0; i < count*ImgPixels; i++ {
		buf.WriteByte(byte(i))
	}
	return buf.Bytes()
}

func idxLabels(count int) []byte {
	var buf bytes.Buffer
	hdr := make([]byte, 8)
	binary.BigEndian.PutUint32(hdr, labelsMagic)
	binary.BigEndian.PutUint32(hdr[4:], uint32(count))
	buf.Write(hdr)
	for i := 0; i < count; i++ {
		buf.WriteByte(byte(i % NumClasses))
	}
	return buf.Bytes()
}

func TestParseImages(t *testing.T) {
	images, err := parseImages(idxImages(3))
	require.NoError(t, err)
	require.Len(t, images, 3)
	require.Len(t, images[0], ImgPixels)
	require.Equal(t, byte(0), images[0][0])
	require.Equal(t, byte(ImgPixels%256), images[1][0])
}

func TestParseImagesRejectsBadMagic(t *testing.T) {
	data := idxImages(1)
	data[0] = 0xff
	_, err := parseImages(data)
	require.Error(t, err)
}

func TestParseImagesRejectsTruncated(t *testing.T) {
	data := idxImages(2)
	_, err := parseImages(data[:len(data)-1])
	require.Error(t, err)
}

func TestParseLabels(t *testing.T) {
	labels, err := parseLabels(idxLabels(12))
	require.NoError(t, err)
	require.Len(t, labels, 12)
	require.Equal(t, byte(3), labels[3])
}

func TestLoadMissingFileWithoutDownload(t *testing.T) {
	_, err := Load(t.TempDir(), true, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestLoadRejectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	// plant syntactically valid but non-canonical files under the real names
	for name, raw := range map[string][]byte{
		trainSetImg: idxImages(2),
		trainSetVal: idxLabels(2),
	} {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write(raw)
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644))
	}
	_, err := Load(dir, true, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "checksum mismatch")
}
