package main

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const zstdScheme = "zstd"

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// newCompressedSink opens the file named by the URL path for zstd
// compressed logging. A file that already holds zstd frames gets new
// frames appended; anything else is truncated.
func newCompressedSink(u *url.URL) (zap.Sink, error) {
	filePath := u.Path
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if isValidZstdFile(filePath) {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &compressedSink{file: file, encoder: encoder}, nil
}

// isValidZstdFile reports whether the file starts with the zstd magic
// number.
func isValidZstdFile(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	header := make([]byte, len(zstdMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		return false
	}
	return bytes.Equal(header, zstdMagic)
}

type compressedSink struct {
	file    *os.File
	encoder *zstd.Encoder
}

// Write reports len(p) on success, not the compressed size.
func (s *compressedSink) Write(p []byte) (int, error) {
	if _, err := s.encoder.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *compressedSink) Sync() error {
	if err := s.encoder.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close finishes the current frame. The file is closed even when the
// encoder fails.
func (s *compressedSink) Close() error {
	encErr := s.encoder.Close()
	fileErr := s.file.Close()
	if encErr != nil {
		return encErr
	}
	return fileErr
}
