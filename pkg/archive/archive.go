/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package archive pkg/archive/archive.go packs a storage folder into a
// length-prefixed zip stream and unpacks it on the other side.
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// MaxArchiveSize bounds what Receive accepts.
const MaxArchiveSize = 1 << 30

var (
	ErrArchiveTooLarge = errors.New("archive exceeds maximum size")
	ErrUnsafePath      = errors.New("archive entry escapes destination")
)

// Zip writes every regular file below dir into a zip archive, with paths
// relative to dir.
func Zip(dir string, w io.Writer) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err = zw.Create(name + "/")
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		return addFile(zw, path, name)
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	return zw.Close()
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, f)

	return err
}

// Send zips dir and writes it as a big-endian uint32 length then the bytes.
func Send(w io.Writer, dir string) (int, error) {
	var buf bytes.Buffer

	if err := Zip(dir, &buf); err != nil {
		return 0, err
	}

	if buf.Len() > MaxArchiveSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrArchiveTooLarge, buf.Len())
	}

	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(buf.Len()))

	if _, err := w.Write(size[:]); err != nil {
		return 0, fmt.Errorf("failed to write archive size: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, fmt.Errorf("failed to write archive: %w", err)
	}

	return n, nil
}

// Receive reads a stream produced by Send and extracts it below dest.
func Receive(r io.Reader, dest string) error {
	var size [4]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return fmt.Errorf("failed to read archive size: %w", err)
	}

	n := binary.BigEndian.Uint32(size[:])
	if n > MaxArchiveSize {
		return fmt.Errorf("%w: %d bytes", ErrArchiveTooLarge, n)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	return Unzip(bytes.NewReader(data), int64(n), dest)
}

// Unzip extracts an archive below dest, refusing entries that would land
// outside of it.
func Unzip(r io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}

		if strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}

			continue
		}

		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}

	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}

	return dst.Close()
}
