/*
 * metadata.go, part of ample.
 *
 * Copyright 2026 The ample authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package ensemble

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/rmera/ample"
)

//File names in the working directory of a run.
const (
	MetadataFile = "ensembles.json"
	SentinelFile = "ensemble.ok"
	zstdSuffix   = ".zst"
)

//zstdReadCloser closes the zstd decoder and the file under it.
type zstdReadCloser struct {
	*zstd.Decoder
	f *os.File
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

//WriteRecords writes the records as JSON to path. If compress is true, the output
//is zstd-compressed and ".zst" is appended to path. It returns the name of the file written.
func WriteRecords(path string, recs []*ample.Record, compress bool) (string, error) {
	if compress && !strings.HasSuffix(path, zstdSuffix) {
		path += zstdSuffix
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var w io.WriteCloser = nopCloser{f}
	if compress {
		if w, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBestCompression)); err != nil {
			return "", err
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		w.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return path, f.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

//ReadRecords reads records written by WriteRecords. Files ending in ".zst" are decompressed.
func ReadRecords(path string) ([]*ample.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var r io.ReadCloser = f
	if strings.HasSuffix(path, zstdSuffix) {
		d, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		r = zstdReadCloser{d, f}
	}
	defer r.Close()
	recs := make([]*ample.Record, 0)
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}

//FindRecords returns the metadata file in dir, compressed or not.
func FindRecords(dir string) (string, error) {
	for _, v := range []string{MetadataFile, MetadataFile + zstdSuffix} {
		p := filepath.Join(dir, v)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no %s in %s", MetadataFile, dir)
}

//WriteSentinel marks the ensembling in workdir as successful.
func WriteSentinel(workdir string, n int) error {
	return os.WriteFile(filepath.Join(workdir, SentinelFile), []byte(fmt.Sprintf("%d ensembles\n", n)), 0o644)
}

//Succeeded reports whether the ensembling in workdir finished with at least one ensemble.
func Succeeded(workdir string) bool {
	_, err := os.Stat(filepath.Join(workdir, SentinelFile))
	return err == nil
}
