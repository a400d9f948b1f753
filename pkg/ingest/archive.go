package ingest

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/dataspace/mirror/pkg/models"
)

type format string

const (
	formatNone format = ""
	formatZip  format = "zip"
	formatTar  format = "tar"
)

var gzipMagic = []byte{0x1f, 0x8b, 0x08}

// isGzipName reports whether name carries a gzip-style extension.
func isGzipName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".tgz")
}

func hasGzipMagic(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}

// archiveFormat classifies a file name. ".tgz" and ".tar.gz" are tar.
func archiveFormat(name string) format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZip
	case strings.HasSuffix(lower, ".tar"), strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return formatTar
	}
	return formatNone
}

// decompress gunzips data when name looks like gzip and the magic bytes
// confirm it. Content a transport already decoded passes through.
func decompress(name string, data []byte) ([]byte, error) {
	if !isGzipName(name) || !hasGzipMagic(data) {
		return data, nil
	}
	return gunzip(data)
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return out, nil
}

// member is a file extracted from an archive, with its content.
type member struct {
	file *models.File
	data []byte
}

func memberFile(archive *models.File, n int, entry string, size int64) *models.File {
	return &models.File{
		ID:          archive.ID.WithItem(fmt.Sprintf("%s:%d", archive.ID.ItemID(), n)),
		Name:        archive.Name + "/" + entry,
		ContentType: mime.TypeByExtension(path.Ext(entry)),
		Size:        size,
		Origin:      archive.Name,
	}
}

// expand extracts the members of an archive. Members are not expanded
// again, even when they are archives themselves.
func expand(archive *models.File, f format, data []byte) ([]member, error) {
	switch f {
	case formatZip:
		return expandZip(archive, data)
	case formatTar:
		return expandTar(archive, data)
	}
	return nil, fmt.Errorf("%s is not an archive", archive.Name)
}

// expandZip extracts every non-directory entry. n counts extracted entries.
func expandZip(archive *models.File, data []byte) ([]member, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("zip %s: %w", archive.Name, err)
	}

	var out []member
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("zip %s: open %s: %w", archive.Name, zf.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("zip %s: read %s: %w", archive.Name, zf.Name, err)
		}
		out = append(out, member{file: memberFile(archive, len(out), zf.Name, int64(len(body))), data: body})
	}
	return out, nil
}

// expandTar streams a tar, gzip-wrapped or not. Directories, non-regular
// and empty entries are skipped.
func expandTar(archive *models.File, data []byte) ([]member, error) {
	var r io.Reader = bytes.NewReader(data)
	if hasGzipMagic(data) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("tar %s: %w", archive.Name, err)
		}
		defer zr.Close()
		r = zr
	}

	tr := tar.NewReader(r)
	var out []member
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tar %s: %w", archive.Name, err)
		}
		if hdr.Typeflag != tar.TypeReg || hdr.Size == 0 {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("tar %s: read %s: %w", archive.Name, hdr.Name, err)
		}
		out = append(out, member{file: memberFile(archive, len(out), hdr.Name, int64(len(body))), data: body})
	}
	return out, nil
}
