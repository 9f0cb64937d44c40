// Package zip bundles gallery images into a single downloadable archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Asset is one file inside the archive.
type Asset struct {
	Filename string
	Data     []byte
}

// ArchiveAssets builds an in-memory zip of the given assets.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			return nil, fmt.Errorf("zip: create entry %s: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write entry %s: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
