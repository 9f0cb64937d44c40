package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"adsnap-server/internal/middleware"
	"adsnap-server/pkg/zip"
)

// maxDownloadBytes caps a single fetched result image.
const maxDownloadBytes = 32 << 20

// Download fetches one result image, caching it in the file store so
// repeated downloads of the same URL hit the disk instead of the CDN.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		rawURL = st.EditedImage()
	}
	if rawURL == "" {
		a.error(w, http.StatusBadRequest, "invalid_input", "no url given and nothing on display")
		return
	}
	if !validResultURL(rawURL) {
		a.error(w, http.StatusBadRequest, "invalid_input", "url must be absolute http(s)")
		return
	}

	key := downloadKey(st.ID(), rawURL)
	if data, err := a.Store.Read(r.Context(), key); err == nil {
		serveImage(w, rawURL, data)
		return
	} else if !errors.Is(err, os.ErrNotExist) {
		a.Logger.Warn().Err(err).Str("key", key).Msg("download cache read failed")
	}

	data, err := a.fetchImage(r, rawURL)
	if err != nil {
		a.error(w, http.StatusBadGateway, "download_failed", "could not fetch the result image")
		return
	}
	if _, err := a.Store.Write(r.Context(), key, data); err != nil {
		a.Logger.Warn().Err(err).Str("key", key).Msg("download cache write failed")
	}
	serveImage(w, rawURL, data)
}

// Export bundles the session gallery, or the single displayed image, into a
// zip archive.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	st, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	urls := st.Gallery()
	if len(urls) == 0 {
		if display := st.EditedImage(); display != "" {
			urls = []string{display}
		}
	}
	if len(urls) == 0 {
		a.error(w, http.StatusBadRequest, "invalid_input", "session has no results to export")
		return
	}

	var assets []zip.Asset
	for i, rawURL := range urls {
		if !validResultURL(rawURL) {
			continue
		}
		key := downloadKey(st.ID(), rawURL)
		data, err := a.Store.Read(r.Context(), key)
		if err != nil {
			data, err = a.fetchImage(r, rawURL)
			if err != nil {
				a.Logger.Warn().Err(err).Str("url", rawURL).Msg("export fetch failed")
				continue
			}
			if _, err := a.Store.Write(r.Context(), key, data); err != nil {
				a.Logger.Warn().Err(err).Str("key", key).Msg("export cache write failed")
			}
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("image-%d%s", i+1, imageExtension(rawURL)),
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusBadGateway, "download_failed", "no result image could be fetched")
		return
	}

	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("archive build failed")
		a.error(w, http.StatusInternalServerError, "internal", "could not build the archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="gallery.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) fetchImage(r *http.Request, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}
	return data, nil
}

func validResultURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func downloadKey(sessionID, rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "sessions/" + sessionID + "/" + hex.EncodeToString(sum[:8]) + imageExtension(rawURL)
}

func imageExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".png"
	}
	path := strings.ToLower(u.Path)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".webp"} {
		if strings.HasSuffix(path, ext) {
			return ext
		}
	}
	return ".png"
}

func serveImage(w http.ResponseWriter, rawURL string, data []byte) {
	switch imageExtension(rawURL) {
	case ".jpg", ".jpeg":
		w.Header().Set("Content-Type", "image/jpeg")
	case ".webp":
		w.Header().Set("Content-Type", "image/webp")
	default:
		w.Header().Set("Content-Type", "image/png")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
