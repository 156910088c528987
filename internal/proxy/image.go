package proxy

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsonwriter "github.com/ntce/share-front/internal/json"
	"github.com/ntce/share-front/internal/log"
)

// ImageHandler is a narrow reverse proxy for share-preview images. Crawlers
// that refuse cross-origin images fetch them through here instead; only
// allow-listed hosts are reachable.
type ImageHandler struct {
	allowedHosts map[string]bool
	httpClient   *http.Client
}

// NewImageHandler creates the proxy for the given upstream hosts
func NewImageHandler(allowedHosts []string) *ImageHandler {
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[h] = true
	}
	return &ImageHandler{
		allowedHosts: hosts,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w)
		return
	}

	raw := r.URL.Query().Get("u")
	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		jsonwriter.WriteBadRequest(w, "Missing or invalid URL")
		return
	}
	if !h.allowedHosts[target.Hostname()] {
		jsonwriter.WriteError(w, http.StatusForbidden, "Host not allowed")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		jsonwriter.WriteBadRequest(w, "Missing or invalid URL")
		return
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		log.LogWarnWithFields("imgproxy", "Upstream fetch failed", map[string]any{
			"host":  target.Hostname(),
			"error": err.Error(),
		})
		jsonwriter.WriteError(w, http.StatusBadGateway, "Upstream error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		jsonwriter.WriteError(w, http.StatusBadGateway, "Upstream error")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		jsonwriter.WriteUnsupportedMediaType(w, "Unsupported media type")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=604800, immutable")
	w.Header().Set("Content-Disposition", "inline")
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.LogDebugWithFields("imgproxy", "Streaming interrupted", map[string]any{
			"error": err.Error(),
		})
	}
}
