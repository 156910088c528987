package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	jsonwriter "github.com/ntce/share-front/internal/json"
	"github.com/ntce/share-front/internal/linkedin"
	"github.com/ntce/share-front/internal/log"
	"github.com/ntce/share-front/internal/session"
)

// maxPublishBody bounds the request body; base64 of an 8MB image plus caption
const maxPublishBody = 12 << 20

// Publisher abstracts the three-phase media publish protocol
type Publisher interface {
	Publish(ctx context.Context, accessToken, personURN, caption string, image []byte, mimeType string) (linkedin.PostResult, error)
}

// PublishHandlers serves the media publish endpoint
type PublishHandlers struct {
	sessions  *session.Store
	publisher Publisher
}

// NewPublishHandlers creates publish handlers with dependency injection
func NewPublishHandlers(sessions *session.Store, publisher Publisher) *PublishHandlers {
	return &PublishHandlers{
		sessions:  sessions,
		publisher: publisher,
	}
}

type publishRequest struct {
	Caption     string `json:"caption"`
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

type publishResponse struct {
	Success bool   `json:"success"`
	PostURL string `json:"postUrl"`
	PostID  string `json:"postId"`
}

// PublishHandler validates the session and body, then runs the publish
// protocol. Authentication fails closed before any upstream call.
func (h *PublishHandlers) PublishHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonwriter.WriteMethodNotAllowed(w)
		return
	}

	sess, err := h.sessions.Read(r)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			// Corrupted or tampered session: clear it so the next visit
			// forces re-authorization
			h.sessions.Clear(w)
			jsonwriter.WriteUnauthorized(w, "Invalid authentication state")
			return
		}
		jsonwriter.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req publishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPublishBody)).Decode(&req); err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Caption == "" || req.ImageBase64 == "" {
		jsonwriter.WriteBadRequest(w, "Missing caption or image")
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		jsonwriter.WriteBadRequest(w, "Invalid image encoding")
		return
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	if !strings.HasPrefix(mimeType, "image/") {
		jsonwriter.WriteUnsupportedMediaType(w, "Unsupported media type")
		return
	}

	result, err := h.publisher.Publish(r.Context(), sess.AccessToken, sess.PersonURN, req.Caption, image, mimeType)
	if err != nil {
		h.writePublishError(w, err)
		return
	}

	_ = jsonwriter.Write(w, publishResponse{
		Success: true,
		PostURL: result.PostURL,
		PostID:  result.PostID,
	})
}

func (h *PublishHandlers) writePublishError(w http.ResponseWriter, err error) {
	var rateLimited *linkedin.RateLimitedError

	switch {
	case errors.Is(err, linkedin.ErrAuthExpired):
		h.sessions.Clear(w)
		jsonwriter.WriteUnauthorized(w, "Authentication expired")

	case errors.As(err, &rateLimited):
		jsonwriter.WriteRateLimited(w, rateLimited.RetryAfter, "Rate limited. Please try again later.")

	case errors.Is(err, linkedin.ErrUploadRegistration):
		jsonwriter.WriteInternalServerError(w, "Failed to register upload")

	case errors.Is(err, linkedin.ErrUpload):
		jsonwriter.WriteInternalServerError(w, "Failed to upload image")

	case errors.Is(err, linkedin.ErrPostCreation):
		jsonwriter.WriteInternalServerError(w, "Failed to create post")

	default:
		log.LogError("Unexpected publish error: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal server error")
	}
}
