package linkedin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ntce/share-front/internal/log"
)

const (
	feedshareRecipe = "urn:li:digitalmediaRecipe:feedshare-image"
	ugcOwnerService = "urn:li:userGeneratedContent"
	uploadHTTPKey   = "com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"
	feedUpdateBase  = "https://www.linkedin.com/feed/update/"
)

// UploadSession is the result of a successful upload registration. The URL is
// a one-time pre-signed endpoint; neither field outlives a single publish.
type UploadSession struct {
	UploadURL string
	AssetURN  string
}

// PostResult identifies a created post and its user-facing permalink
type PostResult struct {
	PostID  string `json:"postId"`
	PostURL string `json:"postUrl"`
}

type registerUploadRequest struct {
	RegisterUploadRequest registerUploadBody `json:"registerUploadRequest"`
}

type registerUploadBody struct {
	Recipes              []string              `json:"recipes"`
	Owner                string                `json:"owner"`
	ServiceRelationships []serviceRelationship `json:"serviceRelationships"`
}

type serviceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type registerUploadResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism map[string]struct {
			UploadURL string `json:"uploadUrl"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

type createPostRequest struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

type shareContent struct {
	ShareCommentary    shareText    `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media"`
}

type shareText struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status string `json:"status"`
	Media  string `json:"media"`
}

type createPostResponse struct {
	ID string `json:"id"`
}

// Publish runs the three-phase media publish protocol: register an upload
// slot, PUT the binary to the pre-signed URL, then create the post
// referencing the uploaded asset. Phases are strictly ordered and never
// auto-retried; a rate-limited caller must re-run the whole operation since
// upload registrations are not guaranteed durable.
func (c *Client) Publish(ctx context.Context, accessToken, personURN, caption string, image []byte, mimeType string) (PostResult, error) {
	upload, err := c.registerUpload(ctx, accessToken, personURN)
	if err != nil {
		return PostResult{}, err
	}

	if err := c.uploadImage(ctx, upload.UploadURL, image, mimeType); err != nil {
		return PostResult{}, err
	}

	return c.createPost(ctx, accessToken, personURN, caption, upload.AssetURN)
}

// registerUpload is phase 1: ask for a pre-signed upload slot owned by the
// authenticated member
func (c *Client) registerUpload(ctx context.Context, accessToken, personURN string) (UploadSession, error) {
	body := registerUploadRequest{
		RegisterUploadRequest: registerUploadBody{
			Recipes: []string{feedshareRecipe},
			Owner:   personURN,
			ServiceRelationships: []serviceRelationship{{
				RelationshipType: "OWNER",
				Identifier:       ugcOwnerService,
			}},
		},
	}

	var resp registerUploadResponse
	if err := c.apiPost(ctx, accessToken, "/v2/assets?action=registerUpload", body, &resp); err != nil {
		if mapped := mapUpstreamError(err); mapped != nil {
			return UploadSession{}, mapped
		}
		return UploadSession{}, fmt.Errorf("%w: %v", ErrUploadRegistration, err)
	}

	upload := UploadSession{
		UploadURL: resp.Value.UploadMechanism[uploadHTTPKey].UploadURL,
		AssetURN:  resp.Value.Asset,
	}
	if upload.UploadURL == "" || upload.AssetURN == "" {
		return UploadSession{}, fmt.Errorf("%w: response missing upload URL or asset", ErrUploadRegistration)
	}

	log.LogDebugWithFields("linkedin", "Upload registered", map[string]any{
		"asset": upload.AssetURN,
	})
	return upload, nil
}

// uploadImage is phase 2: PUT the raw bytes to the one-time upload URL.
// The URL is pre-signed, so no API auth headers are attached; the response
// body is discarded.
func (c *Client) uploadImage(ctx context.Context, uploadURL string, image []byte, mimeType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.ContentLength = int64(len(image))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.LogErrorWithFields("linkedin", "Image upload rejected", map[string]any{
			"status": resp.StatusCode,
		})
		return fmt.Errorf("%w: status %d", ErrUpload, resp.StatusCode)
	}
	return nil
}

// createPost is phase 3: publish the post referencing the uploaded asset
func (c *Client) createPost(ctx context.Context, accessToken, personURN, caption, assetURN string) (PostResult, error) {
	body := createPostRequest{
		Author:         personURN,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			"com.linkedin.ugc.ShareContent": {
				ShareCommentary:    shareText{Text: caption},
				ShareMediaCategory: "IMAGE",
				Media: []shareMedia{{
					Status: "READY",
					Media:  assetURN,
				}},
			},
		},
		Visibility: map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var resp createPostResponse
	if err := c.apiPost(ctx, accessToken, "/v2/ugcPosts", body, &resp); err != nil {
		if mapped := mapUpstreamError(err); mapped != nil {
			return PostResult{}, mapped
		}
		return PostResult{}, fmt.Errorf("%w: %v", ErrPostCreation, err)
	}
	if resp.ID == "" {
		return PostResult{}, fmt.Errorf("%w: response missing id", ErrPostCreation)
	}

	result := PostResult{
		PostID:  resp.ID,
		PostURL: postPermalink(resp.ID),
	}
	log.LogInfoWithFields("linkedin", "Post created", map[string]any{
		"postId": result.PostID,
	})
	return result, nil
}

// mapUpstreamError translates auth and rate-limit statuses into their
// dedicated error kinds; other failures keep their phase-specific kind
func mapUpstreamError(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return nil
	}
	switch apiErr.status {
	case http.StatusUnauthorized:
		return ErrAuthExpired
	case http.StatusTooManyRequests:
		return &RateLimitedError{RetryAfter: apiErr.retryAfter}
	}
	return nil
}

// postPermalink builds a feed permalink from the returned post identifier.
// Share and UGC-post URNs both resolve under /feed/update/.
func postPermalink(postID string) string {
	for _, prefix := range []string{"urn:li:share:", "urn:li:ugcPost:"} {
		if strings.Contains(postID, prefix) {
			parts := strings.Split(postID, ":")
			return feedUpdateBase + prefix + parts[len(parts)-1] + "/"
		}
	}
	return feedUpdateBase + postID + "/"
}
