package linkedin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"postpilot/internal/core/domain"
)

// Client performs UGC publish calls and engagement metrics lookups.
// It implements ports.PublishAPI and ports.MetricsAPI.
type Client struct {
	auth    *Auth
	baseURL string
	client  *http.Client
}

// NewClient builds a Client sharing the Auth's endpoint configuration.
func NewClient(auth *Auth, timeout time.Duration) *Client {
	return &Client{
		auth:    auth,
		baseURL: auth.baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Publish submits the composed share to the UGC posts endpoint and
// returns the external post URN from the x-restli-id response header.
func (c *Client) Publish(ctx context.Context, share domain.Share) (string, error) {
	author, err := c.auth.AuthorURN(ctx)
	if err != nil {
		return "", err
	}

	payload := buildSharePayload(author, share)
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode share payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	headers, err := c.auth.Headers()
	if err != nil {
		return "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.TransportError{Op: "publish", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &domain.PlatformError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return resp.Header.Get("x-restli-id"), nil
}

// buildSharePayload selects the payload variant by kind: plain text,
// image-attached or document-attached.
func buildSharePayload(author string, share domain.Share) map[string]any {
	content := map[string]any{
		"shareCommentary":    map[string]any{"text": share.Text},
		"shareMediaCategory": "NONE",
	}

	if share.Kind != domain.KindText {
		category := "IMAGE"
		if share.Kind == domain.KindCarousel {
			category = "DOCUMENT"
		}
		content["shareMediaCategory"] = category
		content["media"] = []map[string]any{
			{
				"status": "READY",
				"media":  string(share.Asset),
				"title":  map[string]any{"text": share.Title},
			},
		}
	}

	return map[string]any{
		"author":         author,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": content,
		},
		"visibility": map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
}

// PostMetrics fetches likes, comments and shares for a post URN.
func (c *Client) PostMetrics(ctx context.Context, postURN string) (domain.PostMetrics, error) {
	var out struct {
		LikesSummary struct {
			TotalLikes int `json:"totalLikes"`
		} `json:"likesSummary"`
		CommentsSummary struct {
			TotalFirstLevelComments int `json:"totalFirstLevelComments"`
		} `json:"commentsSummary"`
		SharesSummary struct {
			TotalShares int `json:"totalShares"`
		} `json:"sharesSummary"`
	}

	url := c.baseURL + "/socialMetadata/" + encodeURN(postURN)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return domain.PostMetrics{}, err
	}
	return domain.PostMetrics{
		Likes:    out.LikesSummary.TotalLikes,
		Comments: out.CommentsSummary.TotalFirstLevelComments,
		Shares:   out.SharesSummary.TotalShares,
	}, nil
}

// FollowerCount fetches the author's current network size.
func (c *Client) FollowerCount(ctx context.Context, authorURN string) (int, error) {
	var out struct {
		FirstDegreeSize int `json:"firstDegreeSize"`
	}
	url := c.baseURL + "/networkSizes/" + encodeURN(authorURN) + "?edgeType=CompanyFollowedByMember"
	if err := c.getJSON(ctx, url, &out); err != nil {
		return 0, err
	}
	return out.FirstDegreeSize, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	headers, err := c.auth.Headers()
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: "metrics lookup", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &domain.PlatformError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// encodeURN percent-encodes the reserved characters LinkedIn expects
// escaped in path segments.
func encodeURN(urn string) string {
	urn = strings.ReplaceAll(urn, ":", "%3A")
	return strings.ReplaceAll(urn, ",", "%2C")
}
