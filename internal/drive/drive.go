// Package drive is a minimal Google Drive REST v3 client: folder
// listing, file metadata and content download. Authentication goes
// through the token source in token.go.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// apiBaseURL is a variable so tests can point the client at a stub.
var apiBaseURL = "https://www.googleapis.com/drive/v3"

var (
	folderIDRe = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)
	fileIDRe   = regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`)
)

// ParseFolderID pulls the folder ID out of a Drive folder URL; "" when
// the URL is not a folder link.
func ParseFolderID(rawURL string) string {
	if m := folderIDRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

// ParseFileID pulls the file ID out of a Drive file URL.
func ParseFileID(rawURL string) string {
	if m := fileIDRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return ""
}

func IsFolderURL(rawURL string) bool { return ParseFolderID(rawURL) != "" }

func IsFileURL(rawURL string) bool { return ParseFileID(rawURL) != "" }

// FileURL builds the canonical shareable link for a file ID. Resource
// rows are keyed on this form, so listing and single-file sync converge
// on the same row.
func FileURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view?usp=sharing", fileID)
}

// FileMeta is the slice of Drive file metadata the pipeline needs.
type FileMeta struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size,omitempty"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

type Client struct {
	tokens     *TokenSource
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(tokens *TokenSource, downloadTimeout time.Duration) *Client {
	if downloadTimeout <= 0 {
		downloadTimeout = 60 * time.Second
	}
	return &Client{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: downloadTimeout},
		log:        logger.New("drive"),
	}
}

// ListFolder returns the metadata of every non-trashed file directly
// inside the folder.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]FileMeta, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
	query.Set("fields", "files(id,name,mimeType,size,modifiedTime)")
	query.Set("pageSize", "1000")

	var out struct {
		Files []FileMeta `json:"files"`
	}
	if err := c.getJSON(ctx, apiBaseURL+"/files?"+query.Encode(), &out); err != nil {
		return nil, fmt.Errorf("list folder %s: %w", folderID, err)
	}
	return out.Files, nil
}

// GetFile returns the metadata for one file ID.
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileMeta, error) {
	var meta FileMeta
	u := fmt.Sprintf("%s/files/%s?fields=id,name,mimeType,size,modifiedTime", apiBaseURL, url.PathEscape(fileID))
	if err := c.getJSON(ctx, u, &meta); err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	return &meta, nil
}

// Fetch downloads file content. Google-native documents are exported as
// their Office equivalent; everything else is a plain media download.
func (c *Client) Fetch(ctx context.Context, meta *FileMeta) ([]byte, error) {
	var u string
	if exportMime, ok := googleExportMime(meta.MimeType); ok {
		u = fmt.Sprintf("%s/files/%s/export?mimeType=%s", apiBaseURL, url.PathEscape(meta.ID), url.QueryEscape(exportMime))
	} else {
		u = fmt.Sprintf("%s/files/%s?alt=media", apiBaseURL, url.PathEscape(meta.ID))
	}

	resp, err := c.do(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", meta.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download %s: status %d: %s", meta.Name, resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func googleExportMime(mimeType string) (string, bool) {
	switch mimeType {
	case "application/vnd.google-apps.document":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", true
	case "application/vnd.google-apps.spreadsheet":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true
	case "application/vnd.google-apps.presentation":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation", true
	}
	return "", false
}

func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// A 401 means the cached token went stale mid-flight: refresh once
	// and retry the same request.
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		token, err = c.tokens.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return c.httpClient.Do(req)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
