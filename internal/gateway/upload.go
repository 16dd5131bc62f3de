package gateway

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/you/uploaddoc/domain"
)

// Upload implements domain.ProjectAPI. The document is sent as a
// multipart form; Content-Type is set by the multipart writer so the
// boundary is correct, not the gateway's JSON default.
func (c *Client) Upload(ctx context.Context, up domain.ProjectUpload, token string) (*domain.Project, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("document", up.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating multipart file: %w", err)
	}
	if _, err := part.Write(up.Content); err != nil {
		return nil, fmt.Errorf("writing document content: %w", err)
	}

	fields := map[string]string{
		"title":   up.Title,
		"adminId": up.AdminID,
	}
	if up.Copies > 0 {
		fields["copies"] = strconv.Itoa(up.Copies)
	}
	for name, val := range fields {
		if err := w.WriteField(name, val); err != nil {
			return nil, fmt.Errorf("writing form field %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/projects/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var resp struct {
		Message string          `json:"message"`
		Project *domain.Project `json:"project"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Project, nil
}
