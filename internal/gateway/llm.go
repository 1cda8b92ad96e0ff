package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"datagpt-client/internal/dto"
)

// FileUpload is one file handed to the ingestion service.
type FileUpload struct {
	Name    string
	Content io.Reader
}

// UploadResult reports the outcome for a single file. A batch is never
// collapsed into one boolean: some files ingesting while others fail is a
// state the caller must see file-by-file.
type UploadResult struct {
	Name string
	Err  error
}

// UploadFiles submits each file to the ingestion service as its own multipart
// request so every file succeeds or fails independently.
func (c *Client) UploadFiles(ctx context.Context, files []FileUpload) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	for _, f := range files {
		results = append(results, UploadResult{Name: f.Name, Err: c.uploadOne(ctx, f)})
	}
	return results
}

func (c *Client) uploadOne(ctx context.Context, f FileUpload) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", f.Name)
	if err != nil {
		return &RemoteError{Status: 0, Message: err.Error()}
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return &RemoteError{Status: 0, Message: err.Error()}
	}
	if err := writer.Close(); err != nil {
		return &RemoteError{Status: 0, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.llmURL+"/upload", &buf)
	if err != nil {
		return &RemoteError{Status: 0, Message: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.llmClient.Do(req)
	if err != nil {
		c.log.Error("gateway", "ingestion upload failed", map[string]interface{}{
			"file":  f.Name,
			"error": err.Error(),
		})
		return &RemoteError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	var out dto.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !out.Success {
		msg := out.Message
		if msg == "" {
			msg = resp.Status
		}
		return &RemoteError{Status: resp.StatusCode, Message: msg}
	}
	return nil
}

// Query submits a chat question and returns the answer with its citations in
// server order. A failed call returns the failure as-is: fabricating a
// plausible answer here would mask backend outages.
func (c *Client) Query(ctx context.Context, question string) (dto.QueryResponse, error) {
	path := c.llmURL + "/query?question=" + url.QueryEscape(question)
	resp, err := c.do(ctx, c.llmClient, path, http.MethodPost, "", dto.QueryRequest{Question: question})
	if err != nil {
		return dto.QueryResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return dto.QueryResponse{}, &RemoteError{Status: resp.StatusCode, Message: resp.Status}
	}

	var out dto.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return dto.QueryResponse{}, &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}
	if out.Answer == "" {
		return dto.QueryResponse{}, &RemoteError{Status: resp.StatusCode, Message: unexpectedShapeMsg}
	}
	return out, nil
}
