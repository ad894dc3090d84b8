package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"palm-rag/internal/config"
	xhttp "palm-rag/pkg/http"
)

// apiClient talks to the palm-rag HTTP API through the circuit-breaking client.
type apiClient struct {
	base string
	http *xhttp.Client
}

func newAPIClient() (*apiClient, error) {
	c, err := xhttp.NewClient("palm-cli", config.Default().Middleware.CircuitBreaker, timeout)
	if err != nil {
		return nil, err
	}
	return &apiClient{base: strings.TrimRight(serverURL, "/"), http: c}, nil
}

// apiError is the error body returned by the service.
type apiError struct {
	Status       int
	Message      string `json:"error"`
	Code         string `json:"code"`
	FailedChunks []int  `json:"failed_chunks"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	if len(e.FailedChunks) > 0 {
		msg += fmt.Sprintf(" (failed chunks %v)", e.FailedChunks)
	}
	return msg
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil && (resp == nil || !errors.Is(err, xhttp.ErrServerStatus)) {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) json(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *apiClient) upload(path, filePath string, fields map[string]string, out any) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func escape(s string) string { return url.PathEscape(s) }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
