package shapegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"printforge/internal/meshconv"
)

const maxErrorBody = 4 << 10

// HTTPPipeline posts the image to a remote inference server that hosts the
// pretrained pipeline and answers with the mesh body.
type HTTPPipeline struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPPipeline returns a pipeline with a client bounded by timeout.
func NewHTTPPipeline(endpoint string, timeout time.Duration) *HTTPPipeline {
	return &HTTPPipeline{
		Endpoint: strings.TrimSpace(endpoint),
		Client:   &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Image string `json:"image"`
	Model string `json:"model,omitempty"`
	Type  string `json:"type"`
}

func (p *HTTPPipeline) Run(ctx context.Context, req Request) ([]Candidate, error) {
	img, err := os.ReadFile(req.Image)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Image: base64.StdEncoding.EncodeToString(img),
		Model: req.Model.Location,
		Type:  strings.TrimPrefix(meshconv.ExtOBJ, "."),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", p.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("post %s: status=%d msg=%s", p.Endpoint, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	path := filepath.Join(req.OutputDir, meshconv.BaseName(req.Image)+meshconv.ExtOBJ)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", path, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %q: %w", path, err)
	}
	return []Candidate{{Path: path}}, nil
}
