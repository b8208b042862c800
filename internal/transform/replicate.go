// internal/transform/replicate.go
package transform

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
	"time"

	"github.com/rs/zerolog"

	"opening-server/internal/config"
)

// Client calls a Replicate-style prediction API to restyle a single image.
// The API is asynchronous: create a prediction, poll it until it settles,
// then download the output image next to the input file.
type Client struct {
	baseURL      string
	token        string
	model        string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       zerolog.Logger
}

func NewClient(cfg config.ReplicateConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		token:        cfg.Token,
		model:        cfg.Model,
		pollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}
}

type predictionRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Transform restyles imagePath and returns the path of the transformed copy.
func (c *Client) Transform(ctx context.Context, imagePath, theme string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("transform: failed to read %s: %w", imagePath, err)
	}

	prediction, err := c.createPrediction(ctx, data)
	if err != nil {
		return "", err
	}

	outputURL, err := c.awaitPrediction(ctx, prediction.ID)
	if err != nil {
		return "", err
	}

	outPath := transformedPath(imagePath)
	if err := c.download(ctx, outputURL, outPath); err != nil {
		return "", err
	}

	c.logger.Debug().Str("image", imagePath).Str("theme", theme).Msg("image transformed")
	return outPath, nil
}

func (c *Client) createPrediction(ctx context.Context, image []byte) (*predictionResponse, error) {
	reqBody := predictionRequest{
		Version: c.model,
		Input: map[string]any{
			"image": fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(image)),
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("transform: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	var prediction predictionResponse
	if err := c.do(req, &prediction); err != nil {
		return nil, fmt.Errorf("transform: failed to create prediction: %w", err)
	}
	return &prediction, nil
}

func (c *Client) awaitPrediction(ctx context.Context, id string) (string, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/predictions/"+id, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Token "+c.token)

		var prediction predictionResponse
		if err := c.do(req, &prediction); err != nil {
			return "", fmt.Errorf("transform: failed to poll prediction %s: %w", id, err)
		}

		switch prediction.Status {
		case "succeeded":
			return decodeOutputURL(prediction.Output)
		case "failed", "canceled":
			return "", fmt.Errorf("transform: prediction %s %s: %s", id, prediction.Status, prediction.Error)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) download(ctx context.Context, url, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transform: failed to download output: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transform: download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("transform: failed to create %s: %w", outPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("transform: failed to write %s: %w", outPath, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// decodeOutputURL handles both forms the API returns: a single URL string or
// an array of URLs, in which case the first is the image.
func decodeOutputURL(raw json.RawMessage) (string, error) {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}

	return "", fmt.Errorf("transform: unexpected prediction output %s", raw)
}

func transformedPath(imagePath string) string {
	dir := filepath.Dir(imagePath)
	name := filepath.Base(imagePath)
	return filepath.Join(dir, "transformed_"+name)
}
