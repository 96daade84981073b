package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/pawtraits-dev/pawtraits-sub013/models"
)

// GenerationQuota enforces the per-IP daily quota on the generation proxy.
// Allow returns the remaining quota after counting this request, or
// ErrQuotaExceeded.
type GenerationQuota interface {
	Allow(ctx context.Context, ip string) (int64, error)
}

// GenerationService proxies portrait generation to the external inference API
// and post-processes the result before returning it. The model itself is
// external; this service owns only quota, invocation and the image pipeline.
type GenerationService struct {
	quota      GenerationQuota
	apiURL     string
	apiKey     string
	httpClient *http.Client
	maxEdge    int
}

// NewGenerationService reads the inference endpoint configuration from the
// environment.
func NewGenerationService(quota GenerationQuota) *GenerationService {
	apiURL := os.Getenv("GENERATION_API_URL")
	apiKey := os.Getenv("GENERATION_API_KEY")
	if apiURL == "" {
		log.Printf("WARNING: GENERATION_API_URL is not set; portrait generation will fail")
	}

	maxEdge := 1024
	if v := os.Getenv("GENERATION_MAX_EDGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxEdge = n
		}
	}

	return &GenerationService{
		quota:      quota,
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		maxEdge:    maxEdge,
	}
}

type inferenceRequest struct {
	Prompt string `json:"prompt"`
	Image  string `json:"image,omitempty"`
	Style  string `json:"style,omitempty"`
}

type inferenceResponse struct {
	Image string `json:"image"`
	Error string `json:"error,omitempty"`
}

// Generate checks the caller's quota, invokes the inference API and runs the
// post-processing pipeline on the returned image.
func (s *GenerationService) Generate(ctx context.Context, req models.GenerationRequest, ip string) (*models.GenerationResult, error) {
	remaining, err := s.quota.Allow(ctx, ip)
	if err != nil {
		return nil, err
	}

	raw, err := s.invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	processed, err := s.postProcess(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: post-process: %v", ErrUpstreamUnavailable, err)
	}

	return &models.GenerationResult{
		JobID:          uuid.NewString(),
		Image:          "data:image/png;base64," + processed,
		QuotaRemaining: remaining,
	}, nil
}

func (s *GenerationService) invoke(ctx context.Context, req models.GenerationRequest) ([]byte, error) {
	if s.apiURL == "" {
		return nil, fmt.Errorf("%w: inference endpoint not configured", ErrUpstreamUnavailable)
	}

	body, err := json.Marshal(inferenceRequest{Prompt: req.Prompt, Image: req.Image, Style: req.Style})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrInvalidInput, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: inference call: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference returned %d: %s", ErrUpstreamUnavailable, resp.StatusCode, decoded.Error)
	}

	imageBytes, err := base64.StdEncoding.DecodeString(decoded.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", ErrUpstreamUnavailable, err)
	}
	return imageBytes, nil
}

// postProcess fits the portrait within the configured bounding box, applies a
// light sharpen and re-encodes as PNG.
func (s *GenerationService) postProcess(raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	fitted := imaging.Fit(img, s.maxEdge, s.maxEdge, imaging.Lanczos)
	sharpened := imaging.Sharpen(fitted, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, sharpened); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
