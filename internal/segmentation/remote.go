package segmentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/logger"
)

// ErrNoEndpoint is returned by NewRemoteModel when no inference endpoint is
// configured.
var ErrNoEndpoint = errors.New("segmentation endpoint not configured")

// RemoteModel talks to an inference service over HTTP JSON. It implements
// both RefineModel and InstanceModel:
//
//	POST {endpoint}/predict  {"image": b64png, "point": {...}, "bbox": {...}}
//	  -> {"masks": [{"mask": b64png, "score": 0.93}]}
//	POST {endpoint}/instances {"image": b64png}
//	  -> {"instances": [{"box": [x1,y1,x2,y2], "confidence": 0.8, "mask": b64png}]}
//
// Network errors, 429 and 5xx responses are retried with exponential
// backoff. Other 4xx responses fail immediately.
type RemoteModel struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	interval   time.Duration
}

// NewRemoteModel builds a client for cfg.Endpoint.
func NewRemoteModel(cfg config.Segmentation) (*RemoteModel, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	return &RemoteModel{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: max(cfg.MaxRetries, 0),
		interval:   backoff.DefaultInitialInterval,
	}, nil
}

type predictRequest struct {
	Image string `json:"image"`
	Prompt
}

type predictResponse struct {
	Masks []struct {
		Mask  string  `json:"mask"`
		Score float64 `json:"score"`
	} `json:"masks"`
}

type instancesRequest struct {
	Image string `json:"image"`
}

type instancesResponse struct {
	Instances []struct {
		Box        [4]float64 `json:"box"`
		Confidence float64    `json:"confidence"`
		Mask       string     `json:"mask,omitempty"`
	} `json:"instances"`
}

// Predict implements RefineModel.
func (m *RemoteModel) Predict(ctx context.Context, img image.Image, prompt Prompt) ([]ScoredMask, error) {
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	var resp predictResponse
	if err := m.post(ctx, "/predict", predictRequest{Image: encoded, Prompt: prompt}, &resp); err != nil {
		return nil, err
	}

	masks := make([]ScoredMask, 0, len(resp.Masks))
	for i, entry := range resp.Masks {
		mask, err := decodeMaskPayload(entry.Mask)
		if err != nil {
			return nil, fmt.Errorf("mask %d: %w", i, err)
		}
		masks = append(masks, ScoredMask{Mask: mask, Score: entry.Score})
	}
	return masks, nil
}

// Detect implements InstanceModel.
func (m *RemoteModel) Detect(ctx context.Context, img image.Image) ([]Instance, error) {
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	var resp instancesResponse
	if err := m.post(ctx, "/instances", instancesRequest{Image: encoded}, &resp); err != nil {
		return nil, err
	}

	instances := make([]Instance, 0, len(resp.Instances))
	for i, entry := range resp.Instances {
		inst := Instance{
			Box: image.Rect(
				int(math.Floor(entry.Box[0])), int(math.Floor(entry.Box[1])),
				int(math.Ceil(entry.Box[2])), int(math.Ceil(entry.Box[3])),
			),
			Confidence: entry.Confidence,
		}
		if entry.Mask != "" {
			raw, err := imaging.DecodeBase64Payload(entry.Mask)
			if err != nil {
				return nil, fmt.Errorf("instance %d: %w", i, err)
			}
			if inst.Prob, err = DecodeGray(raw); err != nil {
				return nil, fmt.Errorf("instance %d: %w", i, err)
			}
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func decodeMaskPayload(payload string) (*Mask, error) {
	raw, err := imaging.DecodeBase64Payload(payload)
	if err != nil {
		return nil, err
	}
	return DecodeMask(raw)
}

// statusError is an unexpected HTTP status from the inference service.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("inference service returned %d: %s", e.code, e.body)
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func (m *RemoteModel) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	url := m.endpoint + path

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := m.client.Do(req)
		if err != nil {
			logger.WithFields(logrus.Fields{"url": url, "attempt": attempt}).WithError(err).Debug("inference request failed")
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
			if !retryable(resp.StatusCode) {
				return struct{}{}, backoff.Permanent(serr)
			}
			logger.WithFields(logrus.Fields{"url": url, "attempt": attempt, "status": resp.StatusCode}).Debug("retrying inference request")
			return struct{}{}, serr
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return struct{}{}, nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(backoff.WithInitialInterval(m.interval)), uint64(m.maxRetries)),
		ctx,
	)
	_, err = backoff.RetryWithData(op, b)
	return err
}
