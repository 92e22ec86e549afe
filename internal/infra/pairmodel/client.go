package pairmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yanqian/newsdigest/pkg/metrics"
)

// Task selects which head of the sequence-pair classifier answers.
type Task string

const (
	// TaskParaphrase scores whether two sentences say the same thing.
	TaskParaphrase Task = "paraphrase"
	// TaskSuccession scores whether the second sentence naturally follows the first.
	TaskSuccession Task = "succession"
)

// ErrInvalidProbability is returned when the service answers outside [0, 1].
var ErrInvalidProbability = errors.New("pair model returned a probability outside [0, 1]")

// Scorer is satisfied by similarity.PairScorer and ordering.SuccessionModel.
type Scorer interface {
	Probability(ctx context.Context, first, second string) (float64, error)
}

type pairRequest struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

type pairResponse struct {
	Probability float64 `json:"probability"`
}

// Client performs HTTP requests to the sequence-pair classification service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client; timeout defaults to 20s.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("pair model base url cannot be empty")
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Score asks task for the probability of the ordered pair (first, second).
func (c *Client) Score(ctx context.Context, task Task, first, second string) (float64, error) {
	p, err := c.score(ctx, task, first, second)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordPairModel(string(task), status)
	return p, err
}

func (c *Client) score(ctx context.Context, task Task, first, second string) (float64, error) {
	body, err := c.doRequest(ctx, task, pairRequest{First: first, Second: second})
	if err != nil {
		return 0, err
	}
	var out pairResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decode %s response: %w", task, err)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidProbability, out.Probability)
	}
	return out.Probability, nil
}

// Scorer binds the client to one task.
func (c *Client) Scorer(task Task) Scorer {
	return taskScorer{client: c, task: task}
}

func (c *Client) doRequest(ctx context.Context, task Task, req pairRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", task, err)
	}
	endpoint := c.baseURL + "/" + string(task)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", task, err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", task, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("pair model %s failed: status=%d body=%s", task, resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

type taskScorer struct {
	client *Client
	task   Task
}

func (s taskScorer) Probability(ctx context.Context, first, second string) (float64, error) {
	return s.client.Score(ctx, s.task, first, second)
}
