package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/susu3304/sharetabbot/internal/logging"
)

var ErrMalformedResponse = errors.New("pricing response has no per-person charges")

const calculatePath = "/api/v1/expenses/calculateSingleBill"

// Calculator turns a request into per-person charges.
type Calculator interface {
	Calculate(ctx context.Context, req Request) (*Result, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logging.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type response struct {
	PerPersonCharges   map[string]float64   `json:"perPersonCharges"`
	PerPersonBreakdown map[string]Breakdown `json:"perPersonBreakdown"`
	Amount             float64              `json:"amount"`
}

func (c *Client) Calculate(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode pricing request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+calculatePath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build pricing request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "call pricing backend")
	}
	defer resp.Body.Close()

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("items", len(req.Items)).
		Dur("elapsed", time.Since(start)).
		Msg("pricing backend responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("pricing backend returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode pricing response")
	}
	if out.PerPersonCharges == nil {
		return nil, ErrMalformedResponse
	}
	return &Result{
		PerPersonCharges:   out.PerPersonCharges,
		PerPersonBreakdown: out.PerPersonBreakdown,
		Amount:             out.Amount,
	}, nil
}
