// Package mlserve scores vectors against a remote model-serving endpoint.
// Each remote model is wrapped as one Classifier; failures stay contained to
// that classifier inside the ensemble.
package mlserve

import (
	"context"
	"fmt"
	"time"

	"PaperDeck/internal/domain/models"
	xhttp "PaperDeck/pkg/http"
)

// Client is the shared HTTP transport for remote classifiers.
type Client struct {
	baseURL string
	http    *xhttp.Client
	timeout time.Duration
}

// NewClient builds the transport for a model-serving base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		timeout: timeout,
	}
}

type predictReq struct {
	Instances [][]float64 `json:"instances"`
}

type predictResp struct {
	// one [probNegative, probPositive] pair per instance
	Predictions [][]float64 `json:"predictions"`
}

// Predict scores one vector against the model served under name.
func (c *Client) Predict(ctx context.Context, name string, vector []float64) (float64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("model serving url not configured")
	}
	var resp predictResp
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, name),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: predictReq{Instances: [][]float64{vector}},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("predict %s: %w", name, err)
	}
	if len(resp.Predictions) == 0 || len(resp.Predictions[0]) < 2 {
		return 0, fmt.Errorf("predict %s: malformed response", name)
	}
	return resp.Predictions[0][1], nil
}

// Remote wraps one served model as a Classifier.
type Remote struct {
	client  *Client
	name    string
	side    models.Side
	timeout time.Duration
}

// NewRemote creates a classifier backed by the served model under name.
func NewRemote(client *Client, name string, side models.Side) *Remote {
	return &Remote{client: client, name: name, side: side, timeout: client.timeout}
}

func (r *Remote) Name() string      { return r.name }
func (r *Remote) Side() models.Side { return r.side }

// Score calls the serving endpoint with a bounded deadline.
func (r *Remote) Score(vector []float64) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.client.Predict(ctx, r.name, vector)
}
