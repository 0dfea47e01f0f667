package whisk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/providers/image"
)

const (
	providerName       = "whisk"
	defaultBaseURL     = "https://aisandbox-pa.googleapis.com"
	defaultModel       = "IMAGEN_3_5"
	defaultAspectRatio = "IMAGE_ASPECT_RATIO_LANDSCAPE"
)

// Options configures the Whisk client.
type Options struct {
	BaseURL        string
	Model          string
	AspectRatio    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client calls the Whisk generateImage endpoint. A Whisk call is scoped to a
// project (workflow) id taken from the provider settings.
type Client struct {
	baseURL     string
	model       string
	aspectRatio string
	httpClient  *http.Client
	logger      *infra.Logger
	now         func() time.Time
}

type generateRequest struct {
	ClientContext      clientContext      `json:"clientContext"`
	ImageModelSettings imageModelSettings `json:"imageModelSettings"`
	Seed               int                `json:"seed"`
	Prompt             string             `json:"prompt"`
	MediaCategory      string             `json:"mediaCategory"`
}

type clientContext struct {
	WorkflowID string `json:"workflowId"`
	Tool       string `json:"tool"`
	SessionID  string `json:"sessionId"`
}

type imageModelSettings struct {
	ImageModel  string `json:"imageModel"`
	AspectRatio string `json:"aspectRatio"`
}

// NewClient constructs a client with defaults for anything left unset.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = image.NewHTTPClient(opts.RequestTimeout)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	aspect := strings.TrimSpace(opts.AspectRatio)
	if aspect == "" {
		aspect = defaultAspectRatio
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.NopLogger()
		logger = &l
	}
	return &Client{
		baseURL:     baseURL,
		model:       model,
		aspectRatio: aspect,
		httpClient:  httpClient,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate performs one generateImage call.
func (c *Client) Generate(ctx context.Context, prompt string, settings domain.ProviderSettings) (*image.Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", image.ErrMissingCredentials, err)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("whisk: prompt is required")
	}

	payload := generateRequest{
		ClientContext: clientContext{
			WorkflowID: strings.TrimSpace(settings.ProjectID),
			Tool:       "BACKBONE",
			SessionID:  ";" + strconv.FormatInt(c.now().UnixMilli(), 10),
		},
		ImageModelSettings: imageModelSettings{
			ImageModel:  c.model,
			AspectRatio: c.aspectRatio,
		},
		Prompt:        prompt,
		MediaCategory: "MEDIA_CATEGORY_BOARD",
	}

	var result image.Result
	endpoint := c.baseURL + "/v1/whisk:generateImage"
	if err := image.PostJSON(ctx, c.httpClient, providerName, endpoint, settings.AuthToken, payload, &result); err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("provider", providerName).
		Str("workflow_id", payload.ClientContext.WorkflowID).
		Int("panels", len(result.ImagePanels)).
		Msg("whisk: generate image")
	return &result, nil
}

var _ image.Generator = (*Client)(nil)
