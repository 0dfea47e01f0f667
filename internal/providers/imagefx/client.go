package imagefx

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
	providerName       = "imagefx"
	defaultBaseURL     = "https://aisandbox-pa.googleapis.com"
	defaultModel       = "IMAGEN_3_5"
	defaultAspectRatio = "IMAGE_ASPECT_RATIO_LANDSCAPE"
	defaultCandidates  = 4
)

// Options configures the ImageFX client.
type Options struct {
	BaseURL         string
	Model           string
	AspectRatio     string
	CandidatesCount int
	HTTPClient      *http.Client
	Logger          *infra.Logger
	RequestTimeout  time.Duration
}

// Client calls the ImageFX runImageFx endpoint.
type Client struct {
	baseURL     string
	model       string
	aspectRatio string
	candidates  int
	httpClient  *http.Client
	logger      *infra.Logger
	now         func() time.Time
}

type runRequest struct {
	UserInput     userInput     `json:"userInput"`
	AspectRatio   string        `json:"aspectRatio"`
	ModelInput    modelInput    `json:"modelInput"`
	ClientContext clientContext `json:"clientContext"`
}

type userInput struct {
	CandidatesCount int      `json:"candidatesCount"`
	Prompts         []string `json:"prompts"`
	Seed            int      `json:"seed"`
}

type modelInput struct {
	ModelNameType string `json:"modelNameType"`
}

type clientContext struct {
	SessionID string `json:"sessionId"`
	Tool      string `json:"tool"`
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
	candidates := opts.CandidatesCount
	if candidates <= 0 {
		candidates = defaultCandidates
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
		candidates:  candidates,
		httpClient:  httpClient,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate performs one runImageFx call. ImageFX answers with a bare panel
// list, which is returned as-is in the shared result shape.
func (c *Client) Generate(ctx context.Context, prompt string, settings domain.ProviderSettings) (*image.Result, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", image.ErrMissingCredentials, err)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("imagefx: prompt is required")
	}

	payload := runRequest{
		UserInput: userInput{
			CandidatesCount: c.candidates,
			Prompts:         []string{prompt},
		},
		AspectRatio: c.aspectRatio,
		ModelInput:  modelInput{ModelNameType: c.model},
		ClientContext: clientContext{
			SessionID: ";" + strconv.FormatInt(c.now().UnixMilli(), 10),
			Tool:      "IMAGE_FX",
		},
	}

	var result image.Result
	endpoint := c.baseURL + "/v1:runImageFx"
	if err := image.PostJSON(ctx, c.httpClient, providerName, endpoint, settings.AuthToken, payload, &result); err != nil {
		return nil, err
	}
	if result.ImagePanels == nil {
		return nil, fmt.Errorf("imagefx: %w: imagePanels missing", image.ErrMalformedResponse)
	}
	c.logger.Debug().
		Str("provider", providerName).
		Int("candidates", len(result.AllImages())).
		Msg("imagefx: generate image")
	return &result, nil
}

var _ image.Generator = (*Client)(nil)
