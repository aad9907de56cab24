package capability

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/Praveenbabu5991/ContentStudio/internal/tone"
	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultImageDir is where generated images are written.
const DefaultImageDir = "generated_images"

// imageService defines the minimal interface for image generation.
type imageService interface {
	Generate(ctx context.Context, params openai.ImageGenerateParams) (*openai.ImagesResponse, error)
	Edit(ctx context.Context, params openai.ImageEditParams) (*openai.ImagesResponse, error)
}

// openAIImageService adapts the OpenAI client to imageService.
type openAIImageService struct {
	client openai.Client
}

func (s *openAIImageService) Generate(ctx context.Context, params openai.ImageGenerateParams) (*openai.ImagesResponse, error) {
	return s.client.Images.Generate(ctx, params)
}

func (s *openAIImageService) Edit(ctx context.Context, params openai.ImageEditParams) (*openai.ImagesResponse, error) {
	return s.client.Images.Edit(ctx, params)
}

// ImageOpts holds configuration options for the image generator.
type ImageOpts struct {
	APIKey    string
	Model     openai.ImageModel
	OutputDir string
	Attempts  int
	Backoff   time.Duration
}

// ImageOption defines a configuration option for the image generator.
type ImageOption func(*ImageOpts)

// WithImageAPIKey sets the OpenAI API key.
func WithImageAPIKey(key string) ImageOption {
	return func(o *ImageOpts) { o.APIKey = key }
}

// WithImageModel overrides the default image model.
func WithImageModel(model openai.ImageModel) ImageOption {
	return func(o *ImageOpts) { o.Model = model }
}

// WithImageOutputDir sets the directory generated images are written to.
func WithImageOutputDir(dir string) ImageOption {
	return func(o *ImageOpts) { o.OutputDir = dir }
}

// WithImageRetry sets the attempt count and initial backoff for provider calls.
func WithImageRetry(attempts int, backoff time.Duration) ImageOption {
	return func(o *ImageOpts) {
		o.Attempts = attempts
		o.Backoff = backoff
	}
}

// OpenAIImages generates and edits images through the OpenAI Images API.
// It implements ImageGenerator and ImageEditor.
type OpenAIImages struct {
	svc       imageService
	model     openai.ImageModel
	outputDir string
	attempts  int
	backoff   time.Duration
}

// NewOpenAIImages creates an image generator. The API key comes from options
// or falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIImages(opts ...ImageOption) (*OpenAIImages, error) {
	cfg := ImageOpts{
		Model:     openai.ImageModelDallE3,
		OutputDir: DefaultImageDir,
		Attempts:  DefaultMaxAttempts,
		Backoff:   DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image output directory: %w", err)
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	slog.Debug("Image generator initialized", "model", cfg.Model, "output_dir", cfg.OutputDir)
	return &OpenAIImages{
		svc:       &openAIImageService{client: cli},
		model:     cfg.Model,
		outputDir: cfg.OutputDir,
		attempts:  cfg.Attempts,
		backoff:   cfg.Backoff,
	}, nil
}

// Generate renders the request to a PNG on disk and returns its path.
func (g *OpenAIImages) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	prompt := buildImagePrompt(req)
	size := openai.ImageGenerateParamsSize1024x1024
	if req.Size != "" {
		size = openai.ImageGenerateParamsSize(req.Size)
	}

	var resp *openai.ImagesResponse
	err := retryWithBackoff(ctx, g.attempts, g.backoff, func() error {
		var callErr error
		resp, callErr = g.svc.Generate(ctx, openai.ImageGenerateParams{
			Prompt:         prompt,
			Model:          g.model,
			Size:           size,
			ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
			N:              openai.Int(1),
		})
		return callErr
	})
	if err != nil {
		slog.Error("Image generation failed", "error", err)
		return nil, err
	}
	return g.saveImage(resp)
}

// Edit applies the instruction to an existing image and saves the result
// as a new file. The source file is left untouched.
func (g *OpenAIImages) Edit(ctx context.Context, req ImageEditRequest) (*ImageResult, error) {
	f, err := os.Open(req.SourcePath)
	if err != nil {
		return nil, &models.CapabilityError{
			Category: models.ErrorCategoryNotFound,
			Message:  "The image to edit could not be found.",
			Detail:   err.Error(),
		}
	}
	defer f.Close()

	prompt := req.Instruction
	if req.Brand.Name != "" {
		prompt = fmt.Sprintf("%s. Keep the %s brand look consistent.", req.Instruction, req.Brand.Name)
	}

	var resp *openai.ImagesResponse
	err = retryWithBackoff(ctx, g.attempts, g.backoff, func() error {
		var callErr error
		resp, callErr = g.svc.Edit(ctx, openai.ImageEditParams{
			Image: openai.ImageEditParamsImageUnion{
				OfFile: openai.File(f, filepath.Base(req.SourcePath), "image/png"),
			},
			Prompt: prompt,
			Model:  openai.ImageModelGPTImage1,
		})
		return callErr
	})
	if err != nil {
		slog.Error("Image edit failed", "error", err, "source", req.SourcePath)
		return nil, err
	}
	return g.saveImage(resp)
}

func (g *OpenAIImages) saveImage(resp *openai.ImagesResponse) (*ImageResult, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, &models.CapabilityError{
			Category: models.ErrorCategoryUnknown,
			Message:  "The image service returned no image.",
		}
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	path := filepath.Join(g.outputDir, uuid.NewString()+".png")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}
	slog.Debug("Image saved", "path", path, "bytes", len(raw))
	return &ImageResult{Path: path}, nil
}

// buildImagePrompt folds the brand identity into the creative prompt.
func buildImagePrompt(req ImageRequest) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	brand := req.Brand
	if brand.Name != "" {
		fmt.Fprintf(&b, " Social media post for %s", brand.Name)
		if brand.Industry != "" {
			fmt.Fprintf(&b, ", a %s brand", brand.Industry)
		}
		b.WriteString(".")
	}
	if brand.Tone != "" {
		fmt.Fprintf(&b, " Style: %s.", tone.VisualStyle(brand.Tone))
	}
	if len(brand.Colors) > 0 {
		fmt.Fprintf(&b, " Use the brand colors %s prominently.", strings.Join(brand.Colors, ", "))
	}
	if len(req.ReferencePaths) > 0 {
		b.WriteString(" Match the composition of the provided reference imagery.")
	}
	return b.String()
}
