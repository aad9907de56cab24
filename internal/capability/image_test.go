package capability

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/openai/openai-go"
)

// mockImageService implements imageService for testing.
type mockImageService struct {
	resp *openai.ImagesResponse
	err  error
}

func (m *mockImageService) Generate(ctx context.Context, params openai.ImageGenerateParams) (*openai.ImagesResponse, error) {
	return m.resp, m.err
}

func (m *mockImageService) Edit(ctx context.Context, params openai.ImageEditParams) (*openai.ImagesResponse, error) {
	return m.resp, m.err
}

func testImages(t *testing.T, svc imageService) *OpenAIImages {
	t.Helper()
	return &OpenAIImages{
		svc:       svc,
		model:     openai.ImageModelDallE3,
		outputDir: t.TempDir(),
		attempts:  1,
		backoff:   time.Millisecond,
	}
}

func TestBuildImagePrompt(t *testing.T) {
	prompt := buildImagePrompt(ImageRequest{
		Prompt: "A steaming cup of chai on a wooden table.",
		Brand: models.BrandContext{
			Name:     "Chai & Co",
			Industry: "beverages",
			Tone:     "playful",
			Colors:   []string{"#E85D04", "#FFBA08"},
		},
	})
	for _, want := range []string{"Chai & Co", "beverages", "whimsical", "#E85D04, #FFBA08"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
}

func TestGenerate_WritesFile(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	svc := &mockImageService{resp: &openai.ImagesResponse{
		Data: []openai.Image{{B64JSON: base64.StdEncoding.EncodeToString(payload)}},
	}}
	g := testImages(t, svc)

	result, err := g.Generate(context.Background(), ImageRequest{Prompt: "chai cup"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	raw, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("Expected image file at %s: %v", result.Path, err)
	}
	if string(raw) != string(payload) {
		t.Error("Written file does not match generated payload")
	}
}

func TestGenerate_ClassifiesProviderError(t *testing.T) {
	g := testImages(t, &mockImageService{err: errors.New("rejected by safety system")})

	_, err := g.Generate(context.Background(), ImageRequest{Prompt: "chai cup"})
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) || capErr.Category != models.ErrorCategoryBlocked {
		t.Errorf("Expected content_blocked CapabilityError, got %v", err)
	}
}

func TestGenerate_EmptyResponseIsError(t *testing.T) {
	g := testImages(t, &mockImageService{resp: &openai.ImagesResponse{}})

	_, err := g.Generate(context.Background(), ImageRequest{Prompt: "chai cup"})
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) {
		t.Errorf("Expected CapabilityError for empty response, got %v", err)
	}
}

func TestEdit_MissingSourceIsNotFound(t *testing.T) {
	g := testImages(t, &mockImageService{})

	_, err := g.Edit(context.Background(), ImageEditRequest{SourcePath: "/does/not/exist.png", Instruction: "warmer light"})
	var capErr *models.CapabilityError
	if !errors.As(err, &capErr) || capErr.Category != models.ErrorCategoryNotFound {
		t.Errorf("Expected not_found CapabilityError, got %v", err)
	}
}
