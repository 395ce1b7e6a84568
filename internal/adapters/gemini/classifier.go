package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// ContentGenerator is the subset of genai.GenerativeModel used here
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Classifier asks a Gemini model whether a URL is phishing
type Classifier struct {
	client        *genai.Client
	model         ContentGenerator
	modelName     string
	maxURLSize    int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

var _ core.Classifier = (*Classifier)(nil)

// NewClassifier creates a classifier around a generator. client may be nil
// when the generator is not backed by a genai.Client.
func NewClassifier(
	client *genai.Client,
	model ContentGenerator,
	modelName string,
	maxURLSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Classifier {
	return &Classifier{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxURLSize:    maxURLSize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Close closes the Gemini client
func (c *Classifier) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Predict classifies the URL from its model features
func (c *Classifier) Predict(ctx context.Context, rawURL string, features core.FeatureSet) (*core.Prediction, error) {
	prompt := c.textProcessor.BuildPhishingPrompt(rawURL, features, c.maxURLSize)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate content with Gemini: %v", core.ErrModelUnavailable, err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response from Gemini", core.ErrModelUnavailable)
	}

	verdict, err := utils.ParsePhishingVerdict(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	c.logger.Debug("Gemini classified URL",
		zap.String("url", rawURL),
		zap.Bool("phishing", verdict.IsPhishing),
		zap.Float64("confidence", verdict.Confidence))

	return verdict.Prediction(c.modelName), nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
