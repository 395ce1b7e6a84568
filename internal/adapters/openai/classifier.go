package openai

import (
	"context"
	"fmt"

	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Classifier asks an OpenAI chat model whether a URL is phishing
type Classifier struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxURLSize    int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

var _ core.Classifier = (*Classifier)(nil)

// NewClassifier creates a new OpenAI-backed classifier
func NewClassifier(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxURLSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Classifier {
	return &Classifier{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxURLSize:    maxURLSize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Predict classifies the URL from its model features
func (c *Classifier) Predict(ctx context.Context, rawURL string, features core.FeatureSet) (*core.Prediction, error) {
	prompt := c.textProcessor.BuildPhishingPrompt(rawURL, features, c.maxURLSize)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: utils.PhishingSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create chat completion with OpenAI: %v", core.ErrModelUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response from OpenAI", core.ErrModelUnavailable)
	}

	verdict, err := utils.ParsePhishingVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	c.logger.Debug("OpenAI classified URL",
		zap.String("url", rawURL),
		zap.Bool("phishing", verdict.IsPhishing),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("processing_id", resp.ID))

	return verdict.Prediction(c.modelName), nil
}
