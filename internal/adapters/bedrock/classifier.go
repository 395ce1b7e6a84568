package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// anthropicVersion is the messages API version Bedrock expects for Claude
const anthropicVersion = "bedrock-2023-05-31"

// ModelInvoker is the subset of the Bedrock runtime client used here
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Classifier asks a Bedrock-hosted model whether a URL is phishing
type Classifier struct {
	client        ModelInvoker
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxURLSize    int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

var _ core.Classifier = (*Classifier)(nil)

// NewClassifier creates a new Bedrock-backed classifier
func NewClassifier(
	client ModelInvoker,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxURLSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Classifier {
	return &Classifier{
		client:        client,
		modelID:       modelID,
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

	payload, err := c.requestBody(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to invoke Bedrock model: %v", core.ErrModelUnavailable, err)
	}

	text, err := c.responseText(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	verdict, err := utils.ParsePhishingVerdict(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	c.logger.Debug("Bedrock classified URL",
		zap.String("url", rawURL),
		zap.String("model_id", c.modelID),
		zap.Bool("phishing", verdict.IsPhishing),
		zap.Float64("confidence", verdict.Confidence))

	return verdict.Prediction(c.modelID), nil
}

// requestBody builds the model-family specific payload
func (c *Classifier) requestBody(prompt string) ([]byte, error) {
	switch {
	case c.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"anthropic_version": anthropicVersion,
			"max_tokens":        c.maxTokens,
			"temperature":       c.temperature,
			"top_p":             c.topP,
			"system":            utils.PhishingSystemPrompt,
			"messages": []map[string]string{
				{"role": "user", "content": prompt},
			},
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

// responseText pulls the generated text out of a model-family specific reply
func (c *Classifier) responseText(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var b strings.Builder
		for _, part := range claudeResp.Content {
			if part.Type == "text" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() == 0 {
			return "", fmt.Errorf("empty response from Claude model")
		}
		return b.String(), nil

	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Completion string `json:"completion"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, s := range []string{genericResp.Output, genericResp.Text, genericResp.Completion, genericResp.Generation} {
			if s != "" {
				return s, nil
			}
		}
		// The verdict parser can still find an object in the raw body
		return string(body), nil
	}
}

func (c *Classifier) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

func (c *Classifier) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
