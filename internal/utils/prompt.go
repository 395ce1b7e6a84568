package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mikey/fraud-detector/internal/core"
)

// ErrNoJSON is returned when a model reply contains no JSON object
var ErrNoJSON = errors.New("no JSON object in reply")

// PhishingSystemPrompt is sent as the system role where the API has one
const PhishingSystemPrompt = "You are a phishing URL detection system. Respond only with JSON."

const phishingPromptFormat = `You are a phishing URL detection system. Decide whether the URL below is a phishing site.
Respond with a JSON object containing:
- is_phishing: boolean (true if phishing, false if legitimate)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- explanation: string (one sentence)

URL: %s

Extracted features (1 = suspicious, -1 = legitimate, 0 = neutral unless noted):
%s
Respond only with the JSON object and nothing else.`

// PhishingVerdict is the JSON object the LLM classifiers ask for
type PhishingVerdict struct {
	IsPhishing  bool    `json:"is_phishing"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// BuildPhishingPrompt renders the classification prompt for a URL and its
// model features. The URL is cut to maxURLSize bytes.
func (tp *TextProcessor) BuildPhishingPrompt(rawURL string, features core.FeatureSet, maxURLSize int) string {
	var b strings.Builder
	for _, k := range features.Keys() {
		b.WriteString("- ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strconv.FormatFloat(features.Get(k), 'g', -1, 64))
		b.WriteByte('\n')
	}
	return fmt.Sprintf(phishingPromptFormat, tp.ProcessText(rawURL, maxURLSize), b.String())
}

// ParsePhishingVerdict decodes a model reply. When the reply is not plain JSON,
// the text between the first '{' and the last '}' is tried.
func ParsePhishingVerdict(reply string) (*PhishingVerdict, error) {
	var v PhishingVerdict
	if err := json.Unmarshal([]byte(reply), &v); err == nil {
		return clampVerdict(&v), nil
	}

	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return clampVerdict(&v), nil
}

func clampVerdict(v *PhishingVerdict) *PhishingVerdict {
	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 1 {
		v.Confidence = 1
	}
	return v
}

// Prediction converts the verdict into a classifier prediction
func (v *PhishingVerdict) Prediction(model string) *core.Prediction {
	label := 0
	if v.IsPhishing {
		label = 1
	}
	return &core.Prediction{
		Label:       label,
		Confidence:  v.Confidence,
		Model:       model,
		Explanation: v.Explanation,
	}
}
