// Package tokenizer estimates how many model tokens an assembled document occupies.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters.
type Config struct {
	Model string
}

const (
	// DefaultModel is used when no model is configured.
	DefaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
)

var openAIModelPrefixes = []string{
	"gpt-",
	"o1",
	"o3",
	"text-embedding",
	"davinci",
	"curie",
	"babbage",
	"ada",
	"code-",
}

// NewCounter returns a Counter for the requested model together with the model name the count is
// reported under. Models tiktoken does not know fall back to the cl100k_base encoding.
func NewCounter(cfg Config) (Counter, string, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	lowerModel := strings.ToLower(model)

	if isOpenAIModel(lowerModel) {
		encoding, encodingErr := tiktoken.EncodingForModel(lowerModel)
		if encodingErr == nil && encoding != nil {
			return encodingCounter{encoding: encoding, name: lowerModel}, model, nil
		}
	}
	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}

func isOpenAIModel(model string) bool {
	for _, prefix := range openAIModelPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// encodingCounter counts tokens with a tiktoken encoding; name is the model or encoding reported in the
// run summary.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("tokenizer encoding is not initialized")
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}
