package services

import (
	"context"
	"strings"
)

const DefaultModelID = "mistral-7b-instruct"

type GenerationRequest struct {
	Message     string
	History     []ChatMessage
	Temperature float64
	MaxTokens   int
	UseRAG      bool
}

type Generation struct {
	Text  string
	Model string
}

// DemoGenerator answers every message by echoing it back with a "Demo: "
// prefix. It stands in until a real inference backend is connected.
type DemoGenerator struct {
	Model string
}

func NewDemoGenerator(model string) *DemoGenerator {
	if model == "" {
		model = DefaultModelID
	}
	return &DemoGenerator{Model: model}
}

func (g *DemoGenerator) Generate(ctx context.Context, req GenerationRequest) (*Generation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Generation{Text: "Demo: " + req.Message, Model: g.Model}, nil
}

// CountTokens approximates token usage as the number of whitespace separated words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// chunkWords splits text into word-sized pieces that concatenate back to text.
func chunkWords(text string) []string {
	if text == "" {
		return nil
	}
	return strings.SplitAfter(text, " ")
}
