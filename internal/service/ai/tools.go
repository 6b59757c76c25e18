package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/kshitijgupta505/text-classify/internal/service/classify"
)

type textArgs struct {
	Text string `json:"text" jsonschema:"description=The text to process"`
}

// Tools exposes the model service to the agent. Tool calls never persist
// classification records; only the non-conversational path does that.
func Tools(svc *classify.Service) ([]tool.BaseTool, error) {
	classifier, err := utils.InferTool(
		"classify_text",
		"Classify a piece of text as Legitimate, Spam or Phishing and report the model confidence.",
		func(ctx context.Context, args textArgs) (string, error) {
			result, err := svc.Predict(ctx, classify.SelectorSpam, args.Text)
			if err != nil {
				return "", err
			}
			return result.Sentence, nil
		})
	if err != nil {
		return nil, fmt.Errorf("build classify tool: %w", err)
	}

	summarizer, err := utils.InferTool(
		"summarize_text",
		"Produce a short summary of a piece of text.",
		func(ctx context.Context, args textArgs) (string, error) {
			result, err := svc.Predict(ctx, classify.SelectorSummarizer, args.Text)
			if err != nil {
				return "", err
			}
			return result.Output, nil
		})
	if err != nil {
		return nil, fmt.Errorf("build summarize tool: %w", err)
	}

	return []tool.BaseTool{classifier, summarizer}, nil
}
