package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/model/chat"
)

// Runner executes one conversational turn, calling emit for every event
// in occurrence order. Token text accumulation is the caller's concern.
type Runner interface {
	Run(ctx context.Context, history []chat.Turn, newMessage string, emit func(Event) error) error
}

// AgentRunner drives a react agent over the configured chat model.
type AgentRunner struct {
	agent *react.Agent
	log   *zap.Logger
}

// NewAgentRunner compiles the tool-calling agent.
func NewAgentRunner(ctx context.Context, chatModel model.ToolCallingChatModel, tools []tool.BaseTool, log *zap.Logger) (*AgentRunner, error) {
	ragent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tools,
		},
		MaxStep: 12,
	})
	if err != nil {
		return nil, fmt.Errorf("build react agent: %w", err)
	}

	return &AgentRunner{agent: ragent, log: log}, nil
}

// Run streams the agent's answer, relaying tool invocations and token
// deltas through emit. Tool events are produced by framework callbacks
// and translated into the internal union before emission.
func (r *AgentRunner) Run(ctx context.Context, history []chat.Turn, newMessage string, emit func(Event) error) error {
	messages := toSchemaMessages(history)
	messages = append(messages, schema.UserMessage(newMessage))

	handler := r.toolCallbackHandler(emit)

	stream, err := r.agent.Stream(ctx, messages, agent.WithComposeOptions(compose.WithCallbacks(handler)))
	if err != nil {
		return fmt.Errorf("start agent stream: %w", err)
	}
	defer stream.Close()

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			return nil
		}
		if recvErr != nil {
			return fmt.Errorf("recv agent chunk: %w", recvErr)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		if err := emit(Event{Kind: EventToken, Token: chunk.Content}); err != nil {
			return err
		}
	}
}

// toolCallbackHandler adapts framework tool callbacks to internal events.
// Callback emission failures are logged rather than returned: callbacks
// cannot abort the run, and a dropped tool frame is not worth failing the
// whole turn for.
func (r *AgentRunner) toolCallbackHandler(emit func(Event) error) callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
			if info == nil || info.Component != components.ComponentOfTool {
				return ctx
			}
			ev := Event{Kind: EventToolStart, Tool: toolName(info)}
			if in := tool.ConvCallbackInput(input); in != nil {
				ev.Input = decodeToolArguments(in.ArgumentsInJSON)
			}
			if err := emit(ev); err != nil {
				r.log.Warn("drop tool-start event", zap.Error(err))
			}
			return ctx
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			if info == nil || info.Component != components.ComponentOfTool {
				return ctx
			}
			ev := Event{Kind: EventToolEnd, Tool: toolName(info)}
			if out := tool.ConvCallbackOutput(output); out != nil {
				ev.Output = out.Response
			}
			if err := emit(ev); err != nil {
				r.log.Warn("drop tool-end event", zap.Error(err))
			}
			return ctx
		}).
		Build()
}

func toolName(info *callbacks.RunInfo) string {
	if info.Name == "" {
		return "unknown"
	}
	return info.Name
}

// decodeToolArguments surfaces the structured tool input when it parses
// as JSON, otherwise the raw argument string.
func decodeToolArguments(raw string) any {
	if raw == "" {
		return nil
	}
	var structured any
	if err := json.Unmarshal([]byte(raw), &structured); err != nil {
		return raw
	}
	return structured
}

func toSchemaMessages(history []chat.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case chat.RoleUser:
			messages = append(messages, schema.UserMessage(turn.Content))
		case chat.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}

var _ Runner = (*AgentRunner)(nil)
