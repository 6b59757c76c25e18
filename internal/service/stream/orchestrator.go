// Package stream orchestrates one chat turn into an ordered event stream:
// persist the user message, run the classification or agent path, emit the
// terminal event, persist the assistant reply.
package stream

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/model/chat"
	streammodel "github.com/kshitijgupta505/text-classify/internal/model/stream"
	"github.com/kshitijgupta505/text-classify/internal/service/ai"
	"github.com/kshitijgupta505/text-classify/internal/service/classify"
	"github.com/kshitijgupta505/text-classify/internal/store"
)

// ErrAgentUnavailable reports a conversational turn without a configured agent.
var ErrAgentUnavailable = errors.New("conversational agent is not configured")

// Request carries everything one turn needs.
type Request struct {
	UserID     string
	ChatID     string
	NewMessage string
	History    []chat.Turn
	ModelID    string
}

// Orchestrator runs turns. Each Stream call produces a single-use channel
// that always starts with a connected event and terminates with exactly
// one of done or error before closing.
type Orchestrator struct {
	chats      store.ChatStore
	classifier *classify.Service
	agent      ai.Runner
	pacer      *Pacer
	log        *zap.Logger
}

// NewOrchestrator wires the turn pipeline. agent may be nil when no chat
// model is configured; conversational turns then fail with a stream error.
func NewOrchestrator(chats store.ChatStore, classifier *classify.Service, agent ai.Runner, pacer *Pacer, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		chats:      chats,
		classifier: classifier,
		agent:      agent,
		pacer:      pacer,
		log:        log,
	}
}

// Stream starts the turn and returns its live event channel. The channel
// is closed by the orchestrator; the caller only reads.
func (o *Orchestrator) Stream(ctx context.Context, req Request) <-chan streammodel.Event {
	out := make(chan streammodel.Event, 16)
	go o.run(ctx, req, out)
	return out
}

func (o *Orchestrator) run(ctx context.Context, req Request, out chan<- streammodel.Event) {
	defer close(out)

	emit := func(ev streammodel.Event) error {
		select {
		case out <- ev:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := emit(streammodel.Connected()); err != nil {
		return
	}

	if _, err := o.chats.AppendMessage(ctx, chat.Message{
		ChatID:  req.ChatID,
		Role:    chat.RoleUser,
		Content: req.NewMessage,
	}); err != nil {
		o.fail(req, emit, err)
		return
	}

	responseText, err := o.dispatch(ctx, req, emit)
	if err != nil {
		o.fail(req, emit, err)
		return
	}

	if err := emit(streammodel.Done()); err != nil {
		return
	}

	// Done has already been emitted; a failed assistant write leaves the
	// history incomplete but cannot be reported on this stream anymore.
	if _, err := o.chats.AppendMessage(ctx, chat.Message{
		ChatID:  req.ChatID,
		Role:    chat.RoleAssistant,
		Content: responseText,
	}); err != nil {
		o.log.Error("save assistant message",
			zap.String("chatId", req.ChatID), zap.Error(err))
	}
}

// fail converts any turn error into a best-effort error event. The emit
// failure case is a disconnected client, which there is no one to tell.
func (o *Orchestrator) fail(req Request, emit func(streammodel.Event) error, err error) {
	o.log.Error("stream turn failed",
		zap.String("chatId", req.ChatID),
		zap.String("modelId", req.ModelID),
		zap.Error(err))
	_ = emit(streammodel.Error(err.Error()))
}

func (o *Orchestrator) dispatch(ctx context.Context, req Request, emit func(streammodel.Event) error) (string, error) {
	if sel, ok := classify.SelectorFor(req.ModelID); ok {
		return o.runClassification(ctx, sel, req, emit)
	}
	return o.runAgent(ctx, req, emit)
}

func (o *Orchestrator) runClassification(ctx context.Context, sel classify.Selector, req Request, emit func(streammodel.Event) error) (string, error) {
	if err := emit(streammodel.ToolStart(sel.Tool(), req.NewMessage)); err != nil {
		return "", err
	}

	result, err := o.classifier.Classify(ctx, sel, req.UserID, req.NewMessage)
	if err != nil {
		return "", err
	}

	if err := emit(streammodel.ToolEnd(result.Tool, result.Output)); err != nil {
		return "", err
	}

	if err := o.pacer.Emit(ctx, result.Sentence, emit); err != nil {
		return "", err
	}

	return result.Sentence, nil
}

func (o *Orchestrator) runAgent(ctx context.Context, req Request, emit func(streammodel.Event) error) (string, error) {
	if o.agent == nil {
		return "", ErrAgentUnavailable
	}

	var response strings.Builder
	err := o.agent.Run(ctx, req.History, req.NewMessage, func(ev ai.Event) error {
		switch ev.Kind {
		case ai.EventToken:
			response.WriteString(ev.Token)
			return emit(streammodel.Token(ev.Token))
		case ai.EventToolStart:
			return emit(streammodel.ToolStart(ev.Tool, ev.Input))
		case ai.EventToolEnd:
			return emit(streammodel.ToolEnd(ev.Tool, ev.Output))
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return response.String(), nil
}
