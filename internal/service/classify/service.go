// Package classify calls the external model service and translates its
// predictions into user-facing replies and classification records.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/model/classification"
	"github.com/kshitijgupta505/text-classify/internal/store"
)

// explainPromptPrefix is prepended to the stored input text so a later
// explanation request can feed the record straight to a language model.
// Kept for compatibility with the existing dashboard explain flow.
const explainPromptPrefix = "You're classifying text given to you as 'Spam', 'Phishing' and 'Legitimate' only. " +
	"You just need to give the reason as to why it could be so, nothing else. "

// Notifier is told about newly persisted classification records. The live
// stats feed implements it; a nil notifier disables notifications.
type Notifier interface {
	ClassificationRecorded(ctx context.Context, r classification.Record)
}

// Result is the outcome of one model prediction.
type Result struct {
	Tool       string
	Output     string
	Sentence   string
	Confidence float64
}

// Service runs the non-conversational model path.
type Service struct {
	baseURL  string
	client   *http.Client
	records  store.ClassificationStore
	notifier Notifier
	log      *zap.Logger
}

// NewService builds a classify service against the model service base URL.
// records may be nil when no database is configured; record persistence is
// then skipped.
func NewService(baseURL string, timeout time.Duration, records store.ClassificationStore, notifier Notifier, log *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		records:  records,
		notifier: notifier,
		log:      log,
	}
}

// prediction covers every response shape the model service returns:
// {class, confidence}, {sentiment, confidence} and {summary}.
type prediction struct {
	Class      string  `json:"class"`
	Sentiment  string  `json:"sentiment"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// Predict calls the selector's endpoint and composes the reply sentence
// without any side effects. Agent tools use this entry point.
func (s *Service) Predict(ctx context.Context, sel Selector, text string) (Result, error) {
	result, _, err := s.run(ctx, sel, text)
	return result, err
}

// Classify runs a full classification turn: predict, translate, and for
// the spam classifier persist a record under the calling user.
func (s *Service) Classify(ctx context.Context, sel Selector, userID, text string) (Result, error) {
	result, v, err := s.run(ctx, sel, text)
	if err != nil {
		return Result{}, err
	}

	if v.record && s.records != nil {
		if err := s.saveRecord(ctx, userID, result.Output, result.Confidence, text); err != nil {
			return Result{}, err
		}
	}

	return result, nil
}

func (s *Service) run(ctx context.Context, sel Selector, text string) (Result, variant, error) {
	v, ok := variants[sel]
	if !ok {
		return Result{}, variant{}, fmt.Errorf("unknown model selector %q", sel)
	}

	pred, err := s.predict(ctx, v.path, text)
	if err != nil {
		return Result{}, variant{}, err
	}

	result := Result{Tool: v.tool, Confidence: pred.Confidence}
	switch v.kind {
	case kindClass:
		label := v.translate(pred.Class)
		result.Output = label
		result.Sentence = fmt.Sprintf("Your text was classified as %q with %.2f%% confidence.", label, pred.Confidence*100)
	case kindSentiment:
		label := v.translate(pred.Sentiment)
		result.Output = label
		result.Sentence = fmt.Sprintf("Your text has a %q sentiment with %.2f%% confidence.", label, pred.Confidence*100)
	case kindSummary:
		result.Output = pred.Summary
		result.Sentence = "Summary: " + pred.Summary
	}

	return result, v, nil
}

// predict posts {"text": ...} to the model service and decodes the reply.
func (s *Service) predict(ctx context.Context, path, text string) (prediction, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return prediction{}, fmt.Errorf("marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return prediction{}, fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return prediction{}, fmt.Errorf("call model service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return prediction{}, fmt.Errorf("model service responded with status %d", resp.StatusCode)
	}

	var pred prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return prediction{}, fmt.Errorf("decode prediction: %w", err)
	}
	return pred, nil
}

func (s *Service) saveRecord(ctx context.Context, userID, label string, confidence float64, text string) error {
	record, err := s.records.InsertClassification(ctx, classification.Record{
		UserID:     userID,
		Type:       strings.ToLower(label),
		Confidence: confidence,
		Text:       explainPromptPrefix + text,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save classification: %w", err)
	}

	s.log.Info("classification recorded",
		zap.String("userId", userID),
		zap.String("type", record.Type),
		zap.Float64("confidence", confidence))

	if s.notifier != nil {
		s.notifier.ClassificationRecorded(ctx, record)
	}
	return nil
}
