package classify

// Selector names a non-conversational model served by the model service.
type Selector string

const (
	// SelectorSpam is the default model: a spam/phishing email classifier.
	SelectorSpam       Selector = "default"
	SelectorSentiment  Selector = "sentiment"
	SelectorReview     Selector = "fake_review"
	SelectorSummarizer Selector = "summarizer"
)

// resultKind decides which response field carries the prediction and how
// the reply sentence is phrased.
type resultKind int

const (
	kindClass resultKind = iota
	kindSentiment
	kindSummary
)

// variant maps a selector onto its endpoint, tool name, label table and
// response shape. One entry per selector, checked exhaustively by
// SelectorFor.
type variant struct {
	tool   string
	path   string
	kind   resultKind
	labels map[string]string
	// record marks the one selector whose results are persisted.
	record bool
}

var variants = map[Selector]variant{
	SelectorSpam: {
		tool: "classification",
		path: "/predict_email",
		kind: kindClass,
		labels: map[string]string{
			"Ham":      "Legitimate",
			"Spam":     "Spam",
			"Phishing": "Phishing",
		},
		record: true,
	},
	SelectorSentiment: {
		tool: "sentiment-analysis",
		path: "/predict_sentiment",
		kind: kindSentiment,
		labels: map[string]string{
			"1":  "Positive",
			"0":  "Neutral",
			"-1": "Negative",
		},
	},
	SelectorReview: {
		tool: "review-analysis",
		path: "/predict_review",
		kind: kindClass,
	},
	SelectorSummarizer: {
		tool: "text-summarizer",
		path: "/summarize",
		kind: kindSummary,
	},
}

// SelectorFor resolves a request model id to a classification selector.
// Unknown ids report false and are routed to the conversational agent.
func SelectorFor(modelID string) (Selector, bool) {
	if modelID == "" {
		return SelectorSpam, true
	}
	sel := Selector(modelID)
	_, ok := variants[sel]
	return sel, ok
}

// Tool returns the tool name surfaced in stream events for a selector.
func (s Selector) Tool() string { return variants[s].tool }

// translate maps a raw model label through the selector's label table.
// Labels without a mapping pass through unchanged.
func (v variant) translate(label string) string {
	if translated, ok := v.labels[label]; ok {
		return translated
	}
	return label
}
