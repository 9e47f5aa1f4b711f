// Package advisor asks a generative model for spending advice over a
// privacy-reduced view of the ledger.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"masarify/internal/core"
	"masarify/internal/log"
)

const temperature = 0.7

type AskRequest struct {
	Question     string
	Transactions []core.Transaction
	Categories   []core.Category
	Language     core.Language
	CurrencyCode string
}

// Advisor never returns errors: every failure becomes a localized chat message.
type Advisor struct {
	gen      Generator
	maxItems int
	timeout  time.Duration
	logger   *log.Logger
}

// New builds an advisor; a nil gen means no API key was configured.
func New(gen Generator, maxItems int, timeout time.Duration, logger *log.Logger) *Advisor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Advisor{gen: gen, maxItems: maxItems, timeout: timeout, logger: logger.WithComponent(log.ComponentAdvisor)}
}

func systemInstruction(lang core.Language, currency string) string {
	name := "English"
	if lang == core.Arabic {
		name = "Arabic"
	}
	return fmt.Sprintf(`You are an expert financial advisor named "Masarify AI".
Analyze the provided transaction JSON data.
The user's language is %[1]s.
Respond strictly in %[1]s.
Be concise, encouraging, and provide specific actionable advice based on the spending patterns.
Format your response in Markdown (use bullet points, bold text).
Focus on high spending categories and saving opportunities.
The currency code is %[2]s.`, name, currency)
}

// BuildPrompt assembles the request sent to the model.
func (a *Advisor) BuildPrompt(req AskRequest) (Prompt, error) {
	data, err := json.Marshal(BuildSummary(req.Transactions, req.Categories, a.maxItems))
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: systemInstruction(req.Language, req.CurrencyCode),
		Parts: []string{
			"Here is my recent transaction data: " + string(data),
			"User Question: " + req.Question,
		},
		Temperature: temperature,
	}, nil
}

// Ask returns the model's answer or a localized error string. No retries.
func (a *Advisor) Ask(ctx context.Context, req AskRequest) string {
	if a.gen == nil {
		a.logger.ErrorContext(ctx, "Advisor API key is missing")
		return missingKey.text(req.Language)
	}
	prompt, err := a.BuildPrompt(req)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to build advisor prompt", log.FieldError, err)
		return serviceError.text(req.Language)
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.logger.ErrorContext(ctx, "Advisor request failed", log.FieldError, err, log.FieldDuration, time.Since(start).Milliseconds())
		return serviceError.text(req.Language)
	}
	if strings.TrimSpace(answer) == "" {
		return emptyAnswer.text(req.Language)
	}
	a.logger.InfoContext(ctx, "Advisor answered", log.FieldDuration, time.Since(start).Milliseconds())
	return answer
}
