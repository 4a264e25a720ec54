package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator generates insights with the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator bound to the given model.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate asks the model for three concise insights and parses the strict
// JSON array it is instructed to return.
func (g *GeminiGenerator) Generate(ctx context.Context, stats MonthlyStats) ([]string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(stats)}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	parsed, err := parseInsightList(raw)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func buildPrompt(stats MonthlyStats) string {
	var b strings.Builder
	b.WriteString("Analyze this financial data and provide 3 concise, actionable insights.\n")
	b.WriteString("Return ONLY a raw JSON array of 3 strings, no Markdown, no code fences.\n\n")
	fmt.Fprintf(&b, "Month: %s\n", stats.Month)
	fmt.Fprintf(&b, "Income: %s\n", stats.TotalIncome)
	fmt.Fprintf(&b, "Expenses: %s\n", stats.TotalExpenses)
	fmt.Fprintf(&b, "Net: %s\n", stats.Net)

	// Stable category order so the prompt is deterministic for a given month.
	categories := make([]string, 0, len(stats.ByCategory))
	for c := range stats.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	b.WriteString("Expense categories:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %s\n", c, stats.ByCategory[c])
	}
	return b.String()
}

// parseInsightList unwraps Markdown fences the model sometimes adds despite
// instructions, then decodes the JSON array, capped at MaxInsights.
func parseInsightList(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = s[start : end+1]
		}
	}

	var insights []string
	if err := json.Unmarshal([]byte(s), &insights); err != nil {
		return nil, fmt.Errorf("unmarshal insights: %w", err)
	}
	if len(insights) == 0 {
		return nil, fmt.Errorf("model returned no insights")
	}
	if len(insights) > MaxInsights {
		insights = insights[:MaxInsights]
	}
	return insights, nil
}
