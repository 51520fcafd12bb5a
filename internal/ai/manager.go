package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/civiclens/internal/model"
)

type ManagerConfig struct {
	Timeout int
}

type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

// HasGenerator reports whether any text generation provider is configured.
func (m *Manager) HasGenerator() bool {
	return m != nil && m.generator != nil
}

func (m *Manager) Embedder() IEmbedder {
	if m == nil {
		return nil
	}
	return m.embedder
}

// ExplainResults writes a short plain-text explanation of why the titles match the query.
func (m *Manager) ExplainResults(ctx context.Context, query string, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", fmt.Errorf("no titles to explain")
	}
	var sb strings.Builder
	for i, title := range titles {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, title)
	}
	prompt := fmt.Sprintf(`You are a nonpartisan legislative analyst.
A user searched congressional bills for: %q
The matching bills are:
%s
Explain in one or two sentences how these bills relate to the search.
- Be neutral and factual.
- Do not use lists or headings.
- Output ONLY the explanation.`, query, sb.String())
	text, err := m.generateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	plain := PlainText(text)
	if plain == "" {
		return "", fmt.Errorf("empty explanation")
	}
	return plain, nil
}

// EstimateFinanceStats asks for national campaign-finance estimates as JSON.
func (m *Manager) EstimateFinanceStats(ctx context.Context, cycle int) (string, error) {
	prompt := fmt.Sprintf(`You are a campaign finance analyst.
Estimate national US federal election finance figures for the %d cycle.
Return a JSON object only, with these fields (numbers in US dollars):
{"total_raised": number, "super_pac_spending": number, "lobbying_spending": number, "dark_money_spending": number, "top_industries": [string]}
No extra text.`, cycle)
	return m.generateText(ctx, prompt)
}

// AnalyzePolarization asks for a partisan polarization score for one bill as JSON.
func (m *Manager) AnalyzePolarization(ctx context.Context, bill model.Bill) (string, error) {
	prompt := fmt.Sprintf(`You are a nonpartisan legislative analyst.
Rate how politically polarizing the following bill is on a scale from 0 (broad consensus) to 1 (strictly partisan).
Return a JSON object only: {"score": number, "label": "low"|"medium"|"high", "rationale": string}

TITLE: %s
SPONSOR: %s
LATEST ACTION: %s
SUMMARY: %s`, bill.Title, bill.Sponsor, bill.LatestActionText, bill.Summary)
	return m.generateText(ctx, prompt)
}

func (m *Manager) generateText(ctx context.Context, prompt string) (string, error) {
	if !m.HasGenerator() {
		return "", ErrUnavailable
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}
