package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xxxsen/civiclens/internal/model"
)

var (
	moneyPattern = `[^0-9$\n]{0,40}\$?\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(billion|million|thousand|bn|[bmk])?\b`

	financeFieldPatterns = map[string]*regexp.Regexp{
		"total_raised":        regexp.MustCompile(`(?i)total[ _]raised` + moneyPattern),
		"super_pac_spending":  regexp.MustCompile(`(?i)super[ _-]?pac(?:[ _]spending)?` + moneyPattern),
		"lobbying_spending":   regexp.MustCompile(`(?i)lobbying(?:[ _]spending)?` + moneyPattern),
		"dark_money_spending": regexp.MustCompile(`(?i)dark[ _]money(?:[ _]spending)?` + moneyPattern),
	}

	polarizationScoreRe = regexp.MustCompile(`(?i)score[^0-9\n]{0,20}([01](?:\.[0-9]+)?|\.[0-9]+)`)
	polarizationLabelRe = regexp.MustCompile(`(?i)\b(high|medium|moderate|low)\b`)
)

// extractFinanceStats pulls dollar figures out of a free-text answer.
func extractFinanceStats(raw string) model.FinanceStats {
	stats := model.FinanceStats{Estimated: true}
	for field, re := range financeFieldPatterns {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		v := parseMoney(m[1], m[2])
		switch field {
		case "total_raised":
			stats.TotalRaised = v
		case "super_pac_spending":
			stats.SuperPACSpending = v
		case "lobbying_spending":
			stats.LobbyingSpending = v
		case "dark_money_spending":
			stats.DarkMoneySpending = v
		}
	}
	return stats
}

func parseMoney(num, unit string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(unit) {
	case "billion", "bn", "b":
		v *= 1e9
	case "million", "m":
		v *= 1e6
	case "thousand", "k":
		v *= 1e3
	}
	return v
}

// extractPolarization reads a score and label from a free-text answer.
func extractPolarization(raw string) model.Polarization {
	p := model.Polarization{Score: -1}
	if m := polarizationScoreRe.FindStringSubmatch(raw); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 1 {
			p.Score = v
		}
	}
	if m := polarizationLabelRe.FindStringSubmatch(raw); m != nil {
		p.Label = normalizeLabel(m[1])
	}
	switch {
	case p.Score < 0 && p.Label == "":
		p.Score = 0.5
		p.Label = "unknown"
	case p.Score < 0:
		p.Score = labelScore(p.Label)
	case p.Label == "":
		p.Label = scoreLabel(p.Score)
	}
	p.Rationale = strings.TrimSpace(raw)
	if r := []rune(p.Rationale); len(r) > 280 {
		p.Rationale = string(r[:280])
	}
	return p
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "moderate" {
		return "medium"
	}
	return label
}

func scoreLabel(score float64) string {
	switch {
	case score >= 0.67:
		return "high"
	case score >= 0.34:
		return "medium"
	default:
		return "low"
	}
}

func labelScore(label string) float64 {
	switch label {
	case "high":
		return 0.8
	case "low":
		return 0.2
	default:
		return 0.5
	}
}
