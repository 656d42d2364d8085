package parser

import (
	"path/filepath"
	"strings"

	"github.com/lain-code/lain/internal/model"
	"github.com/lain-code/lain/internal/pricing"
)

// sessionBuilder accumulates records of a single log file
type sessionBuilder struct {
	sessionID  string
	title      string
	firstTS    string
	lastTS     string
	models     map[string]int
	modelOrder []string
	usage      model.TokenUsage
}

func newSessionBuilder() *sessionBuilder {
	return &sessionBuilder{models: make(map[string]int)}
}

func (b *sessionBuilder) add(env envelope) {
	// ISO-8601 strings compare chronologically
	if ts := string(env.Timestamp); ts != "" {
		if b.firstTS == "" || ts < b.firstTS {
			b.firstTS = ts
		}
		if b.lastTS == "" || ts > b.lastTS {
			b.lastTS = ts
		}
	}

	if b.sessionID == "" {
		b.sessionID = string(env.SessionID)
	}

	switch env.kind() {
	case kindCustomTitle:
		b.title = string(env.CustomTitle)
	case kindAssistant:
		msg, ok := env.decodeMessage()
		if !ok {
			return
		}
		if name := string(msg.Model); name != "" {
			if _, seen := b.models[name]; !seen {
				b.modelOrder = append(b.modelOrder, name)
			}
			b.models[name]++
		}
		b.usage.Add(model.TokenUsage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
		})
	}
}

// dominantModel returns the most used model; ties go to the first one seen
func (b *sessionBuilder) dominantModel() string {
	var best string
	bestCount := 0
	for _, m := range b.modelOrder {
		if c := b.models[m]; c > bestCount {
			best, bestCount = m, c
		}
	}
	return best
}

func (b *sessionBuilder) summary(path string) *model.SessionSummary {
	if len(b.models) == 0 {
		return nil
	}

	apiCalls := 0
	for _, c := range b.models {
		apiCalls += c
	}

	rawCost := pricing.CalculateCost(b.usage, pricing.Lookup(b.dominantModel()))

	sessionID := b.sessionID
	if sessionID == "" {
		base := filepath.Base(path)
		sessionID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	date := b.firstTS
	if len(date) > 10 {
		date = date[:10]
	}

	return &model.SessionSummary{
		SessionID:         sessionID,
		Title:             b.title,
		Date:              date,
		FirstTS:           b.firstTS,
		LastTS:            b.lastTS,
		Models:            b.models,
		APICalls:          apiCalls,
		InputTokens:       b.usage.InputTokens,
		OutputTokens:      b.usage.OutputTokens,
		CacheReadTokens:   b.usage.CacheReadInputTokens,
		CacheCreateTokens: b.usage.CacheCreationInputTokens,
		Cost:              pricing.Round(rawCost, 4),
		RawCost:           rawCost,
	}
}

// ParseSession reduces a single log file to a session summary. It returns
// (nil, nil) when the file holds no assistant record with a model, and a
// non-nil error only when the file cannot be opened or read.
func ParseSession(path string) (*model.SessionSummary, error) {
	b := newSessionBuilder()
	err := EachLine(path, func(line []byte) bool {
		env, err := decodeLine(line)
		if err != nil {
			// Skip malformed lines
			return true
		}
		b.add(env)
		return true
	})
	if err != nil {
		return nil, err
	}
	return b.summary(path), nil
}
