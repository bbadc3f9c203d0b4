// Package insights provides AI-generated advisory content for the console:
// property summaries, guest messaging, review analysis, pricing guidance,
// and inventory restock prediction.
//
// The model is an opaque external service and entirely outside the sync
// core. Every call degrades to a static fallback on failure — advisory
// content is never worth an error in the operator's face.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hostflow/hostflow/internal/state"
)

// MessageKind selects the guest message template.
type MessageKind string

const (
	MessageCheckIn    MessageKind = "CHECK_IN"
	MessageCheckOut   MessageKind = "CHECK_OUT"
	MessageHouseRules MessageKind = "HOUSE_RULES"
)

// ReviewAnalysis is the structured result of analyzing guest reviews.
type ReviewAnalysis struct {
	Sentiment    string   `json:"sentiment"`
	Improvements []string `json:"improvements"`
	Summary      string   `json:"summary"`
}

// RestockSuggestion predicts one inventory item likely to run out.
type RestockSuggestion struct {
	ItemName          string `json:"itemName"`
	SuggestedQuantity int    `json:"suggestedQuantity"`
	Reasoning         string `json:"reasoning"`
}

// messageCreator is the slice of the SDK the advisor uses; split out so
// tests can exercise the degrade paths without a network.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Config holds advisory configuration.
type Config struct {
	// APIKey for the model provider; empty disables calls (every method
	// returns its fallback).
	APIKey string

	// Model identifier, e.g. "claude-sonnet-4-5".
	Model string

	// Logger for advisory activity.
	Logger *log.Logger
}

// Advisor issues advisory requests to the model.
type Advisor struct {
	creator messageCreator
	model   anthropic.Model
	logger  *log.Logger
}

// New creates an advisor. A missing API key yields an advisor that only
// ever returns fallbacks, which keeps the rest of the console working.
func New(cfg *Config) *Advisor {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[insights] ", log.LstdFlags)
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	a := &Advisor{
		model:  anthropic.Model(model),
		logger: logger,
	}
	if cfg.APIKey != "" {
		client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
		a.creator = &client.Messages
	}
	return a
}

// generate runs one prompt and returns the concatenated text blocks.
func (a *Advisor) generate(ctx context.Context, prompt string) (string, error) {
	if a.creator == nil {
		return "", fmt.Errorf("no API key configured")
	}

	msg, err := a.creator.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("model returned no text")
	}
	return text, nil
}

// generateJSON runs one prompt that demands a bare JSON response and
// unmarshals it into out.
func (a *Advisor) generateJSON(ctx context.Context, prompt string, out any) error {
	text, err := a.generate(ctx, prompt+"\nRespond with ONLY the JSON, no prose and no code fences.")
	if err != nil {
		return err
	}

	// Models occasionally fence the JSON anyway.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), out); err != nil {
		return fmt.Errorf("model returned unparseable JSON: %w", err)
	}
	return nil
}

// PropertySummary generates a short positioning summary for a property.
func (a *Advisor) PropertySummary(ctx context.Context, propertyName, airbnbURL string) string {
	const fallback = "A premium farm-stay experience offering tranquility and authentic hospitality in a serene natural setting."

	prompt := fmt.Sprintf(`Act as a professional hospitality consultant. I have a property named %q with this Airbnb link: %s.
Based on the name and link, generate a sophisticated, 3-sentence summary of the property's potential vibe and value proposition.
Focus on farm-stay charm and premium hospitality.
Return ONLY the text of the summary.`, propertyName, airbnbURL)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Printf("WARNING: property summary unavailable: %v", err)
		return fallback
	}
	return text
}

// GuestMessage drafts a host message for a guest.
func (a *Advisor) GuestMessage(ctx context.Context, guestName string, kind MessageKind, propertyName string) string {
	const fallback = "Error generating message. Please try again."

	prompt := fmt.Sprintf(`Generate a warm, professional host message for a guest named %s staying at our farm-stay property %q.
The message type is %s. Since we are a farm, make it feel authentic and welcoming.
Include placeholders for time and specific farm-related instructions (like animal safety or organic breakfast) if relevant.
Keep it concise but premium in tone.`, guestName, propertyName, kind)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Printf("WARNING: guest message unavailable: %v", err)
		return fallback
	}
	return text
}

// AnalyzeReviews summarizes sentiment and improvements across guest
// reviews. Returns nil when the analysis is unavailable.
func (a *Advisor) AnalyzeReviews(ctx context.Context, reviews []string, propertyName string) *ReviewAnalysis {
	prompt := fmt.Sprintf(`Analyze these guest reviews for %q and provide a summary of sentiment and top 3 actionable improvements:
%s
Respond as a JSON object with fields "sentiment" (string), "improvements" (array of strings), and "summary" (string).`,
		propertyName, strings.Join(reviews, "\n"))

	var analysis ReviewAnalysis
	if err := a.generateJSON(ctx, prompt, &analysis); err != nil {
		a.logger.Printf("WARNING: review analysis unavailable: %v", err)
		return nil
	}
	return &analysis
}

// PricingInsights suggests pricing strategy for the coming month.
func (a *Advisor) PricingInsights(ctx context.Context, propertyName string) string {
	const fallback = "Could not load pricing insights."

	prompt := fmt.Sprintf(`As a hospitality and tourism expert for farm-stays in India, provide 3 short pricing insights for %q for the upcoming month. Consider Indian seasonal trends (monsoons, holidays), local tourism patterns, and competitive market strategies for niche farm properties.`, propertyName)

	text, err := a.generate(ctx, prompt)
	if err != nil {
		a.logger.Printf("WARNING: pricing insights unavailable: %v", err)
		return fallback
	}
	return text
}

// PredictRestock identifies inventory items likely to run out given current
// stock and upcoming bookings. Returns an empty list when unavailable.
func (a *Advisor) PredictRestock(ctx context.Context, inventory []state.InventoryItem, bookings []state.Booking, propertyName string) []RestockSuggestion {
	inv, err := json.Marshal(inventory)
	if err != nil {
		return nil
	}
	bk, err := json.Marshal(bookings)
	if err != nil {
		return nil
	}

	prompt := fmt.Sprintf(`Given the current inventory levels at %s: %s
and upcoming bookings: %s.
Predict which 3 items are most likely to run out and suggest a restock quantity.
Consider that as a farm stay, we might have specific needs for guest consumables.
Respond as a JSON array of objects with fields "itemName" (string), "suggestedQuantity" (number), and "reasoning" (string).`,
		propertyName, inv, bk)

	var suggestions []RestockSuggestion
	if err := a.generateJSON(ctx, prompt, &suggestions); err != nil {
		a.logger.Printf("WARNING: restock prediction unavailable: %v", err)
		return nil
	}
	return suggestions
}
