package insights

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeCreator struct {
	text string
	err  error
}

func (f *fakeCreator) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: f.text},
		},
	}, nil
}

func newTestAdvisor(creator messageCreator) *Advisor {
	return &Advisor{
		creator: creator,
		model:   anthropic.Model("claude-sonnet-4-5"),
		logger:  log.New(io.Discard, "", 0),
	}
}

func TestNoAPIKeyReturnsFallbacks(t *testing.T) {
	a := New(&Config{Logger: log.New(io.Discard, "", 0)})
	ctx := context.Background()

	if got := a.PropertySummary(ctx, "Asteya Farms", ""); got == "" {
		t.Error("expected static summary, got empty string")
	}
	if got := a.GuestMessage(ctx, "Ravi", MessageCheckIn, "Asteya Farms"); got != "Error generating message. Please try again." {
		t.Errorf("unexpected fallback message: %q", got)
	}
	if got := a.AnalyzeReviews(ctx, []string{"lovely stay"}, "Asteya Farms"); got != nil {
		t.Errorf("expected nil analysis without API key, got %+v", got)
	}
	if got := a.PricingInsights(ctx, "Asteya Farms"); got != "Could not load pricing insights." {
		t.Errorf("unexpected pricing fallback: %q", got)
	}
	if got := a.PredictRestock(ctx, nil, nil, "Asteya Farms"); got != nil {
		t.Errorf("expected no suggestions without API key, got %+v", got)
	}
}

func TestGenerateReturnsModelText(t *testing.T) {
	a := newTestAdvisor(&fakeCreator{text: "A serene escape."})

	got := a.PropertySummary(context.Background(), "Asteya Farms", "https://airbnb.com/x")
	if got != "A serene escape." {
		t.Errorf("expected model text, got %q", got)
	}
}

func TestModelErrorFallsBack(t *testing.T) {
	a := newTestAdvisor(&fakeCreator{err: errors.New("rate limited")})

	got := a.GuestMessage(context.Background(), "Ravi", MessageCheckOut, "Asteya Farms")
	if got != "Error generating message. Please try again." {
		t.Errorf("expected fallback after model error, got %q", got)
	}
}

func TestAnalyzeReviewsParsesJSON(t *testing.T) {
	a := newTestAdvisor(&fakeCreator{
		text: `{"sentiment":"positive","improvements":["faster wifi"],"summary":"Guests loved it."}`,
	})

	got := a.AnalyzeReviews(context.Background(), []string{"great"}, "Asteya Farms")
	if got == nil {
		t.Fatal("expected analysis, got nil")
	}
	if got.Sentiment != "positive" || len(got.Improvements) != 1 || got.Summary == "" {
		t.Errorf("unexpected analysis: %+v", got)
	}
}

func TestAnalyzeReviewsStripsCodeFences(t *testing.T) {
	a := newTestAdvisor(&fakeCreator{
		text: "```json\n{\"sentiment\":\"mixed\",\"improvements\":[],\"summary\":\"ok\"}\n```",
	})

	got := a.AnalyzeReviews(context.Background(), []string{"fine"}, "Asteya Farms")
	if got == nil {
		t.Fatal("expected analysis despite code fences, got nil")
	}
	if got.Sentiment != "mixed" {
		t.Errorf("expected sentiment mixed, got %q", got.Sentiment)
	}
}

func TestPredictRestockParsesArray(t *testing.T) {
	a := newTestAdvisor(&fakeCreator{
		text: `[{"itemName":"Bath Towels","suggestedQuantity":20,"reasoning":"heavy turnover"}]`,
	})

	got := a.PredictRestock(context.Background(), nil, nil, "Asteya Farms")
	if len(got) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(got))
	}
	if got[0].ItemName != "Bath Towels" || got[0].SuggestedQuantity != 20 {
		t.Errorf("unexpected suggestion: %+v", got[0])
	}
}

func TestUnparseableJSONFallsBack(t *testing.T) {
	a := newTestAdvisor(&fakeCreator{text: "Sorry, I cannot help with that."})

	if got := a.AnalyzeReviews(context.Background(), []string{"x"}, "Asteya Farms"); got != nil {
		t.Errorf("expected nil for unparseable response, got %+v", got)
	}
	if got := a.PredictRestock(context.Background(), nil, nil, "Asteya Farms"); got != nil {
		t.Errorf("expected nil for unparseable response, got %+v", got)
	}
}
