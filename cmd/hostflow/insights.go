package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/insights"
	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var insightsMessageKind string

var insightsCmd = &cobra.Command{
	Use:     "insights",
	GroupID: "planning",
	Short:   "AI-assisted planning and guest messaging",
	Long: `AI advisory tools: property positioning, guest messages, review
analysis, pricing guidance, and restock prediction.

Requires an API key in config (ai.api_key) or HOSTFLOW_AI_API_KEY.
Everything degrades to static fallbacks when the model is unavailable;
advisory output never blocks the console.`,
}

// activeProperty picks the property insights commands talk about.
func activeProperty(app *App) (state.PropertyConfig, error) {
	props := app.Store.Properties()
	if len(props) == 0 {
		return state.PropertyConfig{}, fmt.Errorf("no properties configured — run 'hostflow property add' first")
	}
	active := app.Store.ActivePropertyID()
	for _, p := range props {
		if p.ID == active {
			return p, nil
		}
	}
	return props[0], nil
}

var insightsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Positioning summary for the active property",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		prop, err := activeProperty(app)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading(prop.Name))
		fmt.Println(app.Advisor.PropertySummary(ctx, prop.Name, prop.AirbnbURL))
		fmt.Println()
		return nil
	},
}

var insightsMessageCmd = &cobra.Command{
	Use:   "message <guest-name>",
	Short: "Draft a guest message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		var kind insights.MessageKind
		switch strings.ToLower(insightsMessageKind) {
		case "checkin":
			kind = insights.MessageCheckIn
		case "checkout":
			kind = insights.MessageCheckOut
		case "rules":
			kind = insights.MessageHouseRules
		default:
			return fmt.Errorf("kind must be checkin, checkout, or rules")
		}

		prop, err := activeProperty(app)
		if err != nil {
			return err
		}

		fmt.Println(app.Advisor.GuestMessage(ctx, strings.Join(args, " "), kind, prop.Name))
		return nil
	},
}

var insightsReviewsCmd = &cobra.Command{
	Use:   "reviews <review-file>",
	Short: "Analyze guest reviews (one per line)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		reviews, err := readLines(args[0])
		if err != nil {
			return err
		}
		if len(reviews) == 0 {
			return fmt.Errorf("no reviews in %s", args[0])
		}

		prop, err := activeProperty(app)
		if err != nil {
			return err
		}

		analysis := app.Advisor.AnalyzeReviews(ctx, reviews, prop.Name)
		if analysis == nil {
			fmt.Println(ui.RenderWarn("! Review analysis is unavailable right now"))
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Review Analysis"))
		fmt.Printf("Sentiment: %s\n\n", ui.RenderAccent(analysis.Sentiment))
		fmt.Println(analysis.Summary)
		if len(analysis.Improvements) > 0 {
			fmt.Printf("\nTop improvements:\n")
			for i, imp := range analysis.Improvements {
				fmt.Printf("  %d. %s\n", i+1, imp)
			}
		}
		fmt.Println()
		return nil
	},
}

var insightsPricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Pricing guidance for the coming month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		prop, err := activeProperty(app)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Pricing Insights"))
		fmt.Println(app.Advisor.PricingInsights(ctx, prop.Name))
		fmt.Println()
		return nil
	},
}

var insightsRestockCmd = &cobra.Command{
	Use:   "restock",
	Short: "Predict inventory likely to run out",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		prop, err := activeProperty(app)
		if err != nil {
			return err
		}

		suggestions := app.Advisor.PredictRestock(ctx,
			app.Store.Inventory(state.ActiveAll),
			app.Store.Bookings(state.ActiveAll),
			prop.Name)
		if len(suggestions) == 0 {
			fmt.Println(ui.RenderWarn("! Restock prediction is unavailable right now"))
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Restock Predictions"))
		for _, s := range suggestions {
			fmt.Printf("%s — order %d\n", ui.RenderAccent(s.ItemName), s.SuggestedQuantity)
			fmt.Printf("  %s\n", ui.RenderFaint(s.Reasoning))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	insightsMessageCmd.Flags().StringVar(&insightsMessageKind, "kind", "checkin", "checkin, checkout, or rules")
	insightsCmd.AddCommand(insightsSummaryCmd)
	insightsCmd.AddCommand(insightsMessageCmd)
	insightsCmd.AddCommand(insightsReviewsCmd)
	insightsCmd.AddCommand(insightsPricingCmd)
	insightsCmd.AddCommand(insightsRestockCmd)
	rootCmd.AddCommand(insightsCmd)
}
