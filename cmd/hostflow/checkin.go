package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

// dateParser understands both "2026-03-10" and "next friday".
var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDate normalizes operator date input to YYYY-MM-DD.
func parseDate(s string, base time.Time) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("date is required")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	r, err := dateParser.Parse(s, base)
	if err != nil || r == nil {
		return "", fmt.Errorf("could not understand date %q", s)
	}
	return r.Time.Format("2006-01-02"), nil
}

var checkinCmd = &cobra.Command{
	Use:     "checkin",
	GroupID: "operations",
	Short:   "Check in a walk-in or arriving guest",
	Long: `Run the front-desk check-in flow.

Collects the guest party, stay dates, package, and payment in one pass,
then records the booking (CHECKED_IN), updates the guest CRM, and posts
the payment to the ledger. Dates accept natural language: "today",
"next friday", or plain 2026-03-10.`,
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

		propertyID, err := selectProperty(app)
		if err != nil {
			return err
		}

		var (
			guestName   string
			guestEmail  string
			guestPhone  string
			checkInRaw  = "today"
			checkOutRaw string
			guestsRaw   = "1"
			priceRaw    string
			packageID   string
			idType      string
			idNumber    string
			vehicle     string
		)

		pkgOptions := []huh.Option[string]{huh.NewOption("No package", "")}
		for _, p := range app.Store.StayPackages() {
			pkgOptions = append(pkgOptions, huh.NewOption(p.Title, p.ID))
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Guest name").Value(&guestName),
				huh.NewInput().Title("Email").Value(&guestEmail),
				huh.NewInput().Title("Phone").Value(&guestPhone),
				huh.NewInput().Title("Guests in party").Value(&guestsRaw),
			),
			huh.NewGroup(
				huh.NewInput().Title("Check-in date").Value(&checkInRaw),
				huh.NewInput().Title("Check-out date").Value(&checkOutRaw),
				huh.NewSelect[string]().Title("Stay package").Options(pkgOptions...).Value(&packageID),
				huh.NewInput().Title("Total price").Value(&priceRaw),
			),
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("ID type").
					Options(
						huh.NewOption("Aadhaar", "Aadhaar"),
						huh.NewOption("Passport", "Passport"),
						huh.NewOption("Driving licence", "Driving Licence"),
						huh.NewOption("None", ""),
					).
					Value(&idType),
				huh.NewInput().Title("ID number").Value(&idNumber),
				huh.NewInput().Title("Vehicle number").Value(&vehicle),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		guestName = strings.TrimSpace(guestName)
		if guestName == "" {
			return fmt.Errorf("guest name is required")
		}

		now := time.Now()
		checkIn, err := parseDate(checkInRaw, now)
		if err != nil {
			return err
		}
		checkOut := ""
		if strings.TrimSpace(checkOutRaw) != "" {
			if checkOut, err = parseDate(checkOutRaw, now); err != nil {
				return err
			}
		}

		guestsCount, err := strconv.Atoi(strings.TrimSpace(guestsRaw))
		if err != nil || guestsCount < 1 {
			return fmt.Errorf("guests in party must be a positive number")
		}

		// Collect companions so every adult in the party gets a CRM record
		companions, err := collectCompanions()
		if err != nil {
			return err
		}
		if len(companions)+1 > guestsCount {
			guestsCount = len(companions) + 1
		}

		price := 0.0
		if strings.TrimSpace(priceRaw) != "" {
			if price, err = strconv.ParseFloat(strings.TrimSpace(priceRaw), 64); err != nil || price < 0 {
				return fmt.Errorf("total price must be a non-negative number")
			}
		}

		cottage := ""
		for _, p := range app.Store.StayPackages() {
			if p.ID == packageID {
				cottage = p.Title
			}
		}

		guestID := "guest-" + uuid.NewString()
		booking := state.Booking{
			ID:          "bk-" + uuid.NewString(),
			PropertyID:  propertyID,
			GuestID:     guestID,
			GuestName:   guestName,
			CheckIn:     checkIn,
			CheckOut:    checkOut,
			Status:      state.BookingCheckedIn,
			TotalPrice:  price,
			GuestsCount: guestsCount,
			Source:      "Walk-in",
			CottageName: cottage,
		}
		if err := booking.Validate(); err != nil {
			return err
		}

		app.Store.AddBooking(booking)
		app.Store.UpsertGuest(state.Guest{
			ID:            guestID,
			PropertyID:    propertyID,
			Name:          guestName,
			Email:         strings.TrimSpace(strings.ToLower(guestEmail)),
			Phone:         strings.TrimSpace(guestPhone),
			Rating:        5,
			TotalStays:    1,
			LastStay:      checkIn,
			IDType:        idType,
			IDNumber:      strings.TrimSpace(idNumber),
			VehicleNumber: strings.TrimSpace(vehicle),
		})
		for _, c := range companions {
			c.PropertyID = propertyID
			c.ID = "guest-" + uuid.NewString()
			c.Rating = 5
			c.TotalStays = 1
			c.LastStay = checkIn
			app.Store.UpsertGuest(c)
		}
		if price > 0 {
			app.Store.AddTransaction(state.Transaction{
				ID:          "txn-" + uuid.NewString(),
				PropertyID:  propertyID,
				Date:        checkIn,
				Type:        state.Income,
				Category:    "Booking",
				Amount:      price,
				Description: fmt.Sprintf("Check-in: %s", guestName),
			})
		}

		fmt.Printf("%s Checked in %s (%s → %s)\n", ui.RenderPass("✓"), guestName, checkIn, orDash(checkOut))
		if price > 0 {
			fmt.Printf("  Payment of %.2f posted to the ledger\n", price)
		}
		return app.flush(ctx)
	},
}

// collectCompanions loops the add-another-guest prompt until the operator
// declines, returning the extra party members.
func collectCompanions() ([]state.Guest, error) {
	var companions []state.Guest
	for {
		var more bool
		confirm := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title("Add another guest to the party?").Value(&more),
		))
		if err := confirm.Run(); err != nil {
			return nil, err
		}
		if !more {
			return companions, nil
		}

		var name, email, phone, idType, idNumber string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Guest name").Value(&name),
			huh.NewInput().Title("Email").Value(&email),
			huh.NewInput().Title("Phone").Value(&phone),
			huh.NewInput().Title("ID type").Value(&idType),
			huh.NewInput().Title("ID number").Value(&idNumber),
		))
		if err := form.Run(); err != nil {
			return nil, err
		}
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		companions = append(companions, state.Guest{
			Name:     name,
			Email:    strings.TrimSpace(strings.ToLower(email)),
			Phone:    strings.TrimSpace(phone),
			IDType:   strings.TrimSpace(idType),
			IDNumber: strings.TrimSpace(idNumber),
		})
	}
}

// selectProperty resolves the target property, prompting only when the
// portfolio has more than one.
func selectProperty(app *App) (string, error) {
	props := app.Store.Properties()
	switch len(props) {
	case 0:
		return "", fmt.Errorf("no properties configured — run 'hostflow property add' first")
	case 1:
		return props[0].ID, nil
	}

	opts := make([]huh.Option[string], 0, len(props))
	for _, p := range props {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
	}

	var id string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Property").Options(opts...).Value(&id),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(checkinCmd)
}
