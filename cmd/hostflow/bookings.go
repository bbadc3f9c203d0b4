package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/ui"
)

var bookingsProperty string

var bookingsCmd = &cobra.Command{
	Use:     "bookings",
	GroupID: "operations",
	Short:   "Manage bookings",
	Long: `List and update bookings.

By default the whole portfolio is shown; use --property to narrow to one
property.`,
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if _, err := app.requireUser(); err != nil {
			return err
		}

		bookings := app.Store.Bookings(propertyOrAll(bookingsProperty))
		if len(bookings) == 0 {
			fmt.Println("No bookings")
			return nil
		}

		fmt.Printf("\n%s\n\n", ui.RenderHeading("Bookings"))
		fmt.Printf("%-10s %-22s %-12s %-12s %-12s %8s\n", "ID", "GUEST", "CHECK-IN", "CHECK-OUT", "STATUS", "TOTAL")
		for _, b := range bookings {
			fmt.Printf("%-10s %-22s %-12s %-12s %-12s %8.2f\n",
				shortID(b.ID), b.GuestName, b.CheckIn, orDash(b.CheckOut), b.Status, b.TotalPrice)
		}
		fmt.Println()
		return nil
	},
}

var (
	bookingAddCheckIn  string
	bookingAddCheckOut string
	bookingAddGuests   int
	bookingAddPrice    float64
	bookingAddSource   string
)

var bookingsAddCmd = &cobra.Command{
	Use:   "add <guest-name>",
	Short: "Record a future booking",
	Long: `Record a confirmed reservation without checking the guest in.

Use 'hostflow checkin' when the guest is at the desk; this command is for
bookings that arrive ahead of time (phone, OTA, email).`,
	Args: cobra.MinimumNArgs(1),
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

		props := app.Store.Properties()
		propertyID := bookingsProperty
		if propertyID == "" {
			if len(props) == 0 {
				return fmt.Errorf("no properties configured — run 'hostflow property add' first")
			}
			propertyID = props[0].ID
		}

		now := time.Now()
		checkIn, err := parseDate(bookingAddCheckIn, now)
		if err != nil {
			return err
		}
		checkOut := ""
		if bookingAddCheckOut != "" {
			if checkOut, err = parseDate(bookingAddCheckOut, now); err != nil {
				return err
			}
		}

		b := state.Booking{
			ID:          "bk-" + uuid.NewString(),
			PropertyID:  propertyID,
			GuestName:   strings.Join(args, " "),
			CheckIn:     checkIn,
			CheckOut:    checkOut,
			Status:      state.BookingConfirmed,
			TotalPrice:  bookingAddPrice,
			GuestsCount: bookingAddGuests,
			Source:      bookingAddSource,
		}
		if err := b.Validate(); err != nil {
			return err
		}
		app.Store.AddBooking(b)

		fmt.Printf("%s Booking recorded for %s (%s)\n", ui.RenderPass("✓"), b.GuestName, checkIn)
		return app.flush(ctx)
	},
}

var bookingsCheckoutCmd = &cobra.Command{
	Use:   "checkout <booking-id>",
	Short: "Mark a booking checked out",
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

		b, err := findBooking(app, args[0])
		if err != nil {
			return err
		}

		b.Status = state.BookingCheckedOut
		app.Store.UpdateBooking(*b)

		fmt.Printf("%s %s checked out\n", ui.RenderPass("✓"), b.GuestName)
		return app.flush(ctx)
	},
}

var bookingsCancelCmd = &cobra.Command{
	Use:   "cancel <booking-id>",
	Short: "Cancel a booking",
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

		b, err := findBooking(app, args[0])
		if err != nil {
			return err
		}

		b.Status = state.BookingCancelled
		app.Store.UpdateBooking(*b)

		fmt.Printf("%s Booking for %s cancelled\n", ui.RenderPass("✓"), b.GuestName)
		return app.flush(ctx)
	},
}

// findBooking resolves a booking by full or shortened ID.
func findBooking(app *App, id string) (*state.Booking, error) {
	for _, b := range app.Store.Bookings(state.ActiveAll) {
		if b.ID == id || shortID(b.ID) == id {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("no booking with ID %q", id)
}

// propertyOrAll maps an empty --property flag to the whole portfolio.
func propertyOrAll(flag string) string {
	if flag == "" {
		return state.ActiveAll
	}
	return flag
}

// shortID trims generated UUIDs for display; operators paste these back in.
func shortID(id string) string {
	if len(id) > 11 {
		return id[:11]
	}
	return id
}

func init() {
	bookingsCmd.PersistentFlags().StringVarP(&bookingsProperty, "property", "p", "", "limit to one property ID")
	bookingsAddCmd.Flags().StringVar(&bookingAddCheckIn, "checkin", "today", "check-in date")
	bookingsAddCmd.Flags().StringVar(&bookingAddCheckOut, "checkout", "", "check-out date")
	bookingsAddCmd.Flags().IntVar(&bookingAddGuests, "guests", 1, "party size")
	bookingsAddCmd.Flags().Float64Var(&bookingAddPrice, "price", 0, "total price")
	bookingsAddCmd.Flags().StringVar(&bookingAddSource, "source", "Direct", "booking source")
	bookingsCmd.AddCommand(bookingsListCmd)
	bookingsCmd.AddCommand(bookingsAddCmd)
	bookingsCmd.AddCommand(bookingsCheckoutCmd)
	bookingsCmd.AddCommand(bookingsCancelCmd)
	rootCmd.AddCommand(bookingsCmd)
}
