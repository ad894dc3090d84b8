package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Manage interview bookings",
}

var bookingFlags struct {
	name, email, date, time string
}

var bookingsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a booking",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		req := map[string]string{
			"name":  bookingFlags.name,
			"email": bookingFlags.email,
			"date":  bookingFlags.date,
			"time":  bookingFlags.time,
		}
		var res struct {
			BookingID string `json:"booking_id"`
			Status    string `json:"status"`
		}
		if err := c.json(http.MethodPost, "/api/bookings", req, &res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Booking %s: %s\n", res.BookingID, res.Status)
		return nil
	},
}

var listEmail string

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		path := "/api/bookings"
		if listEmail != "" {
			path += "?email=" + url.QueryEscape(listEmail)
		}
		var res map[string]any
		if err := c.json(http.MethodGet, path, nil, &res); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var bookingsGetCmd = &cobra.Command{
	Use:   "get [booking-id]",
	Short: "Show one booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var res map[string]any
		if err := c.json(http.MethodGet, "/api/bookings/"+escape(args[0]), nil, &res); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var bookingsDeleteCmd = &cobra.Command{
	Use:   "delete [booking-id]",
	Short: "Delete a booking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newAPIClient()
		if err != nil {
			return err
		}
		var res struct {
			Message string `json:"message"`
		}
		if err := c.json(http.MethodDelete, "/api/bookings/"+escape(args[0]), nil, &res); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bookingsCmd)
	bookingsCmd.AddCommand(bookingsCreateCmd, bookingsListCmd, bookingsGetCmd, bookingsDeleteCmd)

	f := bookingsCreateCmd.Flags()
	f.StringVar(&bookingFlags.name, "name", "", "candidate name")
	f.StringVar(&bookingFlags.email, "email", "", "candidate email")
	f.StringVar(&bookingFlags.date, "date", "", "date as YYYY-MM-DD")
	f.StringVar(&bookingFlags.time, "time", "", "time as HH:MM")
	for _, name := range []string{"name", "email", "date", "time"} {
		_ = bookingsCreateCmd.MarkFlagRequired(name)
	}

	bookingsListCmd.Flags().StringVar(&listEmail, "email", "", "only bookings of this email")
}
