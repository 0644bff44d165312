package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang/geo/s2"
	"github.com/spf13/cobra"
)

func newGeocodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "geocode <lat> <lng>",
		Short: "Look up the street address of a coordinate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.geocoder == nil {
				return errors.New("geocoding is disabled, set geocode.enabled")
			}
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("latitude: %w", err)
			}
			lng, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("longitude: %w", err)
			}
			if !s2.LatLngFromDegrees(lat, lng).IsValid() {
				return errors.New("coordinates out of range")
			}

			addr, err := a.geocoder.Reverse(cmd.Context(), lat, lng)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, formatAddress(addr))
			return nil
		},
	}
}
