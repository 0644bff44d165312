package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"baches/internal/media/sniffer"
	"baches/internal/models"
	"baches/internal/report"
)

func newReportsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"r"},
		Short:   "List, file and delete pothole reports",
	}
	cmd.AddCommand(
		newReportsListCmd(a),
		newReportsAddCmd(a),
		newReportsRemoveCmd(a),
		newReportsMapCmd(a),
	)
	return cmd
}

func newReportsListCmd(a *app) *cobra.Command {
	var severity, sortKey string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List reports, newest first by default",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			filter, err := report.ParseFilter(severity)
			if err != nil {
				return err
			}
			order, err := report.ParseSort(sortKey)
			if err != nil {
				return err
			}

			reports, err := a.reports.List(cmd.Context(), sess, filter, order)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			fmt.Fprintln(a.out, renderReports(reports))
			return nil
		},
	}
	cmd.Flags().StringVarP(&severity, "severity", "s", "all", "all, low, medium or high")
	cmd.Flags().StringVar(&sortKey, "sort", string(report.SortDateDesc), "date_asc, date_desc, alpha_asc, alpha_desc, severity_asc or severity_desc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newReportsAddCmd(a *app) *cobra.Command {
	var (
		in       report.SubmitInput
		lat, lng float64
		photo    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "File a new report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("lat") != flags.Changed("lng") {
				return fmt.Errorf("--lat and --lng go together")
			}
			if flags.Changed("lat") {
				in.Location = &models.Location{Lat: lat, Lng: lng}
			}
			if photo != "" {
				p, err := readPhoto(photo)
				if err != nil {
					return err
				}
				in.Photo = p
			}

			created, err := a.reports.Submit(cmd.Context(), sess, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created report %s\n", created.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&in.Description, "description", "d", "", "what and where the pothole is")
	flags.StringVarP(&in.Severity, "severity", "s", "", "severity, e.g. baja, media, alta")
	flags.StringVarP(&in.Comments, "comments", "c", "", "extra notes")
	flags.Float64Var(&lat, "lat", 0, "latitude")
	flags.Float64Var(&lng, "lng", 0, "longitude")
	flags.StringVarP(&photo, "photo", "p", "", "path to a photo of the pothole")
	return cmd
}

// readPhoto declares the type from the file extension, or from the content
// when the extension says nothing.
func readPhoto(path string) (*report.Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		if res, err := sniffer.DetectHead(data); err == nil {
			contentType = res.MIME
		}
	}
	return &report.Photo{ContentType: contentType, Data: data}, nil
}

func newReportsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a report",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			if err := a.reports.Delete(cmd.Context(), sess, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted report %s\n", args[0])
			return nil
		},
	}
}

func newReportsMapCmd(a *app) *cobra.Command {
	var severity string

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Print located reports as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}
			filter, err := report.ParseFilter(severity)
			if err != nil {
				return err
			}
			fc, err := a.reports.Markers(cmd.Context(), sess, filter)
			if err != nil {
				return err
			}
			raw, err := fc.MarshalJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, string(raw))
			return nil
		},
	}
	cmd.Flags().StringVarP(&severity, "severity", "s", "all", "all, low, medium or high")
	return cmd
}
