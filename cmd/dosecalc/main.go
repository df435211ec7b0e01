// Command dosecalc computes pediatric doses from a catalog file without running the API server.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/giygas/pediatric-dosing-api/data"
	"github.com/giygas/pediatric-dosing-api/dosing"
	"github.com/giygas/pediatric-dosing-api/logging"
	"github.com/giygas/pediatric-dosing-api/medications"
	"github.com/giygas/pediatric-dosing-api/medications/entities"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "dosecalc",
		Short:        "Pediatric dose calculator",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logging.InitWithWriter(cmd.ErrOrStderr(), level)
		},
	}

	rootCmd.PersistentFlags().String("catalog", "medications.json", "Path to the medication catalog")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log catalog loading details")

	rootCmd.AddCommand(calculateCmd())
	rootCmd.AddCommand(listCmd())

	return rootCmd
}

func loadStore(cmd *cobra.Command) (*data.CatalogContainer, error) {
	path, _ := cmd.Flags().GetString("catalog")

	meds, report, err := medications.NewFileLoader(path, nil).LoadCatalog()
	if err != nil {
		return nil, err
	}

	store := data.NewCatalogContainer()
	store.UpdateCatalog(meds, medications.IndexByID(meds), report)
	return store, nil
}

func calculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate a dose for one medication and patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("medication")
			weight, _ := cmd.Flags().GetFloat64("weight")
			asJSON, _ := cmd.Flags().GetBool("json")

			var age *float64
			if cmd.Flags().Changed("age") {
				value, _ := cmd.Flags().GetFloat64("age")
				age = &value
			}

			store, err := loadStore(cmd)
			if err != nil {
				return err
			}

			result, err := dosing.NewService(store, dosing.DoseEngine{}).CalculateByID(id, weight, age)
			switch {
			case errors.Is(err, dosing.ErrMedicationNotFound):
				return fmt.Errorf("unknown medication %q, run 'dosecalc list' to see available ids", id)
			case err != nil:
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			med, _ := store.GetMedication(id)
			printResult(cmd.OutOrStdout(), &med, result)
			return nil
		},
	}

	cmd.Flags().StringP("medication", "m", "", "Medication id")
	cmd.Flags().Float64P("weight", "w", 0, "Patient weight in kg")
	cmd.Flags().Float64P("age", "a", 0, "Patient age in months")
	cmd.Flags().Bool("json", false, "Print the raw calculation result as JSON")
	_ = cmd.MarkFlagRequired("medication")
	_ = cmd.MarkFlagRequired("weight")

	return cmd
}

func printResult(w io.Writer, med *entities.Medication, result *entities.CalculationResult) {
	fmt.Fprintf(w, "%s (%s)\n", med.Name, med.ID)

	if !result.IsValid {
		fmt.Fprintln(w, "Calculation rejected:")
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
		return
	}

	fmt.Fprintf(w, "Dose:       %.2f mg %s\n", result.DoseMg, result.Frequency)
	if result.AdminVolume != nil {
		fmt.Fprintf(w, "Administer: %.2f %s\n", *result.AdminVolume, result.AdminUnit)
	} else {
		fmt.Fprintf(w, "Administer: %s\n", result.AdminUnit)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, msg := range result.Warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
	if len(result.Notes) > 0 {
		fmt.Fprintln(w, "Notes:")
		for _, msg := range result.Notes {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the medications of the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")

			store, err := loadStore(cmd)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORIES\tFORMULATION")
			for _, med := range medications.FilterByCategory(store.GetMedications(), category) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", med.ID, med.Name, strings.Join(med.Categories, ","), med.Concentration.Formulation)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringP("category", "c", "", "Only list medications with this category")

	return cmd
}
