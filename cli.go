package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/config"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/regions"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security/validation"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taxwizz",
		Short: "TaxWizz backend: regional tax estimates and AI tax advisories",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadConfig()
			logger.InitLogger(config.Cfg.LogLevel)
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newRegionsCmd(), newEstimateCmd(), newAdviseCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the regions with bracket schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRegions(cmd.OutOrStdout(), regions.Default)
		},
	}
}

func printRegions(out io.Writer, table *regions.Table) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tCURRENCY\tLOCALE\tTOP RATE")
	for _, name := range table.Regions() {
		schedule, _ := table.Lookup(name)
		top := schedule.Rates[len(schedule.Rates)-1]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\n", name, schedule.Currency, regions.LocaleForRegion(name), top*100)
	}
	return tw.Flush()
}

func newEstimateCmd() *cobra.Command {
	var region, income string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the tax rate and liability for an income in a region",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printEstimate(cmd.OutOrStdout(), regions.Default, region, income)
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "tax region, e.g. \"US - California\"")
	cmd.Flags().StringVar(&income, "income", "", "annual income")
	cmd.MarkFlagRequired("region")
	cmd.MarkFlagRequired("income")
	return cmd
}

func printEstimate(out io.Writer, table *regions.Table, region, income string) error {
	amount, err := validation.ParseIncome(income)
	if err != nil {
		return err
	}
	rate := table.EstimateRate(amount, region)
	if _, known := table.Lookup(region); !known {
		fmt.Fprintf(out, "Region %q is not in the table; using the default rate.\n", region)
	}
	fmt.Fprintf(out, "Region:              %s\n", region)
	fmt.Fprintf(out, "Estimated rate:      %.1f%%\n", rate*100)
	fmt.Fprintf(out, "Estimated liability: %s\n", table.FormatCurrency(amount*rate, region))
	fmt.Fprintf(out, "Bracket tax:         %s\n", table.FormatCurrency(table.ProgressiveTax(amount, region), region))
	return nil
}

func newAdviseCmd() *cobra.Command {
	var profile models.ClientTaxProfile
	var entityType string
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Generate a tax advisory and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile.TaxEntityType = models.EntityType(entityType)
			result := newAdvisoryService(config.Cfg).Generate(cmd.Context(), profile)
			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode advisory: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return err
		},
	}
	cmd.Flags().StringVar(&profile.ClientName, "name", "", "client name")
	cmd.Flags().StringVar(&entityType, "type", string(models.EntityIndividual), "tax entity type (Individual or Business)")
	cmd.Flags().StringVar(&profile.Region, "region", "", "tax region")
	cmd.Flags().StringVar(&profile.AnnualIncome, "income", "", "annual income")
	cmd.Flags().StringArrayVar(&profile.AvailableDocuments, "doc", nil, "available document (repeatable)")
	return cmd
}
