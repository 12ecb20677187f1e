package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/analyzer"
	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/listings"
	"github.com/iwvelando/deal-analyzer/internal/logging"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	mlsFlag := flag.String("mls", "", "comma-separated MLS numbers to report (default: all listings)")
	amortizationMonths := flag.Int("amortization", 0, "also print this many months of each listing's amortization schedule")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	catalog, err := listings.LoadCatalog()
	if err != nil {
		logger.Fatal("failed to load listing catalogue",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	selected, err := selectListings(catalog, *mlsFlag)
	if err != nil {
		logger.Fatal("failed to select listings",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	assumptions := conf.ListingAssumptions()
	an := analyzer.New(logger, conf.Assumptions.AveragingYears)
	reports := make([]output.Report, 0, len(selected))
	for _, l := range selected {
		reports = append(reports, output.NewReport(l, assumptions, an, analyzer.ForListing(l)))
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, reports)
	case constants.OutputFormatCSV:
		output.CsvFormat(os.Stdout, reports)
	}

	if *amortizationMonths > 0 {
		for _, l := range selected {
			terms := loans.LoanTerms{
				Price:               l.Price,
				DownPaymentFraction: assumptions.DownPaymentFraction,
				AnnualInterestRate:  assumptions.AnnualRate,
				AmortizationYears:   assumptions.AmortizationYears,
			}
			fmt.Printf("\n--- Amortization for %s ---\n", l.MLS)
			output.AmortizationTable(os.Stdout, loans.Schedule(terms, *amortizationMonths))
		}
	}
}

// selectListings returns the listings named in a comma-separated MLS list,
// or the whole catalogue when the list is empty.
func selectListings(catalog *listings.Catalog, mlsList string) ([]listings.Listing, error) {
	if strings.TrimSpace(mlsList) == "" {
		return catalog.All(), nil
	}

	var selected []listings.Listing
	for _, mls := range strings.Split(mlsList, ",") {
		mls = strings.TrimSpace(mls)
		if mls == "" {
			continue
		}
		l, err := catalog.Get(mls)
		if err != nil {
			return nil, err
		}
		selected = append(selected, l)
	}
	return selected, nil
}
