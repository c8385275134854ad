package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/logger"

	"github.com/fiboa/converter"
)

var (
	outputFile      string
	cacheFile       string
	storeCollection bool
	sourceCoopURL   string
	onError         string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "fiboa",
	Short: "Convert field-boundary datasets to fiboa GeoParquet",
	Long:  `fiboa converts country-specific agricultural field-boundary datasets into GeoParquet files conforming to the fiboa specification.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLogLevel(logger.LogLevelVerbose)
		}
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <dataset>",
	Short: "Convert one dataset to fiboa GeoParquet",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the available datasets",
	RunE:  runDatasets,
}

var describeCmd = &cobra.Command{
	Use:   "describe <dataset>",
	Short: "Show the details of one dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	convertCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output GeoParquet file (required)")
	convertCmd.Flags().StringVar(&cacheFile, "cache", "", "Local cache file for the source data")
	convertCmd.Flags().BoolVar(&storeCollection, "collection", false, "Also write the collection document as JSON")
	convertCmd.Flags().StringVar(&sourceCoopURL, "source-coop-url", "", "Source Cooperative repository URL to record in the collection")
	convertCmd.Flags().StringVar(&onError, "on-error", "warn", "Handling of invalid optional values: warn or fail")
	_ = convertCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(describeCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	var policy converter.Policy
	switch onError {
	case "warn":
		policy = converter.PolicyWarn
	case "fail":
		policy = converter.PolicyFail
	default:
		return fmt.Errorf("invalid --on-error value: %s (must be 'warn' or 'fail')", onError)
	}

	return converter.Convert(context.Background(), args[0], &converter.RunOptions{
		Output:          outputFile,
		Cache:           cacheFile,
		StoreCollection: storeCollection,
		SourceCoopURL:   sourceCoopURL,
		OnCoercionError: policy,
	})
}

func runDatasets(cmd *cobra.Command, args []string) error {
	for _, info := range converter.Datasets() {
		fmt.Printf("%-12s %s\n", info.ID, info.Title)
	}
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	info, err := converter.Describe(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", info.ID)
	fmt.Printf("Short Name:  %s\n", info.ShortName)
	fmt.Printf("Title:       %s\n", info.Title)
	fmt.Printf("License:     %s\n", info.License)
	if info.Attribution != "" {
		fmt.Printf("Attribution: %s\n", info.Attribution)
	}
	for _, p := range info.Providers {
		fmt.Printf("Provider:    %s (%s)\n", p.Name, strings.Join(p.Roles, ", "))
	}
	for _, s := range info.Sources {
		fmt.Printf("Source:      %s\n", s)
	}
	for _, e := range info.Extensions {
		fmt.Printf("Extension:   %s\n", e)
	}
	fmt.Printf("\n%s\n", info.Description)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
