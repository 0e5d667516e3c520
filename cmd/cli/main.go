package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pricesheet/adapters/excel"
	"pricesheet/app"
	"pricesheet/domain/pricing"
	"pricesheet/internal/config"
	"pricesheet/internal/errors"
	"pricesheet/internal/reconcile"
	"pricesheet/internal/report"
	"pricesheet/internal/storage"
	"pricesheet/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "pricesheet",
		Short:         "Compare dealer price lists and update order-guide templates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newCompareCmd(),
		newApplyCmd(),
		newSampleCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if errors.IsAppError(err) {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", errors.GetCode(err), err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// newService builds a service from env config; headerRow < 0 keeps the configured value
func newService(headerRow int) (*app.ComparisonService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if headerRow >= 0 {
		cfg.Excel.HeaderRow = headerRow
	}
	storageConfig := storage.DefaultConfig()
	storageConfig.BaseDir = cfg.Upload.ScratchDir
	storageConfig.MaxBytes = cfg.Upload.MaxBytes
	return app.NewComparisonService(excel.NewDataReader(cfg.ReaderConfig()), storageConfig, cfg.Excel.HeaderRow, nil), nil
}

func newCompareCmd() *cobra.Command {
	var headerRow int
	var format string
	var onlyChanges bool
	var out string

	cmd := &cobra.Command{
		Use:   "compare OLD NEW",
		Short: "Compare an old and a new price list",
		Long: `Compare two price lists code by code.

Rows sharing a Code are paired by position after duplicates are removed.
WSD, Dealer Invoice and Retail Price treat nan, std, n/c, 0, "-" and blanks
as zero; Description is compared exactly.

Example: pricesheet compare prices-2025.xlsx prices-2026.xlsx --format markdown --only-changes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(headerRow)
			if err != nil {
				return err
			}
			return withOutput(out, cmd.OutOrStdout(), func(w io.Writer) error {
				return runCompare(cmd.Context(), svc, args[0], args[1], format, onlyChanges, w)
			})
		},
	}

	cmd.Flags().IntVar(&headerRow, "header-row", -1, "0-based header row (default HEADER_ROW or 11)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|markdown|html")
	cmd.Flags().BoolVar(&onlyChanges, "only-changes", false, "Only output rows with status CHANGE")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write output to a file instead of stdout")
	return cmd
}

func runCompare(ctx context.Context, svc *app.ComparisonService, oldPath, newPath, format string, onlyChanges bool, w io.Writer) error {
	result, err := svc.CompareFiles(ctx, oldPath, newPath)
	if err != nil {
		return err
	}

	if strings.EqualFold(format, "json") {
		result.Records = reconcile.Filter(result.Records, onlyChanges)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	f, err := report.ParseFormat(format)
	if err != nil {
		return errors.InvalidInput(err.Error())
	}
	_, err = w.Write(app.RenderReport(result, f, onlyChanges))
	return err
}

func newApplyCmd() *cobra.Command {
	var diffPath string
	var out string
	var onlyChanges bool

	cmd := &cobra.Command{
		Use:   "apply TEMPLATE",
		Short: "Write compared prices into a template workbook",
		Long: `Apply the new-side values from a comparison to every template row whose
Code (column C) matches, below the "BASE VEHICLE" marker row.

The diff file is the output of "pricesheet compare --format json", or a
JSON array of records.

Example: pricesheet compare old.xlsx new.xlsx > diff.json && pricesheet apply guide.xlsx --diff diff.json --out guide-2026.xlsx --only-changes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(-1)
			if err != nil {
				return err
			}
			return runApply(cmd.Context(), svc, args[0], diffPath, out, onlyChanges, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&diffPath, "diff", "", "Comparison JSON produced by compare")
	cmd.Flags().StringVarP(&out, "out", "o", pricing.ResultFilename, "Path of the updated workbook")
	cmd.Flags().BoolVar(&onlyChanges, "only-changes", false, "Only apply records with status CHANGE")
	_ = cmd.MarkFlagRequired("diff")
	return cmd
}

func runApply(ctx context.Context, svc *app.ComparisonService, templatePath, diffPath, out string, onlyChanges bool, w io.Writer) error {
	records, err := loadDiff(diffPath)
	if err != nil {
		return err
	}
	records = reconcile.Filter(records, onlyChanges)

	result, err := svc.UpdateTemplateFile(ctx, templatePath, pricing.UpdateItems(records))
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, result.Data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", out)
	}

	fmt.Fprintf(w, "Updated %d rows for %d of %d codes -> %s\n", result.RowsUpdated, result.CodesHit, len(records), out)
	return nil
}

// loadDiff reads either a compare JSON object or a bare array of records
func loadDiff(path string) ([]pricing.DiffRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.InputMissing(fmt.Sprintf("diff file %s does not exist", path))
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") {
		var wrapped struct {
			Results json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("%s is not a comparison: %v", path, err))
		}
		if len(wrapped.Results) == 0 {
			return nil, errors.ValidationError(fmt.Sprintf("%s has no results", path))
		}
		data = wrapped.Results
	}

	if err := app.RequireUpdateKeys(data); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	var records []pricing.DiffRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("%s is not a list of records: %v", path, err))
	}
	return records, nil
}

func newSampleCmd() *cobra.Command {
	var dir string
	var codes int
	var seed int64

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate a demo old/new price list pair and a matching template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(dir, codes, seed, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write old.xlsx, new.xlsx and template.xlsx into")
	cmd.Flags().IntVar(&codes, "codes", 40, "Number of codes in the old list")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic output")
	return cmd
}

func runSample(dir string, codes int, seed int64, w io.Writer) error {
	if codes <= 0 {
		return errors.InvalidInput("codes must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	cfg := testkit.DefaultPriceListConfig()
	cfg.CodeCount = codes
	cfg.Seed = seed
	lists := testkit.NewPriceListGenerator(cfg).Generate()

	for name, rows := range map[string][][]string{
		"old.xlsx":      lists.Old,
		"new.xlsx":      lists.New,
		"template.xlsx": lists.Template,
	} {
		if err := testkit.WriteWorkbook(filepath.Join(dir, name), rows); err != nil {
			return errors.Wrapf(err, "failed to write %s", name)
		}
	}

	fmt.Fprintf(w, "Wrote old.xlsx, new.xlsx and template.xlsx to %s (%d changed, %d dropped, %d added codes)\n",
		dir, len(lists.Changed), len(lists.Dropped), len(lists.Added))
	return nil
}

// withOutput runs fn against path when set, otherwise against fallback
func withOutput(path string, fallback io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(fallback)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
