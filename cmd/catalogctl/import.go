package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/zakupnik/backend/internal/domain"
)

// importFile is the JSON exchange format produced by supplier exports.
type importFile struct {
	Suppliers []importSupplier        `json:"suppliers"`
	Offers    []domain.CandidateOffer `json:"offers"`
}

type importSupplier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MinOrderSum float64 `json:"minOrderSum"`
}

// newImportCmd creates the import subcommand.
func newImportCmd() *cobra.Command {
	var (
		input  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import suppliers and offers from a JSON export",
		Long: `Import loads a JSON export of suppliers and offers into the catalog.
Offers without a stored classification are classified on the way in.

Use --dry-run to validate the file without writing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()

			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("read input file: %w", err)
			}

			var file importFile
			if err := json.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse input file: %w", err)
			}

			rules, err := loadRules("")
			if err != nil {
				return fmt.Errorf("compile rules: %w", err)
			}

			// Fill missing classification from the rule tables.
			classified := 0
			for i := range file.Offers {
				o := &file.Offers[i]
				if o.SuperClass == "" {
					if super, _ := rules.Classifier.Classify(o.Name); super != "" {
						o.SuperClass = super
						classified++
					}
				}
				if o.ProductCoreID == "" {
					if core, _ := rules.Classifier.ClassifyCore(o.Name, o.SuperClass); core != "" {
						o.ProductCoreID = core
					}
				}
			}

			if dryRun {
				invalid := 0
				for i := range file.Offers {
					o := file.Offers[i]
					if o.ID == "" || o.Name == "" || o.Price <= 0 {
						invalid++
					}
				}
				if outputJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(map[string]interface{}{
						"dryRun":     true,
						"suppliers":  len(file.Suppliers),
						"offers":     len(file.Offers),
						"classified": classified,
						"invalid":    invalid,
					})
				}
				success("Dry run: %d suppliers, %d offers (%d classified, %d invalid)",
					len(file.Suppliers), len(file.Offers), classified, invalid)
				return nil
			}

			store, err := openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, s := range file.Suppliers {
				if err := store.UpsertSupplier(ctx, s.ID, s.Name, s.MinOrderSum); err != nil {
					return fmt.Errorf("import supplier %s: %w", s.ID, err)
				}
			}

			var bar *progressbar.ProgressBar
			if !outputJSON {
				bar = newBar(len(file.Offers), "importing offers")
			}

			imported, skipped := 0, 0
			for _, o := range file.Offers {
				err := store.UpsertOffer(ctx, o)
				switch {
				case errors.Is(err, domain.ErrInvalidOffer):
					skipped++
					logger.Debug().Str("offer", o.ID).Err(err).Msg("skipping invalid offer")
				case err != nil:
					return fmt.Errorf("import offer %s: %w", o.ID, err)
				default:
					imported++
				}
				if bar != nil {
					_ = bar.Add(1)
				}
			}
			if bar != nil {
				_ = bar.Finish()
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"suppliers":  len(file.Suppliers),
					"imported":   imported,
					"skipped":    skipped,
					"classified": classified,
				})
			}

			success("Imported %d suppliers and %d offers (%d classified on import)",
				len(file.Suppliers), imported, classified)
			if skipped > 0 {
				warn("Skipped %d invalid offers (run with -v for details)", skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without committing")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// newBar builds the progress bar used by long-running imports.
func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}
