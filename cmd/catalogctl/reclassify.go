package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// newReclassifyCmd creates the reclassify subcommand.
func newReclassifyCmd() *cobra.Command {
	var (
		rulesFile string
		apply     bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Re-run classification over the whole catalog",
		Long: `Reclassify runs the current rule tables over every stored offer and
reports the drift between stored and computed super classes.

Nothing is written unless --apply is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()

			rules, err := loadRules(rulesFile)
			if err != nil {
				return fmt.Errorf("compile rules: %w", err)
			}

			store, err := openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			offers, err := store.AllItems(ctx)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}

			var bar *progressbar.ProgressBar
			progress := func(done, total int) {}
			if !outputJSON {
				bar = newBar(len(offers), "classifying offers")
				progress = func(done, total int) { _ = bar.Set(done) }
			}

			report, err := rules.Classifier.ReclassifyCatalog(ctx, offers, progress)
			if err != nil {
				return fmt.Errorf("reclassify: %w", err)
			}
			if bar != nil {
				_ = bar.Finish()
			}

			applied := 0
			if apply {
				for _, ch := range report.Changes {
					core, _ := rules.Classifier.ClassifyCore(ch.Name, ch.Proposed)
					if err := store.ApplyClassification(ctx, ch.OfferID, ch.Proposed, core); err != nil {
						return fmt.Errorf("apply %s: %w", ch.OfferID, err)
					}
					applied++
				}
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"total":        report.Total,
					"unchanged":    report.Unchanged,
					"undetermined": report.Undetermined,
					"changes":      report.Changes,
					"contaminated": report.Contaminated,
					"applied":      applied,
				})
			}

			fmt.Printf("Catalog: %d offers\n", report.Total)
			color.New(color.FgGreen).Printf("  unchanged:    %d\n", report.Unchanged)
			color.New(color.FgYellow).Printf("  changed:      %d\n", len(report.Changes))
			if report.Undetermined > 0 {
				color.New(color.FgRed).Printf("  undetermined: %d\n", report.Undetermined)
			}
			if len(report.Contaminated) > 0 {
				color.New(color.FgYellow).Printf("  cross-category: %d\n", len(report.Contaminated))
			}

			if len(report.After) > 0 {
				fmt.Println("\nSuper class distribution (stored -> computed):")
				classes := make([]string, 0, len(report.After))
				for class := range report.After {
					classes = append(classes, class)
				}
				sort.Strings(classes)
				for _, class := range classes {
					fmt.Printf("  %-16s %4d -> %4d\n", class, report.Before[class], report.After[class])
				}
			}

			if len(report.Changes) > 0 {
				fmt.Println("\nChanges:")
				shown := len(report.Changes)
				if limit > 0 && shown > limit {
					shown = limit
				}
				for _, ch := range report.Changes[:shown] {
					fmt.Printf("  %s  %q: %s -> %s (conf %.2f)\n",
						ch.OfferID, ch.Name, displayClass(ch.Stored), ch.Proposed, ch.Conf)
				}
				if remaining := len(report.Changes) - shown; remaining > 0 {
					fmt.Printf("  ... and %d more (raise --limit to see them)\n", remaining)
				}
			}

			if len(report.Contaminated) > 0 {
				fmt.Println("\nNames matching multiple categories:")
				shown := len(report.Contaminated)
				if limit > 0 && shown > limit {
					shown = limit
				}
				for _, c := range report.Contaminated[:shown] {
					fmt.Printf("  %s  %q: %s, also %s\n",
						c.OfferID, c.Name, c.Class, strings.Join(c.AlsoMatches, ", "))
				}
				if remaining := len(report.Contaminated) - shown; remaining > 0 {
					fmt.Printf("  ... and %d more\n", remaining)
				}
			}

			fmt.Println()
			if apply {
				success("Applied %d classification changes", applied)
			} else if len(report.Changes) > 0 {
				warn("Dry run: re-run with --apply to write %d changes", len(report.Changes))
			} else {
				success("Catalog classification is up to date")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "rules file to classify with (default: from config)")
	cmd.Flags().BoolVar(&apply, "apply", false, "write proposed changes to the catalog")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum changes to list (0 = all)")

	return cmd
}

func displayClass(class string) string {
	if class == "" {
		return "(none)"
	}
	return class
}
