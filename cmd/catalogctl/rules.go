package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newRulesCmd creates the rules subcommand tree.
func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with matching rule files",
	}
	cmd.AddCommand(newRulesLintCmd())
	return cmd
}

// newRulesLintCmd creates the rules lint subcommand.
func newRulesLintCmd() *cobra.Command {
	var (
		file   string
		probes []string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Compile a rules file and report problems",
		Long: `Lint compiles a rules file exactly the way the server does on reload.
A file that lints cleanly will hot-reload without falling back.

Use --probe to also run sample product names through the compiled tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				path = cfg.Rules.Path
			}
			if path == "" {
				return fmt.Errorf("no rules file: pass --file or set rules.path in config")
			}

			rules, err := loadRules(path)
			if err != nil {
				return fmt.Errorf("lint %s: %w", path, err)
			}

			type probeResult struct {
				Name       string  `json:"name"`
				SuperClass string  `json:"superClass"`
				Core       string  `json:"core"`
				Confidence float64 `json:"confidence"`
			}
			results := make([]probeResult, 0, len(probes))
			for _, name := range probes {
				super, _ := rules.Classifier.Classify(name)
				core, conf := rules.Classifier.ClassifyCore(name, super)
				results = append(results, probeResult{
					Name:       name,
					SuperClass: super,
					Core:       core,
					Confidence: conf,
				})
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"file":   path,
					"status": "ok",
					"probes": results,
				})
			}

			success("%s compiles cleanly", path)
			for _, r := range results {
				if r.Core == "" {
					warn("probe %q: core not detected (super class %s)", r.Name, displayClass(r.SuperClass))
					continue
				}
				fmt.Printf("  %q -> %s / %s (conf %.2f)\n", r.Name, displayClass(r.SuperClass), r.Core, r.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "rules file to lint (default: from config)")
	cmd.Flags().StringSliceVar(&probes, "probe", nil, "product names to classify with the linted rules")

	return cmd
}
