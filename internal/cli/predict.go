package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gastrolima/sentimiento"
)

func newPredictCommand(a *app) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "predict [text...]",
		Short: "Classify comments with the stored model",
		Long: `Predict classifies each argument, or each line of --file ("-" reads stdin),
and prints the label, confidence and reliability tier.

Example:
  sentimiento predict "La comida estuvo deliciosa y el servicio excelente"
  sentimiento predict --file comments.txt --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := args
			if file != "" {
				lines, err := readLines(file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				texts = append(texts, lines...)
			}
			if len(texts) == 0 {
				return fmt.Errorf("nothing to classify: pass text arguments or --file")
			}

			analyzer, err := a.models.Analyzer(a.cfg.ModelPath)
			if err != nil {
				return err
			}

			results := make([]sentimiento.Analysis, 0, len(texts))
			for _, t := range texts {
				an, err := analyzer.Analyze(t)
				if err != nil {
					return err
				}
				results = append(results, an)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				for _, r := range results {
					if err := enc.Encode(r); err != nil {
						return err
					}
				}
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%-18s %.3f  %-15s %s\n", r.Interpretation.Display, r.Confidence, r.Interpretation.Status, r.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read one comment per line from file (- for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per comment")
	return cmd
}

func readLines(path string, stdin io.Reader) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return lines, nil
}
