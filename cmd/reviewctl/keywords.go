package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"adala.org/internal/keywords"
)

func newKeywordsCmd() *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Validate masking keywords or try them on a text",
	}
	cmd.PersistentFlags().StringVar(&seedPath, "seed", "", "YAML fixture (default: built-in demo data)")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check every keyword in the fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadFixture(seedPath)
			if err != nil {
				return err
			}
			return validateKeywords(cmd.OutOrStdout(), f.Keywords)
		},
	}

	var (
		lang string
		mask string
	)
	test := &cobra.Command{
		Use:   "test TEXT",
		Short: "Show keyword hits in TEXT and the masked result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFixture(seedPath)
			if err != nil {
				return err
			}
			m, err := keywords.Compile(f.Keywords)
			if err != nil {
				return err
			}
			r := []rune(mask)
			if len(r) != 1 {
				return errors.New("--mask must be a single character")
			}
			testKeywords(cmd.OutOrStdout(), m, strings.Join(args, " "), keywords.Language(lang), r[0])
			return nil
		},
	}
	test.Flags().StringVar(&lang, "language", "", "document language (ar, en; empty for any)")
	test.Flags().StringVar(&mask, "mask", "█", "masking character")

	cmd.AddCommand(validate, test)
	return cmd
}

func validateKeywords(out io.Writer, ks []keywords.Keyword) error {
	bad := 0
	for _, k := range ks {
		if err := keywords.Validate(k); err != nil {
			bad++
			colorRed.Fprintf(out, "  invalid  ")
			fmt.Fprintf(out, "%s %q: %v\n", k.ID, k.Keyword, err)
			continue
		}
		colorGreen.Fprintf(out, "  ok       ")
		fmt.Fprintf(out, "%s %q\n", k.ID, k.Keyword)
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d keywords are invalid", bad, len(ks))
	}
	return nil
}

func testKeywords(out io.Writer, m *keywords.Matcher, text string, lang keywords.Language, mask rune) {
	hits := m.Match(text, lang)
	if len(hits) == 0 {
		colorFaint.Fprintln(out, "no matches")
		return
	}
	for _, h := range hits {
		colorYellow.Fprintf(out, "%4d-%-4d", h.Start, h.End)
		fmt.Fprintf(out, " %-10s %-10s %q\n", h.Category, h.KeywordID, h.Text)
	}
	colorCyan.Fprintln(out, m.Mask(text, lang, mask))
}
