package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"adala.org/internal/locale"
	"adala.org/internal/query"
	"adala.org/internal/review"
	"adala.org/internal/seed"
)

type queueOptions struct {
	seedPath string
	lang     string
	search   string
	sort     string
	page     int
	pageSize int
	all      bool
	dims     map[string]*string
}

func newQueueCmd() *cobra.Command {
	o := queueOptions{dims: map[string]*string{}}
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Print one page of the review queue from a seed fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQueue(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.seedPath, "seed", "", "YAML fixture (default: built-in demo data)")
	f.StringVar(&o.lang, "lang", "en", "display language (en or ar)")
	f.StringVar(&o.search, "search", "", "match document name or case number")
	f.StringVar(&o.sort, "sort", review.SortScore, "sort key: "+strings.Join(review.SortKeys(), ", "))
	f.IntVar(&o.page, "page", 1, "page number")
	f.IntVar(&o.pageSize, "page-size", review.DefaultPageSize, "documents per page")
	f.BoolVar(&o.all, "all", false, "include approved and rejected documents")
	for _, dim := range []string{review.DimStatus, review.DimPriority, review.DimDocumentType, review.DimLanguage, review.DimUploadSource} {
		o.dims[dim] = f.String(strings.ReplaceAll(dim, "_", "-"), "", "filter by "+strings.ReplaceAll(dim, "_", " "))
	}
	return cmd
}

func loadFixture(path string) (seed.Fixture, error) {
	if path == "" {
		return seed.Demo()
	}
	return seed.Load(path)
}

func runQueue(ctx context.Context, out io.Writer, o queueOptions) error {
	lang, ok := locale.ParseLang(o.lang)
	if !ok {
		return fmt.Errorf("unsupported language %q", o.lang)
	}
	fixture, err := loadFixture(o.seedPath)
	if err != nil {
		return err
	}
	docs, err := review.NewInMemory(fixture.Documents...).List(ctx)
	if err != nil {
		return err
	}
	if !o.all {
		open := make([]review.Document, 0, len(docs))
		for _, d := range docs {
			if d.Open() {
				open = append(open, d)
			}
		}
		docs = open
	}

	q := review.Query{Filter: query.FilterState{Search: o.search}, Sort: o.sort, Page: o.page, PageSize: o.pageSize}
	for dim, v := range o.dims {
		if *v != "" {
			q.Filter = q.Filter.With(dim, *v)
		}
	}
	page, err := review.Browse(docs, q)
	if err != nil {
		return err
	}
	printQueue(out, lang, page)
	return nil
}

func printQueue(out io.Writer, lang locale.Lang, page query.Page[review.Document]) {
	if page.Total == 0 {
		colorFaint.Fprintln(out, locale.T(lang, "documents.empty"))
		return
	}
	for _, d := range page.Items {
		colorCyan.Fprintf(out, "%-4s", d.ID)
		fmt.Fprintf(out, " %-12s %5s  ", d.CaseNumber, locale.FormatPercent(lang, d.AIScore))
		statusColor(d.Status).Fprintf(out, "%-20s", locale.Label(lang, "status", string(d.Status)))
		fmt.Fprintf(out, " %-8s %s  %s\n",
			locale.Label(lang, "priority", string(d.Priority)),
			locale.FormatDate(lang, d.UploadDate),
			d.Name,
		)
	}
	colorFaint.Fprintf(out, "%d-%d / %d  (%d/%d)\n", page.StartIndex+1, page.EndIndex, page.Total, page.Page, page.TotalPages)
}

func statusColor(s review.Status) *color.Color {
	switch s {
	case review.StatusApproved:
		return colorGreen
	case review.StatusRejected, review.StatusRequiresAttention:
		return colorRed
	case review.StatusLowConfidence:
		return colorYellow
	default:
		return colorFaint
	}
}
