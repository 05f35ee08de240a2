package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"adala.org/internal/locale"
	"adala.org/internal/query"
	"adala.org/internal/review"
)

// documentView is a document with the labels the dashboard renders. Labels
// are derived per request; the document itself is never modified.
type documentView struct {
	review.Document
	StatusLabel     string          `json:"status_label"`
	PriorityLabel   string          `json:"priority_label"`
	UploadDateLabel string          `json:"upload_date_label"`
	ConfidenceLabel string          `json:"confidence_label"`
	Selected        *bool           `json:"selected,omitempty"`
	PendingDecision review.Decision `json:"pending_decision,omitempty"`
	PendingLabel    string          `json:"pending_label,omitempty"`
}

func viewDocument(d review.Document, pending review.Decision, lang locale.Lang) documentView {
	v := documentView{
		Document:        d,
		StatusLabel:     locale.Label(lang, "status", string(d.Status)),
		PriorityLabel:   locale.Label(lang, "priority", string(d.Priority)),
		UploadDateLabel: locale.FormatDate(lang, d.UploadDate),
		ConfidenceLabel: locale.FormatPercent(lang, d.AIConfidence),
		PendingDecision: pending,
	}
	if pending != "" {
		v.PendingLabel = locale.T(lang, "status.pending_decision")
	}
	return v
}

func viewItem(it review.Item, lang locale.Lang) documentView {
	v := viewDocument(it.Document, it.PendingDecision, lang)
	selected := it.Selected
	v.Selected = &selected
	return v
}

// pageMeta is the localized footer of a paged table.
type pageMeta struct {
	Lang       locale.Lang      `json:"lang"`
	Dir        locale.Direction `json:"dir"`
	Showing    string           `json:"showing"`
	PageLabel  string           `json:"page_label"`
	TotalLabel string           `json:"total_label"`
}

func newPageMeta(lang locale.Lang, startIndex, endIndex, total, page, totalPages int) pageMeta {
	first := startIndex + 1
	if endIndex <= startIndex {
		first = startIndex
	}
	return pageMeta{
		Lang:       lang,
		Dir:        lang.Direction(),
		Showing:    locale.Tf(lang, "pagination.showing", first, endIndex, total),
		PageLabel:  locale.Tf(lang, "pagination.page", page, totalPages),
		TotalLabel: locale.FormatNumber(lang, total),
	}
}

type documentPage struct {
	query.Page[documentView]
	pageMeta
	Sort     string   `json:"sort"`
	SortKeys []string `json:"sort_keys"`
}

func toDocumentPage(p query.Page[review.Document], pending map[string]review.Decision, sort string, lang locale.Lang) documentPage {
	items := make([]documentView, len(p.Items))
	for i, d := range p.Items {
		items[i] = viewDocument(d, pending[d.ID], lang)
	}
	if sort == "" {
		sort = review.SortScore
	}
	return documentPage{
		Page: query.Page[documentView]{
			Items: items, Page: p.Page, PageSize: p.PageSize, StartIndex: p.StartIndex,
			EndIndex: p.EndIndex, TotalPages: p.TotalPages, Total: p.Total,
		},
		pageMeta: newPageMeta(lang, p.StartIndex, p.EndIndex, p.Total, p.Page, p.TotalPages),
		Sort:     sort,
		SortKeys: review.SortKeys(),
	}
}

type queueView struct {
	query.Page[documentView]
	pageMeta
	Filter             query.FilterState `json:"filter"`
	Sort               string            `json:"sort"`
	SortKeys           []string          `json:"sort_keys"`
	Selected           []string          `json:"selected"`
	SelectedLabel      string            `json:"selected_label"`
	AllVisibleSelected bool              `json:"all_visible_selected"`
	InQueue            int               `json:"in_queue"`
	Pruned             []string          `json:"pruned,omitempty"`
	Empty              string            `json:"empty,omitempty"`
}

func toQueueView(v review.View, lang locale.Lang) queueView {
	items := make([]documentView, len(v.Items))
	for i, it := range v.Items {
		items[i] = viewItem(it, lang)
	}
	selected := v.Selected
	if selected == nil {
		selected = []string{}
	}
	out := queueView{
		Page: query.Page[documentView]{
			Items: items, Page: v.Page.Page, PageSize: v.PageSize, StartIndex: v.StartIndex,
			EndIndex: v.EndIndex, TotalPages: v.TotalPages, Total: v.Total,
		},
		pageMeta:           newPageMeta(lang, v.StartIndex, v.EndIndex, v.Total, v.Page.Page, v.TotalPages),
		Filter:             v.Filter,
		Sort:               v.Sort,
		SortKeys:           review.SortKeys(),
		Selected:           selected,
		SelectedLabel:      locale.Tf(lang, "common.selected", len(selected)),
		AllVisibleSelected: v.AllVisibleSelected,
		InQueue:            v.InQueue,
		Pruned:             v.Pruned,
	}
	if len(items) == 0 {
		out.Empty = locale.T(lang, "review.empty")
	}
	return out
}

var documentDimensions = []string{
	review.DimStatus, review.DimPriority, review.DimDocumentType, review.DimLanguage, review.DimUploadSource,
}

// filterFromQuery reads search, date and the categorical dimensions from URL parameters.
func filterFromQuery(v url.Values, dims []string) (query.FilterState, error) {
	fs := query.FilterState{Search: strings.TrimSpace(v.Get("search"))}
	for _, dim := range dims {
		if val := strings.TrimSpace(v.Get(dim)); val != "" {
			if fs.Categorical == nil {
				fs.Categorical = make(map[string]string)
			}
			fs.Categorical[dim] = val
		}
	}
	if raw := strings.TrimSpace(v.Get("date")); raw != "" {
		day, err := query.ParseDay(raw)
		if err != nil {
			return query.FilterState{}, fmt.Errorf("date must be YYYY-MM-DD or RFC 3339")
		}
		fs.Date = &day
	}
	return fs, nil
}

func parsePositiveInt(raw, name string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if val < min || val > max {
		return 0, fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return val, nil
}
