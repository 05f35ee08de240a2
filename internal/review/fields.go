package review

import (
	"cmp"
	"time"

	"adala.org/internal/query"
)

// Filter dimensions and sort keys of the document views.
const (
	DimStatus       = "status"
	DimPriority     = "priority"
	DimDocumentType = "document_type"
	DimLanguage     = "language"
	DimUploadSource = "upload_source"

	SortScore    = "score"
	SortDate     = "date"
	SortPriority = "priority"
)

// Fields exposes documents to the query engine. Search covers name and case number.
var Fields = query.Fields[Document]{
	Search: func(d Document) []string { return []string{d.Name, d.CaseNumber} },
	Categorical: map[string]func(Document) string{
		DimStatus:       func(d Document) string { return string(d.Status) },
		DimPriority:     func(d Document) string { return string(d.Priority) },
		DimDocumentType: func(d Document) string { return string(d.DocumentType) },
		DimLanguage:     func(d Document) string { return d.Language },
		DimUploadSource: func(d Document) string { return string(d.UploadSource) },
	},
	Date: func(d Document) time.Time { return d.UploadDate },
}

// NewSorter returns the document comparator registry; score is the default.
func NewSorter() *query.Sorter[Document] {
	return query.NewSorter[Document](SortScore).
		Register(SortScore, func(a, b Document) int { return cmp.Compare(a.AIScore, b.AIScore) }).
		Register(SortDate, query.Descending(func(a, b Document) int { return a.UploadDate.Compare(b.UploadDate) })).
		Register(SortPriority, query.ByRank(func(d Document) string { return string(d.Priority) }, PriorityRank))
}

var sorter = NewSorter()

// Query is one stateless read of a document collection.
type Query struct {
	Filter   query.FilterState `json:"filter"`
	Sort     string            `json:"sort"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// Browse filters, sorts and windows docs. The page is clamped into range.
func Browse(docs []Document, q Query) (query.Page[Document], error) {
	if err := Fields.Validate(q.Filter); err != nil {
		return query.Page[Document]{}, err
	}
	sorted, err := sorter.Sort(query.Filter(docs, q.Filter, Fields), q.Sort)
	if err != nil {
		return query.Page[Document]{}, err
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		return query.Page[Document]{}, query.ErrInvalidPageSize
	}
	return query.Window(sorted, q.PageSize, query.ClampPage(q.Page, len(sorted), q.PageSize))
}

// SortKeys lists the supported sort keys.
func SortKeys() []string { return sorter.Keys() }

// ValidSortKey reports whether key is supported ("" selects the default).
func ValidSortKey(key string) bool { return key == "" || sorter.Has(key) }
