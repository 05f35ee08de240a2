package query

// Page is one window of a collection.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	StartIndex int `json:"start_index"`
	// EndIndex is exclusive; it equals StartIndex for an out-of-range page.
	EndIndex   int `json:"end_index"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// OutOfRange reports a page past the last one; callers should clamp and re-window.
func (p Page[T]) OutOfRange() bool { return p.Page > p.TotalPages }

// TotalPages is max(1, ceil(total/pageSize)).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage moves page into [1, TotalPages(total, pageSize)].
func ClampPage(page, total, pageSize int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, pageSize); page > last {
		return last
	}
	return page
}

// Window slices records[(page-1)*pageSize : page*pageSize]. A page past the end yields
// no items and still reports TotalPages so the caller can clamp.
func Window[T any](records []T, pageSize, page int) (Page[T], error) {
	if pageSize <= 0 {
		return Page[T]{}, ErrInvalidPageSize
	}
	if page < 1 {
		return Page[T]{}, ErrInvalidPage
	}
	total := len(records)
	p := Page[T]{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
		Total:      total,
		StartIndex: (page - 1) * pageSize,
	}
	if p.StartIndex >= total {
		p.Items = []T{}
		p.EndIndex = p.StartIndex
		return p, nil
	}
	p.EndIndex = min(p.StartIndex+pageSize, total)
	p.Items = records[p.StartIndex:p.EndIndex]
	return p, nil
}
