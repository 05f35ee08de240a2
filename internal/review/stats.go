package review

import "math"

// DefaultConfidenceThreshold is the AI confidence below which documents need a closer look.
const DefaultConfidenceThreshold = 70

// Bucket is one bar of the confidence distribution.
type Bucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// Stats backs the dashboard cards and the admin confidence chart.
type Stats struct {
	Total             int            `json:"total"`
	ByStatus          map[Status]int `json:"by_status"`
	AverageConfidence float64        `json:"average_confidence"`
	Threshold         int            `json:"threshold"`
	BelowThreshold    int            `json:"below_threshold"`
	AwaitingReview    int            `json:"awaiting_review"`
	Distribution      []Bucket       `json:"distribution"`
}

func buckets() []Bucket {
	return []Bucket{
		{Label: "0-20", Min: 0, Max: 20},
		{Label: "21-40", Min: 21, Max: 40},
		{Label: "41-60", Min: 41, Max: 60},
		{Label: "61-80", Min: 61, Max: 80},
		{Label: "81-100", Min: 81, Max: 100},
	}
}

// ComputeStats summarizes docs against threshold (DefaultConfidenceThreshold when <= 0).
func ComputeStats(docs []Document, threshold int) Stats {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	st := Stats{
		Total:        len(docs),
		ByStatus:     make(map[Status]int, len(Statuses)),
		Threshold:    threshold,
		Distribution: buckets(),
	}
	for _, s := range Statuses {
		st.ByStatus[s] = 0
	}
	sum := 0
	for _, d := range docs {
		st.ByStatus[d.Status]++
		c := min(max(d.AIConfidence, 0), 100)
		sum += c
		if c < threshold {
			st.BelowThreshold++
		}
		if d.Open() {
			st.AwaitingReview++
		}
		for i := range st.Distribution {
			if c >= st.Distribution[i].Min && c <= st.Distribution[i].Max {
				st.Distribution[i].Count++
				break
			}
		}
	}
	if len(docs) > 0 {
		st.AverageConfidence = math.Round(float64(sum)/float64(len(docs))*10) / 10
	}
	return st
}
