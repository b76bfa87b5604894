package audit

// MetricStatus is the traffic-light rating attached to every metric
type MetricStatus string

const (
	StatusGood    MetricStatus = "good"
	StatusAverage MetricStatus = "average"
	StatusPoor    MetricStatus = "poor"
)

// Priority orders recommendations on the dashboard
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// AuditMetric scores one pillar of the store
type AuditMetric struct {
	Name        string       `json:"name"`
	Score       float64      `json:"score"` // 0-100
	Status      MetricStatus `json:"status"`
	Description string       `json:"description"`
}

// Metrics is the fixed set of four pillars. It is a struct rather than a map
// so a result can never be missing one of them.
type Metrics struct {
	SEO         AuditMetric `json:"seo"`
	UX          AuditMetric `json:"ux"`
	Performance AuditMetric `json:"performance"`
	Content     AuditMetric `json:"content"`
}

// Recommendation is a single actionable fix suggested by the model
type Recommendation struct {
	Priority Priority `json:"priority"`
	Category string   `json:"category"`
	Issue    string   `json:"issue"`
	Fix      string   `json:"fix"`
}

// GroundingSource is a web page the model cited while researching the store
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// AuditResult represents the complete audit of a storefront
type AuditResult struct {
	URL             string            `json:"url"`
	OverallScore    float64           `json:"overallScore"`
	Summary         string            `json:"summary"`
	Metrics         Metrics           `json:"metrics"`
	Recommendations []Recommendation  `json:"recommendations"`
	Strengths       []string          `json:"strengths"`
	Competitors     []string          `json:"competitors"`
	Sources         []GroundingSource `json:"sources"`
}

// Tier reports which rung of the fallback ladder produced a result
type Tier int

const (
	// TierStructured means the fenced JSON block parsed and validated.
	TierStructured Tier = iota + 1
	// TierNeutralFallback means a block was found but was unusable.
	TierNeutralFallback
	// TierUnparsed means the response carried no fenced block at all.
	TierUnparsed
)

func (t Tier) String() string {
	switch t {
	case TierStructured:
		return "structured"
	case TierNeutralFallback:
		return "neutral_fallback"
	case TierUnparsed:
		return "unparsed"
	default:
		return "unknown"
	}
}

// MarshalText lets tiers appear by name in JSON documents and log fields.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *Tier) UnmarshalText(text []byte) error {
	switch string(text) {
	case "structured":
		*t = TierStructured
	case "neutral_fallback":
		*t = TierNeutralFallback
	case "unparsed":
		*t = TierUnparsed
	default:
		*t = 0
	}
	return nil
}

// CitationChunk is one grounding entry returned by the generative service.
// Web is nil for chunks that do not reference a web page.
type CitationChunk struct {
	Web *WebCitation
}

// WebCitation is the web reference carried by a citation chunk
type WebCitation struct {
	URI   string
	Title string
}
