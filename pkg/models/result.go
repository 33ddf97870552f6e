package models

// Match strategies reported in MatchResult.StrategyUsed.
const (
	StrategySelector = "selector"
	StrategyVisual   = "visual"
)

// MatchResult is the structured outcome of one relocation attempt. A miss is
// routine, expected data the caller branches on, not an error.
type MatchResult struct {
	Success          bool    `json:"success"`
	StrategyUsed     string  `json:"strategyUsed,omitempty"`
	Confidence       float64 `json:"confidence"`
	ResolvedPosition *Point  `json:"resolvedPosition,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// SizeValidationResult is the per-action outcome of the storage budget check.
type SizeValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
	SizeKB   float64  `json:"sizeKB"`
}

// BatchSizeValidationResult aggregates per-action validations. Any individual
// hard failure makes the batch invalid; the aggregate advisory alone never
// does.
type BatchSizeValidationResult struct {
	Valid       bool                   `json:"valid"`
	Warnings    []string               `json:"warnings"`
	Errors      []string               `json:"errors"`
	TotalSizeKB float64                `json:"totalSizeKB"`
	PerAction   []SizeValidationResult `json:"perAction"`
}
