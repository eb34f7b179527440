package model

// OutcomeKind is one of the three mutually exclusive reconciliation results.
type OutcomeKind string

// Outcome kinds.
const (
	BothSources       OutcomeKind = "both_sources"
	AuthoritativeOnly OutcomeKind = "authoritative_only"
	CollectedOnly     OutcomeKind = "collected_only"
)

// Outcome is the reconciliation verdict for one canonical key.
type Outcome struct {
	Kind          OutcomeKind  `json:"kind"`
	Key           CanonicalKey `json:"key"`
	Authoritative *Entity      `json:"authoritative,omitempty"`
	Collected     *Entity      `json:"collected,omitempty"`
	Issues        []string     `json:"issues,omitempty"`
}

// Rejection is the audit record for a unit that could not be given a key.
type Rejection struct {
	Type         string `json:"type"`
	Number       string `json:"number"`
	Locality     string `json:"locality"`
	Organization string `json:"organization"`
	Reason       string `json:"reason"`
	Source       Source `json:"source,omitempty"`
	Batch        string `json:"batch,omitempty"`
}
