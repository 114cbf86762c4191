package model

import "time"

// OutcomeStatus is the terminal status of an extraction run.
type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeExhausted OutcomeStatus = "exhausted"
	OutcomeAborted   OutcomeStatus = "aborted"
)

// FailureKind classifies why a provider attempt did not produce validated data.
type FailureKind string

const (
	// FailureUnavailable covers connection errors, auth rejection, rate
	// limiting and server-side errors: the provider could not be used.
	FailureUnavailable FailureKind = "unavailable"
	// FailureTimeout covers adapter timeouts and attempt-budget exhaustion.
	FailureTimeout FailureKind = "timeout"
	// FailureInvalidResponse means the provider answered but the response
	// carried no usable text (empty content, no choices).
	FailureInvalidResponse FailureKind = "invalid_response"
	// FailureMalformedOutput means text came back but no repair technique
	// could recover a JSON object from it.
	FailureMalformedOutput FailureKind = "malformed_output"
	// FailureSchemaViolation means a JSON object was recovered but it did
	// not satisfy the validation rule set.
	FailureSchemaViolation FailureKind = "schema_violation"
)

// ExtractionRequest describes one job posting to run through the cascade.
type ExtractionRequest struct {
	JobID              string   `json:"job_id"`
	RawText            string   `json:"raw_text"`
	ProviderPreference []string `json:"provider_preference"`
	SchemaVersion      string   `json:"schema_version"`
}

// ProviderAttempt records a single provider call and what became of its output.
type ProviderAttempt struct {
	ID          string            `json:"id"`
	ProviderID  string            `json:"provider_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	RawOutput   string            `json:"raw_output,omitempty"`
	FailureKind FailureKind       `json:"failure_kind,omitempty"`
	Hardened    *HardenedOutput   `json:"hardened,omitempty"`
	Validation  *ValidationResult `json:"validation,omitempty"`
}

// HardenedOutput is the result of running raw provider text through the
// JSON repair pipeline. Parsed is nil when repair was exhausted.
type HardenedOutput struct {
	OriginalRawOutput  string         `json:"original_raw_output"`
	RepairStepsApplied []string       `json:"repair_steps_applied"`
	Parsed             map[string]any `json:"parsed,omitempty"`
}

// ValidationStatus is the two-valued result of rule evaluation.
type ValidationStatus string

const (
	ValidationPass ValidationStatus = "pass"
	ValidationFail ValidationStatus = "fail"
)

// ValidationResult carries the full set of violated rule IDs plus, on pass,
// the normalized copy of the data.
type ValidationResult struct {
	Status        ValidationStatus `json:"status"`
	ViolatedRules []string         `json:"violated_rules,omitempty"`
	Normalized    map[string]any   `json:"normalized,omitempty"`
}

// ExtractionOutcome is the record of a full cascade run for one job.
// StructuredData is set only when Status is success.
type ExtractionOutcome struct {
	JobID          string            `json:"job_id"`
	Status         OutcomeStatus     `json:"status"`
	SchemaVersion  string            `json:"schema_version"`
	StructuredData map[string]any    `json:"structured_data,omitempty"`
	Attempts       []ProviderAttempt `json:"attempts"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
}
