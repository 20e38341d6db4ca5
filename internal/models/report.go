package models

import (
	"encoding/json"
)

const LocalSource = "Local Database"

type ErrorKind string

const (
	ErrorKindStoreUnavailable ErrorKind = "store_unavailable"
	ErrorKindRemote           ErrorKind = "remote_error"
	ErrorKindConfiguration    ErrorKind = "configuration_error"
	ErrorKindInternal         ErrorKind = "internal_error"
)

// MatchResult is one stored document that reached the similarity threshold
type MatchResult struct {
	Source         string  `json:"source"`
	DocumentID     string  `json:"documentId"`
	Similarity     float64 `json:"similarity"`
	MatchedContent string  `json:"matchedContent"`
}

// ErrorInfo describes why a strategy could not produce a result
type ErrorInfo struct {
	Kind         ErrorKind       `json:"kind"`
	Message      string          `json:"message"`
	Status       int             `json:"status,omitempty"`
	ResponseData json.RawMessage `json:"responseData,omitempty"`
}

// LocalOutcome holds either the local matches or the error that prevented them.
type LocalOutcome struct {
	Matches []MatchResult `json:"matches"`
	Error   *ErrorInfo    `json:"error,omitempty"`
}

func (o *LocalOutcome) OK() bool {
	return o != nil && o.Error == nil
}

// RemoteResult is the third-party detector response. Raw keeps the full body.
type RemoteResult struct {
	TotalPlagiarismPercentage float64         `json:"totalPlagiarismPercentage"`
	Raw                       json.RawMessage `json:"raw,omitempty"`
}

// RemoteOutcome holds either the remote detector result or its error.
type RemoteOutcome struct {
	Result *RemoteResult `json:"result,omitempty"`
	Error  *ErrorInfo    `json:"error,omitempty"`
}

func (o *RemoteOutcome) OK() bool {
	return o != nil && o.Error == nil && o.Result != nil
}

// CheckReport is returned for every check. A nil outcome means the strategy
// was not requested.
type CheckReport struct {
	CheckID            string         `json:"checkId"`
	TextToCheck        string         `json:"textToCheck"`
	PlagiarismDetected bool           `json:"plagiarismDetected"`
	Local              *LocalOutcome  `json:"localDatabase,omitempty"`
	Remote             *RemoteOutcome `json:"remote,omitempty"`
}

// Detected reports whether any strategy that succeeded found plagiarism.
func (r *CheckReport) Detected() bool {
	if r.Local.OK() && len(r.Local.Matches) > 0 {
		return true
	}
	if r.Remote.OK() && r.Remote.Result.TotalPlagiarismPercentage > 0 {
		return true
	}
	return false
}
