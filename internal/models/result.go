package models

import (
	"encoding/json"
	"fmt"
)

type ResultKind string

const (
	ResultSuccess ResultKind = "success"
	ResultSkipped ResultKind = "skipped"
	ResultFailed  ResultKind = "failed"
)

// SkipUnsupportedMedia is the sentinel recorded when a platform cannot take
// the item's media type.
const SkipUnsupportedMedia = "Skipped (images not supported)"

// Result is the outcome of one platform publish.
type Result struct {
	Kind    ResultKind
	Payload any
	Reason  string
}

func Success(payload any) Result {
	return Result{Kind: ResultSuccess, Payload: payload}
}

func Skipped(reason string) Result {
	return Result{Kind: ResultSkipped, Reason: reason}
}

func Failed(reason string) Result {
	return Result{Kind: ResultFailed, Reason: reason}
}

func (r Result) Succeeded() bool {
	return r.Kind == ResultSuccess
}

func (r Result) String() string {
	switch r.Kind {
	case ResultSuccess:
		return "success"
	case ResultSkipped:
		return r.Reason
	default:
		if r.Reason == "" {
			return "failed"
		}
		return "failed: " + r.Reason
	}
}

// RecordRef is implemented by payloads that identify a created record by
// URI and CID.
type RecordRef interface {
	RecordURI() string
	RecordCID() string
}

// NormalizeResults converts platform results into values that always encode
// as JSON.
func NormalizeResults(results map[Platform]Result) map[string]any {
	clean := make(map[string]any, len(results))
	for platform, result := range results {
		clean[string(platform)] = NormalizeResult(result)
	}
	return clean
}

func NormalizeResult(r Result) any {
	switch r.Kind {
	case ResultSuccess:
		return normalizePayload(r.Payload)
	case ResultSkipped:
		return r.Reason
	default:
		return nil
	}
}

func normalizePayload(payload any) any {
	switch v := payload.(type) {
	case nil:
		return map[string]any{"success": true}
	case string:
		return v
	case map[string]any:
		return v
	case RecordRef:
		return map[string]any{
			"uri":     v.RecordURI(),
			"cid":     v.RecordCID(),
			"success": true,
		}
	}

	if _, err := json.Marshal(payload); err != nil {
		return map[string]any{"success": true, "serialized": fmt.Sprintf("%v", payload)}
	}
	return map[string]any{"success": true, "type": fmt.Sprintf("%T", payload)}
}
