package analyze

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Sentinel values recorded when a file's model output is unusable.
const (
	SentinelType         = "LLM_OUTPUT_ERROR"
	SentinelInvalidJSON  = "Invalid JSON"
	SentinelRequestError = "Analysis request failed"
	SentinelPriority     = "High"
)

// Finding is one vulnerability reported for a file.
type Finding struct {
	FileName    string `json:"file_name"`
	BugType     string `json:"bug_type"`
	BugName     string `json:"bug_name"`
	BugPriority string `json:"bug_priority"`
	FileLines   string `json:"file_lines"`
}

// Record holds every finding for one analyzed file. RepoName and RepoURL are
// null when the manifest did not know the file.
type Record struct {
	File     string    `json:"file"`
	RepoName *string   `json:"repo_name"`
	RepoURL  *string   `json:"repo_url"`
	Findings []Finding `json:"findings"`
}

// IsSentinel reports whether f was synthesized in place of model output.
func (f Finding) IsSentinel() bool { return f.BugType == SentinelType }

func sentinel(file, name string) Finding {
	return Finding{
		FileName:    file,
		BugType:     SentinelType,
		BugName:     name,
		BugPriority: SentinelPriority,
		FileLines:   "",
	}
}

var errNotList = errors.New("reply is not a JSON array")

// parseFindings decodes a model reply and validates every element against
// the Finding shape. file replaces whatever file_name the model returned.
func parseFindings(reply, file string) ([]Finding, error) {
	var raw any
	if err := json.Unmarshal([]byte(reply), &raw); err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errNotList
	}

	findings := make([]Finding, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("finding %d: not an object", i)
		}
		f := Finding{FileName: file}
		var err error
		if f.BugType, err = requiredString(obj, "bug_type"); err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
		if f.BugName, err = requiredString(obj, "bug_name"); err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
		if f.BugPriority, err = requiredString(obj, "bug_priority"); err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
		if f.FileLines, err = lineRange(obj["file_lines"]); err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
		if v, ok := obj["file_name"]; ok && v != nil {
			if _, isStr := v.(string); !isStr {
				return nil, fmt.Errorf("finding %d: file_name is not a string", i)
			}
		}
		findings = append(findings, f)
	}
	return findings, nil
}

func requiredString(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is not a string", key)
	}
	return s, nil
}

// lineRange accepts a string, a bare line number, or nothing.
func lineRange(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("file_lines has type %T", v)
	}
}
