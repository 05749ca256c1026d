package analyze

import (
	"encoding/json"
	"fmt"
	"strings"
)

// vulnerabilityClasses are named in every prompt.
var vulnerabilityClasses = []string{
	"SQL injection",
	"cross-site scripting (XSS)",
	"server-side request forgery (SSRF)",
	"path traversal",
	"command injection",
	"insecure deserialization",
	"unsafe cryptography",
	"secrets exposure",
	"authentication bypass",
	"vulnerable dependencies",
}

var schemaExample = []Finding{{
	FileName:    "path/to/file.py",
	BugType:     "Injection",
	BugName:     "SQL Injection",
	BugPriority: "High",
	FileLines:   "42-58",
}}

// BuildPrompt assembles the security review prompt for one file.
func BuildPrompt(file, code string) string {
	example, _ := json.Marshal(schemaExample)

	var b strings.Builder
	b.WriteString("You are a security code reviewer. Analyze the file for vulnerabilities such as ")
	b.WriteString(strings.Join(vulnerabilityClasses, ", "))
	b.WriteString(".\n")
	b.WriteString("Return ONLY a valid JSON array matching this schema (no markdown, no code fences, no commentary).\n")
	fmt.Fprintf(&b, "Schema example: %s\n", example)
	b.WriteString("If no issues are found, return an empty JSON array [].\n")
	fmt.Fprintf(&b, "File name: %s\n\nCode:\n%s", file, code)
	return b.String()
}
