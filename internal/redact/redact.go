// Package redact masks secrets in log attributes and finds them in text.
package redact

import (
	"regexp"
	"sort"
	"strings"
)

// SecretKeyPatterns contains substrings that indicate a key likely contains sensitive data.
// Keys are matched case-insensitively.
var SecretKeyPatterns = []string{
	"TOKEN",
	"SECRET",
	"PASSWORD",
	"PASSWD",
	"CREDENTIAL",
	"API_KEY",
	"APIKEY",
	"PRIVATE",
}

// TokenPrefixes contains known API token prefixes that indicate sensitive values
// regardless of key name.
var TokenPrefixes = []string{
	"ghp_",  // GitHub personal access token
	"gho_",  // GitHub OAuth token
	"ghs_",  // GitHub server-to-server token
	"sk-",   // OpenAI/Anthropic keys
	"AKIA",  // AWS access key prefix
	"xoxb-", // Slack bot token
	"xoxp-", // Slack user token
}

// Kind names a category of secret found in text.
type Kind string

// Secret kinds reported by Scan.
const (
	KindAPIKey     Kind = "API key"
	KindAWSKey     Kind = "AWS access key"
	KindGitHub     Kind = "GitHub token"
	KindPassword   Kind = "password"
	KindPrivateKey Kind = "private key block"
)

type rule struct {
	kind Kind
	re   *regexp.Regexp
}

var rules = []rule{
	{KindAPIKey, regexp.MustCompile(`\bsk-(?:ant-|proj-)?[A-Za-z0-9_-]{32,}`)},
	{KindAWSKey, regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{KindGitHub, regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{KindPassword, regexp.MustCompile(`(?i)\b(?:db_)?passw(?:or)?d\s*[=:]\s*['"]?[^\s'"<>{}$]{4,}`)},
	{KindPrivateKey, regexp.MustCompile(`-----BEGIN (?:[A-Z]+ )?PRIVATE KEY-----`)},
}

// Finding is a secret located in scanned text.
type Finding struct {
	Kind Kind
	Line int
}

// Scan reports secrets found in content, one finding per match, ordered by line.
func Scan(content string) []Finding {
	var findings []Finding
	for _, r := range rules {
		for _, loc := range r.re.FindAllStringIndex(content, -1) {
			findings = append(findings, Finding{
				Kind: r.kind,
				Line: strings.Count(content[:loc[0]], "\n") + 1,
			})
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})
	return findings
}

// MaskValue masks a potentially sensitive string value.
// Values with 4 or fewer characters are fully masked as "********".
// Longer values show the last 4 characters: "****xxxx".
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// ShouldMask returns true if the key name suggests it contains sensitive data.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range SecretKeyPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// ContainsTokenPrefix returns true if the value starts with a known token prefix.
func ContainsTokenPrefix(value string) bool {
	for _, prefix := range TokenPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
