// Package redact scrubs secret-shaped content out of collected evidence
// before it reaches a persisted report. Log lines and dumped Kubernetes
// objects occasionally carry credentials that were never meant to leave
// the cluster; a Redactor is the last line of defense between a provider's
// raw response and anything written to object storage.
package redact

import "regexp"

// pattern is a compiled regex-replacement pair, applied by name.
type pattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// builtinPatterns covers the credential shapes most likely to appear in
// Kubernetes/cloud log output: generic key=value secrets, PEM blocks, AWS
// and VCS tokens. Each pattern's replacement names what it masked so a
// report reader can tell redaction happened without seeing the value.
var builtinPatterns = []pattern{
	{
		name:        "api_key",
		regex:       regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{20,})["']?`),
		replacement: `api_key: [MASKED_API_KEY]`,
	},
	{
		name:        "password",
		regex:       regexp.MustCompile(`(?i)(?:password|pwd|pass)["']?\s*[:=]\s*["']?([^"'\s\n]{6,})["']?`),
		replacement: `password: [MASKED_PASSWORD]`,
	},
	{
		name:        "token",
		regex:       regexp.MustCompile(`(?i)(?:token|bearer|jwt)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-.]{20,})["']?`),
		replacement: `token: [MASKED_TOKEN]`,
	},
	{
		name:        "certificate",
		regex:       regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`),
		replacement: `[MASKED_CERTIFICATE]`,
	},
	{
		name:        "ssh_key",
		regex:       regexp.MustCompile(`ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`),
		replacement: `[MASKED_SSH_KEY]`,
	},
	{
		name:        "aws_access_key",
		regex:       regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		replacement: `[MASKED_AWS_KEY]`,
	},
	{
		name:        "aws_secret_key",
		regex:       regexp.MustCompile(`(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["']?\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
		replacement: `aws_secret_access_key: [MASKED_AWS_SECRET]`,
	},
	{
		name:        "github_token",
		regex:       regexp.MustCompile(`gh[ps]_[A-Za-z0-9_]{36,255}`),
		replacement: `[MASKED_GITHUB_TOKEN]`,
	},
}

// Redactor applies a fixed set of secret-shaped regex patterns plus the
// structural Kubernetes Secret masker to arbitrary evidence text. It is
// stateless and safe for concurrent use.
type Redactor struct {
	patterns []pattern
	k8s      *kubernetesSecretMasker
}

// New builds a Redactor with the built-in pattern set.
func New() *Redactor {
	return &Redactor{patterns: builtinPatterns, k8s: &kubernetesSecretMasker{}}
}

// Redact scrubs text in two phases: the structural Kubernetes Secret
// masker first (so full manifests get surgical field-level masking rather
// than having every base64 value in them caught by the regex sweep), then
// the regex patterns as a general-purpose sweep over what's left.
func (r *Redactor) Redact(text string) string {
	if text == "" {
		return text
	}
	out := text
	if r.k8s.appliesTo(out) {
		out = r.k8s.mask(out)
	}
	for _, p := range r.patterns {
		out = p.regex.ReplaceAllString(out, p.replacement)
	}
	return out
}
