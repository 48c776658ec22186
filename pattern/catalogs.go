package pattern

import "regexp"

// The catalogs below are process-wide constant data, compiled once at
// package initialization and never mutated. Catalog order is significant:
// Scan reports the first pattern that matches.

// HiddenInstructions detects model-directed instructions embedded in
// manifest text fields that should describe behavior to humans.
var HiddenInstructions = []Pattern{
	{regexp.MustCompile(`(?i)ignore\s+(?:all\s+|any\s+)?(?:previous|prior|preceding|above)\s+(?:instructions|prompts|messages|rules)`), "override of prior instructions"},
	{regexp.MustCompile(`(?i)do not (?:tell|mention|reveal|disclose|inform|show)`), "concealment instruction"},
	{regexp.MustCompile(`(?i)before using this tool`), "pre-invocation instruction"},
	{regexp.MustCompile(`(?i)without (?:telling|informing|notifying|asking)\s+the\s+user`), "user bypass instruction"},
	{regexp.MustCompile(`(?i)you (?:must|should) (?:always|never|first)`), "imperative model directive"},
	{regexp.MustCompile(`(?i)\bsystem prompt\b`), "system prompt reference"},
	{regexp.MustCompile(`(?i)instead\s*,?\s+(?:use|call|invoke|send)`), "redirection instruction"},
	{regexp.MustCompile(`(?i)<\s*important\s*>|\[\s*important\s*\]`), "attention-marker injection"},
	{regexp.MustCompile(`<!--[\s\S]*?-->`), "hidden HTML comment"},
}

// SensitivePaths detects references to credential stores and other
// sensitive filesystem locations in declared text.
var SensitivePaths = []Pattern{
	{regexp.MustCompile(`(?i)/etc/(?:passwd|shadow|sudoers)`), "system credential file"},
	{regexp.MustCompile(`(?i)(?:~|\$HOME)?/?\.ssh/|id_rsa|id_ed25519`), "SSH key material"},
	{regexp.MustCompile(`(?i)\.aws/credentials|\.aws/config`), "cloud credential file"},
	{regexp.MustCompile(`(?i)\.env\b|dotenv`), "environment secrets file"},
	{regexp.MustCompile(`(?i)\.kube/config|kubeconfig`), "cluster credential file"},
	{regexp.MustCompile(`(?i)private\s+key`), "private key reference"},
	{regexp.MustCompile(`(?i)browser\s+(?:cookies|history|passwords)`), "browser secret store"},
	{regexp.MustCompile(`(?i)keychain|keyring`), "OS secret store"},
	{regexp.MustCompile(`(?i)(?:crypto(?:currency)?\s+)?wallet(?:\.dat)?\b`), "wallet reference"},
}

// Shadowing detects one sub-entity attempting to steer the behavior of
// its siblings.
var Shadowing = []Pattern{
	{regexp.MustCompile(`(?i)(?:when|before|after|instead of)\s+(?:calling|using|invoking)\s+(?:the\s+)?other\s+tools?`), "sibling invocation steering"},
	{regexp.MustCompile(`(?i)all\s+other\s+(?:tools|agents|skills)`), "blanket sibling reference"},
	{regexp.MustCompile(`(?i)override\s+(?:the\s+)?(?:behavior|output|result)s?\s+of`), "sibling behavior override"},
	{regexp.MustCompile(`(?i)this\s+tool\s+(?:must|should)\s+be\s+(?:called|used|invoked)\s+(?:first|instead)`), "priority hijack"},
	{regexp.MustCompile(`(?i)do\s+not\s+(?:call|use|invoke)\s+(?:the\s+)?(?:tool|agent|skill)`), "sibling suppression"},
	{regexp.MustCompile(`(?i)route\s+(?:all\s+)?(?:output|results?|responses?)\s+through`), "output interception"},
}

// ExfiltrationParams lists parameter-name fragments associated with
// sending data to attacker-controlled destinations. Matching is done on
// lowercased parameter names.
var ExfiltrationParams = []string{
	"callback_url",
	"webhook",
	"post_to",
	"upload_url",
	"destination_url",
	"report_to",
	"send_to",
	"notify_url",
	"exfil",
	"external_url",
	"remote_url",
	"forward_to",
}

// CommandInjection detects shell execution primitives in declared text.
var CommandInjection = []Pattern{
	{regexp.MustCompile(`(?i)(?:;|\|\||&&|\|)\s*(?:rm|curl|wget|bash|sh|nc|ncat|python|perl)\b`), "chained shell command"},
	{regexp.MustCompile(`\$\([^)]+\)`), "command substitution"},
	{regexp.MustCompile("`[^`]+`"), "backtick execution"},
	{regexp.MustCompile(`(?i)\bos\.system\s*\(|\bsubprocess\.(?:run|Popen|call)\b`), "process spawn call"},
	{regexp.MustCompile(`(?i)\beval\s*\(|\bexec\s*\(`), "dynamic code evaluation"},
	{regexp.MustCompile(`(?i)rm\s+-rf\s+/`), "destructive filesystem command"},
	{regexp.MustCompile(`(?i)>\s*/dev/(?:tcp|udp)/`), "shell network redirection"},
}

// Secrets detects credential material embedded in text. Matches from this
// catalog MUST be redacted with RedactSecret before being surfaced.
var Secrets = []Pattern{
	{regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}\b`), "model provider API key"},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "AWS access key ID"},
	{regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`), "GitHub personal access token"},
	{regexp.MustCompile(`\bgh[ousr]_[A-Za-z0-9]{36}\b`), "GitHub app token"},
	{regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,}\b`), "Slack token"},
	{regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{35}\b`), "Google API key"},
	{regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{5,}\b`), "JWT"},
	{regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`), "private key block"},
	{regexp.MustCompile(`(?i)(?:api[_-]?key|secret|token|passw(?:or)?d)["']?\s*[:=]\s*["']?[A-Za-z0-9_\-/+]{12,}`), "hardcoded credential assignment"},
}

// SuspiciousURLs detects URLs associated with exfiltration and
// out-of-band interaction services, plus raw-IP endpoints.
var SuspiciousURLs = []Pattern{
	{regexp.MustCompile(`(?i)https?://[^\s"']*(?:ngrok\.(?:io|app)|webhook\.site|requestbin|pipedream\.net|burpcollaborator|interact\.sh|oastify\.com|oast\.(?:fun|live|me|online|pro|site))`), "out-of-band interaction service"},
	{regexp.MustCompile(`(?i)https?://[^\s"']*pastebin\.com`), "paste service"},
	{regexp.MustCompile(`https?://\d{1,3}(?:\.\d{1,3}){3}(?::\d+)?`), "raw IP endpoint"},
	{regexp.MustCompile(`(?i)https?://[^\s"']*xn--`), "punycode hostname"},
	{regexp.MustCompile(`(?i)\bdata:[a-z]+/[a-z0-9.+-]+;base64,`), "data URI payload"},
}

// FrameworkFingerprints detects recognizable third-party agent-framework
// names in serialized sub-entity data. Labels are the framework names; a
// scanner de-duplicates them into one informational finding.
var FrameworkFingerprints = []Pattern{
	{regexp.MustCompile(`(?i)\blangchain\b`), "LangChain"},
	{regexp.MustCompile(`(?i)\bllama[-_ ]?index\b`), "LlamaIndex"},
	{regexp.MustCompile(`(?i)\blangflow\b`), "Langflow"},
	{regexp.MustCompile(`(?i)\bflowise\b`), "Flowise"},
	{regexp.MustCompile(`(?i)\bcrew[-_ ]?ai\b`), "CrewAI"},
	{regexp.MustCompile(`(?i)\bautogen\b`), "AutoGen"},
	{regexp.MustCompile(`(?i)\bsemantic[-_ ]?kernel\b`), "Semantic Kernel"},
	{regexp.MustCompile(`(?i)\bhaystack\b`), "Haystack"},
	{regexp.MustCompile(`(?i)\bn8n\b`), "n8n"},
	{regexp.MustCompile(`(?i)\bsmolagents\b`), "smolagents"},
}
