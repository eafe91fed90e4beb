package manx

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// supportedExtensions lists file extensions accepted for indexing.
var supportedExtensions = map[string]bool{
	// Documentation
	".md": true, ".markdown": true, ".txt": true, ".pdf": true, ".doc": true, ".docx": true, ".rst": true,
	// Web/Frontend
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".vue": true, ".svelte": true,
	".html": true, ".css": true, ".scss": true, ".sass": true, ".less": true,
	// Backend
	".py": true, ".rb": true, ".php": true, ".java": true, ".scala": true, ".kotlin": true, ".groovy": true,
	// Systems
	".c": true, ".cpp": true, ".cc": true, ".cxx": true, ".h": true, ".hpp": true, ".rs": true, ".go": true, ".zig": true,
	// Functional
	".ml": true, ".mli": true, ".hs": true, ".elm": true, ".clj": true, ".cljs": true, ".erl": true, ".ex": true, ".exs": true,
	// Data/Config
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".xml": true, ".ini": true, ".env": true, ".properties": true,
	// Shell
	".sh": true, ".bash": true, ".zsh": true, ".fish": true, ".ps1": true, ".bat": true, ".cmd": true,
	// Mobile
	".swift": true, ".m": true, ".mm": true, ".kt": true, ".dart": true,
	// Database
	".sql": true, ".graphql": true, ".prisma": true,
	// Other
	".r": true, ".jl": true, ".lua": true, ".vim": true, ".el": true,
}

var documentExtensions = map[string]bool{
	".md": true, ".markdown": true, ".txt": true, ".pdf": true, ".doc": true, ".docx": true, ".rst": true,
}

var shellExtensions = map[string]bool{
	".sh": true, ".bash": true, ".zsh": true, ".fish": true, ".ps1": true, ".bat": true, ".cmd": true,
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSupportedFile reports whether path has an indexable extension.
func IsSupportedFile(path string) bool {
	return supportedExtensions[ext(path)]
}

// IsCodeFile reports whether path is a supported non-documentation file.
func IsCodeFile(path string) bool {
	e := ext(path)
	return supportedExtensions[e] && !documentExtensions[e]
}

// IsShellScript reports whether path is a shell or batch script.
func IsShellScript(path string) bool {
	return shellExtensions[ext(path)]
}

// IsPDF reports whether path is a PDF file.
func IsPDF(path string) bool {
	return ext(path) == ".pdf"
}

// IsEnvFile reports whether path is an environment file.
func IsEnvFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return base == ".env" || strings.HasPrefix(base, ".env.") || ext(path) == ".env"
}

type secretPattern struct {
	re          *regexp.Regexp
	replacement string
}

var secretPatterns = []secretPattern{
	{regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?([^'";\s]+)`), "API_KEY=[MASKED]"},
	{regexp.MustCompile(`(?i)(secret|password|passwd|pwd)\s*[:=]\s*['"]?([^'";\s]+)`), "SECRET=[MASKED]"},
	{regexp.MustCompile(`(?i)(token|auth)\s*[:=]\s*['"]?([^'";\s]+)`), "TOKEN=[MASKED]"},
	{regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+`), "Bearer [MASKED]"},
	{regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |)PRIVATE KEY-----[\s\S]*?-----END (RSA |EC |DSA |OPENSSH |)PRIVATE KEY-----`), "[PRIVATE_KEY_MASKED]"},
	{regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`), "ghp_[GITHUB_TOKEN_MASKED]"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{48}`), "sk-[OPENAI_KEY_MASKED]"},
}

// MaskSecrets replaces API keys, passwords, tokens and private keys in
// content with placeholders.
func MaskSecrets(content string) string {
	for _, p := range secretPatterns {
		content = p.re.ReplaceAllString(content, p.replacement)
	}
	return content
}

// MaskEnvSecrets keeps the keys of KEY=value lines and masks every value.
// Blank lines and comments are kept.
func MaskEnvSecrets(content string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if key, _, ok := strings.Cut(line, "="); ok && trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			b.WriteString(key)
			b.WriteString("=[MASKED]\n")
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// FindingKind classifies a security finding.
type FindingKind string

// Finding kinds.
const (
	FindingDangerousShell  FindingKind = "dangerous_shell"
	FindingPromptInjection FindingKind = "prompt_injection"
	FindingURLShortener    FindingKind = "url_shortener"
	FindingObfuscation     FindingKind = "obfuscation"
)

// Finding is a suspicious pattern found in indexed content.
type Finding struct {
	Kind   FindingKind `json:"kind"`
	Detail string      `json:"detail"`
}

var dangerousShellPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf\s+/`),
	regexp.MustCompile(`rm\s+-rf\s+\*`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\};:`),
	regexp.MustCompile(`mkfs\.`),
	regexp.MustCompile(`dd\s+if=/dev/(zero|random)`),
	regexp.MustCompile(`>\s*/dev/sda`),
	regexp.MustCompile(`curl.*\|\s*(ba)?sh`),
	regexp.MustCompile(`wget.*\|\s*(ba)?sh`),
	regexp.MustCompile(`eval\s+.*\$\(`),
	regexp.MustCompile(`python\s+-c.*exec`),
}

var injectionPatterns = []string{
	"ignore previous instructions",
	"disregard all prior",
	"forget everything above",
	"new instructions:",
	"system prompt:",
	"###system###",
	"</system>",
	"<|im_start|>",
	"<|im_end|>",
}

var urlShorteners = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "ow.ly", "shorte.st",
	"adf.ly", "bc.vc", "bit.do", "soo.gd", "7.ly", "5z8.info",
}

var (
	urlRe       = regexp.MustCompile(`https?://[^\s"']+`)
	hexEscapeRe = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
)

// obfuscationThreshold is the number of suspicious lines above which content
// is considered obfuscated.
const obfuscationThreshold = 5

// ScanContent returns the security findings for code content. Shell scripts
// are checked for dangerous command patterns only; other code is checked
// for obfuscation, URL shorteners and prompt injection.
func ScanContent(content string, shell bool) []Finding {
	var findings []Finding

	if shell {
		for _, re := range dangerousShellPatterns {
			if re.MatchString(content) {
				findings = append(findings, Finding{Kind: FindingDangerousShell, Detail: re.String()})
			}
		}
		return findings
	}

	if n := suspiciousLines(content); n > obfuscationThreshold {
		findings = append(findings, Finding{Kind: FindingObfuscation, Detail: strconv.Itoa(n) + " suspicious lines"})
	}

	for _, u := range urlRe.FindAllString(content, -1) {
		for _, domain := range urlShorteners {
			if strings.Contains(u, domain) {
				findings = append(findings, Finding{Kind: FindingURLShortener, Detail: u})
				break
			}
		}
	}

	lower := strings.ToLower(content)
	for _, p := range injectionPatterns {
		if strings.Contains(lower, p) {
			findings = append(findings, Finding{Kind: FindingPromptInjection, Detail: p})
		}
	}

	return findings
}

func suspiciousLines(content string) int {
	var n int
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "/*") {
			continue
		}
		if strings.Contains(line, "atob") || strings.Contains(line, "btoa") || strings.Contains(line, "base64") {
			n++
		}
		if hexEscapeRe.MatchString(line) {
			n++
		}
		if strings.Count(line, `\`) > 10 {
			n++
		}
	}
	return n
}

// Rejects reports whether a finding causes a file to be rejected at the
// given security level. Strict rejects everything, moderate rejects only
// dangerous shell commands, permissive rejects nothing.
func (f Finding) Rejects(level string) bool {
	switch level {
	case SecurityStrict:
		return true
	case SecurityModerate:
		return f.Kind == FindingDangerousShell
	}
	return false
}

var pdfDangerousMarkers = [][]byte{
	[]byte("/JavaScript"), []byte("/JS"), []byte("/OpenAction"), []byte("/AA"), []byte("/Launch"),
	[]byte("/GoToE"), []byte("/GoToR"), []byte("/ImportData"), []byte("/SubmitForm"), []byte("/URI"),
	[]byte("/Sound"), []byte("/Movie"), []byte("/RichMedia"), []byte("/3D"), []byte("/Encrypt"),
	[]byte("eval("), []byte("unescape("), []byte("String.fromCharCode("), []byte("document.write("),
	[]byte("this.print("), []byte("app.alert("), []byte("xfa.host"), []byte("soap.connect"), []byte("util.printf"),
}

var pdfEmbedMarkers = [][]byte{
	[]byte("/EmbeddedFile"), []byte("/F "), []byte("/UF "), []byte("/Filespec"),
}

// ValidatePDF checks the leading bytes of a PDF (the first KB is enough) for
// a valid header, a 1.x or 2.x version, and active or embedded content
// markers. Returns EINVALID when the file must not be processed.
func ValidatePDF(head []byte) error {
	if len(head) > 1024 {
		head = head[:1024]
	}
	if len(head) < 8 {
		return Errorf(EINVALID, "PDF rejected: file too small or corrupted")
	}
	if !bytes.HasPrefix(head, []byte("%PDF-")) {
		return Errorf(EINVALID, "PDF rejected: invalid PDF header")
	}
	if major := head[5]; major >= '0' && major <= '9' && (major < '1' || major > '2') {
		return Errorf(EINVALID, "PDF rejected: unsupported PDF version %s", head[5:8])
	}
	for _, m := range pdfDangerousMarkers {
		if bytes.Contains(head, m) {
			return Errorf(EINVALID, "PDF rejected: contains potentially malicious content pattern %q", m)
		}
	}
	for _, m := range pdfEmbedMarkers {
		if bytes.Contains(head, m) {
			return Errorf(EINVALID, "PDF rejected: contains embedded files")
		}
	}
	return nil
}
