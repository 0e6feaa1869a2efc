package tactical

import "regexp"

// filePathExtractors is an ordered set of small regexes, each with one
// capture group for the file path. The first one to match wins.
var filePathExtractors = []*regexp.Regexp{
	regexp.MustCompile(`(?i)exists:\s*([^\s,;]+)`),
	regexp.MustCompile(`(?i)directory:\s*'([^']+)'`),
	regexp.MustCompile(`(?i)non-existent file:\s*([^\s,;]+)`),
	regexp.MustCompile(`:\s*([^\s,;]+\.[A-Za-z0-9_]+)\b`),
}

// ExtractFilePath attempts to pull a file path out of raw agent error text
// using a small ordered set of regexes. Returns the first hit, with
// trailing punctuation stripped, or "" if nothing matched.
func ExtractFilePath(errorText string) string {
	if errorText == "" {
		return ""
	}
	for _, re := range filePathExtractors {
		if m := re.FindStringSubmatch(errorText); m != nil {
			return stripTrailingPunctuation(m[1])
		}
	}
	return ""
}

func stripTrailingPunctuation(s string) string {
	for len(s) > 0 {
		c := s[len(s)-1]
		if c == '.' || c == ',' || c == ';' || c == ':' || c == ')' || c == '\'' || c == '"' {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	return s
}
