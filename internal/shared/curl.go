// Utilities for parsing cURL commands copied from browser devtools.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	curlURLRe    = regexp.MustCompile(`curl\s+(?:-X\s+\w+\s+)?'([^']+)'|curl\s+(?:-X\s+\w+\s+)?"([^"]+)"|(https?://\S+)`)
)

// CurlSession holds what an InnerTube request copied as cURL carries: the
// raw headers plus the api key and visitor token the client needs.
type CurlSession struct {
	Headers     map[string]string
	Cookie      string
	APIKey      string
	VisitorData string
}

// ParseCurlFile reads a .sh file containing a cURL command.
func ParseCurlFile(filepath string) (*CurlSession, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts headers, cookie, the `key` query parameter and the
// X-Goog-Visitor-Id header from a cURL command.
func ParseCurlCommand(curlCmd string) (*CurlSession, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	s := &CurlSession{Headers: make(map[string]string)}

	for _, match := range curlHeaderRe.FindAllStringSubmatch(curlCmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch strings.ToLower(key) {
		case "cookie":
			if s.Cookie == "" {
				s.Cookie = value
			}
		case "x-goog-visitor-id":
			s.VisitorData = value
			s.Headers[key] = value
		default:
			s.Headers[key] = value
		}
	}

	// -b wins over a Cookie header.
	if m := curlCookieRe.FindStringSubmatch(curlCmd); m != nil {
		s.Cookie = firstGroup(m)
	}

	if m := curlURLRe.FindStringSubmatch(curlCmd); m != nil {
		if u, err := url.Parse(firstGroup(m)); err == nil {
			s.APIKey = u.Query().Get("key")
		}
	}

	if len(s.Headers) == 0 && s.Cookie == "" && s.APIKey == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return s, nil
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// Apply copies the parsed key and visitor token into cfg, leaving fields the
// command did not carry untouched.
func (s *CurlSession) Apply(cfg *ProviderConfig) {
	if s.APIKey != "" {
		cfg.APIKey = s.APIKey
	}
	if s.VisitorData != "" {
		cfg.VisitorData = s.VisitorData
	}
}
