package client

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Service derives a stable fingerprint for the client behind a request.
// Approval journals store the fingerprint next to each entry so reviewers
// can tell when a signer's approvals start arriving from an unfamiliar
// client.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ComputeFingerprint hashes the coarse traits of a User-Agent string:
// browser, major version, OS and form factor. The client IP is deliberately
// excluded; it changes too often to identify a device.
func (s *Service) ComputeFingerprint(userAgentString string) string {
	if !s.enabled || userAgentString == "" {
		return ""
	}

	ua := useragent.New(userAgentString)

	browser, version := ua.Browser()
	major := "unknown"
	if version != "" {
		if head, _, _ := strings.Cut(version, "."); head != "" {
			major = head
		}
	}

	form := "desktop"
	if ua.Mobile() {
		form = "mobile"
	}

	browser = strings.ToLower(strings.TrimSpace(browser))
	if browser == "" {
		browser = "unknown"
	}
	os := strings.ToLower(strings.TrimSpace(ua.OS()))
	if os == "" {
		os = "unknown"
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", browser, major, os, form)))
	return hex.EncodeToString(sum[:])
}
