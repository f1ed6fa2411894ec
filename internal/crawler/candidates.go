// Package crawler fetches bulletin text over a chain of delivery candidates
// with bounded retries, and decodes it.
package crawler

import (
	"net/url"
	"strings"
)

// Candidate names, in decreasing order of preference.
const (
	CandidateSecure   = "secure"
	CandidateInsecure = "insecure"
	CandidateRelay    = "relay"
)

// relayPlaceholder in a relay base is replaced by the escaped target URL.
const relayPlaceholder = "{url}"

// Candidate is one delivery path for a bulletin.
type Candidate struct {
	Name string
	URL  string
}

// Candidates builds the ordered delivery paths for canonicalURL: the URL
// itself, its plain-HTTP variant, and the relay when relayBase is set.
func Candidates(canonicalURL, relayBase string) []Candidate {
	var out []Candidate

	if rest, ok := cutPrefixFold(canonicalURL, "https://"); ok {
		out = append(out,
			Candidate{Name: CandidateSecure, URL: canonicalURL},
			Candidate{Name: CandidateInsecure, URL: "http://" + rest},
		)
	} else {
		out = append(out, Candidate{Name: CandidateInsecure, URL: canonicalURL})
	}

	if relayBase != "" {
		out = append(out, Candidate{Name: CandidateRelay, URL: RelayURL(relayBase, canonicalURL)})
	}

	return out
}

// RelayURL passes target through the relay at base.
func RelayURL(base, target string) string {
	escaped := url.QueryEscape(target)
	if strings.Contains(base, relayPlaceholder) {
		return strings.ReplaceAll(base, relayPlaceholder, escaped)
	}

	return base + escaped
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}

	return s[len(prefix):], true
}
