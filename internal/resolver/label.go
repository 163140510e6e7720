package resolver

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
)

const labelAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Label length bounds per resolution mode.
const (
	dynamicLabelMin  = 4
	dynamicLabelMax  = 7
	templateLabelMin = 5
	templateLabelMax = 9
)

// templatePlaceholder is the single character an APK template must contain.
const templatePlaceholder = "*"

// RandomLabel returns a lowercase-alphanumeric string whose length is
// chosen uniformly in [minLen, maxLen].
func RandomLabel(minLen, maxLen int) string {
	n := minLen + rand.IntN(maxLen-minLen+1)
	b := make([]byte, n)
	for i := range b {
		b[i] = labelAlphabet[rand.IntN(len(labelAlphabet))]
	}
	return string(b)
}

// NormalizeAddress adds a default https scheme when the address has none.
func NormalizeAddress(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "https://" + addr
}

// MutateHost replaces the leftmost label of the URL's host with the given
// label, leaving scheme, remaining labels, port, path, and query unchanged.
func MutateHost(rawURL, label string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse resolved address: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("resolved address %q has no host", rawURL)
	}
	labels := strings.Split(host, ".")
	labels[0] = label
	mutated := strings.Join(labels, ".")
	if port := u.Port(); port != "" {
		mutated += ":" + port
	}
	u.Host = mutated
	return u.String(), nil
}
