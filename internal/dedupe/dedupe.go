// Package dedupe derives canonical identities for scraped business records
// and filters duplicates before persistence.
package dedupe

import (
	"net/url"
	"strings"

	"github.com/leadgrid/leadgrid/internal/domain/model"
)

// nationalDigits is the number of trailing digits kept from a phone number.
// Longer numbers carry a country prefix, which varies by scrape source for
// the same business.
const nationalDigits = 10

// Key returns the canonical identity of a raw lead: the normalized business
// name combined with the first available discriminator, in priority order
// phone, website domain, address. Records that differ only in formatting
// produce the same key.
func Key(r *model.RawLead) string {
	name := normalizeSpace(strings.ToLower(r.Name))

	if p := normalizePhone(r.Phone); p != "" {
		return name + "|p:" + p
	}
	if d := normalizeDomain(r.Website); d != "" {
		return name + "|w:" + d
	}
	if a := normalizeSpace(strings.ToLower(r.Address)); a != "" {
		return name + "|a:" + a
	}
	return name
}

// Filter returns the candidates whose key is neither in existing nor repeated
// earlier in the batch. First occurrence wins; output order follows input
// order, so the result is identical on every run for the same input.
// Records with an empty name are dropped. The existing set is not mutated.
func Filter(existing map[string]struct{}, candidates []*model.RawLead) []*model.RawLead {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for k := range existing {
		seen[k] = struct{}{}
	}

	kept := make([]*model.RawLead, 0, len(candidates))
	for _, c := range candidates {
		if c == nil || c.Empty() {
			continue
		}
		k := Key(c)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, c)
	}
	return kept
}

// KeySet builds a lookup set from a list of stored keys.
func KeySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizePhone keeps digits only and trims to the national significant
// number, so "+1 (212) 555-0100" and "212.555.0100" collide.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > nationalDigits {
		digits = digits[len(digits)-nationalDigits:]
	}
	return digits
}

// normalizeDomain extracts the registrable host from a website URL,
// dropping scheme, path, port, and a leading "www.".
func normalizeDomain(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
