package tenants

import (
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}
	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

// PhoneSet is an allowlist of E.164 numbers. The zero value is an empty set.
type PhoneSet struct {
	region  string
	numbers map[string]struct{}
}

func NewPhoneSet(region string, numbers ...string) PhoneSet {
	s := PhoneSet{region: region, numbers: make(map[string]struct{}, len(numbers))}
	for _, n := range numbers {
		if v := NormalizeE164(n, region); v != "" {
			s.numbers[v] = struct{}{}
		}
	}
	return s
}

func (s PhoneSet) Empty() bool { return len(s.numbers) == 0 }

func (s PhoneSet) Len() int { return len(s.numbers) }

func (s PhoneSet) Contains(phone string) bool {
	if len(s.numbers) == 0 {
		return false
	}
	_, ok := s.numbers[NormalizeE164(phone, s.region)]
	return ok
}

// Numbers returns the set in sorted order.
func (s PhoneSet) Numbers() []string {
	out := make([]string, 0, len(s.numbers))
	for n := range s.numbers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
