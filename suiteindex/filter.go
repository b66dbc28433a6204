package suiteindex

import (
	"fmt"
	"regexp"
	"strings"
)

// RegexFilters selects namespaces: a namespace is kept if it matches any MustMatch pattern
// (or there are none) and no MustNotMatch pattern.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) Match(namespace string) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(namespace)) &&
		!r.MustNotMatch.AnyMatch(namespace)
}

// Apply returns the namespaces that match, in their original order.
func (r RegexFilters) Apply(namespaces []string) []string {
	ret := []string{}
	for _, ns := range namespaces {
		if r.Match(ns) {
			ret = append(ret, ns)
		}
	}
	return ret
}

type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
