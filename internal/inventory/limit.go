package inventory

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Select returns the hosts matched by an Ansible limit pattern, in
// inventory order. Supported forms:
//
//	all, *             every host
//	web                a group (with its children) or a host
//	web*, db-0[1-3]    shell globs over group and host names
//	~web\d+            a regular expression over group and host names
//	web:db, web,db     union
//	web:&prod          intersection
//	web:!web-03        exclusion
//
// Unions are applied first, then intersections, then exclusions, whatever
// their position. An empty pattern means "all".
func (inv *Inventory) Select(pattern string) ([]string, error) {
	terms := splitPattern(pattern)
	if len(terms) == 0 {
		terms = []string{"all"}
	}

	var unions, intersections, exclusions []string
	for _, term := range terms {
		switch {
		case strings.HasPrefix(term, "&"):
			intersections = append(intersections, term[1:])
		case strings.HasPrefix(term, "!"):
			exclusions = append(exclusions, term[1:])
		default:
			unions = append(unions, term)
		}
	}
	if len(unions) == 0 {
		unions = []string{"all"}
	}

	selected := make(map[string]bool)
	for _, term := range unions {
		set, err := inv.resolveTerm(term)
		if err != nil {
			return nil, err
		}
		for h := range set {
			selected[h] = true
		}
	}
	for _, term := range intersections {
		set, err := inv.resolveTerm(term)
		if err != nil {
			return nil, err
		}
		for h := range selected {
			if !set[h] {
				delete(selected, h)
			}
		}
	}
	for _, term := range exclusions {
		set, err := inv.resolveTerm(term)
		if err != nil {
			return nil, err
		}
		for h := range set {
			delete(selected, h)
		}
	}
	return inv.ordered(selected), nil
}

// splitPattern splits on commas, or on colons when there are no commas.
func splitPattern(pattern string) []string {
	sep := ":"
	if strings.Contains(pattern, ",") {
		sep = ","
	}
	var terms []string
	for _, t := range strings.Split(pattern, sep) {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// resolveTerm returns the hosts named by a single pattern term. Unknown
// names resolve to nothing.
func (inv *Inventory) resolveTerm(term string) (map[string]bool, error) {
	if term == "all" || term == "*" {
		return inv.groupHosts("all"), nil
	}

	if strings.HasPrefix(term, "~") {
		re, err := regexp.Compile(term[1:])
		if err != nil {
			return nil, fmt.Errorf("limit %q: %w", term, err)
		}
		return inv.collect(re.MatchString), nil
	}

	if strings.ContainsAny(term, "*?[") {
		if _, err := path.Match(term, ""); err != nil {
			return nil, fmt.Errorf("limit %q: %w", term, err)
		}
		return inv.collect(func(name string) bool {
			ok, _ := path.Match(term, name)
			return ok
		}), nil
	}

	set := make(map[string]bool)
	if inv.hasGroup(term) {
		for h := range inv.groupHosts(term) {
			set[h] = true
		}
	}
	if _, ok := inv.index[term]; ok {
		set[term] = true
	}
	return set, nil
}

// collect returns the hosts of every group matching, plus every matching
// host.
func (inv *Inventory) collect(match func(string) bool) map[string]bool {
	set := make(map[string]bool)
	for _, name := range inv.order {
		if match(name) {
			for h := range inv.groupHosts(name) {
				set[h] = true
			}
		}
	}
	for _, h := range inv.hosts {
		if match(h) {
			set[h] = true
		}
	}
	return set
}
