package inventory

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// parseINI reads an Ansible INI inventory. Host variables and [group:vars]
// sections are ignored; only membership matters here.
func parseINI(data []byte) (*Inventory, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:         true,
		KeyValueDelimiters:       "=",
		SkipUnrecognizableLines:  true,
		IgnoreContinuation:       true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("parse ini inventory: %w", err)
	}

	inv := newInventory()
	for _, sec := range f.Sections() {
		name, kind := splitSectionName(sec.Name())
		switch kind {
		case "vars":
			continue
		case "children":
			inv.group(name)
			for _, key := range sec.Keys() {
				child := entryName(key.Name())
				if child == "" {
					continue
				}
				inv.addChild(name, child)
			}
		case "":
			if name != ini.DefaultSection {
				inv.group(name)
			} else {
				name = ""
			}
			for _, key := range sec.Keys() {
				pattern := entryName(key.Name())
				if pattern == "" {
					continue
				}
				hosts, err := expandHostPattern(pattern)
				if err != nil {
					return nil, fmt.Errorf("parse ini inventory: section %s: %w", sec.Name(), err)
				}
				for _, h := range hosts {
					inv.addHost(name, h)
				}
			}
		default:
			return nil, fmt.Errorf("parse ini inventory: unknown section type %q", sec.Name())
		}
	}
	return inv, nil
}

// splitSectionName splits "web:children" into ("web", "children").
func splitSectionName(s string) (name, kind string) {
	if idx := strings.LastIndexByte(s, ':'); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

// entryName returns the host or group on an inventory line. With "=" as the
// only delimiter, "web1 ansible_host=10.0.0.1" arrives as the key
// "web1 ansible_host".
func entryName(key string) string {
	fields := strings.Fields(key)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
