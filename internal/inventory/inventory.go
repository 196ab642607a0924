// Package inventory resolves the list of hosts a lookup runs against.
package inventory

// Inventory is a parsed Ansible inventory: hosts in first-seen order and
// groups that may nest other groups.
type Inventory struct {
	hosts  []string
	index  map[string]int
	groups map[string]*group
	order  []string // group names in first-seen order
}

type group struct {
	hosts    []string
	children []string
}

func newInventory() *Inventory {
	return &Inventory{
		index:  make(map[string]int),
		groups: make(map[string]*group),
	}
}

// Hosts returns every host in inventory order.
func (inv *Inventory) Hosts() []string {
	return append([]string(nil), inv.hosts...)
}

// Groups returns every explicit group name in inventory order.
func (inv *Inventory) Groups() []string {
	return append([]string(nil), inv.order...)
}

func (inv *Inventory) group(name string) *group {
	g, ok := inv.groups[name]
	if !ok {
		g = &group{}
		inv.groups[name] = g
		inv.order = append(inv.order, name)
	}
	return g
}

func (inv *Inventory) addHost(groupName, host string) {
	if _, ok := inv.index[host]; !ok {
		inv.index[host] = len(inv.hosts)
		inv.hosts = append(inv.hosts, host)
	}
	if groupName == "" || groupName == "all" || groupName == "ungrouped" {
		return
	}
	g := inv.group(groupName)
	for _, h := range g.hosts {
		if h == host {
			return
		}
	}
	g.hosts = append(g.hosts, host)
}

func (inv *Inventory) addChild(parent, child string) {
	if parent == child {
		return
	}
	inv.group(child)
	if parent == "all" || parent == "ungrouped" {
		return
	}
	g := inv.group(parent)
	for _, c := range g.children {
		if c == child {
			return
		}
	}
	g.children = append(g.children, child)
}

// hasGroup reports whether name is a group, including the implicit "all"
// and "ungrouped".
func (inv *Inventory) hasGroup(name string) bool {
	if name == "all" || name == "ungrouped" {
		return true
	}
	_, ok := inv.groups[name]
	return ok
}

// groupHosts returns the set of hosts in a group and its descendants.
func (inv *Inventory) groupHosts(name string) map[string]bool {
	set := make(map[string]bool)
	switch name {
	case "all":
		for _, h := range inv.hosts {
			set[h] = true
		}
		return set
	case "ungrouped":
		grouped := make(map[string]bool)
		for _, g := range inv.groups {
			for _, h := range g.hosts {
				grouped[h] = true
			}
		}
		for _, h := range inv.hosts {
			if !grouped[h] {
				set[h] = true
			}
		}
		return set
	}

	seen := make(map[string]bool)
	var walk func(string)
	walk = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		g, ok := inv.groups[n]
		if !ok {
			return
		}
		for _, h := range g.hosts {
			set[h] = true
		}
		for _, c := range g.children {
			walk(c)
		}
	}
	walk(name)
	return set
}

// ordered returns the members of set in inventory order.
func (inv *Inventory) ordered(set map[string]bool) []string {
	result := make([]string, 0, len(set))
	for _, h := range inv.hosts {
		if set[h] {
			result = append(result, h)
		}
	}
	return result
}
