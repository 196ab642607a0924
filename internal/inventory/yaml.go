package inventory

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// parseYAML reads an Ansible YAML inventory:
//
//	all:
//	  hosts:
//	    mail.example.com:
//	  children:
//	    web:
//	      hosts:
//	        web[01:03].example.com:
//
// Node order is kept so hosts come out in file order.
func parseYAML(data []byte) (*Inventory, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml inventory: %w", err)
	}

	inv := newInventory()
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return inv, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return inv, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse yaml inventory: top level must be a mapping of groups")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		if err := inv.walkYAMLGroup(name, root.Content[i+1]); err != nil {
			return nil, fmt.Errorf("parse yaml inventory: %w", err)
		}
	}
	return inv, nil
}

func (inv *Inventory) walkYAMLGroup(name string, node *yaml.Node) error {
	if name != "all" && name != "ungrouped" {
		inv.group(name)
	}
	if node == nil || node.Kind != yaml.MappingNode {
		// "group:" with no body.
		return nil
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "hosts":
			if val.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				hosts, err := expandHostPattern(val.Content[j].Value)
				if err != nil {
					return fmt.Errorf("group %s: %w", name, err)
				}
				for _, h := range hosts {
					inv.addHost(name, h)
				}
			}
		case "children":
			if val.Kind != yaml.MappingNode {
				continue
			}
			for j := 0; j+1 < len(val.Content); j += 2 {
				child := val.Content[j].Value
				inv.addChild(name, child)
				if err := inv.walkYAMLGroup(child, val.Content[j+1]); err != nil {
					return err
				}
			}
		case "vars":
		default:
			return fmt.Errorf("group %s: unexpected key %q", name, key)
		}
	}
	return nil
}
