package inventory

import (
	"strings"
	"testing"
)

const iniInventory = `# fleet
mail.example.com

[webservers]
foo.example.com ansible_port=2222
bar.example.com
web[01:03].lan

[dbservers]
one.example.com ansible_host=10.0.0.1 ansible_user=root
two.example.com
foo.example.com

[prod:children]
webservers
dbservers

[prod:vars]
ntp_server=ntp.example.com
`

const yamlInventory = `all:
  hosts:
    mail.example.com:
  children:
    prod:
      children:
        webservers:
          hosts:
            foo.example.com:
              ansible_port: 2222
            bar.example.com:
            web[01:03].lan:
        dbservers:
          hosts:
            one.example.com:
            two.example.com:
            foo.example.com:
      vars:
        ntp_server: ntp.example.com
`

func mustParse(t *testing.T, name, data string) *Inventory {
	t.Helper()
	inv, err := Parse(name, []byte(data))
	if err != nil {
		t.Fatalf("Parse(%s): %v", name, err)
	}
	return inv
}

func TestParse_INIAndYAMLAgree(t *testing.T) {
	t.Parallel()
	want := "mail.example.com foo.example.com bar.example.com web01.lan web02.lan web03.lan one.example.com two.example.com"

	for _, tc := range []struct{ name, data string }{
		{"hosts", iniInventory},
		{"hosts.ini", iniInventory},
		{"hosts.yml", yamlInventory},
		{"inventory", yamlInventory},
	} {
		t.Run(tc.name, func(t *testing.T) {
			inv := mustParse(t, tc.name, tc.data)
			if got := strings.Join(inv.Hosts(), " "); got != want {
				t.Errorf("Hosts = %s\nwant    %s", got, want)
			}
			for _, g := range []string{"webservers", "dbservers", "prod"} {
				if !inv.hasGroup(g) {
					t.Errorf("missing group %s", g)
				}
			}
		})
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pattern string
		want    string
	}{
		{"", "mail.example.com foo.example.com bar.example.com web01.lan web02.lan web03.lan one.example.com two.example.com"},
		{"all", "mail.example.com foo.example.com bar.example.com web01.lan web02.lan web03.lan one.example.com two.example.com"},
		{"webservers", "foo.example.com bar.example.com web01.lan web02.lan web03.lan"},
		{"prod:!webservers", "one.example.com two.example.com"},
		{"webservers:&dbservers", "foo.example.com"},
		{"web0*", "web01.lan web02.lan web03.lan"},
		{"~web0[12]", "web01.lan web02.lan"},
		{"one.example.com,mail.example.com", "mail.example.com one.example.com"},
		{"ungrouped", "mail.example.com"},
		{"!dbservers", "mail.example.com bar.example.com web01.lan web02.lan web03.lan"},
		{"!webservers:dbservers", "one.example.com two.example.com"},
		{"nosuch", ""},
	}
	for _, ini := range []bool{true, false} {
		name, data := "hosts.ini", iniInventory
		if !ini {
			name, data = "hosts.yaml", yamlInventory
		}
		inv := mustParse(t, name, data)
		for _, tt := range tests {
			t.Run(name+"/"+tt.pattern, func(t *testing.T) {
				got, err := inv.Select(tt.pattern)
				if err != nil {
					t.Fatalf("Select(%q): %v", tt.pattern, err)
				}
				if s := strings.Join(got, " "); s != tt.want {
					t.Errorf("Select(%q) = %q, want %q", tt.pattern, s, tt.want)
				}
			})
		}
	}
}

func TestSelect_BadPatterns(t *testing.T) {
	t.Parallel()
	inv := mustParse(t, "hosts.ini", iniInventory)
	for _, p := range []string{"~web(", "web[", "&["} {
		if _, err := inv.Select(p); err == nil {
			t.Errorf("Select(%q): expected error", p)
		}
	}
}

func TestParseINI_NestedChildren(t *testing.T) {
	t.Parallel()
	inv := mustParse(t, "hosts", `[a]
h1

[b]
h2

[c:children]
a

[d:children]
c
b
`)
	got, err := inv.Select("d")
	if err != nil {
		t.Fatal(err)
	}
	if s := strings.Join(got, " "); s != "h1 h2" {
		t.Errorf("Select(d) = %q", s)
	}
}

func TestParseYAML_Empty(t *testing.T) {
	t.Parallel()
	inv := mustParse(t, "hosts.yml", "")
	if len(inv.Hosts()) != 0 {
		t.Errorf("expected no hosts, got %v", inv.Hosts())
	}
	if _, err := Parse("hosts.yml", []byte("- a\n- b\n")); err == nil {
		t.Error("expected error for a YAML list")
	}
}

func TestExpandHostPattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"plain.lan", "plain.lan"},
		{"web[01:03].lan", "web01.lan web02.lan web03.lan"},
		{"web[1:3]", "web1 web2 web3"},
		{"node[0:10:5]", "node0 node5 node10"},
		{"db-[a:c]", "db-a db-b db-c"},
		{"r[1:2]c[a:b]", "r1ca r1cb r2ca r2cb"},
		{"n[:2]", "n0 n1 n2"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := expandHostPattern(tt.in)
			if err != nil {
				t.Fatalf("expandHostPattern: %v", err)
			}
			if s := strings.Join(got, " "); s != tt.want {
				t.Errorf("got %q, want %q", s, tt.want)
			}
		})
	}

	for _, bad := range []string{"web[1:", "web[3:1]", "web[x:3]", "web[1:3:0]", "web[1]"} {
		if _, err := expandHostPattern(bad); err == nil {
			t.Errorf("expandHostPattern(%q): expected error", bad)
		}
	}
}
