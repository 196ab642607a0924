package inventory

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// DefaultPath is the inventory read when no file is given.
const DefaultPath = "/etc/ansible/hosts"

// Flags are the ansible-style inventory options.
type Flags struct {
	Path              string
	Limit             string
	AskVaultPass      bool
	VaultPasswordFile string
}

// BindFlags registers the inventory options on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Path, "i", DefaultPath, "Ansible inventory file")
	fs.StringVar(&f.Path, "inventory-file", DefaultPath, "Ansible inventory file")
	fs.StringVar(&f.Limit, "limit", "all", "Ansible host pattern")
	fs.BoolVar(&f.AskVaultPass, "ask-vault-pass", false, "Prompt for the vault password")
	fs.StringVar(&f.VaultPasswordFile, "vault-password-file", "", "File holding the vault password")
	return f
}

// PasswordPrompt asks the user for the vault password.
type PasswordPrompt func() (string, error)

// Provider builds the Ansible provider the flags describe. A password file
// wins over prompting.
func (f *Flags) Provider(prompt PasswordPrompt) (*Ansible, error) {
	a := &Ansible{Path: f.Path, Limit: f.Limit}
	switch {
	case f.VaultPasswordFile != "":
		pw, err := ReadPasswordFile(f.VaultPasswordFile)
		if err != nil {
			return nil, err
		}
		a.VaultPassword = pw
	case f.AskVaultPass:
		if prompt == nil {
			return nil, errors.New("no way to prompt for the vault password")
		}
		pw, err := prompt()
		if err != nil {
			return nil, fmt.Errorf("vault password: %w", err)
		}
		a.VaultPassword = pw
	}
	return a, nil
}

// TerminalPrompt reads the password from the terminal on stdin without
// echoing it. The prompt is written to w.
func TerminalPrompt(w io.Writer) PasswordPrompt {
	return func() (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("stdin is not a terminal")
		}
		fmt.Fprint(w, "Vault password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
}
