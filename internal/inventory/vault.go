package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	vault "github.com/sosedoff/ansible-vault-go"
)

const (
	vaultHeader = "$ANSIBLE_VAULT"
	vaultCipher = "AES256"
)

var (
	// ErrVaultPassword is returned when the envelope does not decrypt, which
	// almost always means the password is wrong.
	ErrVaultPassword = errors.New("vault: wrong password or corrupted data")
	// ErrVaultFormat is returned for envelopes that cannot be parsed.
	ErrVaultFormat = errors.New("vault: malformed envelope")
)

// IsVault reports whether data is an Ansible Vault envelope.
func IsVault(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(vaultHeader+";"))
}

// DecryptVault decrypts an Ansible Vault 1.1 or 1.2 envelope. A 1.2 header
// only adds a vault-id label, so it is rewritten to 1.1 for the decoder.
func DecryptVault(data []byte, password string) ([]byte, error) {
	text := strings.TrimSpace(string(data))
	header, body, ok := strings.Cut(text, "\n")
	if !ok {
		return nil, fmt.Errorf("%w: missing body", ErrVaultFormat)
	}

	fields := strings.Split(strings.TrimSpace(header), ";")
	if len(fields) < 3 || fields[0] != vaultHeader {
		return nil, fmt.Errorf("%w: bad header %q", ErrVaultFormat, header)
	}
	switch fields[1] {
	case "1.1", "1.2":
	default:
		return nil, fmt.Errorf("%w: unsupported version %s", ErrVaultFormat, fields[1])
	}
	if strings.TrimSpace(fields[2]) != vaultCipher {
		return nil, fmt.Errorf("%w: unsupported cipher %s", ErrVaultFormat, fields[2])
	}

	plaintext, err := vault.Decrypt(vaultHeader+";1.1;"+vaultCipher+"\n"+body, password)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidFormat) {
			return nil, fmt.Errorf("%w: %v", ErrVaultFormat, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrVaultPassword, err)
	}
	return []byte(plaintext), nil
}

// EncryptVault produces an Ansible Vault 1.1 envelope readable by
// ansible-vault and DecryptVault.
func EncryptVault(plaintext []byte, password string) ([]byte, error) {
	out, err := vault.Encrypt(string(plaintext), password)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out), nil
}
