package identity

import (
	"os"
)

// FileStore keeps the identity byte in a one-byte file, standing in for
// the EEPROM cell the original boards use. The file is written during
// provisioning and read at every boot.
type FileStore struct {
	Path string
}

// ReadRole implements Store.
func (s *FileStore) ReadRole() (Role, error) {
	b, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return 0, ErrNotProvisioned
	}
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, ErrNotProvisioned
	}
	return Role(b[0]), nil
}

// WriteRole implements Store.
func (s *FileStore) WriteRole(r Role) error {
	return os.WriteFile(s.Path, []byte{byte(r)}, 0644)
}
