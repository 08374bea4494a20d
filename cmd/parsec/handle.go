package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parsecfs/parsec/pkg/cryptoprim"
	"github.com/parsecfs/parsec/pkg/file"
)

// handleRecord is what a file descriptor looks like at rest between CLI
// invocations, mirroring file_create's wire shape (pkg/envelope).
type handleRecord struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	ReadSeed  string `json:"read_trust_seed"`
	WriteSeed string `json:"write_trust_seed"`
}

func handlesDir() (string, error) {
	dir := os.Getenv("PARSEC_HANDLES_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".parsec", "handles")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func saveHandle(name string, f *file.File) error {
	dir, err := handlesDir()
	if err != nil {
		return err
	}
	rec := handleRecord{
		ID:        f.ID,
		Key:       base64.StdEncoding.EncodeToString(f.Key.Raw()),
		ReadSeed:  f.ReadSeed,
		WriteSeed: f.WriteSeed,
	}
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".json"), body, 0o600)
}

func loadHandleRecord(name string) (handleRecord, error) {
	dir, err := handlesDir()
	if err != nil {
		return handleRecord{}, err
	}
	body, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return handleRecord{}, fmt.Errorf("no saved handle %q: %w", name, err)
	}
	var rec handleRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return handleRecord{}, err
	}
	return rec, nil
}

func (r handleRecord) symKey() (*cryptoprim.SymKey, error) {
	raw, err := base64.StdEncoding.DecodeString(r.Key)
	if err != nil {
		return nil, err
	}
	return cryptoprim.LoadSymKey(raw)
}
