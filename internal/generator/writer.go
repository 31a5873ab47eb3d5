package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAccounts serializes accounts as an indented JSON array at path,
// creating parent directories as needed.
func WriteAccounts(accounts []Account, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodeAccounts(file, accounts); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}

// EncodeAccounts writes accounts to w as an indented JSON array.
func EncodeAccounts(w io.Writer, accounts []Account) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(accounts)
}

// ReadAccounts loads a JSON array written by WriteAccounts.
func ReadAccounts(path string) ([]Account, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	var accounts []Account
	if err := decoder.Decode(&accounts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return accounts, nil
}
