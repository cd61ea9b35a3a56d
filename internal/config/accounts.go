package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// accountsFile is the shape of the optional ACCOUNTS_FILE yaml document.
type accountsFile struct {
	Accounts []Account `yaml:"accounts"`
}

// loadAccounts resolves the account list. ACCOUNTS_FILE takes precedence;
// otherwise indexed env vars (ACCOUNT1_NAME, ACCOUNT1_SECRET_ID, ...) are
// enumerated until the first gap.
func loadAccounts() ([]Account, error) {
	if path := os.Getenv("ACCOUNTS_FILE"); path != "" {
		return loadAccountsFromFile(path)
	}

	var accounts []Account
	for i := 1; ; i++ {
		name := os.Getenv(fmt.Sprintf("ACCOUNT%d_NAME", i))
		if name == "" {
			break
		}
		accounts = append(accounts, Account{
			Name:      name,
			SecretID:  os.Getenv(fmt.Sprintf("ACCOUNT%d_SECRET_ID", i)),
			SecretKey: os.Getenv(fmt.Sprintf("ACCOUNT%d_SECRET_KEY", i)),
		})
	}
	return accounts, nil
}

func loadAccountsFromFile(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file %s: %w", path, err)
	}

	var doc accountsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file %s: %w", path, err)
	}

	return doc.Accounts, nil
}
