package mail

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inboxd/inboxd/internal/config"
)

func configWithFiles(t *testing.T, create bool) config.GmailConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.GmailConfig{
		CredentialsFile: filepath.Join(dir, "credentials.json"),
		TokenFile:       filepath.Join(dir, "token.json"),
	}
	if create {
		for _, path := range []string{cfg.CredentialsFile, cfg.TokenFile} {
			if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
				t.Fatalf("write %s: %v", path, err)
			}
		}
	}
	return cfg
}
