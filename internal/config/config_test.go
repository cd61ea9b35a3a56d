package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCOUNT1_NAME", "prod")
	t.Setenv("ACCOUNT1_SECRET_ID", "AKIDxxxx")
	t.Setenv("ACCOUNT1_SECRET_KEY", "secretxxxx")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Accounts) != 1 || cfg.Accounts[0].Name != "prod" {
		t.Errorf("accounts = %v, want single prod", cfg.Accounts)
	}
	if cfg.Alert.Mode != "all" || cfg.Alert.ThresholdDays != 65 {
		t.Errorf("alert defaults = %s/%d, want all/65", cfg.Alert.Mode, cfg.Alert.ThresholdDays)
	}
	if len(cfg.Regions.Resources) != 1 || cfg.Regions.Resources[0] != "ap-guangzhou" {
		t.Errorf("region default = %v, want ap-guangzhou", cfg.Regions.Resources)
	}
	if cfg.WeCom.Enabled || cfg.Email.Enabled || cfg.Database.Enabled {
		t.Error("channels should default to disabled")
	}
}

func TestLoadMultipleAccounts(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ACCOUNT2_NAME", "staging")
	t.Setenv("ACCOUNT2_SECRET_ID", "AKIDyyyy")
	t.Setenv("ACCOUNT2_SECRET_KEY", "secretyyyy")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Accounts) != 2 || cfg.Accounts[1].Name != "staging" {
		t.Errorf("accounts = %v, want prod then staging", cfg.Accounts)
	}
}

func TestLoadAccountsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.yaml")
	content := `accounts:
  - name: prod
    secret_id: AKIDxxxx
    secret_key: secretxxxx
  - name: backup
    secret_id: AKIDzzzz
    secret_key: secretzzzz
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write accounts file: %v", err)
	}

	// The file takes precedence over env enumeration.
	setBaseEnv(t)
	t.Setenv("ACCOUNTS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Accounts) != 2 || cfg.Accounts[1].Name != "backup" {
		t.Errorf("accounts = %v, want file contents", cfg.Accounts)
	}
}

func TestLoadNoAccounts(t *testing.T) {
	// No ACCOUNT1_NAME in a scrubbed environment.
	t.Setenv("ACCOUNT1_NAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without accounts")
	}
}

func TestLoadBots(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENABLE_WECHAT_ALERT", "true")
	t.Setenv("WECHAT_BOT1_NAME", "ops")
	t.Setenv("WECHAT_BOT1_WEBHOOK", "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=abc")
	t.Setenv("WECHAT_BOT2_NAME", "dev")
	t.Setenv("WECHAT_BOT2_WEBHOOK", "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=def")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.WeCom.Bots) != 2 || cfg.WeCom.Bots[0].Name != "ops" || cfg.WeCom.Bots[1].Name != "dev" {
		t.Errorf("bots = %v, want ops then dev", cfg.WeCom.Bots)
	}
}

func TestLoadBotValidation(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENABLE_WECHAT_ALERT", "true")
	t.Setenv("WECHAT_BOT1_NAME", "ops")
	t.Setenv("WECHAT_BOT1_WEBHOOK", "not a url")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a malformed webhook URL")
	}
}

func TestLoadEnabledChannelWithoutBots(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENABLE_YUNZHIJIA_ALERT", "true")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject an enabled channel with no bots")
	}
}

func TestLoadMailboxFallback(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENABLE_EMAIL_ALERT", "true")
	t.Setenv("EMAIL_SMTP_SERVER", "smtp.example.com")
	t.Setenv("EMAIL_SENDER", "alerts@example.com")
	t.Setenv("EMAIL_PASSWORD", "secret")
	t.Setenv("EMAIL_RECEIVERS", "a@example.com, b@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	boxes := cfg.Email.Mailboxes
	if len(boxes) != 1 || boxes[0].Name != "default" || len(boxes[0].Recipients) != 2 {
		t.Errorf("mailboxes = %v, want single default box with 2 recipients", boxes)
	}
}

func TestBotChannelTargets(t *testing.T) {
	tests := []struct {
		name string
		cfg  BotChannelConfig
		want []string
	}{
		{
			name: "all mode returns nil",
			cfg:  BotChannelConfig{SendMode: "all", TargetBots: []string{"ops"}},
			want: nil,
		},
		{
			name: "targeted mode returns the list",
			cfg:  BotChannelConfig{SendMode: "targeted", TargetBots: []string{"ops", "dev"}},
			want: []string{"ops", "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.Targets()
			if len(got) != len(tt.want) {
				t.Fatalf("Targets() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Targets() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
