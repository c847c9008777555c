package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.IMAPHost != "imap.gmail.com" {
		t.Errorf("IMAPHost = %q", cfg.IMAPHost)
	}
	if cfg.IMAPPort != 993 {
		t.Errorf("IMAPPort = %d, want 993", cfg.IMAPPort)
	}
	if !cfg.IMAPSecure {
		t.Error("IMAPSecure = false, want true by default")
	}
	if cfg.SourceMode != "store" {
		t.Errorf("SourceMode = %q, want store", cfg.SourceMode)
	}
	if cfg.LookbackMinutes != 5 {
		t.Errorf("LookbackMinutes = %d, want 5", cfg.LookbackMinutes)
	}
	if cfg.SyncInterval != 10*time.Second {
		t.Errorf("SyncInterval = %v, want 10s", cfg.SyncInterval)
	}
	if cfg.CacheFreshness != 8*time.Second {
		t.Errorf("CacheFreshness = %v, want 8s", cfg.CacheFreshness)
	}
	if cfg.HasIMAPCredentials() {
		t.Error("HasIMAPCredentials() = true with no credentials set")
	}
}

func TestLoadParsesEnvironment(t *testing.T) {
	t.Setenv("IMAP_HOST", " mail.example.com ")
	t.Setenv("IMAP_PORT", "143")
	t.Setenv("IMAP_ENCRYPTION", "none")
	t.Setenv("IMAP_USER", "inbox@example.com")
	t.Setenv("IMAP_PASSWORD", "secret")
	t.Setenv("AUTHORIZED_INBOX", " Inbox@X.com ")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("SOURCE_MODE", "LIVE")
	t.Setenv("SYNC_INTERVAL", "30s")
	t.Setenv("ALLOWED_DOMAINS", "X.com, y.com ,,")
	t.Setenv("ADMIN_PASSWORDS", " alpha , beta ")

	cfg := Load()

	if cfg.IMAPHost != "mail.example.com" {
		t.Errorf("IMAPHost = %q", cfg.IMAPHost)
	}
	if cfg.IMAPPort != 143 {
		t.Errorf("IMAPPort = %d", cfg.IMAPPort)
	}
	if cfg.IMAPSecure {
		t.Error("IMAPSecure = true with encryption none")
	}
	if !cfg.HasIMAPCredentials() {
		t.Error("HasIMAPCredentials() = false with credentials set")
	}
	if cfg.AuthorizedInbox != "inbox@x.com" {
		t.Errorf("AuthorizedInbox = %q, want inbox@x.com", cfg.AuthorizedInbox)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false with APP_ENV=Production")
	}
	if cfg.SourceMode != "live" {
		t.Errorf("SourceMode = %q, want live", cfg.SourceMode)
	}
	if cfg.SyncInterval != 30*time.Second {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}

	wantDomains := []string{"x.com", "y.com"}
	if len(cfg.AllowedDomains) != len(wantDomains) {
		t.Fatalf("AllowedDomains = %v", cfg.AllowedDomains)
	}
	for i, d := range wantDomains {
		if cfg.AllowedDomains[i] != d {
			t.Errorf("AllowedDomains[%d] = %q, want %q", i, cfg.AllowedDomains[i], d)
		}
	}

	wantPasswords := []string{"alpha", "beta"}
	for i, p := range wantPasswords {
		if cfg.AdminPasswords[i] != p {
			t.Errorf("AdminPasswords[%d] = %q, want %q", i, cfg.AdminPasswords[i], p)
		}
	}
}
