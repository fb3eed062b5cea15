package spamguard

import (
	"errors"
	"testing"
)

const testRegistryYAML = `
forms:
  contact:
    referers:
      - /contact
      - /about
    spam_protection:
      enabled: true
      provider: honeypot
  newsletter:
    referers:
      - /newsletter/
    spam_protection:
      enabled: false
  guarded:
    spam_protection:
      provider: turnstile
      secret: sek
  home:
    referers:
      - /
`

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := ParseRegistry([]byte(testRegistryYAML))
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	return reg
}

func TestResolveByConfigPath(t *testing.T) {
	reg := loadTestRegistry(t)

	form, err := reg.Resolve("contact", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Name != "contact" {
		t.Errorf("form = %q, want contact", form.Name)
	}
}

func TestResolveUnknownConfigPathFails(t *testing.T) {
	reg := loadTestRegistry(t)

	_, err := reg.Resolve("nope", "https://example.com/contact")
	if !errors.Is(err, ErrFormNotFound) {
		t.Errorf("err = %v, want ErrFormNotFound", err)
	}
}

func TestResolveByReferer(t *testing.T) {
	reg := loadTestRegistry(t)

	tests := []struct {
		referer string
		want    string
	}{
		{"https://example.com/contact", "contact"},
		{"https://example.com/about", "contact"},
		{"https://example.com/newsletter/", "newsletter"},
		{"/contact", "contact"},
		{"https://example.com/", "home"},
	}
	for _, tt := range tests {
		form, err := reg.Resolve("", tt.referer)
		if err != nil {
			t.Errorf("Resolve(%q): unexpected error %v", tt.referer, err)
			continue
		}
		if form.Name != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.referer, form.Name, tt.want)
		}
	}
}

func TestResolveFailsWithoutMatch(t *testing.T) {
	reg := loadTestRegistry(t)

	for _, referer := range []string{"", "https://example.com/unknown"} {
		if _, err := reg.Resolve("", referer); !errors.Is(err, ErrFormNotFound) {
			t.Errorf("Resolve(%q) err = %v, want ErrFormNotFound", referer, err)
		}
	}
}

func TestSpamProtectionEnabledDefaults(t *testing.T) {
	reg := loadTestRegistry(t)

	guarded, _ := reg.Get("guarded")
	if !guarded.SpamProtection.IsEnabled() {
		t.Errorf("omitted enabled flag should default to true")
	}

	newsletter, _ := reg.Get("newsletter")
	if newsletter.SpamProtection.IsEnabled() {
		t.Errorf("enabled:false should disable screening")
	}
}
