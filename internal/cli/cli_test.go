package cli

import (
	"testing"

	"github.com/datavault/dvcli/internal/config"
)

func TestHostOf(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"dv.example.com/projects/report.pdf", "dv.example.com", false},
		{"https://dv.example.com/projects", "dv.example.com", false},
		{"dv.example.com", "dv.example.com", false},
		{"dv.example.com/", "dv.example.com", false},
		{"projects/report.pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := hostOf(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("hostOf(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseShareLink(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantKey  string
		wantErr  bool
	}{
		{"dv.example.com/public/download-shares/AbCdEf123", "dv.example.com", "AbCdEf123", false},
		{"https://dv.example.com/public/upload-shares/XyZ/", "dv.example.com", "XyZ", false},
		{"https://dv.example.com/#/public/download-shares/AbC", "dv.example.com", "AbC", false},
		{"dv.example.com/AbC", "dv.example.com", "AbC", false},
		{"dv.example.com", "", "", true},
		{"no-dots/AbC", "", "", true},
	}
	for _, tt := range tests {
		host, key, err := parseShareLink(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseShareLink(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if host != tt.wantHost || key != tt.wantKey {
			t.Errorf("parseShareLink(%q) = (%q, %q), want (%q, %q)", tt.in, host, key, tt.wantHost, tt.wantKey)
		}
	}
}

func TestApplyProxySettings(t *testing.T) {
	restore := func(mode, host string, port int, user, password, bypass string) {
		proxyMode, proxyHost, proxyPort = mode, host, port
		proxyUser, proxyPassword, noProxy = user, password, bypass
	}
	t.Cleanup(func() { restore("", "", 0, "", "", "") })

	restore("basic", "proxy.corp", 3128, "alice", "s3cret", "internal.corp")
	cfg := &config.Config{TargetURL: "https://dv.example.com"}
	if err := applyProxySettings(cfg); err != nil {
		t.Fatalf("applyProxySettings: %v", err)
	}
	if cfg.ProxyMode != "basic" || cfg.ProxyHost != "proxy.corp" || cfg.ProxyPort != 3128 {
		t.Errorf("proxy endpoint = %s %s:%d", cfg.ProxyMode, cfg.ProxyHost, cfg.ProxyPort)
	}
	if cfg.ProxyUser != "alice" || cfg.ProxyPassword != "s3cret" || cfg.NoProxy != "internal.corp" {
		t.Errorf("proxy credentials/bypass = %q %q %q", cfg.ProxyUser, cfg.ProxyPassword, cfg.NoProxy)
	}

	// Unset flags leave the mode alone; system mode never prompts.
	restore("", "", 0, "", "", "")
	cfg = &config.Config{ProxyMode: "system"}
	if err := applyProxySettings(cfg); err != nil {
		t.Fatalf("applyProxySettings: %v", err)
	}
	if cfg.ProxyMode != "system" {
		t.Errorf("mode = %q, want system", cfg.ProxyMode)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1024, "1.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDay(t *testing.T) {
	got, err := parseDay("2026-08-01")
	if err != nil {
		t.Fatalf("parseDay: %v", err)
	}
	if got.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("parseDay = %v", got)
	}

	if got, err := parseDay(""); err != nil || got != nil {
		t.Errorf("parseDay(\"\") = (%v, %v), want (nil, nil)", got, err)
	}

	if _, err := parseDay("yesterday"); err == nil {
		t.Error("parseDay(\"yesterday\") = nil error")
	}

	rfc, err := parseDay("2026-08-01T12:30:00Z")
	if err != nil {
		t.Fatalf("parseDay RFC3339: %v", err)
	}
	if rfc.Hour() != 12 {
		t.Errorf("hour = %d, want 12", rfc.Hour())
	}
}
