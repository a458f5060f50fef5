package config

import (
	"strings"
	"testing"
)

func TestEncryptDecryptValue(t *testing.T) {
	encrypted, err := EncryptValue("s3cret", "passphrase")
	if err != nil {
		t.Fatalf("EncryptValue: %v", err)
	}
	if strings.Contains(encrypted, "s3cret") {
		t.Fatal("ciphertext contains plaintext")
	}

	got, err := DecryptValue(encrypted, "passphrase")
	if err != nil {
		t.Fatalf("DecryptValue: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("got %q, want s3cret", got)
	}

	if _, err := DecryptValue(encrypted, "wrong"); err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestDecryptValueMalformed(t *testing.T) {
	for _, in := range []string{"nocolon", "zz:00", "00:zz", "00:00"} {
		if _, err := DecryptValue(in, "passphrase"); err == nil {
			t.Errorf("DecryptValue(%q) should fail", in)
		}
	}
}

func TestLoadDecryptsProductValues(t *testing.T) {
	encrypted, err := EncryptValue("hunter2", "config-key")
	if err != nil {
		t.Fatal(err)
	}
	path := writeConfigFile(t, t.TempDir(), "config.yaml", `
product:
  values:
    RepositoryPassword: "enc:`+encrypted+`"
    RepositoryUser: "deploy"
`)
	t.Setenv("INSTALLER_CONFIG_KEY", "config-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Product.Values["RepositoryPassword"]; got != "hunter2" {
		t.Errorf("RepositoryPassword = %q", got)
	}
	if got := cfg.Product.Values["RepositoryUser"]; got != "deploy" {
		t.Errorf("RepositoryUser = %q", got)
	}
}

func TestLoadWrongConfigKey(t *testing.T) {
	encrypted, err := EncryptValue("hunter2", "config-key")
	if err != nil {
		t.Fatal(err)
	}
	path := writeConfigFile(t, t.TempDir(), "config.yaml", `
product:
  values:
    RepositoryPassword: "enc:`+encrypted+`"
`)
	t.Setenv("INSTALLER_CONFIG_KEY", "other")

	if _, err := Load(path); err == nil {
		t.Fatal("expected decrypt error")
	}
}
