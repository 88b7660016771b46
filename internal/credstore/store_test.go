package credstore

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
)

func newTestStore() *Store {
	return NewWithKeyring(keyring.NewArrayKeyring(nil))
}

func TestKeyLayout(t *testing.T) {
	target := "https://dv.example.com"

	if got := RefreshTokenKey(target); got != "dvcli::https://dv.example.com" {
		t.Errorf("RefreshTokenKey = %q", got)
	}
	if got := PassphraseKey(target); got != "dvcli::https://dv.example.com-crypto" {
		t.Errorf("PassphraseKey = %q", got)
	}
}

func TestSetGetDeleteRoundTrip(t *testing.T) {
	s := newTestStore()
	target := "https://dv.example.com"

	if err := s.SetRefreshToken(target, "tok-1"); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}
	got, err := s.RefreshToken(target)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if got != "tok-1" {
		t.Errorf("RefreshToken = %q", got)
	}

	if err := s.DeleteRefreshToken(target); err != nil {
		t.Fatalf("DeleteRefreshToken: %v", err)
	}
	if _, err := s.RefreshToken(target); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete: err = %v, want ErrNotFound", err)
	}
}

func TestGetMissingReportsNotFound(t *testing.T) {
	s := newTestStore()

	if _, err := s.Get("dvcli::nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.Delete("dvcli::nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete err = %v, want ErrNotFound", err)
	}
}

func TestPassphraseIsSeparateFromToken(t *testing.T) {
	s := newTestStore()
	target := "https://dv.example.com"

	if err := s.SetRefreshToken(target, "tok"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPassphrase(target, "pass"); err != nil {
		t.Fatal(err)
	}

	tok, _ := s.RefreshToken(target)
	pass, _ := s.Passphrase(target)
	if tok != "tok" || pass != "pass" {
		t.Errorf("tok = %q, pass = %q", tok, pass)
	}

	if err := s.DeletePassphrase(target); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RefreshToken(target); err != nil {
		t.Errorf("refresh token lost when passphrase deleted: %v", err)
	}
}
