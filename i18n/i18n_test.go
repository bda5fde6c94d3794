package i18n_test

import (
	"testing"

	"github.com/wireform/wireform/i18n"
)

func TestDefaultEnglishMessages(t *testing.T) {
	if got := i18n.T("missing_required", nil); got != "required field missing" {
		t.Fatalf("unexpected message: %q", got)
	}
	// unknown codes fall through to the code itself
	if got := i18n.T("no_such_code", nil); got != "no_such_code" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestSetLanguage(t *testing.T) {
	i18n.SetLanguage("ja")
	defer i18n.SetLanguage("en")
	if got := i18n.T("invalid_type", nil); got != "型が不正です" {
		t.Fatalf("unexpected message: %q", got)
	}
}

type upperTranslator struct{}

func (upperTranslator) Message(code string, _ map[string]string) string { return "!" + code }

func TestSetTranslator(t *testing.T) {
	i18n.SetTranslator(upperTranslator{})
	defer i18n.SetTranslator(nil)
	if got := i18n.T("invalid_type", nil); got != "!invalid_type" {
		t.Fatalf("unexpected message: %q", got)
	}
}
