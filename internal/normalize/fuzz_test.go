//go:build go1.18

package normalize

import (
	"strings"
	"testing"
)

// FuzzLastFirst ensures the name converter never panics and always emits
// tidy spacing, whatever the listing page throws at it.
func FuzzLastFirst(f *testing.F) {
	f.Add("Isaac Asimov")
	f.Add("A. E. van Vogt")
	f.Add("John W. Campbell, Jr.")
	f.Add("Pedro de la Rosa")
	f.Add("")
	f.Add(",")
	f.Add("x II III")
	f.Add("Unicode Тест Автор")

	f.Fuzz(func(t *testing.T, name string) {
		got := LastFirst(name)

		if got != strings.TrimSpace(got) {
			t.Errorf("LastFirst(%q) = %q has outer whitespace", name, got)
		}
		if strings.Contains(got, "  ") {
			t.Errorf("LastFirst(%q) = %q has doubled spaces", name, got)
		}
	})
}
