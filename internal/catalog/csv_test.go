// SPDX-License-Identifier: MIT

package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteCSV(t *testing.T) {
	stories := []Story{
		{1939, "July", "Black Destroyer", "van Vogt, A. E.", "van Vogt, A. E."},
		{1939, "July", "Trends", "Asimov, Isaac", "Asimov, Isaac"},
		{1941, "September", "Nightfall", "Asimov, Isaac", "Asimov, Isaac"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, stories); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	want := "Year,Month,Title,Published As,Author\n" +
		"1939,July,Black Destroyer,\"van Vogt, A. E.\",\"van Vogt, A. E.\"\n" +
		"1939,July,Trends,\"Asimov, Isaac\",\"Asimov, Isaac\"\n" +
		"1941,September,Nightfall,\"Asimov, Isaac\",\"Asimov, Isaac\"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVRoundTrip(t *testing.T) {
	stories := []Story{
		{1939, "August", "Life-Line", "Heinlein, Robert A.", "Heinlein, Robert A."},
		{1940, "January", "Requiem", "Heinlein, Robert A.", "Heinlein, Robert A."},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, stories); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff(stories, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty document", ""},
		{"bad year", "Year,Month,Title,Published As,Author\nabc,July,T,A,A\n"},
		{"bad month", "Year,Month,Title,Published As,Author\n1950,Smarch,T,A,A\n"},
		{"short row", "Year,Month,Title,Published As,Author\n1950,July,T\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
