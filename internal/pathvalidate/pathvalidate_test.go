package pathvalidate

import "testing"

func TestValidateAcceptsWellFormedPaths(t *testing.T) {
	cases := []string{
		"note.md",
		"folder/note.md",
		"deeply/nested/folder/note.md",
		"My Note (draft).md",
		"o'brien's-notes.md",
	}
	for _, p := range cases {
		if err := Validate(p); err != nil {
			t.Errorf("Validate(%q): unexpected error: %v", p, err)
		}
	}
}

func TestValidateRejectsUnsafePaths(t *testing.T) {
	cases := []string{
		"",
		"note.txt",
		"../note.md",
		"folder/../../etc/passwd.md",
		"/absolute/note.md",
		"note\x00.md",
		"note<script>.md",
		"note;rm -rf.md",
	}
	for _, p := range cases {
		if err := Validate(p); err == nil {
			t.Errorf("Validate(%q): expected error, got nil", p)
		}
	}
}

func TestValidateAllReturnsFirstError(t *testing.T) {
	paths := []string{"good.md", "also-good.md", "../bad.md", "fine.md"}
	err := ValidateAll(paths)
	if err == nil {
		t.Fatal("expected error for batch containing an unsafe path")
	}
}

func TestValidateAllAcceptsCleanBatch(t *testing.T) {
	paths := []string{"a.md", "b/c.md", "d.md"}
	if err := ValidateAll(paths); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
