package memorystore

import "testing"

func TestWriteReadDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := s.Write("notes", "# Notes\nhello"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	content, err := s.Read("notes")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if content != "# Notes\nhello" {
		t.Fatalf("content = %q", content)
	}

	list := s.List()
	if len(list) != 1 || list[0].Name != "notes" {
		t.Fatalf("List = %+v", list)
	}

	if err := s.Delete("notes"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Has("notes") {
		t.Fatalf("expected notes to be gone")
	}
}

func TestInvalidName(t *testing.T) {
	s, _ := Open(t.TempDir())
	if _, err := s.Write("../escape", "x"); err == nil {
		t.Fatalf("expected invalid name to be rejected")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s1, _ := Open(dir)
	_, _ = s1.Write("a", "one")

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !s2.Has("a") {
		t.Fatalf("expected memory to persist across reopen")
	}
}
