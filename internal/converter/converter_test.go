package converter

import (
	"context"
	"testing"
)

func TestNewRegistry_WiresAllExtensions(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	supported := []string{
		"notes.md", "notes.markdown", "scan.mmd", "lecture.json",
		"main.py", "main.go", "main.c", "main.h", "main.cc", "main.cpp",
		"Main.java", "app.js", "app.ts", "app.rb", "app.rs",
		"run.sh", "query.sql", "eval.scm",
	}
	for _, name := range supported {
		if !r.Supported(name) {
			t.Errorf("expected %q to be supported", name)
		}
	}

	unsupported := []string{"book.docx", "data.csv", "img.png", "noext", "scan.pdf"}
	for _, name := range unsupported {
		if r.Supported(name) {
			t.Errorf("expected %q to be unsupported", name)
		}
	}
}

func TestRegistry_ForFileUnsupported(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.ForFile("presentation.pptx"); err == nil {
		t.Error("expected an error for an unregistered extension")
	}
}

func TestRegistry_ExtensionCaseInsensitive(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Supported("README.MD") {
		t.Error("expected uppercase extension to be supported")
	}
}

func TestConvert_CancelledContext(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conv, err := r.ForFile("doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := conv.Convert(ctx, Input{Name: "doc.md", Data: []byte("# A\ntext\n")}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}
