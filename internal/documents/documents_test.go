package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

var pdfHeader = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	ctx := context.Background()

	ref, err := s.Save(ctx, Upload{Filename: "job-order.pdf", Content: bytes.NewReader(pdfHeader)})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasPrefix(ref, "job-orders/") || !strings.HasSuffix(ref, ".pdf") {
		t.Errorf("Unexpected reference %q", ref)
	}

	rc, err := s.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, pdfHeader) {
		t.Errorf("Expected stored content to round trip")
	}
}

func TestLocalStore_Delete(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	ctx := context.Background()

	ref, err := s.Save(ctx, Upload{Filename: "job-order.pdf", Content: bytes.NewReader(pdfHeader)})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Open(ctx, ref); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected deleted document to be gone, got %v", err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Errorf("Expected deleting a missing document to succeed, got %v", err)
	}
	if err := s.Delete(ctx, "../outside.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected traversal to be refused, got %v", err)
	}
}

func TestLocalStore_Rejects(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), 64)
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		content io.Reader
		wantErr error
	}{
		{"too large", bytes.NewReader(append(append([]byte{}, pngHeader...), make([]byte, 100)...)), ErrTooLarge},
		{"plain text", strings.NewReader("just some notes"), ErrUnsupportedType},
		{"empty", strings.NewReader(""), ErrEmpty},
		{"missing", nil, ErrEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(ctx, Upload{Filename: "upload.png", Content: tt.content})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := s.Open(ctx, "../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected traversal to be refused, got %v", err)
	}
}
