package stt

import (
	"context"
	"testing"
)

func TestDeepgramClient_MissingKey(t *testing.T) {
	d := NewDeepgramClient("", "")
	if _, err := d.Transcribe(context.Background(), []byte{0, 0}); err == nil {
		t.Fatal("expected error with missing API key")
	}
}

func TestDeepgramClient_DefaultModel(t *testing.T) {
	d := NewDeepgramClient("key", "")
	if d.model != "nova-2" {
		t.Fatalf("default model: got %q, want nova-2", d.model)
	}
	d = NewDeepgramClient("key", "nova-3")
	if d.model != "nova-3" {
		t.Fatalf("explicit model: got %q, want nova-3", d.model)
	}
}
