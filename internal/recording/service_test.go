package recording

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeStorage struct {
	mu          sync.Mutex
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeStorage) Upload(objectKey, contentType string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.key = objectKey
	f.contentType = contentType
	f.body = append([]byte(nil), body...)
	return nil
}

func TestService_StartRequiresCredentials(t *testing.T) {
	svc := NewService("", "", nil)
	err := svc.Start("CA123", "https://example.com/recording-status")
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "TWILIO_ACCOUNT_SID") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestService_ArchiveDownloadsAndUploads(t *testing.T) {
	audio := []byte("RIFFfakewav")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("missing or wrong basic auth: %q %q", user, pass)
		}
		if !strings.HasSuffix(r.URL.Path, ".wav") {
			t.Errorf("expected .wav media URL, got %s", r.URL.Path)
		}
		w.Write(audio)
	}))
	defer srv.Close()

	store := &fakeStorage{}
	svc := NewService("AC123", "token", store)
	svc.httpClient = srv.Client()

	err := svc.Archive(context.Background(), srv.URL+"/Recordings/RE123", "recordings/RE123.wav")
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.key != "recordings/RE123.wav" {
		t.Fatalf("object key: got %q", store.key)
	}
	if store.contentType != "audio/wav" {
		t.Fatalf("content type: got %q", store.contentType)
	}
	if string(store.body) != string(audio) {
		t.Fatalf("body mismatch: got %q", store.body)
	}
}

func TestService_ArchiveDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	store := &fakeStorage{}
	svc := NewService("AC123", "token", store)
	svc.httpClient = srv.Client()

	err := svc.Archive(context.Background(), srv.URL+"/Recordings/RE404", "recordings/RE404.wav")
	if err == nil {
		t.Fatal("expected error for missing recording")
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("unexpected error: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.key != "" {
		t.Fatalf("storage touched on failed download: %q", store.key)
	}
}

func TestService_ArchiveUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	store := &fakeStorage{err: errors.New("bucket unavailable")}
	svc := NewService("AC123", "token", store)
	svc.httpClient = srv.Client()

	err := svc.Archive(context.Background(), srv.URL+"/Recordings/RE1", "recordings/RE1.wav")
	if err == nil || !strings.Contains(err.Error(), "failed to upload to storage") {
		t.Fatalf("unexpected error: %v", err)
	}
}
