package storage

import (
	"bytes"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// SupabaseStorage uploads objects to a Supabase Storage bucket. It backs
// the optional transcript archive.
type SupabaseStorage struct {
	client *supabase.Client
	bucket string
}

// NewSupabaseStorage constructs a storage client for the given project.
func NewSupabaseStorage(baseURL, serviceKey, bucket string) (*SupabaseStorage, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("missing Supabase configuration: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY required")
	}
	client, err := supabase.NewClient(baseURL, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}
	return &SupabaseStorage{client: client, bucket: bucket}, nil
}

// Upload stores body under objectKey in the configured bucket.
func (s *SupabaseStorage) Upload(objectKey, contentType string, body []byte) error {
	_, err := s.client.Storage.UploadFile(s.bucket, objectKey, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to upload to Supabase: %w", err)
	}
	return nil
}
