package files

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader(string(data))),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

func testStore() (*Store, *mockS3Client) {
	mock := newMockS3()
	st := &Store{
		cfg:    S3Config{Bucket: "test-bucket"},
		client: mock,
	}
	return st, mock
}

func TestUploadAndFetch(t *testing.T) {
	st, mock := testStore()
	ctx := context.Background()

	key, err := st.Upload(ctx, 42, "pets", "rex.jpg", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if key != "42/pets/rex.jpg" {
		t.Errorf("key = %q, want %q", key, "42/pets/rex.jpg")
	}
	if string(mock.objects[key]) != "jpeg-bytes" {
		t.Errorf("stored bytes = %q", mock.objects[key])
	}

	body, contentType, err := st.Fetch(ctx, key)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "jpeg-bytes" {
		t.Errorf("fetched bytes = %q", data)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}
}

func TestUploadStripsPathTraversal(t *testing.T) {
	st, _ := testStore()

	key, err := st.Upload(context.Background(), 7, "records", "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if key != "7/records/passwd" {
		t.Errorf("key = %q, want path stripped to base name", key)
	}
}

func TestDelete(t *testing.T) {
	st, mock := testStore()
	ctx := context.Background()

	key, err := st.Upload(ctx, 1, "pets", "old.png", []byte("png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := mock.objects[key]; ok {
		t.Error("object still present after delete")
	}
}

func TestDisabledStore(t *testing.T) {
	st := NewStore(S3Config{})
	if st.Enabled() {
		t.Fatal("store without credentials reports enabled")
	}
	if _, err := st.Upload(context.Background(), 1, "pets", "a.jpg", nil); err == nil {
		t.Fatal("expected error from disabled store")
	}
}

func TestBelongsTo(t *testing.T) {
	cases := []struct {
		key         string
		householdID int64
		want        bool
	}{
		{"42/pets/rex.jpg", 42, true},
		{"42/pets/rex.jpg", 4, false},
		{"4/pets/rex.jpg", 42, false},
		{"records/loose.pdf", 42, false},
	}
	for _, tc := range cases {
		if got := BelongsTo(tc.key, tc.householdID); got != tc.want {
			t.Errorf("BelongsTo(%q, %d) = %v, want %v", tc.key, tc.householdID, got, tc.want)
		}
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":   "image/jpeg",
		"photo.png":   "image/png",
		"report.pdf":  "application/pdf",
		"notes.txt":   "text/plain",
		"mystery.bin": "application/octet-stream",
	}
	for name, want := range cases {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
