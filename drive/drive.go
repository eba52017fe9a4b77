// Package drive stores the categories document in the application's private
// remote folder using the Drive v3 API.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"mytubes/internal/retry"
)

// appDataFolder is the reserved parent for app-private files.
const appDataFolder = "appDataFolder"

// ErrAuthExpired indicates the access token was rejected; the caller should
// re-authenticate.
var ErrAuthExpired = errors.New("drive: authentication expired")

// Store reads and writes named JSON documents in the appData folder. It
// satisfies persist.RemoteStore.
type Store struct {
	svc         *drive.Service
	RetryConfig retry.Config
}

// NewStore creates a document store from an OAuth token source. The token
// must carry the drive.appdata scope.
func NewStore(ctx context.Context, ts oauth2.TokenSource) (*Store, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Store{svc: svc, RetryConfig: retry.DefaultConfig()}, nil
}

// NewStoreWithService wraps an existing Drive service, mainly for tests.
func NewStoreWithService(svc *drive.Service) *Store {
	return &Store{svc: svc, RetryConfig: retry.DefaultConfig()}
}

// Find looks a document up by its exact name. Returns an empty handle with a
// nil error when no document exists.
func (s *Store) Find(ctx context.Context, name string) (string, error) {
	var id string
	err := retry.Do(ctx, s.RetryConfig, driveErrorClassifier, func(ctx context.Context) error {
		list, err := s.svc.Files.List().
			Spaces(appDataFolder).
			Q(fmt.Sprintf("name='%s'", escapeQuery(name))).
			Fields("files(id)").
			Context(ctx).
			Do()
		if err != nil {
			return mapAPIError(err)
		}
		if len(list.Files) > 0 {
			id = list.Files[0].Id
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("find %s: %w", name, err)
	}
	return id, nil
}

// Read downloads a document's content.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	var content []byte
	err := retry.Do(ctx, s.RetryConfig, driveErrorClassifier, func(ctx context.Context) error {
		resp, err := s.svc.Files.Get(id).Context(ctx).Download()
		if err != nil {
			return mapAPIError(err)
		}
		defer resp.Body.Close()
		content, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return content, nil
}

// Create uploads a new document: metadata (name, appData parent) and JSON
// content travel in one multipart request. Returns the server-assigned
// handle. No retry; callers treat write failures as best-effort.
func (s *Store) Create(ctx context.Context, name string, content []byte) (string, error) {
	file := &drive.File{
		Name:    name,
		Parents: []string{appDataFolder},
	}
	created, err := s.svc.Files.Create(file).
		Media(bytes.NewReader(content), googleapi.ContentType("application/json")).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, mapAPIError(err))
	}
	return created.Id, nil
}

// Update replaces a document's content in place. No retry.
func (s *Store) Update(ctx context.Context, id string, content []byte) error {
	_, err := s.svc.Files.Update(id, &drive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType("application/json")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", id, mapAPIError(err))
	}
	return nil
}

// mapAPIError converts auth failures to the sentinel the app reacts to.
func mapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return ErrAuthExpired
	}
	return err
}

// driveErrorClassifier never retries auth failures.
func driveErrorClassifier(err error) bool {
	if errors.Is(err, ErrAuthExpired) {
		return false
	}
	return retry.IsRetryable(err)
}

// escapeQuery escapes single quotes for Drive query strings.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
