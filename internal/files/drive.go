package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
)

// DriveStore keeps photos in a Google Drive folder owned by a service
// account. Each user has at most one file, named by their id.
type DriveStore struct {
	service  *gdrive.Service
	folderID string
}

// NewDriveStore initializes a Drive client using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewDriveStore(ctx context.Context, folderID string) (*DriveStore, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, errors.New("missing Drive folder id")
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials for Drive")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading Drive credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &DriveStore{service: service, folderID: folderID}, nil
}

func (s *DriveStore) Save(ctx context.Context, userID, contentType string, data io.Reader) (string, error) {
	if ExtensionFor(contentType) == "" {
		return "", fmt.Errorf("unsupported photo content type %q", contentType)
	}

	if err := s.Delete(ctx, userID); err != nil {
		return "", err
	}

	file := &gdrive.File{
		Name:     userID,
		Parents:  []string{s.folderID},
		MimeType: contentType,
	}
	created, err := s.service.Files.Create(file).
		Media(io.LimitReader(data, maxPhotoBytes), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload photo to drive: %w", err)
	}

	// Photos are viewable by link so the profile URL works without auth.
	_, err = s.service.Permissions.Create(created.Id, &gdrive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("share photo: %w", err)
	}

	slog.InfoContext(ctx, "Photo uploaded to Drive", "user_id", userID, "file_id", created.Id)
	return "https://drive.google.com/uc?id=" + created.Id, nil
}

func (s *DriveStore) Delete(ctx context.Context, userID string) error {
	existing, err := s.findByName(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range existing {
		if err := s.service.Files.Delete(id).Context(ctx).Do(); err != nil {
			return fmt.Errorf("delete drive file: %w", err)
		}
	}
	return nil
}

func (s *DriveStore) findByName(ctx context.Context, name string) ([]string, error) {
	query := fmt.Sprintf("name = '%s' and '%s' in parents and trashed = false",
		strings.ReplaceAll(name, "'", ""), s.folderID)
	list, err := s.service.Files.List().
		Q(query).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list drive files: %w", err)
	}
	ids := make([]string, 0, len(list.Files))
	for _, f := range list.Files {
		ids = append(ids, f.Id)
	}
	return ids, nil
}
