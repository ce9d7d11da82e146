package gcs

import (
	"context"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/internal/infrastructure/file"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
)

// UserSource reads the same JSON document as the file source from a bucket object.
type UserSource struct {
	client *storage.Client
	bucket string
	object string
}

func NewUserSource(client *storage.Client, bucket, object string) *UserSource {
	return &UserSource{client: client, bucket: bucket, object: object}
}

func (s *UserSource) Load(ctx context.Context) ([]entity.User, error) {
	rc, err := helpers.OpenObject(ctx, s.client, s.bucket, s.object)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return file.Decode(rc)
}

var _ repository.UserSource = (*UserSource)(nil)
