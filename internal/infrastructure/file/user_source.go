package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
)

// UserSource reads the directory from a JSON array on disk.
type UserSource struct {
	path string
}

func NewUserSource(path string) *UserSource {
	return &UserSource{path: path}
}

func (s *UserSource) Load(ctx context.Context) ([]entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open users file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses a JSON array of users as written by the original data files.
func Decode(r io.Reader) ([]entity.User, error) {
	var users []entity.User
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

var _ repository.UserSource = (*UserSource)(nil)
