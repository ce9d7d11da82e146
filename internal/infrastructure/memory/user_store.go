package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/pkg/validation"
)

// ErrInvalidRecord is returned when a loaded record fails validation.
var ErrInvalidRecord = errors.New("invalid user record")

// UserStore is an immutable in-memory snapshot of the directory.
// It is safe for concurrent readers without locking because nothing writes after NewUserStore returns.
type UserStore struct {
	users       []entity.User
	loadedAt    time.Time
	fingerprint string
}

// NewUserStore copies users into a new snapshot.
// Every record must pass validation and IDs must be unique.
func NewUserStore(users []entity.User) (*UserStore, error) {
	seen := make(map[string]int, len(users))
	snapshot := make([]entity.User, len(users))
	h := sha256.New()
	for i, u := range users {
		if err := validation.Struct(u); err != nil {
			return nil, fmt.Errorf("%w: record %d (%q): %s", ErrInvalidRecord, i, u.ID, describe(validation.ToDetails(err)))
		}
		if prev, dup := seen[u.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q (first seen at %d)", i, u.ID, prev)
		}
		seen[u.ID] = i
		snapshot[i] = u
		for _, field := range []string{u.ID, u.Name, strconv.Itoa(u.Age), u.Company, u.Email} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
	}
	return &UserStore{
		users:       snapshot,
		loadedAt:    time.Now().UTC(),
		fingerprint: hex.EncodeToString(h.Sum(nil))[:16],
	}, nil
}

// describe renders field messages in a stable order, e.g. "age must be greater than or equal to 0".
func describe(details map[string]string) string {
	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " " + details[f]
	}
	return strings.Join(parts, "; ")
}

func (s *UserStore) All() []entity.User { return s.users }

func (s *UserStore) Count() int { return len(s.users) }

func (s *UserStore) LoadedAt() time.Time { return s.loadedAt }

// Fingerprint identifies the snapshot contents; equal data yields equal fingerprints.
func (s *UserStore) Fingerprint() string { return s.fingerprint }

var _ repository.UserRepository = (*UserStore)(nil)
