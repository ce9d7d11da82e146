package application

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	repo "github.com/oksasatya/go-user-directory/internal/domain/repository"
	"github.com/oksasatya/go-user-directory/pkg/helpers"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

const usersIndexMapping = `{
  "mappings": {
    "properties": {
      "name":    {"type": "text"},
      "age":     {"type": "integer"},
      "company": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "email":   {"type": "text", "analyzer": "simple"}
    }
  }
}`

// Service answers directory queries against the injected snapshot.
// Redis and Elasticsearch are optional; a nil client disables caching or search.
type Service struct {
	Repo   repo.UserRepository
	Logger *logrus.Logger

	Redis    *redis.Client
	CacheNS  string // changes with the snapshot so cached results never outlive it
	CacheTTL time.Duration

	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewService(repo repo.UserRepository, logger *logrus.Logger, rdb *redis.Client, cacheNS string, cacheTTL time.Duration, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Repo:         repo,
		Logger:       logger,
		Redis:        rdb,
		CacheNS:      cacheNS,
		CacheTTL:     cacheTTL,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

func (s *Service) Count() int { return s.Repo.Count() }

// ListUsers returns the users matching filters. Validation runs before the cache
// is consulted so a malformed filter is always rejected.
func (s *Service) ListUsers(ctx context.Context, filters map[string]string) ([]entity.User, error) {
	c, err := ParseCriteria(filters)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return s.Repo.All(), nil
	}

	key := s.cacheKey(c)
	if s.Redis != nil && key != "" {
		var cached []entity.User
		hit, cErr := helpers.RedisGetJSON(ctx, s.Redis, key, &cached)
		if cErr != nil {
			s.warn(cErr, key, "cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	users, err := FilterUsers(s.Repo.All(), filters)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil && key != "" {
		if cErr := helpers.RedisSetJSON(ctx, s.Redis, key, users, s.CacheTTL); cErr != nil {
			s.warn(cErr, key, "cache write failed")
		}
	}
	return users, nil
}

// GetUser returns the user with the given id.
func (s *Service) GetUser(ctx context.Context, id string) (entity.User, error) {
	return FindUserByID(s.Repo.All(), id)
}

func (s *Service) cacheKey(c Criteria) string {
	if s.CacheNS == "" {
		return ""
	}
	v := url.Values{}
	if c.Age != nil {
		v.Set(FilterAge, strconv.Itoa(*c.Age))
	}
	if c.Company != nil {
		v.Set(FilterCompany, *c.Company)
	}
	return "users:list:" + s.CacheNS + ":" + v.Encode()
}

func (s *Service) warn(err error, key, msg string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn(msg)
	}
}

// IndexUsers pushes the whole snapshot into Elasticsearch. It returns the number of documents indexed.
func (s *Service) IndexUsers(ctx context.Context) (int, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return 0, nil
	}
	if err := helpers.EnsureIndex(ctx, s.ES, s.ESUsersIndex, usersIndexMapping); err != nil {
		return 0, err
	}
	n := 0
	for _, u := range s.Repo.All() {
		if err := s.indexUser(ctx, u); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *Service) indexUser(ctx context.Context, u entity.User) error {
	b, err := json.Marshal(map[string]any{
		"name":    u.Name,
		"age":     u.Age,
		"company": u.Company,
		"email":   u.Email,
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a multi_match search on name, company and email.
// Hits are resolved against the snapshot so results carry the canonical records.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]entity.User, error) {
	if s.ES == nil || s.ESUsersIndex == "" || strings.TrimSpace(q) == "" {
		return []entity.User{}, nil
	}
	switch {
	case size <= 0:
		size = defaultSearchSize
	case size > maxSearchSize:
		size = maxSearchSize
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "company", "email"},
			},
		},
		"size":    size,
		"_source": false,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, &SearchError{Status: res.Status()}
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	all := s.Repo.All()
	out := make([]entity.User, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		u, err := FindUserByID(all, h.ID)
		if err != nil {
			// index is ahead of or behind the snapshot; skip stale hits
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
