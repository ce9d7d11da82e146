package application

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
)

type sliceRepo []entity.User

func (r sliceRepo) All() []entity.User { return r }
func (r sliceRepo) Count() int         { return len(r) }

func newTestService() *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(sliceRepo(fixtureUsers()), logger, nil, "", 0, nil, "")
}

func TestService_ListUsers(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	all, err := svc.ListUsers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, svc.Count())

	got, err := svc.ListUsers(ctx, map[string]string{"company": "OHMNET", "age": "25"})
	require.NoError(t, err)
	assert.Equal(t, []string{"588935f5c668650dc77df581", "588935f5e53a0bb2c7e8e3f2"}, ids(got))

	_, err = svc.ListUsers(ctx, map[string]string{"age": "abc"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestService_GetUser(t *testing.T) {
	svc := newTestService()

	u, err := svc.GetUser(context.Background(), "588935f5c668650dc77df581")
	require.NoError(t, err)
	assert.Equal(t, "OHMNET", u.Company)

	_, err = svc.GetUser(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_ConcurrentQueries(t *testing.T) {
	svc := newTestService()
	want, err := svc.ListUsers(context.Background(), map[string]string{"age": "25"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.ListUsers(context.Background(), map[string]string{"age": "25"})
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestService_CacheKey(t *testing.T) {
	svc := newTestService()
	age := 25
	company := "OHMNET"

	assert.Empty(t, svc.cacheKey(Criteria{Age: &age}), "no namespace disables caching")

	svc.CacheNS = "abc123"
	assert.Equal(t, "users:list:abc123:age=25", svc.cacheKey(Criteria{Age: &age}))
	assert.Equal(t, "users:list:abc123:age=25&company=OHMNET", svc.cacheKey(Criteria{Age: &age, Company: &company}))
}

func TestService_SearchAndIndexWithoutElasticsearch(t *testing.T) {
	svc := newTestService()

	got, err := svc.SearchUsers(context.Background(), "connie", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := svc.IndexUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
