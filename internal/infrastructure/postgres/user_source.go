package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-directory/internal/domain/entity"
	"github.com/oksasatya/go-user-directory/internal/domain/repository"
)

// UserSource reads the directory from the users table, in seed order.
type UserSource struct {
	pool *pgxpool.Pool
}

func NewUserSource(pool *pgxpool.Pool) *UserSource {
	return &UserSource{pool: pool}
}

func (s *UserSource) Load(ctx context.Context) ([]entity.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, age, company, email
		FROM users
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.User, error) {
		var u entity.User
		err := row.Scan(&u.ID, &u.Name, &u.Age, &u.Company, &u.Email)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

const insertUserSQL = `
	INSERT INTO users (id, position, name, age, company, email)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// replaceBatch empties the table and inserts users with their slice index as position.
func replaceBatch(users []entity.User) *pgx.Batch {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM users`)
	for i, u := range users {
		batch.Queue(insertUserSQL, u.ID, i, u.Name, u.Age, u.Company, u.Email)
	}
	return batch
}

// ReplaceUsers swaps the whole table for users in one transaction,
// so Load returns exactly this set in this order.
func ReplaceUsers(ctx context.Context, pool *pgxpool.Pool, users []entity.User) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, replaceBatch(users))
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("clear users: %w", err)
		}
		for i := range users {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert user %q: %w", users[i].ID, err)
			}
		}
		return br.Close()
	})
}

var _ repository.UserSource = (*UserSource)(nil)
