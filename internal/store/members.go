package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ayush/library-api/internal/models"
)

func (s *PostgresStore) CreateMember(ctx context.Context, name, email, passwordHash string, joinDate time.Time) (*models.Member, error) {
	m := models.Member{Name: name, Email: email, PasswordHash: passwordHash}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO members (name, email, password, join_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, join_date`,
		name, email, passwordHash, joinDate,
	).Scan(&m.ID, &m.JoinDate)
	if err != nil {
		return nil, fmt.Errorf("create member: %w", mapError(err))
	}
	return &m, nil
}

func (s *PostgresStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	var m models.Member
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password, join_date FROM members WHERE email = $1`, email,
	).Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.JoinDate)
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", mapError(err))
	}
	return &m, nil
}

func (s *PostgresStore) GetMemberByID(ctx context.Context, id int64) (*models.Member, error) {
	var m models.Member
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, join_date FROM members WHERE id = $1`, id,
	).Scan(&m.ID, &m.Name, &m.Email, &m.JoinDate)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", mapError(err))
	}
	return &m, nil
}
