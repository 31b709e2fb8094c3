package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/library-api/internal/models"
	"github.com/ayush/library-api/internal/store"
	"github.com/ayush/library-api/internal/validation"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrMemberNotFound     = errors.New("member not found")
)

// MemberStore defines the interface for member persistence.
type MemberStore interface {
	CreateMember(ctx context.Context, name, email, passwordHash string, joinDate time.Time) (*models.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*models.Member, error)
	GetMemberByID(ctx context.Context, id int64) (*models.Member, error)
}

// RevocationList remembers tokens that were logged out before expiring.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Service implements registration, login and token authentication.
type Service struct {
	members    MemberStore
	tokens     *TokenIssuer
	revoked    RevocationList
	validate   *validation.Validator
	bcryptCost int
	now        func() time.Time
	log        logrus.FieldLogger
}

func NewService(members MemberStore, tokens *TokenIssuer, revoked RevocationList, v *validation.Validator, bcryptCost int, logger logrus.FieldLogger) *Service {
	return &Service{
		members:    members,
		tokens:     tokens,
		revoked:    revoked,
		validate:   v,
		bcryptCost: bcryptCost,
		now:        time.Now,
		log:        logger.WithField("component", "auth"),
	}
}

// Register validates req and stores a new member with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.Member, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	switch _, err := s.members.GetMemberByEmail(ctx, req.Email); {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	member, err := s.members.CreateMember(ctx, req.Name, req.Email, string(hashed), s.now())
	if errors.Is(err, store.ErrDuplicateKey) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}

	s.log.WithField("member_id", member.ID).Info("member registered")
	return member, nil
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	member, err := s.members.GetMemberByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(member.ID)
	if err != nil {
		return nil, err
	}
	return &models.LoginResponse{AccessToken: token, MemberID: member.ID, Name: member.Name}, nil
}

// Authenticate verifies token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	id, err := s.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, id.TokenID)
	if err != nil {
		return Identity{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Identity{}, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	return id, nil
}

// CurrentMember loads the member the identity refers to.
func (s *Service) CurrentMember(ctx context.Context, memberID int64) (*models.Member, error) {
	member, err := s.members.GetMemberByID(ctx, memberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Logout revokes the token behind id for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	if err := s.revoked.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.log.WithField("member_id", id.MemberID).Info("member logged out")
	return nil
}
