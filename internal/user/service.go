package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookkart/bookkart/internal/mail"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNotVerified        = errors.New("email is not verified")
	ErrInvalidAuthToken   = errors.New("invalid or expired verification token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset password token")
)

const resetTokenTTL = time.Hour

type Service interface {
	Register(ctx context.Context, name, email, password string, agreeTerms bool) (*User, error)
	VerifyEmail(ctx context.Context, token string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, email string, phoneNumber *string) (*User, error)
}

type service struct {
	repo   Repository
	sender mail.Sender
}

func NewService(repo Repository, sender mail.Sender) Service {
	return &service{repo: repo, sender: sender}
}

func (s *service) Register(ctx context.Context, name, email, password string, agreeTerms bool) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to hash password")
		return nil, fmt.Errorf("service: failed to hash password: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate user id: %w", err)
	}

	u := &User{
		ID:                id,
		Name:              name,
		Email:             email,
		PasswordHash:      string(hash),
		VerificationToken: &token,
		AgreeTerms:        agreeTerms,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to create user: %w", err)
	}

	if err := s.sender.SendVerification(ctx, u.Email, token); err != nil {
		log.Error().Err(err).Str("email", u.Email).Msg("service: failed to send verification email")
		return nil, fmt.Errorf("service: failed to send verification email: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: user registered")

	return u, nil
}

func (s *service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	u, err := s.repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidAuthToken
		}
		return nil, fmt.Errorf("service: failed to look up verification token: %w", err)
	}

	u.IsVerified = true
	u.VerificationToken = nil

	if err := s.repo.Update(ctx, u); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to mark user verified")
		return nil, fmt.Errorf("service: failed to mark user verified: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: email verified")

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service: failed to fetch user by email: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.IsVerified {
		return nil, ErrNotVerified
	}

	return u, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("service: failed to fetch user by email: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return err
	}

	expires := time.Now().UTC().Add(resetTokenTTL)
	u.ResetPasswordToken = &token
	u.ResetPasswordExpires = &expires

	if err := s.repo.Update(ctx, u); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to store reset token")
		return fmt.Errorf("service: failed to store reset token: %w", err)
	}

	if err := s.sender.SendPasswordReset(ctx, u.Email, token); err != nil {
		log.Error().Err(err).Str("email", u.Email).Msg("service: failed to send reset email")
		return fmt.Errorf("service: failed to send reset email: %w", err)
	}

	return nil
}

func (s *service) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("service: failed to look up reset token: %w", err)
	}

	if u.ResetPasswordExpires == nil || time.Now().UTC().After(*u.ResetPasswordExpires) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("service: failed to hash password: %w", err)
	}

	u.PasswordHash = string(hash)
	u.ResetPasswordToken = nil
	u.ResetPasswordExpires = nil

	if err := s.repo.Update(ctx, u); err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("service: failed to reset password")
		return fmt.Errorf("service: failed to reset password: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Msg("service: password reset")

	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch user by id: %w", err)
	}

	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, name, email string, phoneNumber *string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch user by id: %w", err)
	}

	if name != "" {
		u.Name = name
	}
	if email != "" {
		u.Email = email
	}
	if phoneNumber != nil {
		u.PhoneNumber = phoneNumber
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to update profile")
		return nil, fmt.Errorf("service: failed to update profile: %w", err)
	}

	return u, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("service: failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
