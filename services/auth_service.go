package services

import (
	"fmt"
	"superchat/auth"
	"superchat/domain/chat"
	"superchat/errors"
	"superchat/repositories"
)

type IAuthService interface {
	Login(email, password string) (Credentials, error)
	Register(request auth.RegisterRequest) (Credentials, error)
}

// Credentials is what a successful Login or Register hands back to the client.
type Credentials struct {
	Token    string
	Identity chat.Identity
}

type AuthService struct {
	userRepository repositories.IUserRepository
	issuer         auth.TokenIssuer
}

func NewAuthService(repo repositories.IUserRepository, issuer auth.TokenIssuer) IAuthService {
	return &AuthService{userRepository: repo, issuer: issuer}
}

func (s *AuthService) Register(request auth.RegisterRequest) (Credentials, error) {
	// Validation runs before any expensive hashing
	if err := auth.ValidateRegister(request); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	hashedPassword, err := auth.HashPassword(request.Password)
	if err != nil {
		return Credentials{}, fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(repositories.NewUser{
		Email:          request.Email,
		HashedPassword: hashedPassword,
		DisplayName:    request.DisplayName,
		PhotoURL:       request.PhotoURL,
	})
	if err != nil {
		return Credentials{}, err
	}

	identity := chat.Identity{UID: userID, DisplayName: request.DisplayName, PhotoURL: request.PhotoURL}
	return s.issue(identity, []string{"user"})
}

func (s *AuthService) Login(email, password string) (Credentials, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Same error as a wrong password, no user enumeration
		return Credentials{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Credentials{}, errors.ErrInvalidCredentials
	}

	identity := chat.Identity{UID: user.ID, DisplayName: user.DisplayName, PhotoURL: user.PhotoURL}
	return s.issue(identity, user.Roles)
}

func (s *AuthService) issue(identity chat.Identity, roles []string) (Credentials, error) {
	token, err := s.issuer.Generate(identity, roles)
	if err != nil {
		return Credentials{}, errors.ErrTokenGeneration
	}
	return Credentials{Token: token, Identity: identity}, nil
}
