package service

import (
	"context"
	"strings"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/pkg/apperror"
	"github.com/dukaanpos/dukaan-api/pkg/oauth"
	"github.com/dukaanpos/dukaan-api/pkg/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   repository.UserRepository
	shopRepo   repository.ShopRepository
	jwtManager *utils.JWTManager
	google     *oauth.GoogleOAuthService
}

// NewAuthService creates a new auth service. google may be nil when
// OAuth sign-in is not configured.
func NewAuthService(
	userRepo repository.UserRepository,
	shopRepo repository.ShopRepository,
	jwtManager *utils.JWTManager,
	google *oauth.GoogleOAuthService,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		shopRepo:   shopRepo,
		jwtManager: jwtManager,
		google:     google,
	}
}

// AuthResult is a signed-in session: the user and their token pair.
type AuthResult struct {
	User         *entity.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// RegisterInput represents the registration input
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a local account and signs it in
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResult, error) {
	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "name", Message: "Name is required"})
	}
	if !strings.Contains(input.Email, "@") {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "email", Message: "A valid email is required"})
	}
	if len(input.Password) < 8 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrConflict
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Password: string(hashed),
		Provider: "local",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Login authenticates a local account
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Password == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// RefreshToken exchanges a refresh token for a new token pair
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken
	}

	return s.issueTokens(user)
}

// GetMe returns the authenticated user and the shop they belong to.
// Shop is nil until the user creates or joins one.
func (s *AuthService) GetMe(ctx context.Context, userID uuid.UUID) (*entity.User, *entity.Shop, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, apperror.NewNotFoundError("User")
	}

	shop, err := s.shopRepo.GetForUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, shop, nil
}

// GetGoogleAuthURL returns the Google consent URL and the state token
// the callback must echo back.
func (s *AuthService) GetGoogleAuthURL() (string, string, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return "", "", oauth.ErrOAuthNotConfigured
	}

	state, err := oauth.GenerateState()
	if err != nil {
		return "", "", err
	}
	return s.google.GetAuthURL(state), state, nil
}

// HandleGoogleCallback completes the OAuth round trip: it exchanges the
// code, upserts the account and signs it in.
func (s *AuthService) HandleGoogleCallback(ctx context.Context, code string) (*AuthResult, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return nil, oauth.ErrOAuthNotConfigured
	}

	token, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid authorization code")
	}

	info, err := s.google.GetUserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(info.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &entity.User{
			Name:       info.Name,
			Email:      email,
			Provider:   "google",
			ProviderID: &info.ID,
		}
		if info.Picture != "" {
			user.Photo = &info.Picture
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	} else if user.ProviderID == nil {
		// Existing local account signing in with Google for the first
		// time; link the identities.
		user.Provider = "google"
		user.ProviderID = &info.ID
		if info.Picture != "" {
			user.Photo = &info.Picture
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *entity.User) (*AuthResult, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
