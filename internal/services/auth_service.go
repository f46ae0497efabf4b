package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"frenchdriver/internal/auth"
	intconfig "frenchdriver/internal/config"
	"frenchdriver/internal/domain"
	"frenchdriver/internal/domain/models"
	"frenchdriver/internal/repositories"
)

type AuthService struct {
	Users  repositories.UserRepo
	Tokens *auth.Manager
	DB     *sql.DB
	Now    func() time.Time
}

func (s AuthService) users() repositories.UserRepo {
	if s.Users.DB != nil {
		return s.Users
	}
	db := s.DB
	if db == nil {
		db = intconfig.DB
	}
	return repositories.UserRepo{DB: db}
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateRegistration(in models.RegisterInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return domain.ValidationError{Field: "username", Msg: "nom d'utilisateur requis"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return domain.ValidationError{Field: "email", Msg: "email requis"}
	}
	if len(in.Password) < auth.MinPasswordLength {
		return domain.ValidationError{Field: "password", Msg: "le mot de passe doit contenir au moins 8 caractères"}
	}
	if in.Password != in.PasswordConfirm {
		return domain.ValidationError{Field: "password_confirm", Msg: "Les mots de passe ne correspondent pas."}
	}
	if p := strings.TrimSpace(in.PhoneNumber); p != "" && !models.PhonePattern.MatchString(p) {
		return domain.ValidationError{Field: "phone_number", Msg: "numéro de téléphone invalide"}
	}
	if in.UserType != "" && !in.UserType.Valid() {
		return domain.ValidationError{Field: "user_type", Msg: "type d'utilisateur invalide"}
	}
	return nil
}

// Register creates a customer account. Only an admin caller may create
// another admin.
func (s AuthService) Register(ctx context.Context, rc domain.RequestContext, in models.RegisterInput) (models.User, error) {
	if err := validateRegistration(in); err != nil {
		return models.User{}, err
	}
	if in.UserType == models.UserTypeAdmin && !rc.IsAdmin() {
		return models.User{}, domain.ForbiddenError{Msg: "Seul un administrateur peut créer un compte administrateur."}
	}
	exists, err := s.users().Exists(ctx, in.Username, in.Email)
	if err != nil {
		return models.User{}, domain.InternalError{Msg: "vérification utilisateur impossible", Err: err}
	}
	if exists {
		return models.User{}, domain.ConflictError{Resource: "user", Msg: "nom d'utilisateur ou email déjà utilisé"}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, domain.InternalError{Msg: "hachage du mot de passe impossible", Err: err}
	}
	userType := in.UserType
	if userType == "" {
		userType = models.UserTypeClient
	}
	return s.users().Create(ctx, models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		UserType:     userType,
		CreatedAt:    s.now(),
	})
}

// Login checks credentials and issues an access token.
func (s AuthService) Login(ctx context.Context, in models.LoginInput) (models.LoginResult, error) {
	login := in.Identifier()
	if login == "" || in.Password == "" {
		return models.LoginResult{}, domain.ValidationError{Field: "username", Msg: "identifiant et mot de passe requis"}
	}
	if s.Tokens == nil {
		return models.LoginResult{}, domain.InternalError{Msg: "token manager not configured"}
	}

	invalid := domain.UnauthorizedError{Msg: "Identifiants invalides"}
	u, err := s.users().GetByLogin(ctx, login)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.LoginResult{}, invalid
		}
		return models.LoginResult{}, domain.InternalError{Msg: "lecture utilisateur impossible", Err: err}
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, in.Password) {
		return models.LoginResult{}, invalid
	}

	token, exp, err := s.Tokens.Issue(u.ID, string(u.UserType))
	if err != nil {
		return models.LoginResult{}, domain.InternalError{Msg: "création du token impossible", Err: err}
	}
	return models.LoginResult{Access: token, ExpiresAt: exp, User: u}, nil
}

func (s AuthService) Profile(ctx context.Context, userID int64) (models.User, error) {
	return s.users().GetByID(ctx, userID)
}
