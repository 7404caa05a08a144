package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"UEvents/internal/locale"
	"UEvents/internal/model"
	"UEvents/internal/pkg"
	"UEvents/internal/repository"
)

const minPasswordLen = 8

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      model.Role
	Locale    string
}

type UpdateMeInput struct {
	FirstName *string
	LastName  *string
	Locale    *string
}

// Profile is the caller's account. Kind tags which of Student or Club is set.
type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Locale    string     `json:"locale"`
	Kind      model.Role `json:"kind"`

	Student *StudentProfile `json:"student,omitempty"`
	Club    *ClubProfile    `json:"club,omitempty"`
}

type StudentProfile struct {
	Following int64 `json:"following"`
}

// ClubProfile.Club is nil until the account has created its club.
type ClubProfile struct {
	Club *ClubSummary `json:"club"`
}

type UserService struct {
	users  repository.UserStore
	clubs  repository.ClubStore
	tokens repository.TokenStore
	jwt    *pkg.TokenManager
	log    *zap.Logger
}

func NewUserService(users repository.UserStore, clubs repository.ClubStore, tokens repository.TokenStore, jwt *pkg.TokenManager, log *zap.Logger) *UserService {
	return &UserService{users: users, clubs: clubs, tokens: tokens, jwt: jwt, log: log}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkg.InvalidInput("invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, pkg.InvalidInput("password must be at least 8 characters")
	}
	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}
	if role != model.RoleStudent && role != model.RoleClub {
		return nil, pkg.InvalidInput("role must be student or club")
	}
	lang := locale.English
	if in.Locale != "" {
		lang = locale.Lang(strings.ToLower(in.Locale))
		if !locale.IsSupported(lang) {
			return nil, pkg.InvalidInput("locale must be en or fr")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Email:     email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      role,
		Locale:    string(lang),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, pkg.Conflict("email already registered", err)
		}
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return s.profile(ctx, user)
}

// Login issues a token pair. The access token becomes the user's only active session.
func (s *UserService) Login(ctx context.Context, email, password string) (*pkg.Pair, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.Unauthorized("invalid email or password")
	}
	pair, err := s.jwt.GeneratePair(pkg.Identity{UserID: user.ID, Role: string(user.Role), Locale: user.Locale})
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, user.ID, pair.AccessToken, s.jwt.AccessTTL()); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair and rotates the active session.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	pair, claims, err := s.jwt.Refresh(refreshToken)
	if err != nil {
		return nil, pkg.Unauthorized("invalid or expired refresh token")
	}
	if err := s.tokens.Save(ctx, claims.UserID, pair.AccessToken, s.jwt.AccessTTL()); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, actor Actor) error {
	if actor.Anonymous() {
		return pkg.Unauthorized("login required")
	}
	return s.tokens.Delete(ctx, actor.UserID)
}

func (s *UserService) Me(ctx context.Context, actor Actor) (*Profile, error) {
	user, err := s.current(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *UserService) UpdateMe(ctx context.Context, actor Actor, in UpdateMeInput) (*Profile, error) {
	user, err := s.current(ctx, actor)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
		fields["first_name"] = user.FirstName
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
		fields["last_name"] = user.LastName
	}
	if in.Locale != nil {
		l := locale.Lang(strings.ToLower(strings.TrimSpace(*in.Locale)))
		if !locale.IsSupported(l) {
			return nil, pkg.InvalidInput("locale must be en or fr")
		}
		user.Locale = string(l)
		fields["locale"] = user.Locale
	}
	if err := s.users.UpdateProfile(ctx, user.ID, fields); err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *UserService) current(ctx context.Context, actor Actor) (*model.User, error) {
	if actor.Anonymous() {
		return nil, pkg.Unauthorized("login required")
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkg.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) profile(ctx context.Context, user *model.User) (*Profile, error) {
	p := &Profile{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Locale:    user.Locale,
		Kind:      user.Role,
	}
	switch user.Role {
	case model.RoleClub:
		club, err := s.clubs.FindByOwner(ctx, user.ID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		p.Club = &ClubProfile{Club: newClubSummary(club)}
	case model.RoleStudent:
		_, total, err := s.clubs.ListFollowedBy(ctx, user.ID, 0, 1)
		if err != nil {
			return nil, err
		}
		p.Student = &StudentProfile{Following: total}
	}
	return p, nil
}

var errNoSession = errors.New("no active session")

// Authenticate resolves a bearer access token to an actor. The token must be the
// session stored at login; its TTL is extended on success.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (Actor, error) {
	claims, err := s.jwt.ParseAccess(accessToken)
	if err != nil {
		return Actor{}, err
	}
	stored, err := s.tokens.Get(ctx, claims.UserID)
	if err != nil {
		return Actor{}, err
	}
	if stored != accessToken {
		return Actor{}, errNoSession
	}
	if err := s.tokens.Extend(ctx, claims.UserID, s.jwt.AccessTTL()); err != nil {
		s.log.Warn("session extend failed", zap.String("user_id", claims.UserID), zap.Error(err))
	}
	return ActorFromIdentity(claims.Identity), nil
}
