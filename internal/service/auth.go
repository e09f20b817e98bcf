package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/metrics"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/log"
	"github.com/pribylovaa/gearguard/internal/pkg/password"
	"github.com/pribylovaa/gearguard/internal/pkg/redact"
	"github.com/pribylovaa/gearguard/internal/storage"
)

// RegisterInput - входные данные регистрации.
type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password password.Plaintext
	Role     models.Role
	// Actor - аутентифицированный автор запроса (nil для самостоятельной регистрации).
	Actor *models.Principal
}

// RegisterUser регистрирует пользователя. Вход не выполняется.
//
// Валидация:
//   - email по net/mail, хранится в нижнем регистре;
//   - username 3..32 рун, без пробелов и '@';
//   - fullName непустой;
//   - пароль по password.Plaintext.Validate;
//   - роль по умолчанию TECHNICIAN; MANAGER может создать только менеджер,
//     либо любой, если включён auth.allow_manager_signup (первичная настройка).
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	lg := log.From(ctx).With("op", op)

	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	username, err := validateUsername(in.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("%s: empty full name: %w", op, ErrInvalidArgument)
	}

	role := in.Role
	if role == "" {
		role = models.RoleTechnician
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%s: role %q: %w", op, role, ErrInvalidArgument)
	}

	if role == models.RoleManager && !s.cfg.AllowManagerSignup &&
		(in.Actor == nil || in.Actor.Role != models.RoleManager) {
		lg.Warn("manager_signup_denied")
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := in.Password.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrWeakPassword, err)
	}

	hash, err := password.Hash(in.Password, s.cfg.BcryptCost)
	if err != nil {
		lg.Error("password_hash_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			s.metrics.AuthEvent(metrics.EventRegister, metrics.ResultFailure)
			return nil, fmt.Errorf("%s: %w", op, ErrAlreadyExists)
		}

		lg.Error("save_user_failed", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.metrics.AuthEvent(metrics.EventRegister, metrics.ResultSuccess)
	lg.Info("user_registered", "user_id", user.ID.String(), "email", redact.Email(email))

	return user, nil
}

// LoginUser выполняет вход по email или username и паролю.
// Отсутствие пользователя и неверный пароль неразличимы: ErrInvalidCredentials.
// Новый refresh-токен безусловно замещает сохранённый (вход с нового устройства
// завершает предыдущую сессию).
func (s *Service) LoginUser(ctx context.Context, login string, pw password.Plaintext) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	login = strings.TrimSpace(login)
	lg := log.From(ctx).With("op", op, "login", redact.Login(login))

	if login == "" || pw == "" {
		s.metrics.AuthEvent(metrics.EventLogin, metrics.ResultFailure)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Сравнение с фиктивным хэшем выравнивает время ответа.
			s.dummy.Matches(pw)
			s.metrics.AuthEvent(metrics.EventLogin, metrics.ResultFailure)
			lg.Warn("login_failed")
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		lg.Error("user_lookup_failed", "err", err)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !user.PasswordHash.Matches(pw) {
		s.metrics.AuthEvent(metrics.EventLogin, metrics.ResultFailure)
		lg.Warn("login_failed")
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, hash, err := s.issueTokenPair(user)
	if err != nil {
		lg.Error("token_issue_failed", "err", err)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := s.storage.SetRefreshToken(ctx, user.ID, &hash); err != nil {
		lg.Error("refresh_store_failed", "err", err)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}
	user.RefreshTokenHash = &hash

	s.metrics.AuthEvent(metrics.EventLogin, metrics.ResultSuccess)
	lg.Info("login_success", "user_id", user.ID.String())

	return user, pair, nil
}

// RefreshToken ротирует пару токенов.
//
// Порядок проверок: подпись/срок/тип (Verify) -> негативный кэш Redis ->
// пользователь в БД -> совпадение хэша с сохранённым. Новая пара фиксируется
// compare-and-swap: из конкурентных ротаций одного токена успешна ровно одна,
// остальные получают ErrTokenReuse. Роль в новом access-токене берётся из БД.
func (s *Service) RefreshToken(ctx context.Context, presented string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.RefreshToken"

	lg := log.From(ctx).With("op", op)

	presented = strings.TrimSpace(presented)
	if presented == "" {
		s.metrics.AuthEvent(metrics.EventRefresh, metrics.ResultFailure)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	claims, err := s.tokens.Verify(presented, KindRefresh)
	if err != nil {
		s.metrics.AuthEvent(metrics.EventRefresh, metrics.ResultFailure)
		lg.Warn("refresh_verify_failed", "err", err)
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	uid := claims.UID()
	lg = lg.With("user_id", uid.String())
	oldHash := hashToken(presented)

	if s.rcache != nil {
		revoked, err := s.rcache.Revoked(ctx, oldHash)
		switch {
		case err != nil:
			lg.Warn("refresh_cache_unavailable", "err", err)
		case revoked:
			s.metrics.AuthEvent(metrics.EventRefresh, metrics.ResultReuse)
			lg.Warn("refresh_token_reuse", "source", "cache")
			return nil, nil, fmt.Errorf("%s: %w", op, ErrTokenReuse)
		}
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.metrics.AuthEvent(metrics.EventRefresh, metrics.ResultFailure)
			lg.Warn("refresh_user_not_found")
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		lg.Error("user_lookup_failed", "err", err)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !hashEqual(user.RefreshTokenHash, oldHash) {
		s.metrics.AuthEvent(metrics.EventRefresh, metrics.ResultReuse)
		lg.Warn("refresh_token_reuse", "source", "store")
		return nil, nil, fmt.Errorf("%s: %w", op, ErrTokenReuse)
	}

	pair, newHash, err := s.issueTokenPair(user)
	if err != nil {
		lg.Error("token_issue_failed", "err", err)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	swapped, err := s.storage.SwapRefreshToken(ctx, user.ID, oldHash, newHash)
	if err != nil {
		lg.Error("refresh_swap_failed", "err", err)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}
	if !swapped {
		s.metrics.AuthEvent(metrics.EventRefresh, metrics.ResultReuse)
		lg.Warn("refresh_token_reuse", "source", "cas")
		return nil, nil, fmt.Errorf("%s: %w", op, ErrTokenReuse)
	}
	user.RefreshTokenHash = &newHash

	if s.rcache != nil && claims.ExpiresAt != nil {
		ttl := claims.ExpiresAt.Sub(s.now())
		if err := s.rcache.MarkRevoked(ctx, oldHash, user.ID, ttl); err != nil {
			lg.Warn("refresh_cache_mark_failed", "err", err)
		}
	}

	s.metrics.AuthEvent(metrics.EventRefresh, metrics.ResultSuccess)
	lg.Debug("refresh_rotated")

	return user, pair, nil
}

// LogoutUser завершает сессию: сохранённый refresh-токен обнуляется безусловно.
func (s *Service) LogoutUser(ctx context.Context, userID uuid.UUID) error {
	const op = "service.auth.LogoutUser"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	if err := s.storage.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("refresh_clear_failed", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.metrics.AuthEvent(metrics.EventLogout, metrics.ResultSuccess)
	lg.Info("logout")

	return nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPw, newPw password.Plaintext) error {
	const op = "service.auth.ChangePassword"

	lg := log.From(ctx).With("op", op, "user_id", userID.String())

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("user_lookup_failed", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if !user.PasswordHash.Matches(oldPw) {
		s.metrics.AuthEvent(metrics.EventChangePassword, metrics.ResultFailure)
		return fmt.Errorf("%s: %w", op, ErrInvalidOldPassword)
	}

	if err := newPw.Validate(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrWeakPassword, err)
	}

	hash, err := password.Hash(newPw, s.cfg.BcryptCost)
	if err != nil {
		lg.Error("password_hash_failed", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if err := s.storage.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("password_update_failed", "err", err)
		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.metrics.AuthEvent(metrics.EventChangePassword, metrics.ResultSuccess)
	lg.Info("password_changed")

	return nil
}

// ValidateAccessToken проверяет access-токен и возвращает субъекта.
func (s *Service) ValidateAccessToken(ctx context.Context, token string) (*models.Principal, error) {
	const op = "service.auth.ValidateAccessToken"

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	claims, err := s.tokens.Verify(token, KindAccess)
	if err != nil {
		log.From(ctx).Debug("access_verify_failed", "op", op, "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Principal{
		UserID:   claims.UID(),
		Email:    claims.Email,
		Username: claims.Username,
		Role:     models.Role(claims.Role),
	}, nil
}

// issueTokenPair подписывает новую пару. Запись в хранилище делает вызывающий:
// при ошибке записи подписанные токены просто отбрасываются.
func (s *Service) issueTokenPair(user *models.User) (*models.TokenPair, string, error) {
	const op = "service.auth.issueTokenPair"

	now := s.now()

	access, accessExp, err := s.tokens.IssueAccessToken(user, now)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID, now)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, hashToken(refresh), nil
}

// newDummyHash - хэш случайного значения для выравнивания времени входа
// несуществующего пользователя. При ошибке с заданной стоимостью
// используется bcrypt.DefaultCost.
func newDummyHash(cost int) password.Hashed {
	const op = "service.auth.newDummyHash"

	h, err := password.Hash(password.Plaintext(uuid.NewString()), cost)
	if err == nil {
		return h
	}

	slog.Default().Warn("dummy_hash_fallback", "op", op, "cost", cost, "err", err)

	h, err = password.Hash(password.Plaintext(uuid.NewString()), 0)
	if err != nil {
		slog.Default().Error("dummy_hash_failed", "op", op, "err", err)
	}

	return h
}

func hashEqual(stored *string, presented string) bool {
	if stored == nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}

// validateEmail проверяет базовый формат email и приводит к нижнему регистру.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validateUsername: 3..32 руны, без пробелов и '@' (иначе вход по логину неоднозначен).
func validateUsername(raw string) (string, error) {
	const op = "service.auth.validateUsername"

	name := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(name); n < 3 || n > 32 {
		return "", fmt.Errorf("%s: length: %w", op, ErrInvalidArgument)
	}

	for _, r := range name {
		if r == '@' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%s: forbidden rune: %w", op, ErrInvalidArgument)
		}
	}

	return strings.ToLower(name), nil
}
