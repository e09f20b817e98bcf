// service содержит бизнес-логику gearguard:
// сессии (вход, ротация refresh-токенов, выход, смена пароля),
// управление пользователями и бригадами, реестр оборудования
// и жизненный цикл заявок на обслуживание с каскадом списания.
//
// Экземпляр Service не хранит состояние запроса и безопасен для конкурентного
// использования при условии, что переданное хранилище потокобезопасно.
// Ошибки возвращаются как sentinel-значения ниже и маппятся HTTP-слоем.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/gearguard/internal/cache"
	"github.com/pribylovaa/gearguard/internal/config"
	"github.com/pribylovaa/gearguard/internal/events"
	"github.com/pribylovaa/gearguard/internal/metrics"
	"github.com/pribylovaa/gearguard/internal/pkg/password"
	"github.com/pribylovaa/gearguard/internal/storage"
)

var (
	// ErrInvalidArgument - некорректные входные данные. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidEmail - e-mail имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword - пароль не удовлетворяет политике. HTTP 400.
	ErrWeakPassword = errors.New("password does not meet policy")

	// ErrInvalidOldPassword - при смене пароля неверно указан текущий. HTTP 400.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrInvalidCredentials - пара логин/пароль неверна или пользователь не найден.
	// Оба случая неразличимы для клиента. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized - токен не предъявлен. HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken - токен не прошёл проверку. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenMalformed - токен не разбирается, не того типа или с чужими claims.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)

	// ErrInvalidSignature - подпись не сходится или алгоритм не HS256.
	ErrInvalidSignature = fmt.Errorf("%w: signature", ErrInvalidToken)

	// ErrTokenExpired - срок действия токена истёк.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)

	// ErrTokenReuse - refresh-токен криптографически валиден, но уже ротирован
	// или сессия завершена. HTTP 401.
	ErrTokenReuse = errors.New("refresh token expired or used")

	// ErrForbidden - недостаточно прав. HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound - сущность не найдена. HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists - конфликт уникальности. HTTP 409.
	ErrAlreadyExists = errors.New("already exists")

	// ErrEquipmentScrapped - оборудование списано, новые заявки не принимаются. HTTP 409.
	ErrEquipmentScrapped = errors.New("equipment is scrapped")

	// ErrInternal - внутренняя ошибка сервиса. HTTP 500.
	ErrInternal = errors.New("internal")
)

// Service описывает бизнес-логику gearguard.
type Service struct {
	storage   storage.Storage
	cfg       config.AuthConfig
	tokens    *TokenService
	rcache    cache.RefreshCache // может быть nil, если кэш не сконфигурирован
	publisher events.Publisher   // может быть nil, если брокер не сконфигурирован
	metrics   *metrics.Metrics   // может быть nil
	dummy     password.Hashed
	now       func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
		tokens:  NewTokenService(cfg),
		dummy:   newDummyHash(cfg.BcryptCost),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetRefreshCache устанавливает кэш отозванных refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}

// SetPublisher устанавливает публикатор событий жизненного цикла (опционально).
func (s *Service) SetPublisher(p events.Publisher) {
	s.publisher = p
}

// SetMetrics устанавливает метрики (опционально).
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}
