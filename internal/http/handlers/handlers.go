package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/config"
	apierrors "github.com/pribylovaa/gearguard/internal/errors"
	"github.com/pribylovaa/gearguard/internal/http/middleware"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/service"
)

// maxBodyBytes ограничивает размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc     *service.Service
	cookies config.CookiePolicy
	now     func() time.Time
}

func New(svc *service.Service, cookies config.CookiePolicy) *Handlers {
	return &Handlers{
		svc:     svc,
		cookies: cookies,
		now:     time.Now,
	}
}

// writeJSON - единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict - строгий JSON-декодер: запрещаем неизвестные поля и хвост после объекта.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}

	if dec.More() {
		return errors.New("decode body: trailing data")
	}

	return nil
}

// decodeOptional - как decodeStrict, но пустое тело допустимо.
func decodeOptional(w http.ResponseWriter, r *http.Request, value any) error {
	err := decodeStrict(w, r, value)
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

// badRequest оборачивает локальную ошибку разбора в apierrors.ErrBadRequest.
func badRequest(err error) error {
	return fmt.Errorf("%w: %w", apierrors.ErrBadRequest, err)
}

// pathID разбирает UUID из параметра пути.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, badRequest(fmt.Errorf("path %s: %w", name, err))
	}

	return id, nil
}

// queryUUID разбирает необязательный UUID из query-параметра.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, badRequest(fmt.Errorf("query %s: %w", name, err))
	}

	return &id, nil
}

// principal возвращает субъекта, положенного middleware.Authenticate.
func principal(r *http.Request) (*models.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return nil, service.ErrUnauthorized
	}

	return p, nil
}
