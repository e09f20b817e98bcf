package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/gearguard/internal/config"
	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/pkg/password"
	"github.com/pribylovaa/gearguard/internal/service"
	"github.com/pribylovaa/gearguard/internal/storage"
	"github.com/pribylovaa/gearguard/mocks"
)

type env struct {
	t   *testing.T
	srv http.Handler
	svc *service.Service
	st  *mocks.MockStorage
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)

	svc := service.New(st, config.AuthConfig{
		AccessTokenSecret:  "http-access",
		RefreshTokenSecret: "http-refresh",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		Issuer:             "gearguard",
		Audience:           []string{"gearguard-web"},
		BcryptCost:         bcrypt.MinCost,
	})

	cfg := &config.Config{Env: "local"}
	srv := NewRouter(svc, Options{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout:  5 * time.Second,
		BasePath: "/api/v1",
		Cookies:  cfg.CookiePolicy(),
	})

	return &env{t: t, srv: srv, svc: svc, st: st}
}

func (e *env) do(method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	e.t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, rd)
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}

	rr := httptest.NewRecorder()
	e.srv.ServeHTTP(rr, req)
	return rr
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// login выпускает access-токен пользователю с заданной ролью через сервис.
func (e *env) login(role models.Role) (*models.User, string) {
	e.t.Helper()

	hash, err := password.Hash("pw12345678", bcrypt.MinCost)
	require.NoError(e.t, err)

	u := &models.User{
		ID:           uuid.New(),
		Username:     "user-" + uuid.NewString()[:8],
		Email:        "u@x.com",
		FullName:     "User",
		PasswordHash: hash,
		Role:         role,
	}

	e.st.EXPECT().UserByLogin(gomock.Any(), u.Username).Return(u, nil)
	e.st.EXPECT().SetRefreshToken(gomock.Any(), u.ID, gomock.Any()).Return(nil)

	_, pair, err := e.svc.LoginUser(context.Background(), u.Username, "pw12345678")
	require.NoError(e.t, err)

	return u, pair.AccessToken
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

type errBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func cookieByName(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginRefreshReplay(t *testing.T) {
	e := newEnv(t)

	hash, err := password.Hash("pw12345678", bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{ID: uuid.New(), Username: "bob", Email: "bob@x.com", FullName: "Bob", PasswordHash: hash, Role: models.RoleTechnician}

	var stored *string
	e.st.EXPECT().UserByLogin(gomock.Any(), "bob@x.com").Return(u, nil)
	e.st.EXPECT().SetRefreshToken(gomock.Any(), u.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, h *string) error { stored = h; return nil })
	e.st.EXPECT().UserByID(gomock.Any(), u.ID).
		DoAndReturn(func(context.Context, uuid.UUID) (*models.User, error) {
			cp := *u
			cp.RefreshTokenHash = stored
			return &cp, nil
		}).AnyTimes()
	e.st.EXPECT().SwapRefreshToken(gomock.Any(), u.ID, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, oldHash, newHash string) (bool, error) {
			if stored == nil || *stored != oldHash {
				return false, nil
			}
			stored = &newHash
			return true, nil
		}).AnyTimes()

	rr := e.do(http.MethodPost, "/users/login", map[string]string{"email": "bob@x.com", "password": "pw12345678"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotContains(t, rr.Body.String(), "passwordHash")

	type loginBody struct {
		User struct {
			ID    uuid.UUID `json:"id"`
			Email string    `json:"email"`
			Role  string    `json:"role"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	lb := decode[loginBody](t, rr)
	require.Equal(t, u.ID, lb.User.ID)
	require.Equal(t, "TECHNICIAN", lb.User.Role)
	tokenA := lb.RefreshToken

	access := cookieByName(rr, "accessToken")
	require.NotNil(t, access)
	require.True(t, access.HttpOnly)
	require.False(t, access.Secure)
	require.Equal(t, http.SameSiteLaxMode, access.SameSite)
	require.Equal(t, "/", access.Path)
	require.Greater(t, access.MaxAge, 0)
	require.Equal(t, tokenA, cookieByName(rr, "refreshToken").Value)

	rr = e.do(http.MethodPost, "/users/refreshToken", map[string]string{"refreshToken": tokenA})
	require.Equal(t, http.StatusOK, rr.Code)
	tokenB := decode[loginBody](t, rr).RefreshToken
	require.NotEqual(t, tokenA, tokenB)

	rr = e.do(http.MethodPost, "/users/refreshToken", map[string]string{"refreshToken": tokenA})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "token_reused", decode[errBody](t, rr).Error.Code)
	cleared := cookieByName(rr, "refreshToken")
	require.NotNil(t, cleared)
	require.Less(t, cleared.MaxAge, 0)

	// cookie приоритетнее устаревшего токена в теле
	rr = e.do(http.MethodPost, "/users/refreshToken", map[string]string{"refreshToken": tokenA}, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: tokenB})
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotEqual(t, tokenB, cookieByName(rr, "refreshToken").Value)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := newEnv(t)

	e.st.EXPECT().UserByLogin(gomock.Any(), "ghost").Return(nil, storage.ErrNotFound)

	rr := e.do(http.MethodPost, "/users/login", map[string]string{"username": "ghost", "password": "pw12345678"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_credentials", decode[errBody](t, rr).Error.Code)
	require.NotEmpty(t, decode[errBody](t, rr).Error.RequestID)
}

func TestRefresh_NoTokenAnywhere(t *testing.T) {
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/users/refreshToken", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	e := newEnv(t)

	rr := e.do(http.MethodPost, "/users/login", `{"email":"a@b.c","password":"x","admin":true}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", decode[errBody](t, rr).Error.Code)
}

func TestCurrentUserAndLogout(t *testing.T) {
	e := newEnv(t)
	u, access := e.login(models.RoleTechnician)

	rr := e.do(http.MethodGet, "/users/current-user", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	e.st.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)
	rr = e.do(http.MethodGet, "/users/current-user", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: access})
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"fullName":"User"`)

	e.st.EXPECT().SetRefreshToken(gomock.Any(), u.ID, gomock.Nil()).Return(nil)
	rr = e.do(http.MethodPost, "/users/logout", nil, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{}`, rr.Body.String())
	require.Less(t, cookieByName(rr, "accessToken").MaxAge, 0)
}

func TestChangePassword_WrongOld(t *testing.T) {
	e := newEnv(t)
	u, access := e.login(models.RoleTechnician)

	e.st.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)

	rr := e.do(http.MethodPost, "/users/changePassword",
		map[string]string{"oldPassword": "nope-nope", "newPassword": "brand-new-pw"}, bearer(access))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_old_password", decode[errBody](t, rr).Error.Code)
}

func TestRegister(t *testing.T) {
	e := newEnv(t)

	e.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	body := map[string]string{
		"username": "carol", "email": "carol@x.com", "fullName": "Carol", "password": "pw12345678",
	}
	rr := e.do(http.MethodPost, "/users/register", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"role":"TECHNICIAN"`)
	require.Nil(t, cookieByName(rr, "accessToken"))

	body["role"] = "manager"
	rr = e.do(http.MethodPost, "/users/register", body)
	require.Equal(t, http.StatusForbidden, rr.Code)

	_, managerAccess := e.login(models.RoleManager)
	e.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)
	rr = e.do(http.MethodPost, "/users/register", body, bearer(managerAccess))
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegister_StaleAccessCookieIgnored(t *testing.T) {
	e := newEnv(t)

	stale := func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: "stale.jwt.value"})
	}

	e.st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)

	body := map[string]string{
		"username": "dave", "email": "dave@x.com", "fullName": "Dave", "password": "pw12345678",
	}
	rr := e.do(http.MethodPost, "/users/register", body, stale)
	require.Equal(t, http.StatusCreated, rr.Code)

	body["role"] = "MANAGER"
	rr = e.do(http.MethodPost, "/users/register", body, stale)
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestManagerOnlyRoutes(t *testing.T) {
	e := newEnv(t)
	_, techAccess := e.login(models.RoleTechnician)

	rr := e.do(http.MethodPost, "/teams", map[string]string{"name": "Mechanics"}, bearer(techAccess))
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = e.do(http.MethodPatch, "/users/"+uuid.NewString()+"/role", map[string]string{"role": "MANAGER"}, bearer(techAccess))
	require.Equal(t, http.StatusForbidden, rr.Code)

	_, mgrAccess := e.login(models.RoleManager)
	e.st.EXPECT().SaveTeam(gomock.Any(), gomock.Any()).Return(nil)

	rr = e.do(http.MethodPost, "/teams", map[string]string{"name": "Mechanics"}, bearer(mgrAccess))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"name":"Mechanics"`)
}

func TestDepartments_OwnEquipment(t *testing.T) {
	e := newEnv(t)
	_, techAccess := e.login(models.RoleTechnician)
	_, mgrAccess := e.login(models.RoleManager)

	rr := e.do(http.MethodPost, "/departments", map[string]string{"name": "Workshop"}, bearer(techAccess))
	require.Equal(t, http.StatusForbidden, rr.Code)

	e.st.EXPECT().SaveDepartment(gomock.Any(), gomock.Any()).Return(nil)
	rr = e.do(http.MethodPost, "/departments", map[string]string{"name": "Workshop"}, bearer(mgrAccess))
	require.Equal(t, http.StatusCreated, rr.Code)

	type depBody struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	dep := decode[depBody](t, rr)
	require.Equal(t, "Workshop", dep.Name)

	e.st.EXPECT().ListDepartments(gomock.Any()).
		Return([]models.Department{{ID: dep.ID, Name: dep.Name}}, nil)
	rr = e.do(http.MethodGet, "/departments", nil, bearer(techAccess))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"name":"Workshop"`)

	lathe := models.Equipment{ID: uuid.New(), Name: "Lathe", DepartmentID: &dep.ID, Status: models.EquipmentOperational}
	e.st.EXPECT().ListEquipment(gomock.Any(), storage.EquipmentFilter{DepartmentID: &dep.ID}).
		Return([]models.Equipment{lathe}, nil)
	rr = e.do(http.MethodGet, "/equipment?departmentId="+dep.ID.String(), nil, bearer(techAccess))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"departmentId":"`+dep.ID.String()+`"`)

	rr = e.do(http.MethodGet, "/equipment?departmentId=bogus", nil, bearer(techAccess))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequests_BadPathID(t *testing.T) {
	e := newEnv(t)
	_, access := e.login(models.RoleTechnician)

	rr := e.do(http.MethodGet, "/requests/not-a-uuid", nil, bearer(access))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequests_ScrapPatchReportsCascade(t *testing.T) {
	e := newEnv(t)
	_, access := e.login(models.RoleTechnician)

	e1 := uuid.New()
	r1 := &models.MaintenanceRequest{ID: uuid.New(), Subject: "Motor", EquipmentID: e1, Type: models.RequestCorrective, Stage: models.StageScrap}
	scrap := models.StageScrap

	e.st.EXPECT().UpdateRequest(gomock.Any(), r1.ID, storage.RequestUpdate{Stage: &scrap}).
		Return(models.StageInProgress, r1, nil)
	e.st.EXPECT().MarkEquipmentScrapped(gomock.Any(), e1).Return(true, nil)

	rr := e.do(http.MethodPatch, "/requests/"+r1.ID.String(), map[string]string{"stage": "SCRAP"}, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)

	type body struct {
		Stage     string `json:"stage"`
		IsOverdue bool   `json:"isOverdue"`
		Cascade   string `json:"cascade"`
	}
	b := decode[body](t, rr)
	require.Equal(t, "SCRAP", b.Stage)
	require.Equal(t, "applied", b.Cascade)
	require.False(t, b.IsOverdue)
}

func TestRequests_PatchNullClearsDate(t *testing.T) {
	e := newEnv(t)
	_, access := e.login(models.RoleTechnician)

	r1 := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: uuid.New(), Stage: models.StageNew}
	e.st.EXPECT().UpdateRequest(gomock.Any(), r1.ID, storage.RequestUpdate{ClearScheduledDate: true}).
		Return(models.StageNew, r1, nil)

	rr := e.do(http.MethodPatch, "/requests/"+r1.ID.String(), `{"scheduledDate": null}`, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"cascade":"none"`)
}

func TestRequests_PatchStageIsCaseInsensitive(t *testing.T) {
	e := newEnv(t)
	_, access := e.login(models.RoleTechnician)

	e1 := uuid.New()
	r1 := &models.MaintenanceRequest{ID: uuid.New(), EquipmentID: e1, Type: models.RequestCorrective, Stage: models.StageScrap}
	scrap := models.StageScrap

	e.st.EXPECT().UpdateRequest(gomock.Any(), r1.ID, storage.RequestUpdate{Stage: &scrap}).
		Return(models.StageNew, r1, nil)
	e.st.EXPECT().MarkEquipmentScrapped(gomock.Any(), e1).Return(true, nil)

	rr := e.do(http.MethodPatch, "/requests/"+r1.ID.String(), map[string]string{"stage": "scrap"}, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"cascade":"applied"`)
}

func TestRequests_CreateUsesRequestType(t *testing.T) {
	e := newEnv(t)
	_, access := e.login(models.RoleTechnician)

	eq := &models.Equipment{ID: uuid.New(), Status: models.EquipmentOperational}
	e.st.EXPECT().EquipmentByID(gomock.Any(), eq.ID).Return(eq, nil)
	e.st.EXPECT().SaveRequest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *models.MaintenanceRequest) error {
			require.Equal(t, models.RequestCorrective, r.Type)
			return nil
		})

	rr := e.do(http.MethodPost, "/requests", map[string]any{
		"subject": "Fix", "equipmentId": eq.ID, "requestType": "CORRECTIVE",
	}, bearer(access))
	require.Equal(t, http.StatusCreated, rr.Code)

	b := decode[map[string]any](t, rr)
	require.Equal(t, "CORRECTIVE", b["requestType"])
	require.NotContains(t, b, "type")
	require.Equal(t, "NEW", b["stage"])

	rr = e.do(http.MethodPost, "/requests", map[string]any{
		"subject": "Fix", "equipmentId": eq.ID, "type": "CORRECTIVE",
	}, bearer(access))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequests_CreateOnScrappedEquipment(t *testing.T) {
	e := newEnv(t)
	_, access := e.login(models.RoleTechnician)

	eq := &models.Equipment{ID: uuid.New(), Status: models.EquipmentScrapped}
	e.st.EXPECT().EquipmentByID(gomock.Any(), eq.ID).Return(eq, nil)

	rr := e.do(http.MethodPost, "/requests", map[string]any{
		"subject": "Fix", "equipmentId": eq.ID, "requestType": "CORRECTIVE",
	}, bearer(access))
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "equipment_scrapped", decode[errBody](t, rr).Error.Code)
}

func TestRequests_ListOverdueFlag(t *testing.T) {
	e := newEnv(t)
	_, access := e.login(models.RoleTechnician)

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	e.st.EXPECT().ListRequests(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f storage.RequestFilter) ([]models.MaintenanceRequest, error) {
			require.NotNil(t, f.OverdueBefore)
			return []models.MaintenanceRequest{{ID: uuid.New(), Stage: models.StageNew, ScheduledDate: &past}}, nil
		})

	rr := e.do(http.MethodGet, "/requests?overdue=true", nil, bearer(access))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"isOverdue":true`)

	rr = e.do(http.MethodGet, "/requests?overdue=maybe", nil, bearer(access))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
