package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/gearguard/internal/models"
	"github.com/pribylovaa/gearguard/internal/service"
)

// userDTO - публичное представление пользователя: без хэшей пароля и refresh-токена.
type userDTO struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      string     `json:"role"`
	TeamID    *uuid.UUID `json:"teamId"`
	CreatedAt time.Time  `json:"createdAt"`
}

func userFromModel(u *models.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		TeamID:    u.TeamID,
		CreatedAt: u.CreatedAt,
	}
}

type userResponse struct {
	User userDTO `json:"user"`
}

type loginResponse struct {
	User         userDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type emptyResponse struct{}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type assignTeamRequest struct {
	TeamID uuid.UUID `json:"teamId"`
}

type teamDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func teamFromModel(t *models.Team) teamDTO {
	return teamDTO{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type departmentDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func departmentFromModel(d *models.Department) departmentDTO {
	return departmentDTO{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt}
}

type createDepartmentRequest struct {
	Name string `json:"name"`
}

type equipmentDTO struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	SerialNumber       string     `json:"serialNumber"`
	DepartmentID       *uuid.UUID `json:"departmentId"`
	EmployeeID         *uuid.UUID `json:"employeeId"`
	TeamID             *uuid.UUID `json:"teamId"`
	Location           string     `json:"location,omitempty"`
	PurchaseDate       time.Time  `json:"purchaseDate"`
	WarrantyExpiration *time.Time `json:"warrantyExpiration"`
	Status             string     `json:"status"`
	OpenRequests       int        `json:"openRequests"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func equipmentFromModel(e *models.Equipment) equipmentDTO {
	return equipmentDTO{
		ID:                 e.ID,
		Name:               e.Name,
		SerialNumber:       e.SerialNumber,
		DepartmentID:       e.DepartmentID,
		EmployeeID:         e.EmployeeID,
		TeamID:             e.TeamID,
		Location:           e.Location,
		PurchaseDate:       e.PurchaseDate,
		WarrantyExpiration: e.WarrantyExpiration,
		Status:             string(e.Status),
		OpenRequests:       e.OpenRequests,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

type createEquipmentRequest struct {
	Name               string     `json:"name"`
	SerialNumber       string     `json:"serialNumber"`
	DepartmentID       *uuid.UUID `json:"departmentId"`
	EmployeeID         *uuid.UUID `json:"employeeId"`
	TeamID             *uuid.UUID `json:"teamId"`
	Location           string     `json:"location"`
	PurchaseDate       time.Time  `json:"purchaseDate"`
	WarrantyExpiration *time.Time `json:"warrantyExpiration"`
	Status             string     `json:"status"`
}

func (in createEquipmentRequest) toInput() service.CreateEquipmentInput {
	return service.CreateEquipmentInput{
		Name:               in.Name,
		SerialNumber:       in.SerialNumber,
		DepartmentID:       in.DepartmentID,
		EmployeeID:         in.EmployeeID,
		TeamID:             in.TeamID,
		Location:           in.Location,
		PurchaseDate:       in.PurchaseDate,
		WarrantyExpiration: in.WarrantyExpiration,
		Status:             models.EquipmentStatus(in.Status),
	}
}

type requestDTO struct {
	ID            uuid.UUID  `json:"id"`
	Subject       string     `json:"subject"`
	EquipmentID   uuid.UUID  `json:"equipmentId"`
	TeamID        *uuid.UUID `json:"teamId"`
	TechnicianID  *uuid.UUID `json:"technicianId"`
	Type          string     `json:"requestType"`
	Stage         string     `json:"stage"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	DurationHours float64    `json:"durationHours"`
	IsOverdue     bool       `json:"isOverdue"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func requestFromModel(r *models.MaintenanceRequest) requestDTO {
	return requestDTO{
		ID:            r.ID,
		Subject:       r.Subject,
		EquipmentID:   r.EquipmentID,
		TeamID:        r.TeamID,
		TechnicianID:  r.TechnicianID,
		Type:          string(r.Type),
		Stage:         string(r.Stage),
		ScheduledDate: r.ScheduledDate,
		DurationHours: r.DurationHours,
		IsOverdue:     r.IsOverdue,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// requestUpdateResponse - заявка после PATCH и исход каскада списания.
type requestUpdateResponse struct {
	requestDTO
	Cascade string `json:"cascade"`
}

func updateResultToResponse(res *service.UpdateResult) requestUpdateResponse {
	return requestUpdateResponse{
		requestDTO: requestFromModel(res.Request),
		Cascade:    string(res.Cascade),
	}
}

type createRequestRequest struct {
	Subject       string     `json:"subject"`
	EquipmentID   uuid.UUID  `json:"equipmentId"`
	Type          string     `json:"requestType"`
	TeamID        *uuid.UUID `json:"teamId"`
	TechnicianID  *uuid.UUID `json:"technicianId"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	DurationHours float64    `json:"durationHours"`
}

func (in createRequestRequest) toInput() service.CreateRequestInput {
	return service.CreateRequestInput{
		Subject:       in.Subject,
		EquipmentID:   in.EquipmentID,
		Type:          models.RequestType(strings.ToUpper(strings.TrimSpace(in.Type))),
		TeamID:        in.TeamID,
		TechnicianID:  in.TechnicianID,
		ScheduledDate: in.ScheduledDate,
		DurationHours: in.DurationHours,
	}
}

type updateRequestRequest struct {
	Subject       *string      `json:"subject"`
	Stage         *string      `json:"stage"`
	ScheduledDate nullableTime `json:"scheduledDate"`
	DurationHours *float64     `json:"durationHours"`
	TechnicianID  *uuid.UUID   `json:"technicianId"`
}

func (in updateRequestRequest) toInput() service.UpdateRequestInput {
	out := service.UpdateRequestInput{
		Subject:       in.Subject,
		DurationHours: in.DurationHours,
		TechnicianID:  in.TechnicianID,
	}

	if in.Stage != nil {
		st := models.Stage(strings.ToUpper(strings.TrimSpace(*in.Stage)))
		out.Stage = &st
	}

	if in.ScheduledDate.Set {
		if in.ScheduledDate.Value == nil {
			out.ClearScheduledDate = true
		} else {
			out.ScheduledDate = in.ScheduledDate.Value
		}
	}

	return out
}

// nullableTime различает отсутствующее поле и явный null.
type nullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *nullableTime) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}

	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	n.Value = &t

	return nil
}
