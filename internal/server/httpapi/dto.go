package httpapi

import (
	"errors"
	"net/mail"
	"time"

	"taskman/internal/server/models"
)

const minPasswordLength = 8

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	UserName    string `json:"user_name"`
	PhoneNumber string `json:"phone_number"`
}

func (r *registerRequest) validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("a valid email is required")
	}
	if len(r.Password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

func (r *registerRequest) toModel() *models.User {
	return &models.User{
		Email:       r.Email,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		UserName:    r.UserName,
		PhoneNumber: r.PhoneNumber,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	UserName    string     `json:"user_name,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		UserName:    u.UserName,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

type updateUserRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	UserName    string `json:"user_name"`
	PhoneNumber string `json:"phone_number"`
}

type taskRequest struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	DueDate        *time.Time `json:"due_date"`
	Priority       string     `json:"priority"`
	IsCompleted    bool       `json:"is_completed"`
	EstimatedHours *int32     `json:"estimated_hours"`
	ActualHours    *int32     `json:"actual_hours"`
	AssignedToID   *int64     `json:"assigned_to_id"`
}

func (r *taskRequest) toModel() (*models.Task, error) {
	if r.Title == "" {
		return nil, errors.New("title is required")
	}
	priority := models.PriorityMedium
	if r.Priority != "" {
		var err error
		priority, err = models.ParsePriority(r.Priority)
		if err != nil {
			return nil, err
		}
	}
	return &models.Task{
		Title:          r.Title,
		Description:    r.Description,
		DueDate:        r.DueDate,
		Priority:       priority,
		IsCompleted:    r.IsCompleted,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		AssignedToID:   r.AssignedToID,
	}, nil
}

type tagResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type taskResponse struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Priority       models.Priority `json:"priority"`
	IsCompleted    bool            `json:"is_completed"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	EstimatedHours *int32          `json:"estimated_hours,omitempty"`
	ActualHours    *int32          `json:"actual_hours,omitempty"`
	CreatedByID    int64           `json:"created_by_id"`
	AssignedToID   *int64          `json:"assigned_to_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
	Tags           []tagResponse   `json:"tags,omitempty"`
}

func toTaskResponse(t *models.Task) taskResponse {
	resp := taskResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		DueDate:        t.DueDate,
		Priority:       t.Priority,
		IsCompleted:    t.IsCompleted,
		CompletedAt:    t.CompletedAt,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CreatedByID:    t.CreatedByID,
		AssignedToID:   t.AssignedToID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	for _, tag := range t.Tags {
		resp.Tags = append(resp.Tags, tagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	return resp
}
