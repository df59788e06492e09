package api

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"taskhub/domain"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

var validate = newValidator()

// newValidator reports violations under the JSON field names clients
// actually sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s: is required", fe.Field())
		case "oneof":
			return fmt.Sprintf("%s: must be one of %s", fe.Field(), fe.Param())
		default:
			return fmt.Sprintf("%s: invalid value", fe.Field())
		}
	}
	return "invalid request"
}

type createTaskRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	AssignedTo  string    `json:"assignedTo" validate:"required"`
	Tags        []string  `json:"tags"`
}

func (r createTaskRequest) input() domain.CreateTaskInput {
	return domain.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    domain.Priority(r.Priority),
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
		Tags:        r.Tags,
	}
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" validate:"omitempty,oneof=todo in-progress completed cancelled"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"dueDate"`
	AssignedTo  *string    `json:"assignedTo"`
	Tags        *[]string  `json:"tags"`
}

func (r updateTaskRequest) patch() domain.TaskPatch {
	p := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		AssignedTo:  r.AssignedTo,
		Tags:        r.Tags,
	}
	if r.Status != nil {
		s := domain.Status(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	return p
}

type listResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Data    []domain.Task `json:"data"`
}

type taskResponse struct {
	Success bool         `json:"success"`
	Data    *domain.Task `json:"data"`
	Message string       `json:"message,omitempty"`
}

type analyticsResponse struct {
	Success bool              `json:"success"`
	Data    *domain.Analytics `json:"data"`
}

type usersResponse struct {
	Success bool       `json:"success"`
	Data    []userView `json:"data"`
}

// userView is the projection exposed by the users listing.
type userView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
