package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskhub/bus"
	"taskhub/domain"
)

// TaskOperations is the mutation-service surface the handlers depend on.
type TaskOperations interface {
	List(ctx context.Context, actor domain.Actor, f domain.ListFilters) ([]domain.Task, error)
	Create(ctx context.Context, actor domain.Actor, in domain.CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, actor domain.Actor, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	Complete(ctx context.Context, actor domain.Actor, id string) (*domain.Task, error)
	Analytics(ctx context.Context, actor domain.Actor) (*domain.Analytics, error)
}

// Register wires up all API routes on the provided Echo instance. The
// deduper is optional; without it the Idempotency-Key header is ignored.
func Register(e *echo.Echo, svc TaskOperations, users domain.UserStore, b bus.Bus, auth Authenticator, deduper Deduper, logger *log.Logger) {
	g := e.Group("/api", Protect(auth))
	g.GET("/tasks", listTasks(svc, logger))
	g.POST("/tasks", createTask(svc, deduper))
	g.GET("/tasks/analytics", taskAnalytics(svc))
	g.PUT("/tasks/:id", updateTask(svc))
	g.DELETE("/tasks/:id", deleteTask(svc))
	g.PATCH("/tasks/:id/complete", completeTask(svc))
	g.GET("/users", listUsers(users), RequireRoles(domain.RoleUser, domain.RoleAdmin))

	// The stream endpoint does its own auth so browsers can pass the token
	// as a query parameter where EventSource cannot set headers.
	e.GET("/api/stream", streamEvents(b, auth))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "server is running"})
	}
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
// Forbidden and not-found are expected control flow; only unclassified
// failures are logged as faults.
func writeServiceError(c echo.Context, err error) error {
	var verr domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Message: "task not found"})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorResponse{Message: "not authorized"})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Message: verr.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func listTasks(svc TaskOperations, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newListRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		f := domain.ListFilters{
			Status:     domain.Status(c.QueryParam("status")),
			Priority:   domain.Priority(c.QueryParam("priority")),
			AssignedTo: c.QueryParam("assignedTo"),
			Search:     c.QueryParam("search"),
			SortBy:     c.QueryParam("sortBy"),
			SortOrder:  c.QueryParam("sortOrder"),
		}
		metrics.SetFiltersApplied(f != domain.ListFilters{})

		fetchStart := time.Now()
		tasks, fetchErr := svc.List(c.Request().Context(), actorFrom(c), f)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("fetch")
			err = writeServiceError(c, fetchErr)
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, listResponse{Success: true, Count: len(tasks), Data: tasks})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(svc TaskOperations, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor := actorFrom(c)

		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: validationMessage(err)})
		}

		ctx := c.Request().Context()
		idemKey := c.Request().Header.Get("Idempotency-Key")
		if idemKey != "" && deduper != nil {
			added, err := deduper.Add(ctx, actor.ID, idemKey)
			if err != nil {
				c.Logger().Errorf("idempotency check: %v", err)
			} else if !added {
				return c.JSON(http.StatusConflict, errorResponse{Message: "duplicate request"})
			}
		}

		task, err := svc.Create(ctx, actor, req.input())
		if err != nil {
			if idemKey != "" && deduper != nil {
				if rerr := deduper.Remove(ctx, actor.ID, idemKey); rerr != nil {
					c.Logger().Errorf("release idempotency key: %v", rerr)
				}
			}
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusCreated, taskResponse{Success: true, Data: task})
	}
}

func updateTask(svc TaskOperations) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: "invalid body"})
		}
		if err := validate.Struct(req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: validationMessage(err)})
		}

		task, err := svc.Update(c.Request().Context(), actorFrom(c), c.Param("id"), req.patch())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, taskResponse{Success: true, Data: task})
	}
}

func deleteTask(svc TaskOperations) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.Delete(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "task deleted successfully"})
	}
}

func completeTask(svc TaskOperations) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := svc.Complete(c.Request().Context(), actorFrom(c), c.Param("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, taskResponse{Success: true, Data: task, Message: "task marked as completed"})
	}
}

func taskAnalytics(svc TaskOperations) echo.HandlerFunc {
	return func(c echo.Context) error {
		summary, err := svc.Analytics(c.Request().Context(), actorFrom(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(http.StatusOK, analyticsResponse{Success: true, Data: summary})
	}
}

func listUsers(users domain.UserStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		active, err := users.ListActiveUsers(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "internal error"})
		}
		views := make([]userView, len(active))
		for i, u := range active {
			views[i] = userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
		}
		return c.JSON(http.StatusOK, usersResponse{Success: true, Data: views})
	}
}
