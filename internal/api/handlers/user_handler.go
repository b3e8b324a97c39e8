package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"user-service/internal/domain/user"
	"user-service/pkg/logger"
	"user-service/pkg/validator"

	"github.com/gin-gonic/gin"
)

// UsersBasePath is where the user routes are mounted.
const UsersBasePath = "/api/users"

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService user.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService user.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Links   Links       `json:"_links,omitempty"`
}

// Link is a hypermedia reference.
type Link struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

// Links maps relation names to links.
type Links map[string]Link

// UserResponse is the public shape of a user.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int      `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	Links     Links     `json:"_links,omitempty"`
}

// CountResponse wraps the user count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req user.CreateUserRequest

	if !bindAndValidate(c, &req) {
		return
	}

	u, err := h.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "User created successfully",
		Data:    toResponse(u, true),
		Links:   collectionLinks(),
	})
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	u, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    toResponse(u, true),
		Links:   collectionLinks(),
	})
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    toResponses(users, true),
		Links:   collectionLinks(),
	})
}

// UpdateUser handles PUT /api/users/update/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}

	u, err := h.userService.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "User updated successfully",
		Data:    toResponse(u, true),
		Links:   collectionLinks(),
	})
}

// DeleteUser handles DELETE /api/users/delete/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SearchUsers handles GET /api/users/search?name=
func (h *UserHandler) SearchUsers(c *gin.Context) {
	name, ok := c.GetQuery("name")
	if !ok {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Query parameter 'name' is required",
		})
		return
	}

	users, err := h.userService.SearchUsersByName(c.Request.Context(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    toResponses(users, false),
		Links:   collectionLinks(),
	})
}

// CountUsers handles GET /api/users/count
func (h *UserHandler) CountUsers(c *gin.Context) {
	n, err := h.userService.CountUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    CountResponse{Count: n},
	})
}

func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid request format",
			Errors:  err.Error(),
		})
		return false
	}

	if err := validator.ValidateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  validator.FormatValidationError(err),
		})
		return false
	}
	return true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Message: "Invalid user ID format",
		})
		return 0, false
	}
	return id, true
}

// statusFor maps a service error kind to an HTTP status.
func statusFor(err error) int {
	switch user.KindOf(err) {
	case user.KindInvalidArgument:
		return http.StatusBadRequest
	case user.KindNotFound:
		return http.StatusNotFound
	case user.KindDuplicateEmail, user.KindEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	message := "internal server error"
	var svcErr *user.Error
	if errors.As(err, &svcErr) {
		if status == http.StatusInternalServerError {
			// The cause may carry driver details; report only the operation.
			message = svcErr.Op + ": " + svcErr.Kind.String()
		} else {
			message = svcErr.Op + ": " + svcErr.Message
			if svcErr.Key != "" {
				message += " (" + svcErr.Key + ")"
			}
		}
	} else {
		logger.Error("Unclassified error: %v", err)
	}

	c.JSON(status, APIResponse{
		Success: false,
		Message: message,
	})
}

func toResponse(u *user.User, withLinks bool) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		CreatedAt: u.CreatedAt,
	}
	if withLinks {
		resp.Links = userLinks(u.ID)
	} else {
		resp.Links = Links{"self": {Href: userPath(u.ID)}}
	}
	return resp
}

func toResponses(users []*user.User, withLinks bool) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u, withLinks))
	}
	return out
}

func userPath(id int64) string {
	return UsersBasePath + "/" + strconv.FormatInt(id, 10)
}

func userLinks(id int64) Links {
	idStr := strconv.FormatInt(id, 10)
	return Links{
		"self":   {Href: userPath(id), Method: http.MethodGet},
		"update": {Href: UsersBasePath + "/update/" + idStr, Method: http.MethodPut},
		"delete": {Href: UsersBasePath + "/delete/" + idStr, Method: http.MethodDelete},
	}
}

func collectionLinks() Links {
	return Links{
		"all-users": {Href: UsersBasePath, Method: http.MethodGet},
		"create":    {Href: UsersBasePath, Method: http.MethodPost},
		"search":    {Href: UsersBasePath + "/search?name=", Method: http.MethodGet},
	}
}
