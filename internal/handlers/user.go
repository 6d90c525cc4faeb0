package handlers

import (
	"errors"
	"net/http"
	"strconv"

	dom "github.com/jaburtog/CRUD-20251202/internal/domain"
	"github.com/jaburtog/CRUD-20251202/internal/dto"
	"github.com/jaburtog/CRUD-20251202/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateUserRequest  true  "User body"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}
	u, err := h.svc.Create(c.Request.Context(), req.Name, req.Email, req.Phone, req.Active)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "error creating user"})
		return
	}
	c.JSON(http.StatusCreated, userToResponse(u))
}

// List godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        active  query  bool  false  "Only active users"
// @Success      200  {array}   dto.UserResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	// Absent or unparseable flag means all users.
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	var (
		list []dom.User
		err  error
	)
	if activeOnly {
		list, err = h.svc.ListActive(c.Request.Context())
	} else {
		list, err = h.svc.List(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "error retrieving users"})
		return
	}
	c.JSON(http.StatusOK, usersToResponses(list))
}

// GetByID godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  dto.UserResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "error retrieving user"})
		return
	}
	c.JSON(http.StatusOK, userToResponse(u))
}

// Update godoc
// @Summary      Replace a user's fields
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int  true  "User ID"
// @Param        body  body      dto.UpdateUserRequest  true  "User body"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}
	u, err := h.svc.Update(c.Request.Context(), id, req.Name, req.Email, req.Phone, req.Active)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "error updating user"})
		return
	}
	c.JSON(http.StatusOK, userToResponse(u))
}

// Delete godoc
// @Summary      Delete a user
// @Tags         users
// @Param        id   path  int  true  "User ID"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "error deleting user"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetByEmail godoc
// @Summary      Get a user by email
// @Tags         users
// @Produce      json
// @Param        email  path      string  true  "User email"
// @Success      200  {object}  dto.UserResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /users/email/{email} [get]
func (h *UserHandler) GetByEmail(c *gin.Context) {
	email := c.Param("email")
	u, found, err := h.svc.GetByEmail(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "error retrieving user"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Message: "user not found"})
		return
	}
	c.JSON(http.StatusOK, userToResponse(u))
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func userToResponse(u dom.User) dto.UserResponse {
	return dto.UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Phone:  u.Phone,
		Active: u.Active,
	}
}

func usersToResponses(list []dom.User) []dto.UserResponse {
	out := make([]dto.UserResponse, len(list))
	for i := range list {
		out[i] = userToResponse(list[i])
	}
	return out
}
