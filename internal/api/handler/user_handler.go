package handler

import (
	"github.com/gin-gonic/gin"

	"gh-integration/internal/dto"
	"gh-integration/internal/service"
	"gh-integration/pkg/responses"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Search 用户搜索, 用于选择 GitHub App 授权用户
// @Summary 用户搜索
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Param keyword query string false "关键字"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量, 最大20"
// @Success 200 {object} responses.Response{data=dto.PageResponse}
// @Router /api/v1/users [get]
func (h *UserHandler) Search(c *gin.Context) {
	var req dto.UserSearchQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	users, total, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, dto.NewPageResponse(users, total, req.GetPage(), min(req.GetPageSize(), 20)))
}

// Create 创建本地用户
// @Summary 创建本地用户
// @Tags 用户
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateUserRequest true "用户信息"
// @Success 200 {object} responses.Response{data=dto.UserSimpleResponse}
// @Router /api/v1/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.service.CreateLocal(c.Request.Context(), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// ListRoles 获取系统角色列表
// @Summary 系统角色列表
// @Tags 用户
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} responses.Response{data=[]string}
// @Router /api/v1/roles [get]
func (h *UserHandler) ListRoles(c *gin.Context) {
	responses.Success(c, h.service.ListRoles())
}
