package handler

import (
	"github.com/gin-gonic/gin"

	"gh-integration/internal/dto"
	"gh-integration/internal/service"
	"gh-integration/pkg/responses"
)

type CredentialHandler struct {
	service service.CredentialService
}

func NewCredentialHandler(service service.CredentialService) *CredentialHandler {
	return &CredentialHandler{service: service}
}

// Create 创建凭据
// @Summary 创建 GitHub 凭据
// @Description token/private_key 加密存储, 响应中只返回 has_token/has_private_key
// @Tags 凭据
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateCredentialRequest true "凭据信息"
// @Success 200 {object} responses.Response{data=dto.CredentialResponse}
// @Router /api/v1/credentials [post]
func (h *CredentialHandler) Create(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.CreateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// List 凭据列表
// @Summary 凭据列表(管理员)
// @Tags 凭据
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param keyword query string false "名称关键字"
// @Param kind query string false "认证方式"
// @Param active query bool false "是否启用"
// @Success 200 {object} responses.Response{data=dto.PageResponse}
// @Router /api/v1/credentials [get]
func (h *CredentialHandler) List(c *gin.Context) {
	var query dto.CredentialQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	data, total, err := h.service.List(c.Request.Context(), &query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, dto.NewPageResponse(data, total, query.GetPage(), query.GetPageSize()))
}

// Available 当前用户可用的凭据
// @Summary 当前用户可用的凭据
// @Description 按名称排序, 仅有一个时 default_id 为该凭据
// @Tags 凭据
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} responses.Response{data=dto.AvailableCredentialsResponse}
// @Router /api/v1/credentials/available [get]
func (h *CredentialHandler) Available(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	resp, err := h.service.Available(c.Request.Context(), p)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// GetByID 凭据详情
// @Summary 凭据详情
// @Tags 凭据
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "凭据ID"
// @Success 200 {object} responses.Response{data=dto.CredentialResponse}
// @Router /api/v1/credentials/{id} [get]
func (h *CredentialHandler) GetByID(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), p, id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Update 更新凭据
// @Summary 更新凭据
// @Description 未传的字段保持不变; 修改 App ID 或 Private Key 会清除已缓存的 JWT
// @Tags 凭据
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "凭据ID"
// @Param request body dto.UpdateCredentialRequest true "更新内容"
// @Success 200 {object} responses.Response{data=dto.CredentialResponse}
// @Router /api/v1/credentials/{id} [put]
func (h *CredentialHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.UpdateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Deactivate 停用凭据
// @Summary 停用凭据
// @Tags 凭据
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "凭据ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/credentials/{id}/deactivate [post]
func (h *CredentialHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

// Activate 重新启用凭据
// @Summary 启用凭据
// @Tags 凭据
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "凭据ID"
// @Success 200 {object} responses.Response
// @Router /api/v1/credentials/{id}/activate [post]
func (h *CredentialHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *CredentialHandler) setActive(c *gin.Context, active bool) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	if err := h.service.SetActive(c.Request.Context(), id, active); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, nil)
}

// SetAuthorizedUsers 设置 GitHub App 授权用户
// @Summary 设置授权用户
// @Description 全量替换, 仅 GitHub App 凭据可用
// @Tags 凭据
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "凭据ID"
// @Param request body dto.SetAuthorizedUsersRequest true "用户ID列表"
// @Success 200 {object} responses.Response{data=dto.CredentialResponse}
// @Router /api/v1/credentials/{id}/authorized-users [put]
func (h *CredentialHandler) SetAuthorizedUsers(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req dto.SetAuthorizedUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.service.SetAuthorizedUsers(c.Request.Context(), id, req.UserIDs)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Mint 重新签发 GitHub App JWT
// @Summary 签发 JWT
// @Tags 凭据
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "凭据ID"
// @Success 200 {object} responses.Response{data=dto.MintTokenResponse}
// @Router /api/v1/credentials/{id}/mint [post]
func (h *CredentialHandler) Mint(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	resp, err := h.service.Mint(c.Request.Context(), p, id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Validate 校验凭据
// @Summary 校验凭据
// @Description token 凭据请求 GET /user, GitHub App 请求 GET /app
// @Tags 凭据
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "凭据ID"
// @Success 200 {object} responses.Response{data=dto.ValidateCredentialResponse}
// @Router /api/v1/credentials/{id}/validate [post]
func (h *CredentialHandler) Validate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := bindID(c)
	if !ok {
		return
	}

	resp, err := h.service.Validate(c.Request.Context(), p, id)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}
