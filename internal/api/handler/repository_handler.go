package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"gh-integration/internal/dto"
	"gh-integration/internal/service"
	"gh-integration/pkg/constants"
	"gh-integration/pkg/responses"
)

// SyncService 仓库同步
type SyncService interface {
	SyncForPrincipal(ctx context.Context, userID, credentialID int64, trigger string) (*dto.SyncRepositoriesResponse, error)
	ListRuns(ctx context.Context, userID int64, limit int) ([]*dto.SyncRunResponse, error)
}

type RepositoryHandler struct {
	service service.RepositoryService
	sync    SyncService
}

func NewRepositoryHandler(service service.RepositoryService, sync SyncService) *RepositoryHandler {
	return &RepositoryHandler{
		service: service,
		sync:    sync,
	}
}

// List 获取代码库列表
// @Summary 获取仓库镜像列表
// @Tags Repository
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param keyword query string false "关键字"
// @Param credential_id query int false "凭据ID"
// @Param private query bool false "是否私有"
// @Success 200 {object} responses.Response{data=dto.PageResponse}
// @Router /api/v1/repositories [get]
func (h *RepositoryHandler) List(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var query dto.RepositoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	data, total, err := h.service.List(c.Request.Context(), p, &query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, dto.NewPageResponse(data, total, query.GetPage(), query.GetPageSize()))
}

// GetByID 获取代码库详情
// @Summary 获取仓库镜像详情
// @Tags Repository
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "仓库ID"
// @Success 200 {object} responses.Response{data=dto.RepositoryResponse}
// @Router /api/v1/repositories/{id} [get]
func (h *RepositoryHandler) GetByID(c *gin.Context) {
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

// Sync 立即同步
// @Summary 从 GitHub 同步仓库
// @Description 未指定 credential_id 时使用第一个可用凭据
// @Tags Repository
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.SyncRepositoriesRequest false "同步参数"
// @Success 200 {object} responses.Response{data=dto.SyncRepositoriesResponse}
// @Router /api/v1/repositories/sync [post]
func (h *RepositoryHandler) Sync(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.SyncRepositoriesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	resp, err := h.sync.SyncForPrincipal(c.Request.Context(), p.UserID, req.CredentialID, constants.SyncTriggerManual)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// ListRuns 最近的同步记录
// @Summary 同步记录
// @Tags Repository
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} responses.Response{data=[]dto.SyncRunResponse}
// @Router /api/v1/repositories/sync-runs [get]
func (h *RepositoryHandler) ListRuns(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	runs, err := h.sync.ListRuns(c.Request.Context(), p.UserID, 20)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, runs)
}
