package handler

import (
	"github.com/gin-gonic/gin"

	"gh-integration/internal/api/middleware"
	"gh-integration/internal/dto"
	"gh-integration/internal/service"
	pkgErrors "gh-integration/pkg/errors"
	"gh-integration/pkg/responses"
	"gh-integration/pkg/utils"
)

// principal 当前登录用户, 未登录时已写入错误响应
func principal(c *gin.Context) (service.Principal, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		responses.ErrorWithCode(c, pkgErrors.CodeUnauthorized, "未登录")
		return service.Principal{}, false
	}
	return service.Principal{UserID: user.ID, Roles: user.Roles}, true
}

// bindID 解析路径中的 :id
func bindID(c *gin.Context) (int64, bool) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		badRequest(c, err)
		return 0, false
	}
	return param.ID, true
}

func badRequest(c *gin.Context, err error) {
	responses.ErrorWithDetail(c, pkgErrors.CodeBadRequest, "请求参数错误", utils.FormatValidationError(err))
}
