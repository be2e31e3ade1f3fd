package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hydraskript-api/internal/interfaces/http/dto"
	apperrors "hydraskript-api/pkg/errors"
	"hydraskript-api/pkg/logger"
)

// respondError 写出错误响应，服务端错误记录日志
func respondError(c *gin.Context, msg string, err error) {
	appErr := apperrors.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError || appErr.HTTPStatus == 0 {
		logger.Error(c.Request.Context(), msg, err, "error_code", string(appErr.Code))
	} else {
		logger.Debug(c.Request.Context(), msg, "error", err.Error())
	}
	dto.AppError(c, err)
}

// bindJSON 绑定请求体，失败时写出 400
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
