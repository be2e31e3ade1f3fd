// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// BindProjectID 从 URI 绑定项目 ID
func BindProjectID(c *gin.Context) string {
	return c.Param("pid")
}

// BindChapterID 从 URI 绑定章节 ID
func BindChapterID(c *gin.Context) string {
	return c.Param("cid")
}

// BindEntityID 从 URI 绑定条目 ID
func BindEntityID(c *gin.Context) string {
	return c.Param("eid")
}

// BindStyleID 从 URI 绑定风格 ID
func BindStyleID(c *gin.Context) string {
	return c.Param("sid")
}

// parseBoolWithDefault 解析布尔值，失败时返回默认值
func parseBoolWithDefault(s string, defaultVal bool) bool {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// BindReplace 解析导入时的 replace 查询参数
func BindReplace(c *gin.Context) bool {
	return parseBoolWithDefault(c.Query("replace"), false)
}
