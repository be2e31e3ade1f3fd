// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由；limited 只挂在触发模型调用的接口上
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, limited gin.HandlerFunc) {
	// 立项与大纲
	genesis := v1.Group("/genesis")
	{
		genesis.POST("", limited, h.Genesis.Submit)
		genesis.POST("/back", h.Genesis.Back)
		genesis.POST("/lock", h.Genesis.Lock)
	}
	v1.GET("/session", h.Genesis.Session)

	// 项目
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.GET("/current", h.Project.CurrentProject)
		projects.POST("/current/entities/pending/approve", h.Project.ApprovePending)
		projects.POST("/current/entities/pending/dismiss", h.Project.DismissPending)
		projects.POST("/:pid/open", h.Project.OpenProject)
	}

	// 章节工作区
	chapters := v1.Group("/chapters/:cid")
	{
		chapters.POST("/select", h.Chapter.SelectChapter)
		chapters.POST("/generate", limited, h.Chapter.GenerateChapter)
		chapters.POST("/image-prompt", limited, h.Chapter.GenerateImagePrompt)
		chapters.POST("/render", limited, h.Chapter.RenderImage)
		chapters.POST("/rewrite", limited, h.Chapter.RewriteSelection)
		chapters.PUT("/content", h.Chapter.UpdateContent)
		chapters.POST("/approve", h.Chapter.ApproveChapter)
	}

	// 风格
	styles := v1.Group("/styles")
	{
		styles.GET("", h.Style.ListStyles)
		styles.POST("", h.Style.SaveStyle)
		styles.GET("/active", h.Style.ActiveStyle)
		styles.PATCH("/active", h.Style.PatchActiveStyle)
		styles.POST("/:sid/activate", h.Style.ActivateStyle)
	}

	// 故事设定集
	entities := v1.Group("/entities")
	{
		entities.GET("", h.Entity.ListEntities)
		entities.POST("", h.Entity.CreateEntity)
		entities.GET("/export", h.Entity.ExportEntities)
		entities.POST("/import", h.Entity.ImportEntities)
		entities.PATCH("/:eid", h.Entity.PatchEntity)
		entities.DELETE("/:eid", h.Entity.DeleteEntity)
	}

	// 有声书
	narration := v1.Group("/narration")
	{
		narration.GET("/voices", h.Narration.Voices)
		narration.POST("", limited, h.Narration.Narrate)
	}
}
