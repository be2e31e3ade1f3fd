package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hydraskript-api/internal/application/narration"
	"hydraskript-api/internal/interfaces/http/dto"
	apperrors "hydraskript-api/pkg/errors"
)

// NarrationHandler 有声书处理器
type NarrationHandler struct {
	studio *narration.Studio
}

// NewNarrationHandler 创建有声书处理器
func NewNarrationHandler(studio *narration.Studio) *NarrationHandler {
	return &NarrationHandler{studio: studio}
}

// Voices 可选音色
// @Summary 音色列表
// @Tags Narration
// @Produce json
// @Success 200 {object} dto.Response[dto.VoicesResponse]
// @Router /v1/narration/voices [get]
func (h *NarrationHandler) Voices(c *gin.Context) {
	dto.Success(c, &dto.VoicesResponse{
		Voices:  narration.Voices,
		Default: narration.DefaultVoice,
	})
}

// Narrate 合成朗读音频。支持 multipart 上传 .txt/.pdf（字段 file、voice）或 JSON 文本
// @Summary 合成有声书
// @Tags Narration
// @Accept json
// @Accept multipart/form-data
// @Produce audio/wav
// @Success 200 {file} binary
// @Failure 413 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/narration [post]
func (h *NarrationHandler) Narrate(c *gin.Context) {
	ctx := c.Request.Context()
	var text, voice string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		// 多留 1MB 给 multipart 边界与其他字段
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.studio.MaxSourceBytes()+1<<20)
		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(c, "narration source rejected", apperrors.ErrInputTooLarge.WithDetail("source file is too large"))
				return
			}
			dto.BadRequest(c, "file is required")
			return
		}
		if fh.Size > h.studio.MaxSourceBytes() {
			respondError(c, "narration source rejected", apperrors.ErrInputTooLarge.WithDetail("source file is too large"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			dto.BadRequest(c, "failed to open uploaded file")
			return
		}
		defer f.Close()
		text, err = h.studio.LoadSource(fh.Filename, f)
		if err != nil {
			respondError(c, "failed to load narration source", err)
			return
		}
		voice = c.PostForm("voice")
	} else {
		var req dto.NarrationRequest
		if !bindJSON(c, &req) {
			return
		}
		text, voice = req.Text, req.Voice
	}

	audio, err := h.studio.Narrate(ctx, text, voice)
	if err != nil {
		respondError(c, "failed to synthesize narration", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+audio.Filename+`"`)
	c.Header("X-Narration-Voice", audio.Voice)
	if audio.Truncated {
		c.Header("X-Narration-Truncated", "true")
	}
	c.Data(http.StatusOK, "audio/wav", audio.WAV)
}
