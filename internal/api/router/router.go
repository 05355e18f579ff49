package router

import (
	"context"
	"crypto/subtle"
	"errors"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/output"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
	"go.opentelemetry.io/otel/trace"
)

// APIKeyHeader 鉴权请求头
const APIKeyHeader = "X-API-Key"

// RegisterRoutes 注册 API 路由。apiKeys 非空时 /api/v1/resume 下的接口需要携带 X-API-Key
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, apiKeys []string) {
	api := h.Group("/api/v1")

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok", "parser_version": constants.DefaultParserVer})
	})

	resume := api.Group("/resume")
	if len(apiKeys) > 0 {
		resume.Use(apiKeyAuth(apiKeys))
	}

	resume.POST("/parse", func(c context.Context, ctx *app.RequestContext) {
		format, ok := requestFormat(ctx)
		if !ok {
			return
		}
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		record, err := resumeHandler.HandleParseUpload(c, fileHeader.Filename, fileHeader.Size, file)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		writeRecord(c, ctx, record, format)
	})

	resume.POST("/parse-text", func(c context.Context, ctx *app.RequestContext) {
		format, ok := requestFormat(ctx)
		if !ok {
			return
		}
		var req handler.ParseTextRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是有效的JSON"})
			return
		}
		record, err := resumeHandler.HandleParseText(c, req)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		writeRecord(c, ctx, record, format)
	})

	resume.POST("/parse-object", func(c context.Context, ctx *app.RequestContext) {
		format, ok := requestFormat(ctx)
		if !ok {
			return
		}
		var req handler.ParseObjectRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是有效的JSON"})
			return
		}
		record, err := resumeHandler.HandleParseObject(c, req)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		writeRecord(c, ctx, record, format)
	})

	resume.POST("/upload", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := resumeHandler.HandleUploadAndSubmit(c, fileHeader.Filename, fileHeader.Size, file, ctx.PostForm("format"))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusAccepted, resp)
	})

	resume.POST("/submit", func(c context.Context, ctx *app.RequestContext) {
		var req handler.SubmitRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体不是有效的JSON"})
			return
		}
		resp, err := resumeHandler.HandleSubmit(c, req)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusAccepted, resp)
	})

	resume.GET("/status/:request_id", func(c context.Context, ctx *app.RequestContext) {
		resp, err := resumeHandler.HandleStatus(c, ctx.Param("request_id"))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})
}

func apiKeyAuth(apiKeys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			for _, k := range apiKeys {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, nil
		}),
		keyauth.WithErrorHandler(func(_ context.Context, ctx *app.RequestContext, _ error) {
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "API Key 无效或缺失"})
		}),
	)
}

// requestFormat 读取 format 参数 (查询串或表单)，默认 json
func requestFormat(ctx *app.RequestContext) (output.Format, bool) {
	raw := ctx.Query("format")
	if raw == "" {
		raw = ctx.PostForm("format")
	}
	if raw == "" {
		return output.FormatJSON, true
	}
	format, err := output.ParseFormat(raw)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return "", false
	}
	return format, true
}

func writeRecord(c context.Context, ctx *app.RequestContext, record *types.ResumeRecord, format output.Format) {
	data, err := output.Marshal(record, format)
	if err != nil {
		writeError(c, ctx, err)
		return
	}
	ctx.Data(consts.StatusOK, format.ContentType(), data)
}

func writeError(c context.Context, ctx *app.RequestContext, err error) {
	status := statusFor(err)
	tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
	if status >= consts.StatusInternalServerError {
		logger.FromContext(c).Error().Err(err).Str("path", string(ctx.Path())).Msg("请求处理失败")
	}
	ctx.JSON(status, utils.H{"error": err.Error()})
}

// statusFor 把领域错误映射为HTTP状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, handler.ErrInvalidRequest):
		return consts.StatusBadRequest
	case errors.Is(err, handler.ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return consts.StatusUnsupportedMediaType
	case errors.Is(err, handler.ErrRequestNotFound), errors.Is(err, storage.ErrObjectNotFound):
		return consts.StatusNotFound
	case errors.Is(err, processor.ErrEmptyText), errors.Is(err, processor.ErrExtractTextFailed):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, handler.ErrObjectStorageUnset),
		errors.Is(err, handler.ErrQueueUnset),
		errors.Is(err, handler.ErrStatusStoreUnset):
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}
