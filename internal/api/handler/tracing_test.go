package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/api/router"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	return attrs
}

func findSpan(t *testing.T, recorder *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	ended := recorder.Ended()
	for i := len(ended) - 1; i >= 0; i-- {
		if ended[i].Name() == name {
			return ended[i]
		}
	}
	require.Failf(t, "未找到 span", "name=%s", name)
	return nil
}

func TestWriteError_RecordsHTTPErrorOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	engine := server.New(server.WithHostPorts("127.0.0.1:0"))
	engine.Use(func(c context.Context, ctx *app.RequestContext) {
		c, span := tp.Tracer("test").Start(c, "http.request")
		ctx.Next(c)
		span.End()
	})
	router.RegisterRoutes(engine, handler.NewResumeHandler(testConfig(), newTestParser()), nil)
	env := &testEnv{engine: engine}

	resp := env.postMultipart(t, "/api/v1/resume/parse", "cv.xyz", "text", nil)
	require.Equal(t, http.StatusUnsupportedMediaType, resp.Code)

	span := findSpan(t, recorder, "http.request")
	assert.Equal(t, codes.Error, span.Status().Code)
	attrs := spanAttrs(span)
	assert.Equal(t, "http", attrs["error.type"])
	assert.Equal(t, "415", attrs["http.status_code"])
	assert.Equal(t, "client_error", attrs["error.category"])

	resp = env.get("/api/v1/resume/status/r1")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "server_error", spanAttrs(findSpan(t, recorder, "http.request"))["error.category"])

	resp = env.postMultipart(t, "/api/v1/resume/parse", "cv.txt", sampleResume, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, codes.Unset, findSpan(t, recorder, "http.request").Status().Code, "成功请求不应标记错误")
}

func TestHandleParseRequest_MasksFileNameAndRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var logs bytes.Buffer
	logger.Init(logger.Config{Output: &logs})
	t.Cleanup(func() { logger.Init(logger.Config{}) })

	env := newTestEnv(t, true)
	env.objects.resumes["resumes/blank.txt"] = []byte("   ")

	ack := env.handler.HandleParseRequest(context.Background(), requestBody(t, storage.ParseRequestMessage{
		RequestID: "masked", ObjectKey: "resumes/blank.txt", FileName: "jane_doe.txt",
	}))
	require.True(t, ack)

	assert.NotContains(t, logs.String(), "jane_doe", "日志中不应出现原始文件名")
	assert.Contains(t, logs.String(), "ja********xt")

	span := findSpan(t, recorder, "resume.parse_request")
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.NotContains(t, span.Status().Description, "jane_doe", "span 中不应出现原始文件名")
	attrs := spanAttrs(span)
	assert.Equal(t, "parse", attrs["error.type"])
	assert.Equal(t, "masked", attrs["resume.request_id"])
	assert.Equal(t, "resumes/blank.txt", attrs["resume.object_key"])

	extract := findSpan(t, recorder, "resume.extract_text")
	assert.Equal(t, "extraction", spanAttrs(extract)["error.type"])
	assert.Equal(t, "ja********xt", spanAttrs(extract)["resume.file_name"])

	require.True(t, env.handler.HandleParseRequest(context.Background(), []byte("{not json")))
	assert.Equal(t, "validation", spanAttrs(findSpan(t, recorder, "resume.parse_request"))["error.type"])
}

func TestHandleParseRequest_SuccessSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	env := newTestEnv(t, true)
	env.objects.resumes["resumes/ok.txt"] = []byte(sampleResume)

	require.True(t, env.handler.HandleParseRequest(context.Background(), requestBody(t, storage.ParseRequestMessage{
		RequestID: "ok", ObjectKey: "resumes/ok.txt", FileName: "ok.txt",
	})))
	assert.Equal(t, codes.Unset, findSpan(t, recorder, "resume.parse_request").Status().Code)
}
