package parser

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tikaRecorder struct {
	mu           sync.Mutex
	contentTypes []string
	resourceName string
}

// 创建一个模拟的Tika服务器，用于测试
func createMockTikaServer(rec *tikaRecorder) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			rec.mu.Lock()
			rec.contentTypes = append(rec.contentTypes, r.Header.Get("Content-Type"))
			rec.resourceName = r.Header.Get("X-Tika-Resource-Name")
			rec.mu.Unlock()
		}
		_, _ = io.Copy(io.Discard, r.Body)

		switch r.URL.Path {
		case "/tika":
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("John Doe\njohn@example.com\n\nSKILLS\nGo, Python."))
		case "/meta":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"Content-Type":"application/pdf","xmpTPg:NPages":"1","pdf:Producer":"LibreOffice"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestNewTikaExtractor(t *testing.T) {
	extractor := NewTikaExtractor("http://localhost:9998/")
	require.NotNil(t, extractor, "创建的Tika提取器不应为nil")
	assert.Equal(t, "http://localhost:9998", extractor.ServerURL, "ServerURL末尾的斜杠应被去掉")
	assert.Equal(t, 60*time.Second, extractor.Client.Timeout, "HTTP客户端超时应为60秒")
	assert.False(t, extractor.extractFullMetadata, "默认应该不提取完整元数据")
	assert.True(t, extractor.extractMinimalMetadata, "默认应该提取精简元数据")

	customLogger := log.New(os.Stdout, "[测试] ", log.LstdFlags)
	custom := NewTikaExtractor("http://tika:9998",
		WithFullMetadata(true),
		WithMinimalMetadata(false),
		WithAnnotations(false),
		WithTikaLogger(customLogger),
		WithTimeout(30*time.Second),
	)
	assert.True(t, custom.extractFullMetadata)
	assert.False(t, custom.extractMinimalMetadata)
	assert.False(t, custom.extractAnnotations)
	assert.Equal(t, customLogger, custom.logger, "应该使用提供的自定义logger")
	assert.Equal(t, 30*time.Second, custom.Client.Timeout, "应该使用自定义超时")
}

func TestTikaExtractor_ExtractTextFromBytes(t *testing.T) {
	rec := &tikaRecorder{}
	server := createMockTikaServer(rec)
	defer server.Close()

	extractor := NewTikaExtractor(server.URL, WithTikaLogger(quietLogger()))
	text, meta, err := extractor.ExtractTextFromBytes(context.Background(), []byte("%PDF-1.4 fake"), "/tmp/jane.pdf", nil)
	require.NoError(t, err)

	assert.Contains(t, text, "john@example.com")
	assert.Equal(t, "/tmp/jane.pdf", meta["source_file_path"])
	assert.Equal(t, "1", meta["xmpTPg:NPages"], "精简模式应保留重要元数据")
	_, hasProducer := meta["pdf:Producer"]
	assert.False(t, hasProducer, "精简模式不应保留非关键元数据")

	require.Len(t, rec.contentTypes, 2, "应依次请求 /tika 和 /meta")
	assert.Equal(t, "application/pdf", rec.contentTypes[0])
	assert.Equal(t, "jane.pdf", rec.resourceName)
}

func TestTikaExtractor_ContentTypeFollowsFormat(t *testing.T) {
	cases := map[string]string{
		"cv.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"cv.DOC":  "application/msword",
		"cv.bin":  "application/octet-stream",
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &tikaRecorder{}
			server := createMockTikaServer(rec)
			defer server.Close()

			extractor := NewTikaExtractor(server.URL, WithMinimalMetadata(false), WithTikaLogger(quietLogger()))
			_, _, err := extractor.ExtractTextFromBytes(context.Background(), []byte("data"), name, nil)
			require.NoError(t, err)
			require.Len(t, rec.contentTypes, 1, "关闭元数据后只应请求 /tika")
			assert.Equal(t, want, rec.contentTypes[0])
		})
	}
}

func TestTikaExtractor_FullMetadata(t *testing.T) {
	server := createMockTikaServer(nil)
	defer server.Close()

	extractor := NewTikaExtractor(server.URL, WithFullMetadata(true), WithTikaLogger(quietLogger()))
	_, meta, err := extractor.ExtractTextFromReader(context.Background(), strings.NewReader("%PDF"), "a.pdf", map[string]interface{}{"request_id": "r1"})
	require.NoError(t, err)
	assert.Equal(t, "LibreOffice", meta["pdf:Producer"])
	assert.Equal(t, "r1", meta["request_id"], "调用方传入的元数据应被保留")
}

func TestTikaExtractor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	extractor := NewTikaExtractor(server.URL, WithTikaLogger(quietLogger()))
	_, _, err := extractor.ExtractTextFromBytes(context.Background(), []byte("x"), "a.pdf", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestTikaExtractor_ExtractFromFileMissing(t *testing.T) {
	extractor := NewTikaExtractor("http://127.0.0.1:1", WithTikaLogger(quietLogger()))
	_, _, err := extractor.ExtractFromFile(context.Background(), "/nonexistent/cv.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsImportantMetadata(t *testing.T) {
	assert.True(t, isImportantMetadata("xmpTPg:NPages"))
	assert.True(t, isImportantMetadata("meta:word-count"))
	assert.False(t, isImportantMetadata("X-TIKA:Parsed-By"))
}
