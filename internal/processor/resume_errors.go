package processor

import (
	"errors"
	"fmt"
)

// 基础错误类型
var (
	ErrExtractTextFailed = errors.New("提取简历文本失败")
	ErrEmptyText         = errors.New("简历文本为空")
	ErrParseFailed       = errors.New("简历解析失败")
	// ErrSegmentFailed 归一化或分段阶段失败，errors.Is(err, ErrParseFailed) 同样成立
	ErrSegmentFailed     = fmt.Errorf("%w: 分段失败", ErrParseFailed)
	ErrWriteOutputFailed = errors.New("写入解析结果失败")
)

// ResumeParseError 单份简历解析失败的详细信息
type ResumeParseError struct {
	FileName string
	Op       string
	BaseErr  error
	Detail   string
	Cause    error // 下游返回的原始错误，可为 nil
}

func (e *ResumeParseError) Error() string {
	msg := fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.FileName)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap 同时暴露基础错误和原始错误，便于 errors.Is/As 检查 parser.FormatError 等类型
func (e *ResumeParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Cause}
}

func NewExtractTextError(fileName string, cause error) error {
	return &ResumeParseError{
		FileName: fileName,
		Op:       "extract",
		BaseErr:  ErrExtractTextFailed,
		Cause:    cause,
	}
}

func NewEmptyTextError(fileName string) error {
	return &ResumeParseError{
		FileName: fileName,
		Op:       "extract",
		BaseErr:  ErrEmptyText,
		Detail:   "提取结果不含可见字符",
	}
}

func NewSegmentError(fileName, detail string) error {
	return &ResumeParseError{
		FileName: fileName,
		Op:       "segment",
		BaseErr:  ErrSegmentFailed,
		Detail:   detail,
	}
}

func NewParseError(fileName, detail string) error {
	return &ResumeParseError{
		FileName: fileName,
		Op:       "parse",
		BaseErr:  ErrParseFailed,
		Detail:   detail,
	}
}

func NewWriteOutputError(fileName string, cause error) error {
	return &ResumeParseError{
		FileName: fileName,
		Op:       "write",
		BaseErr:  ErrWriteOutputFailed,
		Cause:    cause,
	}
}
