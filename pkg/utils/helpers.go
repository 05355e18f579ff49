package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// StringPtr 返回字符串的指针
func StringPtr(s string) *string {
	return &s
}

// NonEmptyPtr 去除首尾空白后为空时返回 nil
func NonEmptyPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref 取指针的值，nil 时返回 fallback
func Deref(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
