package processor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/types"

	"golang.org/x/sync/errgroup"
)

// BatchResult 批量解析中单个文件的结果，Record 与 Err 有且只有一个非空
type BatchResult struct {
	Path   string
	Record *types.ResumeRecord
	Err    error
}

// ParseBatch 以 Settings.Workers 为上限并发解析多个文件。
// 结果顺序与 paths 一致；单个文件失败不会取消其他文件。
func (rp *ResumeParser) ParseBatch(ctx context.Context, paths []string) []BatchResult {
	results := make([]BatchResult, len(paths))

	var g errgroup.Group
	g.SetLimit(rp.Config.Workers)
	for i, path := range paths {
		g.Go(func() error {
			results[i].Path = path
			if err := ctx.Err(); err != nil {
				results[i].Err = NewExtractTextError(filepath.Base(path), err)
				return nil
			}
			record, err := rp.ParseFile(ctx, path)
			results[i].Record, results[i].Err = record, err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	rp.logInfo("批量解析完成: 共 %d 个文件, 失败 %d 个", len(paths), failed)
	return results
}

// CollectInputFiles 返回待解析的文件列表。
// root 为文件时原样返回；为目录时递归收集受支持扩展名的文件，按路径字典序排列。
func CollectInputFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("读取输入路径 %s 失败: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if constants.IsSupportedExtension(filepath.Ext(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("遍历输入目录 %s 失败: %w", root, err)
	}
	return files, nil
}
