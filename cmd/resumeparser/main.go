// resumeparser 命令行批量解析简历：输入单个文件或目录，每份简历写出一个 JSON/TXT 结果文件。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/output"
	"resume-parser-go/internal/processor"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	input      string
	outputDir  string
	format     string
	configPath string
	workers    int
	initConfig string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("resumeparser", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.input, "input", "i", "", "简历文件或目录路径 (必填)")
	fs.StringVarP(&opts.outputDir, "output", "o", "", "结果输出目录 (默认取配置 parser.output_dir)")
	fs.StringVarP(&opts.format, "format", "f", "", "输出格式: json 或 txt (默认取配置 parser.default_format)")
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML 配置文件路径")
	fs.IntVarP(&opts.workers, "workers", "w", 0, "并发解析数 (默认取配置 parser.workers)")
	fs.StringVar(&opts.initConfig, "init-config", "", "写出一份示例配置文件后退出")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// run 返回进程退出码：0 至少一份简历解析成功，1 运行失败，2 参数错误
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.initConfig != "" {
		if err := config.CreateSampleConfig(opts.initConfig); err != nil {
			fmt.Fprintf(stderr, "错误: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "示例配置已写入 %s\n", opts.initConfig)
		return 0
	}

	if opts.input == "" {
		fmt.Fprintln(stderr, "错误: 必须通过 --input/-i 指定简历文件或目录")
		return 2
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		Output:       stderr,
	})

	if opts.workers > 0 {
		cfg.Parser.Workers = opts.workers
	}
	outDir := firstNonEmpty(opts.outputDir, cfg.Parser.OutputDir, constants.DefaultOutputDir)
	format, err := output.ParseFormat(firstNonEmpty(opts.format, cfg.Parser.DefaultFormat))
	if err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 2
	}

	files, err := processor.CollectInputFiles(opts.input)
	if err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(stderr, "错误: %s 下没有可解析的文件 (支持 %v)\n", opts.input, constants.SupportedExtensions)
		return 1
	}

	// 命令行模式不连接 Redis，缓存只在服务模式下使用
	rp, err := processor.NewResumeParserFromConfig(ctx, cfg, nil, logger.NewStdLogger)
	if err != nil {
		fmt.Fprintf(stderr, "初始化解析器失败: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "开始解析 %d 个文件，输出到 %s (%s)\n", len(files), outDir, format)
	succeeded := 0
	for _, res := range rp.ParseBatch(ctx, files) {
		if res.Err != nil {
			fmt.Fprintf(stdout, "✗ %s: %v\n", res.Path, res.Err)
			continue
		}
		path, err := output.WriteRecordFile(outDir, res.Record, format)
		if err != nil {
			fmt.Fprintf(stdout, "✗ %s: %v\n", res.Path, processor.NewWriteOutputError(res.Record.FileName, err))
			continue
		}
		succeeded++
		fmt.Fprintf(stdout, "✓ %s -> %s\n", res.Path, path)
	}

	fmt.Fprintf(stdout, "完成: 成功 %d，失败 %d\n", succeeded, len(files)-succeeded)
	if succeeded == 0 {
		return 1
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
