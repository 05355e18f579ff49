package extractor

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// PhraseCapability 名词短语候选提供者，仅用于技能抽取
type PhraseCapability interface {
	PhraseCandidates(ctx context.Context, text string) ([]string, error)
}

// PhraseCapabilityFunc 函数适配器
type PhraseCapabilityFunc func(ctx context.Context, text string) ([]string, error)

func (f PhraseCapabilityFunc) PhraseCandidates(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

var (
	phraseDelimiterRe = regexp.MustCompile(`[,;:|/()\[\]\n•◦○■●]+|\s+(?:and|or|&)\s+|\.(?:\s|$)`)
	phraseTrimSet     = " \t-–*·\"'"
)

// DelimiterPhraseChunker 基于分隔符的短语切分：按列表分隔符、连接词和句点断开，
// 保留以字母开头、词数不超过 MaxWords 的片段。
type DelimiterPhraseChunker struct {
	MaxWords int
}

var _ PhraseCapability = (*DelimiterPhraseChunker)(nil)

// NewDelimiterPhraseChunker 默认最多四个词
func NewDelimiterPhraseChunker() *DelimiterPhraseChunker {
	return &DelimiterPhraseChunker{MaxWords: 4}
}

// PhraseCandidates 返回去重后的候选短语，保持出现顺序
func (c *DelimiterPhraseChunker) PhraseCandidates(_ context.Context, text string) ([]string, error) {
	maxWords := c.MaxWords
	if maxWords <= 0 {
		maxWords = 4
	}

	var out []string
	seen := make(map[string]struct{})
	for _, frag := range phraseDelimiterRe.Split(text, -1) {
		frag = strings.Trim(frag, phraseTrimSet)
		if frag == "" {
			continue
		}
		words := strings.Fields(frag)
		if len(words) > maxWords {
			continue
		}
		if r := []rune(frag)[0]; !unicode.IsLetter(r) {
			continue
		}
		phrase := strings.Join(words, " ")
		key := strings.ToLower(phrase)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, phrase)
	}
	return out, nil
}
