package tokenizer

import (
	"strings"
	"unicode"
)

// MinTokenLength 关键词最小长度（按 rune 计）
const MinTokenLength = 2

// stopWords 噪声词表：代词/虚词、平台套话、时间与单位词。
// 中英韩混排标题按同一规则切分，不做分语言处理。
var stopWords = map[string]bool{
	// 英文虚词
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "but": true, "by": true, "can": true, "could": true,
	"did": true, "do": true, "does": true, "for": true, "from": true, "had": true,
	"has": true, "have": true, "he": true, "her": true, "him": true, "his": true,
	"how": true, "if": true, "in": true, "is": true, "it": true, "its": true,
	"me": true, "my": true, "no": true, "not": true, "of": true, "on": true,
	"or": true, "our": true, "she": true, "so": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "to": true,
	"was": true, "we": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "who": true, "why": true, "will": true,
	"with": true, "would": true, "you": true, "your": true,

	// 平台套话
	"video": true, "videos": true, "shorts": true, "short": true,
	"subscribe": true, "channel": true, "watch": true, "live": true,
	"official": true, "youtube": true, "vlog": true, "episode": true,
	"ep": true, "full": true, "feat": true, "ft": true, "vs": true,
	"hd": true, "4k": true, "mv": true,

	// 韩文虚词与平台套话
	"그리고": true, "하지만": true, "그래서": true, "그런데": true,
	"저는": true, "제가": true, "너무": true, "정말": true, "진짜": true,
	"완전": true, "영상": true, "동영상": true, "쇼츠": true, "구독": true,
	"좋아요": true, "채널": true, "공식": true, "모음": true, "하는": true,
	"있는": true, "없는": true, "합니다": true, "했어요": true,

	// 时间与单位词
	"today": true, "yesterday": true, "tomorrow": true, "now": true,
	"day": true, "week": true, "month": true, "year": true, "time": true,
	"min": true, "sec": true, "hour": true,
	"오늘": true, "어제": true, "내일": true, "지금": true,
	"시간": true, "하루": true, "매일": true,
}

// Tokenize 将标题切分为候选关键词序列。
// 规则：按空白切分并剔除字母（任意文字）/数字以外的字符；
// 过滤停用词、长度不足 MinTokenLength 的词以及纯数字词。
// 保留原始顺序，不去重（聚合是上层的职责），无副作用，可并发调用。
func Tokenize(title string) []string {
	if title == "" {
		return nil
	}

	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !keep(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// keep 判断单个词是否保留
func keep(token string) bool {
	runes := []rune(token)
	if len(runes) < MinTokenLength {
		return false
	}
	if stopWords[strings.ToLower(token)] {
		return false
	}
	digitsOnly := true
	for _, r := range runes {
		if !unicode.IsDigit(r) {
			digitsOnly = false
			break
		}
	}
	return !digitsOnly
}

// IsStopWord 判断词（小写后）是否在停用词表中
func IsStopWord(token string) bool {
	return stopWords[strings.ToLower(token)]
}
