package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "English with stopwords and punctuation",
			title: "The BEST camping gear of 2025!",
			want:  []string{"BEST", "camping", "gear"},
		},
		{
			name:  "Korean with particles and boilerplate",
			title: "강아지 산책 영상 모음 #shorts",
			want:  []string{"강아지", "산책"},
		},
		{
			name:  "Mixed script tokenized by one rule",
			title: "아이폰16 unboxing 후기 (진짜)",
			want:  []string{"아이폰16", "unboxing", "후기"},
		},
		{
			name:  "Digits only dropped, alphanumeric kept",
			title: "2025 갤럭시 s25 리뷰 100",
			want:  []string{"갤럭시", "s25", "리뷰"},
		},
		{
			name:  "Single rune dropped",
			title: "개 꿀 팁 공개",
			want:  []string{"공개"},
		},
		{
			name:  "Empty title",
			title: "",
			want:  nil,
		},
		{
			name:  "Only noise",
			title: "!!! ... 1 2 3",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.title)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestTokenizeKeepsDuplicates(t *testing.T) {
	got := Tokenize("고양이 장난감 고양이 반응")
	want := []string{"고양이", "장난감", "고양이", "반응"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want duplicates preserved %v", got, want)
	}
}

func TestTokenizeStripsEmbeddedPunctuation(t *testing.T) {
	got := Tokenize("먹방|챌린지★도전")
	want := []string{"먹방", "챌린지", "도전"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestIsStopWord(t *testing.T) {
	if !IsStopWord("Shorts") {
		t.Error("IsStopWord(Shorts) = false, want true (case-insensitive)")
	}
	if IsStopWord("강아지") {
		t.Error("IsStopWord(강아지) = true, want false")
	}
}
