package pipeline

import "testing"

func TestCleanForSpeech(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bold", in: "**اہم** بات", want: "اہم بات"},
		{name: "headings and code", in: "## ہدایات\n`دوا` _لیں_ ~ابھی~", want: "ہدایات\nدوا لیں ابھی"},
		{name: "collapses spaces", in: "ایک    دو", want: "ایک دو"},
		{name: "keeps paragraph breaks", in: "پہلا\n\n\n\n  دوسرا  ", want: "پہلا\n\nدوسرا"},
		{name: "whitespace-only lines between paragraphs", in: "پہلا\n  \n \n\nدوسرا", want: "پہلا\n\nدوسرا"},
		{name: "windows newlines", in: "a\r\nb", want: "a\nb"},
		{name: "only markup", in: "** ## __", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanForSpeech(tt.in); got != tt.want {
				t.Errorf("CleanForSpeech(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
