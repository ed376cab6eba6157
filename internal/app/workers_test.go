package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mediscribe/mediscribe_backend/pkg/events"
)

func TestHandleOutcome(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		want    []string
	}{
		{
			name:    "failed",
			subject: events.Subject("failed", "abc"),
			data:    `{"unique_id":"abc","status":"failed","stage":"ocr","error":"ocr stage failed: timeout"}`,
			want:    []string{"level=WARN", "prescription failed", "unique_id=abc", "stage=ocr"},
		},
		{
			name:    "completed with id from subject",
			subject: events.Subject("completed", "xyz"),
			data:    `{"status":"completed","stage":"done"}`,
			want:    []string{"level=INFO", "prescription completed", "unique_id=xyz"},
		},
		{
			name:    "non-final status ignored",
			subject: events.Subject("processing", "abc"),
			data:    `{"unique_id":"abc","status":"processing","stage":"ocr"}`,
		},
		{
			name:    "garbage",
			subject: events.Subject("failed", "abc"),
			data:    `not json`,
			want:    []string{"undecodable event"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))

			handleOutcome(log, tt.subject, []byte(tt.data))

			out := buf.String()
			if len(tt.want) == 0 && out != "" {
				t.Errorf("unexpected log %q", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("log %q missing %q", out, w)
				}
			}
		})
	}
}
