package transcript

import (
	"fmt"
	"html"
	"strings"

	"github.com/vardanian/whisperapi/internal/services/whisper"
)

// Выходные форматы транскрипта.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatSRT      = "srt"
	FormatText     = "text"
)

// ValidFormat сообщает, поддерживается ли формат вывода.
func ValidFormat(format string) bool {
	switch format {
	case FormatMarkdown, FormatHTML, FormatSRT, FormatText:
		return true
	}
	return false
}

// Render приводит verbose_json ответ к запрошенному формату.
func Render(format string, result *whisper.Result) (string, error) {
	switch format {
	case FormatMarkdown:
		return RenderMarkdown(result), nil
	case FormatHTML:
		return RenderHTML(result), nil
	case FormatSRT:
		return RenderSRT(result), nil
	case FormatText:
		return RenderText(result), nil
	}
	return "", fmt.Errorf("unknown output format: %s", format)
}

// RenderMarkdown — по строке на сегмент: **Speaker** [0.00s - 1.50s]: text.
func RenderMarkdown(result *whisper.Result) string {
	lines := make([]string, 0, len(result.Segments))
	for _, seg := range result.Segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Speaker ?"
		}
		text := strings.TrimSpace(seg.Text)
		lines = append(lines, fmt.Sprintf("**%s** [%.2fs - %.2fs]: %s", speaker, seg.Start, seg.End, text))
	}
	return strings.Join(lines, "\n\n")
}

// RenderHTML — автономная страница с сегментами по спикерам.
func RenderHTML(result *whisper.Result) string {
	lines := []string{
		"<!DOCTYPE html>",
		"<html lang='en'>",
		"<head>",
		"  <meta charset='UTF-8'>",
		"  <title>Transcript</title>",
		"  <style>",
		"    body { font-family: sans-serif; line-height: 1.6; padding: 2em; max-width: 800px; margin: auto; background: #fdfdfd; color: #333; }",
		"    h3 { margin-top: 2em; font-size: 1.1em; color: #222; }",
		"    small { color: #888; font-weight: normal; font-size: 0.9em; }",
		"    p { margin: 0.2em 0 1em; }",
		"  </style>",
		"</head>",
		"<body>",
		"<h2>Transcript</h2>",
	}

	for _, seg := range result.Segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Speaker"
		}
		start := int(seg.Start)
		timestamp := fmt.Sprintf("%02d:%02d", start/60, start%60)
		lines = append(lines,
			fmt.Sprintf("<h3>%s <small>(%s)</small></h3>", html.EscapeString(speaker), timestamp),
			fmt.Sprintf("<p>%s</p>", html.EscapeString(seg.Text)),
		)
	}

	lines = append(lines, "</body></html>")
	return strings.Join(lines, "\n")
}

func RenderSRT(result *whisper.Result) string {
	if result.SRT == "" {
		return "No SRT data available"
	}
	return result.SRT
}

func RenderText(result *whisper.Result) string {
	if result.Text == "" {
		return "No plain text available"
	}
	return result.Text
}
