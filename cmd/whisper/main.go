// Командная утилита: транскрипция аудиофайлов через Whisper API без сервера.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vardanian/whisperapi/config"
	"github.com/vardanian/whisperapi/internal/services/whisper"
	"github.com/vardanian/whisperapi/internal/transcript"
)

func main() {
	cfg := config.NewConfig()

	language := pflag.String("language", cfg.DefaultLanguage, "language of the audio")
	prompt := pflag.String("prompt", "", "custom prompt to improve transcription accuracy")
	speakerLabels := pflag.Bool("speaker-labels", cfg.DefaultSpeakerLabels, "enable speaker diarization")
	translate := pflag.Bool("translate", cfg.DefaultTranslate, "translate output to English")
	minSpeakers := pflag.Int("min-speakers", cfg.DefaultMinSpeakers, "minimum number of speakers")
	maxSpeakers := pflag.Int("max-speakers", cfg.DefaultMaxSpeakers, "maximum number of speakers")
	outputFormat := pflag.String("output-format", cfg.DefaultOutputFormat, "output format: text, markdown, srt, html")
	outputDir := pflag.String("output-dir", "transcripts", "output directory for transcripts")
	dryRun := pflag.Bool("dry-run", false, "show what would be processed without transcribing")
	verbose := pflag.BoolP("verbose", "v", false, "show per-segment details")
	pflag.Parse()

	files := pflag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: whisper [flags] <audio files>")
		pflag.PrintDefaults()
		os.Exit(1)
	}

	if *minSpeakers < 1 || *maxSpeakers < 1 {
		fatal("speaker counts must be positive integers")
	}
	if *minSpeakers > *maxSpeakers {
		fatal("minimum speakers cannot exceed maximum speakers")
	}
	if !transcript.ValidFormat(*outputFormat) {
		fatal("unsupported output format: " + *outputFormat)
	}

	params := whisper.Params{
		Language:               *language,
		Prompt:                 *prompt,
		SpeakerLabels:          *speakerLabels,
		Translate:              *translate,
		TimestampGranularities: []string{"segment"},
		MinSpeakers:            *minSpeakers,
		MaxSpeakers:            *maxSpeakers,
	}

	if *dryRun {
		fmt.Println("Dry run - files that would be processed:")
		for _, path := range files {
			size := "unknown size"
			if fi, err := os.Stat(path); err == nil {
				size = formatSize(fi.Size())
			}
			fmt.Printf("  %s (%s)\n", path, size)
		}
		fmt.Printf("Settings: language=%s, format=%s, speakers=%d-%d\n",
			*language, *outputFormat, *minSpeakers, *maxSpeakers)
		return
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatal(err.Error())
	}

	client := whisper.NewClient(cfg.WhisperAPIKey, cfg.WhisperAPIURL)
	ctx := context.Background()

	successful, failed := 0, 0
	for i, path := range files {
		fmt.Printf("Processing file %d/%d: %s\n", i+1, len(files), filepath.Base(path))
		if err := transcribeFile(ctx, client, path, params, *outputFormat, *outputDir, *verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to transcribe %s: %v\n", filepath.Base(path), err)
			failed++
			continue
		}
		successful++
	}

	fmt.Printf("Processing complete. Successful: %d", successful)
	if failed > 0 {
		fmt.Printf(", failed: %d", failed)
	}
	fmt.Println()
	if failed > 0 {
		os.Exit(1)
	}
}

func transcribeFile(ctx context.Context, client *whisper.Client, path string, params whisper.Params, outputFormat, outputDir string, verbose bool) error {
	audio, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := whisper.ValidateAudio(filepath.Base(path), int64(len(audio))); err != nil {
		return err
	}

	fmt.Printf("  Uploading %s to Whisper API...\n", formatSize(int64(len(audio))))
	result, err := client.Transcribe(ctx, filepath.Base(path), audio, params)
	if err != nil {
		return err
	}

	if verbose {
		for _, seg := range result.Segments {
			speaker := seg.Speaker
			if speaker == "" {
				speaker = "Speaker"
			}
			fmt.Printf("  %s [%.1fs-%.1fs]: %s\n", speaker, seg.Start, seg.End, strings.TrimSpace(seg.Text))
		}
	}

	content, err := transcript.Render(outputFormat, result)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(outputDir, name+"_transcript"+extensionFor(outputFormat))
	if err := os.WriteFile(outPath, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Printf("  Saved: %s\n", outPath)
	return nil
}

func extensionFor(format string) string {
	switch format {
	case transcript.FormatMarkdown:
		return ".md"
	case transcript.FormatHTML:
		return ".html"
	case transcript.FormatSRT:
		return ".srt"
	}
	return ".txt"
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGT"[exp])
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
