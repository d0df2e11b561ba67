package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxFileSize — предел размера аудиофайла (100MB).
const MaxFileSize = 100 * 1024 * 1024

var supportedAudioTypes = map[string]struct{}{
	".mp3": {}, ".mp4": {}, ".mpeg": {}, ".mpga": {}, ".m4a": {}, ".wav": {},
	".webm": {}, ".flac": {}, ".ogg": {}, ".oga": {}, ".opus": {}, ".3gp": {},
	".aac": {}, ".amr": {},
}

// APIError — ошибка удалённого Whisper API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whisper api http %d: %s", e.StatusCode, e.Body)
}

// Params — параметры транскрипции, передаваемые в API.
type Params struct {
	Language               string
	Prompt                 string
	SpeakerLabels          bool
	Translate              bool
	TimestampGranularities []string
	MinSpeakers            int
	MaxSpeakers            int
	CallbackURL            string
}

// Segment — фрагмент распознанной речи из verbose_json.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
	Text    string  `json:"text"`
}

// Result — ответ API в формате verbose_json.
type Result struct {
	Language string    `json:"language,omitempty"`
	Text     string    `json:"text,omitempty"`
	SRT      string    `json:"srt,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

func NewClient(apiKey, apiURL string) *Client {
	return &Client{
		apiKey: apiKey,
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// ValidateAudio проверяет имя и размер файла до обращения к API.
func ValidateAudio(filename string, size int64) error {
	if filename == "" {
		return fmt.Errorf("no filename provided")
	}
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if size > MaxFileSize {
		return fmt.Errorf("file too large: %.1fMB (max: %dMB)", float64(size)/(1024*1024), MaxFileSize/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := supportedAudioTypes[ext]; !ok {
		return fmt.Errorf("unsupported file type: %s", ext)
	}
	return nil
}

// Transcribe отправляет аудио в Whisper API и возвращает verbose_json ответ.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte, p Params) (*Result, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("WHISPER_API_KEY is not configured")
	}
	if c.apiURL == "" {
		return nil, fmt.Errorf("WHISPER_API_URL is not configured")
	}
	if err := ValidateAudio(filename, int64(len(audio))); err != nil {
		return nil, err
	}
	if p.MinSpeakers > 0 && p.MaxSpeakers > 0 && p.MinSpeakers > p.MaxSpeakers {
		return nil, fmt.Errorf("min_speakers cannot be greater than max_speakers")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"language":        p.Language,
		"prompt":          p.Prompt,
		"speaker_labels":  strconv.FormatBool(p.SpeakerLabels),
		"translate":       strconv.FormatBool(p.Translate),
		"response_format": "verbose_json",
		"callback_url":    p.CallbackURL,
	}
	if p.MinSpeakers > 0 {
		fields["min_speakers"] = strconv.Itoa(p.MinSpeakers)
	}
	if p.MaxSpeakers > 0 {
		fields["max_speakers"] = strconv.Itoa(p.MaxSpeakers)
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := mw.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	for _, g := range p.TimestampGranularities {
		if err := mw.WriteField("timestamp_granularities[]", g); err != nil {
			return nil, err
		}
	}

	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", "WhisperAPI-Client/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode whisper api response: %w", err)
	}
	return &result, nil
}
