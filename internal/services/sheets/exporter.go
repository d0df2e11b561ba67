package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Exporter дописывает строки истории транскрипций в Google-таблицу.
// Включается только при заданном GOOGLE_SHEETS_ID; все ошибки — best-effort,
// вызывающая сторона лишь логирует их.
type Exporter struct {
	spreadsheetID string
	srv           *sheets.Service
}

func NewExporter(ctx context.Context, credentialsFile, spreadsheetID string) (*Exporter, error) {
	if spreadsheetID == "" {
		return nil, nil
	}
	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to init Google API: %w", err)
	}
	return &Exporter{spreadsheetID: spreadsheetID, srv: srv}, nil
}

// Append добавляет строку в конец листа. Безопасен при nil-экспортере.
func (e *Exporter) Append(ctx context.Context, row []interface{}) error {
	if e == nil {
		return nil
	}
	valueRange := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := e.srv.Spreadsheets.Values.
		Append(e.spreadsheetID, "A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to sheet: %w", err)
	}
	return nil
}
