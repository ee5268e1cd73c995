package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints a user's latest snapshot and recent alerts.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.TelegramID == 0 {
		return errors.New("--user must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.LatestSnapshot(ctx, opts.TelegramID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no snapshot recorded")
	} else {
		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Recorded (UTC)\tTicker\tName\tPrice%\tAccount")
		for _, record := range records {
			fmt.Fprintf(
				writer,
				"%s\t%s\t%s\t%s\t%s\n",
				record.RecordedAt.UTC().Format(time.RFC3339),
				record.Ticker,
				sanitizeInline(record.Name),
				formatDecimal(record.PricePercent, 2),
				sanitizeInline(record.AccountName),
			)
		}
		writer.Flush()
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.TelegramID, opts.Limit)
	if err != nil {
		return err
	}

	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "\nno alerts sent")
		return nil
	}

	fmt.Fprintln(os.Stdout)
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Sent (UTC)\tFIGI\tType")
	for _, alert := range alerts {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\n",
			alert.SentAt.UTC().Format(time.RFC3339),
			alert.FIGI,
			alert.AlertType,
		)
	}
	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
