package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"bondwatch/internal/reports"
)

// BondCalendar prints the user's nearest maturities and call offers.
func (a *App) BondCalendar(ctx context.Context, telegramID int64, limit int) error {
	if telegramID == 0 {
		return errors.New("--user must be provided")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := reports.NewService(a.newInvestClient(), store, a.Logger)

	maturities, err := svc.NearestMaturities(ctx, telegramID, limit)
	if err != nil {
		if errors.Is(err, reports.ErrNoToken) {
			return errors.New("no brokerage token stored for this user")
		}
		return err
	}

	fmt.Fprintln(os.Stdout, "Nearest maturities:")
	if maturities == "" {
		fmt.Fprintln(os.Stdout, "  none")
	} else {
		fmt.Fprintln(os.Stdout, stripHTML(maturities))
	}

	offers, err := svc.NearestOffers(ctx, telegramID, limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "\nNearest offers:")
	if offers == "" {
		fmt.Fprintln(os.Stdout, "  none")
	} else {
		fmt.Fprintln(os.Stdout, stripHTML(offers))
	}

	return nil
}

var htmlTagReplacer = strings.NewReplacer(
	"<b>", "", "</b>", "",
	"<i>", "", "</i>", "",
	"<code>", "", "</code>", "",
)

// stripHTML removes Telegram HTML markup for terminal output.
func stripHTML(v string) string {
	return htmlTagReplacer.Replace(v)
}
