package console

import (
	"context"
	"slices"
)

func (a *App) walletMenu(ctx context.Context) error {
	for {
		a.println("\n--- WALLET ---")
		a.println("1. Current Balance")
		a.println("2. Daily Sales Records")
		a.println("3. Earnings per Day/Week/Month/Year")
		a.println("4. Export Sales Workbook")
		a.println("5. Back")
		choice, err := a.prompt(ctx, "Choose: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			a.printf("Current balance in mart: $%d\n", a.ledger.CurrentBalance())
		case "2":
			a.showDailySales()
		case "3":
			a.showEarnings(ctx)
		case "4":
			a.exportWorkbook(ctx)
		case "5":
			return nil
		default:
			a.println("Invalid choice")
		}
	}
}

func (a *App) showDailySales() {
	daily := a.ledger.DailySales()
	if len(daily) == 0 {
		a.println("No sales yet")
		return
	}
	a.println("\n--- DAILY SALES ---")
	for _, d := range daily {
		a.println(dailyRow(d))
	}
}

func (a *App) showEarnings(ctx context.Context) {
	report := a.ledger.EarningsReport(ctx, a.now())
	if len(report.Daily) == 0 {
		a.println("No sales yet")
		return
	}
	a.println("\n--- EARNINGS ---")
	a.println("Daily totals:")
	for _, d := range report.Daily {
		a.println(dailyRow(d))
	}
	a.printf("Weekly total: $%d\n", report.Weekly)
	a.printf("Monthly total: $%d\n", report.Monthly)
	a.printf("Yearly total: $%d\n", report.Yearly)
}

func (a *App) exportWorkbook(ctx context.Context) {
	report := a.ledger.EarningsReport(ctx, a.now())
	path, err := a.exporter.WriteSalesWorkbook(report, slices.Collect(a.catalog.Products()))
	if err != nil {
		a.report("export sales workbook", err)
		return
	}
	a.println("Sales workbook written: " + path)
}
