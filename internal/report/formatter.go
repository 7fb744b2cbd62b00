package report

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v5"

	"IndexHistory/internal/exporter"
	"IndexHistory/internal/model"
)

const rule = "======================================================================"

// NotAvailable is printed in place of undefined statistics.
const NotAvailable = "N/A"

func date(d model.DatedValue) string { return d.Date.Format(model.DateLayout) }

func count(n int) string { return humanize.Comma(int64(n)) }

func whole(v float64) string { return humanize.Comma(int64(math.Round(v))) }

func percent(v null.Float, format string) string {
	if !v.Valid {
		return NotAvailable
	}
	return humanize.FormatFloat(format, v.ValueOrZero()) + "%"
}

// FormatBanner formats the header printed before fetching.
func FormatBanner(symbol string, start, end string) string {
	if end == "" {
		end = "today"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🚀 Starting %s OHLCV data collection...\n", symbol))
	b.WriteString(fmt.Sprintf("📊 Fetching daily data from %s to %s\n", start, end))
	return b.String()
}

// FormatFetched formats the confirmation printed after a successful fetch.
func FormatFetched(s *model.Series) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = string(c)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ Successfully fetched %s trading days\n", count(s.Len())))
	b.WriteString(fmt.Sprintf("📅 Date range: %s to %s\n",
		s.FirstDate().Format(model.DateLayout), s.LastDate().Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("📊 Columns: %s\n", strings.Join(cols, ", ")))
	return b.String()
}

// FormatAnalysis formats the summary statistics report. The heading ends in
// PRESENT when toPresent is set, otherwise in the year of the last bar.
func FormatAnalysis(sum *model.Summary, toPresent bool) string {
	if sum == nil {
		return ""
	}
	var b strings.Builder

	until := "PRESENT"
	if !toPresent {
		until = fmt.Sprint(sum.LastDate.Year())
	}
	b.WriteString("\n" + rule + "\n")
	b.WriteString(fmt.Sprintf("%s OHLCV DATA ANALYSIS (%d - %s)\n", sum.Symbol, sum.FirstDate.Year(), until))
	b.WriteString(rule + "\n")

	b.WriteString(fmt.Sprintf("📈 Total trading days: %s\n", count(sum.TradingDays)))
	b.WriteString(fmt.Sprintf("📅 Date range: %s to %s\n",
		sum.FirstDate.Format(model.DateLayout), sum.LastDate.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("📆 Years covered: %.1f\n", sum.YearsCovered))

	if p := sum.Price; p != nil {
		b.WriteString("\n💰 PRICE STATISTICS:\n")
		b.WriteString(fmt.Sprintf("   First close price (%d): $%.2f\n", p.First.Date.Year(), p.First.Value))
		b.WriteString(fmt.Sprintf("   Latest close price: $%.2f\n", p.Last.Value))
		b.WriteString(fmt.Sprintf("   All-time low: $%.2f on %s\n", p.Min.Value, date(p.Min)))
		b.WriteString(fmt.Sprintf("   All-time high: $%.2f on %s\n", p.Max.Value, date(p.Max)))

		b.WriteString("\n📊 RETURNS:\n")
		b.WriteString(fmt.Sprintf("   Total return since %d: %s\n", p.First.Date.Year(), percent(p.TotalReturn, "#,###.#")))
		annual := percent(p.AnnualizedReturn, "#,###.#")
		if !p.AnnualizedReturn.Valid && p.AnnualizedNote != "" {
			annual += " (" + p.AnnualizedNote + ")"
		}
		b.WriteString(fmt.Sprintf("   Annualized return: %s\n", annual))
	}

	if t := sum.Trend; t != nil {
		b.WriteString("\n🧭 RECENT TREND:\n")
		b.WriteString(fmt.Sprintf("   MA200: %s\n", price(t.MA200)))
		b.WriteString(fmt.Sprintf("   52-week range: %s - %s\n", price(t.Low52w), price(t.High52w)))
		if t.Position52w.Valid {
			b.WriteString(fmt.Sprintf("   52-week position: %.0f%%\n", t.Position52w.ValueOrZero()*100))
		}
		if t.RSI14.Valid {
			b.WriteString(fmt.Sprintf("   RSI(14): %.1f\n", t.RSI14.ValueOrZero()))
		} else {
			b.WriteString("   RSI(14): " + NotAvailable + "\n")
		}
	}

	if v := sum.Volume; v != nil {
		b.WriteString("\n📈 VOLUME STATISTICS:\n")
		b.WriteString(fmt.Sprintf("   Average daily volume: %s\n", whole(v.Mean)))
		b.WriteString(fmt.Sprintf("   Highest volume day: %s on %s\n", whole(v.Max.Value), date(v.Max)))
	}

	b.WriteString("\n🔍 DATA QUALITY:\n")
	for _, m := range sum.Missing {
		b.WriteString(fmt.Sprintf("   %s: %s missing values (%.2f%%)\n", m.Column, count(m.Missing), m.Percent))
	}
	return b.String()
}

func price(v null.Float) string {
	if !v.Valid {
		return NotAvailable
	}
	return fmt.Sprintf("$%.2f", v.ValueOrZero())
}

// FormatSaved formats the output paths and file sizes.
func FormatSaved(res *exporter.SaveResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ Saved CSV: %s\n", res.CSVPath))
	b.WriteString(fmt.Sprintf("✅ Saved Excel: %s\n", res.XLSXPath))
	b.WriteString(fmt.Sprintf("📁 File sizes: CSV=%.1fMB, Excel=%.1fMB\n", res.CSVMegabytes(), res.XLSXMegabytes()))
	return b.String()
}

// FormatSample formats up to n leading and n trailing bars as aligned tables.
func FormatSample(s *model.Series, n int) string {
	var b strings.Builder
	b.WriteString("\n📋 SAMPLE DATA:\n")
	b.WriteString(fmt.Sprintf("First %d rows:\n", n))
	writeTable(&b, s.Columns, s.Head(n))
	b.WriteString(fmt.Sprintf("\nLast %d rows:\n", n))
	writeTable(&b, s.Columns, s.Tail(n))
	return b.String()
}

func writeTable(b *strings.Builder, cols []model.Column, bars []model.Bar) {
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Date\t")
	for _, c := range cols {
		fmt.Fprintf(tw, "%s\t", c)
	}
	fmt.Fprintln(tw)
	for i := range bars {
		fmt.Fprintf(tw, "%s\t", bars[i].Date.Format(model.DateLayout))
		for _, c := range cols {
			v := bars[i].Get(c)
			switch {
			case !v.Valid:
				fmt.Fprint(tw, "NaN\t")
			case c == model.Volume:
				fmt.Fprintf(tw, "%.0f\t", v.ValueOrZero())
			default:
				fmt.Fprintf(tw, "%.2f\t", v.ValueOrZero())
			}
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

// FormatSuccess formats the final summary of a completed run.
func FormatSuccess(s *model.Series, dir string) string {
	var b strings.Builder
	b.WriteString("\n🎉 SUCCESS!\n")
	b.WriteString(fmt.Sprintf("✅ Downloaded %s trading days of %s OHLCV data\n", count(s.Len()), s.Symbol))
	b.WriteString(fmt.Sprintf("📁 Files saved in '%s' folder\n", dir))
	b.WriteString(fmt.Sprintf("📈 Data spans %.1f years\n", s.YearsCovered()))
	return b.String()
}

// FormatFailure formats the terminal message of a failed run.
func FormatFailure(stage, symbol string, err error) string {
	return fmt.Sprintf("❌ Failed to %s %s data: %v\n", stage, symbol, err)
}
