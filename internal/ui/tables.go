package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"contas/internal/core"
)

// RenderTransactions writes one page of transactions as an aligned
// table followed by the pagination footer.
func RenderTransactions(w io.Writer, txs []core.Transaction, page core.Page) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "no transactions found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tCATEGORY\tTYPE\tAMOUNT")
	for _, tx := range txs {
		category := "-"
		if tx.Category != nil {
			category = tx.Category.Name
		}
		amount := tx.Amount.FormatBRL()
		if tx.Type == core.Expense {
			amount = "-" + amount
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date.Format("2006-01-02"), tx.Description, category, tx.Type, amount)
	}
	tw.Flush()
	fmt.Fprintln(w, paginationFooter(page))
}

// paginationFooter renders "showing 41-47 of 47 (page 5/5)" with
// next/prev availability.
func paginationFooter(page core.Page) string {
	start, end := page.Bounds()
	if start == 0 {
		return "no items"
	}
	footer := fmt.Sprintf("showing %d-%d of %d (page %d/%d)",
		start, end, page.TotalItems, page.Current, page.TotalPages)
	switch {
	case page.HasPrev() && page.HasNext():
		footer += "  [prev|next]"
	case page.HasNext():
		footer += "  [next]"
	case page.HasPrev():
		footer += "  [prev]"
	}
	return footer
}

// RenderSummary writes the monthly totals with the recent transactions
// of that month underneath.
func RenderSummary(w io.Writer, sum core.MonthlySummary, recent []core.Transaction) {
	ym := core.YearMonth{Year: sum.Year, Month: sum.Month}
	fmt.Fprintf(w, "summary for %s\n\n", ym)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "income\t%s\n", sum.Income.FormatBRL())
	fmt.Fprintf(tw, "expense\t%s\n", sum.Expense.FormatBRL())
	fmt.Fprintf(tw, "balance\t%s\n", sum.Balance.FormatBRL())
	tw.Flush()

	if len(recent) == 0 {
		return
	}
	fmt.Fprintln(w, "\nrecent transactions")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, tx := range recent {
		amount := tx.Amount.FormatBRL()
		if tx.Type == core.Expense {
			amount = "-" + amount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", tx.Date.Format("2006-01-02"), tx.Description, amount)
	}
	tw.Flush()
}

func RenderCategories(w io.Writer, cats []core.Category) {
	if len(cats) == 0 {
		fmt.Fprintln(w, "no categories found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, c := range cats {
		desc := c.Description
		if desc == "" {
			desc = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, desc)
	}
	tw.Flush()
}

func RenderUser(w io.Writer, user core.User) {
	fmt.Fprintf(w, "%s <%s>\n", user.Name, user.Email)
}

// Notifier prints transient messages to the terminal, the CLI stand-in
// for toast notifications.
type Notifier struct {
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Success(msg string) {
	fmt.Fprintf(n.out, "✓ %s\n", msg)
}

func (n *Notifier) Error(msg string) {
	fmt.Fprintf(n.out, "✗ %s\n", msg)
}
