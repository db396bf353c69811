package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"contas/internal/auth"
	"contas/internal/core"
	"contas/internal/query"
	"contas/internal/ui"
)

// Preferences persists small key/value settings between runs.
// Implemented by internal/storage.
type Preferences interface {
	SetPreference(ctx context.Context, key, value string) error
	GetPreference(ctx context.Context, key string) (string, error)
}

const prefPageSize = "page_size"

// App dispatches subcommands. Private commands run behind the guard;
// failing it prints a login hint instead of a stack of errors.
type App struct {
	Auth    *auth.Manager
	Guard   *auth.Guard
	Queries *query.Queries
	Prefs   Preferences

	PageSize int

	In  io.Reader
	Out io.Writer
}

const usage = `usage: contas <command> [flags]

session
  login                 sign in with email and password
  register              create an account
  logout                drop the local session
  whoami                show the signed-in user

data
  tx list|add|edit|rm   manage transactions
  cat list|add|edit|rm  manage categories
  summary               monthly income/expense/balance
`

func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.Out, usage)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx)
	case "register":
		return a.register(ctx)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "tx":
		return a.transactions(ctx, rest)
	case "cat":
		return a.categories(ctx, rest)
	case "summary":
		return a.summary(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.Out, usage)
		return nil
	default:
		fmt.Fprint(a.Out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *App) requireUser(ctx context.Context) (core.User, error) {
	user, err := a.Guard.Require(ctx)
	if errors.Is(err, auth.ErrLoginRequired) {
		return core.User{}, fmt.Errorf("not signed in, run `contas login` first")
	}
	return user, err
}

func (a *App) login(ctx context.Context) error {
	email, err := PromptLine(a.In, a.Out, "email")
	if err != nil {
		return err
	}
	password, err := PromptPassword(a.Out, "password")
	if err != nil {
		return err
	}
	form := ui.LoginForm{Email: email, Password: password}
	if err := form.Validate(); err != nil {
		return err
	}

	ok, err := a.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("login failed: check your email and password")
	}
	user, _ := a.Auth.User()
	fmt.Fprintf(a.Out, "signed in as %s\n", user.Name)
	return nil
}

func (a *App) register(ctx context.Context) error {
	name, err := PromptLine(a.In, a.Out, "name")
	if err != nil {
		return err
	}
	email, err := PromptLine(a.In, a.Out, "email")
	if err != nil {
		return err
	}
	password, err := PromptPassword(a.Out, "password")
	if err != nil {
		return err
	}
	confirm, err := PromptPassword(a.Out, "confirm password")
	if err != nil {
		return err
	}
	form := ui.RegisterForm{Name: name, Email: email, Password: password, ConfirmPassword: confirm}
	if err := form.Validate(); err != nil {
		return err
	}

	ok, err := a.Auth.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("registration failed: the email may already be in use")
	}
	if _, authed := a.Auth.User(); authed {
		fmt.Fprintf(a.Out, "account created, signed in as %s\n", name)
	} else {
		fmt.Fprintln(a.Out, "account created, sign in with `contas login`")
	}
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.Auth.Logout(ctx); err != nil {
		return err
	}
	a.Queries.Invalidate()
	fmt.Fprintln(a.Out, "signed out")
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	// Refresh from the backend when reachable, otherwise show the
	// cached record.
	user, err := a.Auth.CheckStatus(ctx)
	if err != nil {
		user, _ = a.Auth.User()
	}
	ui.RenderUser(a.Out, user)
	return nil
}

func (a *App) transactions(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: contas tx list|add|edit|rm")
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.txList(ctx, rest)
	case "add":
		return a.txAdd(ctx, rest)
	case "edit":
		return a.txEdit(ctx, rest)
	case "rm":
		return a.txRemove(ctx, rest)
	default:
		return fmt.Errorf("unknown tx subcommand %q", sub)
	}
}

func (a *App) txList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx list", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	start := fs.String("start", "", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD)")
	txType := fs.String("type", "", "income or expense")
	categoryID := fs.Int64("category", 0, "category id")
	pageN := fs.Int("page", 1, "page number")
	size := fs.Int("size", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter, err := buildFilter(*start, *end, *txType, *categoryID)
	if err != nil {
		return err
	}

	browser := query.NewTransactionBrowser(a.Queries, a.pageSize(ctx, *size))
	browser.SetFilter(filter)
	browser.SetPage(*pageN)
	txs, err := browser.Load(ctx)
	if err != nil {
		return err
	}
	ui.RenderTransactions(a.Out, txs, browser.Page())

	// An explicit -size becomes the default for later runs.
	if *size > 0 && a.Prefs != nil {
		if err := a.Prefs.SetPreference(ctx, prefPageSize, strconv.Itoa(*size)); err != nil {
			fmt.Fprintf(a.Out, "warning: could not save page size preference: %v\n", err)
		}
	}
	return nil
}

func (a *App) txAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx add", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	form := ui.TransactionForm{}
	fs.StringVar(&form.Description, "desc", "", "description")
	fs.StringVar(&form.Amount, "amount", "", "amount, e.g. 12.50")
	fs.StringVar(&form.Type, "type", "", "income or expense")
	fs.StringVar(&form.Date, "date", time.Now().Format("2006-01-02"), "date (YYYY-MM-DD)")
	fs.StringVar(&form.Notes, "notes", "", "optional notes")
	fs.Int64Var(&form.CategoryID, "category", 0, "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tx, err := form.Validate()
	if err != nil {
		return err
	}
	created, err := a.Queries.CreateTransaction(ctx, tx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created transaction %d\n", created.ID)
	return nil
}

func (a *App) txEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx edit", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	id := fs.Int64("id", 0, "transaction id")
	desc := fs.String("desc", "", "description")
	amount := fs.String("amount", "", "amount")
	txType := fs.String("type", "", "income or expense")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	notes := fs.String("notes", "", "notes")
	categoryID := fs.Int64("category", 0, "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("tx edit: -id is required")
	}

	current, err := a.Queries.Transaction(ctx, *id)
	if err != nil {
		return err
	}

	// Unset flags keep the stored value.
	form := ui.TransactionForm{
		Description: current.Description,
		Amount:      strconv.FormatFloat(current.Amount.Float64(), 'f', 2, 64),
		Type:        string(current.Type),
		Date:        current.Date.Format("2006-01-02"),
		Notes:       current.Notes,
		CategoryID:  current.CategoryID,
	}
	if *desc != "" {
		form.Description = *desc
	}
	if *amount != "" {
		form.Amount = *amount
	}
	if *txType != "" {
		form.Type = *txType
	}
	if *date != "" {
		form.Date = *date
	}
	if *notes != "" {
		form.Notes = *notes
	}
	if *categoryID > 0 {
		form.CategoryID = *categoryID
	}

	tx, err := form.Validate()
	if err != nil {
		return err
	}
	tx.ID = *id
	if _, err := a.Queries.UpdateTransaction(ctx, tx); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated transaction %d\n", *id)
	return nil
}

func (a *App) txRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx rm", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	id := fs.Int64("id", 0, "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("tx rm: -id is required")
	}
	return a.Queries.DeleteTransaction(ctx, *id)
}

func (a *App) categories(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: contas cat list|add|edit|rm")
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		cats, err := a.Queries.Categories(ctx)
		if err != nil {
			return err
		}
		ui.RenderCategories(a.Out, cats)
		return nil
	case "add":
		return a.catAdd(ctx, rest)
	case "edit":
		return a.catEdit(ctx, rest)
	case "rm":
		return a.catRemove(ctx, rest)
	default:
		return fmt.Errorf("unknown cat subcommand %q", sub)
	}
}

func (a *App) catAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cat add", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	form := ui.CategoryForm{}
	fs.StringVar(&form.Name, "name", "", "category name")
	fs.StringVar(&form.Description, "desc", "", "optional description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := form.Validate()
	if err != nil {
		return err
	}
	created, err := a.Queries.CreateCategory(ctx, cat)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created category %d\n", created.ID)
	return nil
}

func (a *App) catEdit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cat edit", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	id := fs.Int64("id", 0, "category id")
	name := fs.String("name", "", "category name")
	desc := fs.String("desc", "", "description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("cat edit: -id is required")
	}

	cats, err := a.Queries.Categories(ctx)
	if err != nil {
		return err
	}
	var current *core.Category
	for i := range cats {
		if cats[i].ID == *id {
			current = &cats[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("category %d not found", *id)
	}

	form := ui.CategoryForm{Name: current.Name, Description: current.Description}
	if *name != "" {
		form.Name = *name
	}
	if *desc != "" {
		form.Description = *desc
	}
	cat, err := form.Validate()
	if err != nil {
		return err
	}
	cat.ID = *id
	if _, err := a.Queries.UpdateCategory(ctx, cat); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated category %d\n", *id)
	return nil
}

func (a *App) catRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cat rm", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	id := fs.Int64("id", 0, "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		return errors.New("cat rm: -id is required")
	}
	return a.Queries.DeleteCategory(ctx, *id)
}

func (a *App) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	now := core.CurrentYearMonth(time.Now())
	year := fs.Int("year", now.Year, "year")
	month := fs.Int("month", now.Month, "month (1-12)")
	prev := fs.Bool("prev", false, "previous month")
	next := fs.Bool("next", false, "next month")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	ym := core.YearMonth{Year: *year, Month: *month}
	if *prev {
		ym = ym.Prev()
	}
	if *next {
		ym = ym.Next()
	}
	if err := ym.Validate(); err != nil {
		return err
	}

	sum, err := a.Queries.MonthlySummary(ctx, ym)
	if err != nil {
		return err
	}

	// Recent transactions of the summary month, newest page first.
	monthStart := time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC)
	filter := core.TransactionFilter{
		StartDate: monthStart,
		EndDate:   monthStart.AddDate(0, 1, -1),
	}
	list, err := a.Queries.Transactions(ctx, filter, core.NewPage(5))
	if err != nil {
		return err
	}
	ui.RenderSummary(a.Out, sum, list.Items)
	return nil
}

func (a *App) pageSize(ctx context.Context, flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if a.Prefs != nil {
		if v, err := a.Prefs.GetPreference(ctx, prefPageSize); err == nil && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				return n
			}
		}
	}
	if a.PageSize > 0 {
		return a.PageSize
	}
	return core.DefaultPageSize
}

func buildFilter(start, end, txType string, categoryID int64) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	if start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return f, fmt.Errorf("invalid -start %q: want YYYY-MM-DD", start)
		}
		f.StartDate = t
	}
	if end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return f, fmt.Errorf("invalid -end %q: want YYYY-MM-DD", end)
		}
		f.EndDate = t
	}
	if txType != "" {
		tt := core.TransactionType(strings.ToLower(txType))
		if !tt.IsValid() {
			return f, fmt.Errorf("invalid -type %q: want income or expense", txType)
		}
		f.Type = tt
	}
	if categoryID > 0 {
		f.CategoryID = categoryID
	}
	return f, nil
}
