package cli

import (
	"context"
	stdErrors "errors"
	"fmt"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/ledgerfold/beancore/ledger"
	"github.com/ledgerfold/beancore/loader"
)

// CompareCmd diffs a beancount file's final account balances against a
// reference ledger representation, reporting any account/currency whose
// booked balance differs between the two. With a terminal attached, it
// offers to refresh the reference file from the input when differences
// are found.
type CompareCmd struct {
	File      FileOrStdin `help:"Beancount input filename to check (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Reference string      `help:"Beancount reference filename to compare against." arg:""`
}

type balanceDiff struct {
	account  string
	currency string
	got      decimal.Decimal
	want     decimal.Decimal
}

func (cmd *CompareCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	runCtx := context.Background()

	gotLedger, err := loadAndProcess(runCtx, &cmd.File)
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", cmd.File.GetAbsoluteFilename(), err)
	}

	ref := FileOrStdin{Filename: cmd.Reference}
	refLedger, err := loadAndProcess(runCtx, &ref)
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", cmd.Reference, err)
	}

	diffs := diffLedgers(gotLedger, refLedger)
	if len(diffs) == 0 {
		printSuccess(ctx.Stdout, "No differences found")
		return nil
	}

	for _, d := range diffs {
		printInfof(ctx.Stdout, "%s (%s): got %s, reference %s", d.account, d.currency, d.got.String(), d.want.String())
	}
	printError(ctx.Stderr, fmt.Sprintf("%d difference(s) found", len(diffs)))

	update, err := promptYesNo(ctx, fmt.Sprintf("Overwrite %s with %s's balances?", cmd.Reference, cmd.File.GetAbsoluteFilename()))
	if err != nil {
		return err
	}
	if !update {
		return NewCommandError(1)
	}

	sourceContent, err := cmd.File.GetSourceContent()
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := os.WriteFile(cmd.Reference, sourceContent, 0o644); err != nil {
		return fmt.Errorf("failed to update reference file: %w", err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Updated %s", cmd.Reference))
	return nil
}

// loadAndProcess loads and books a file, tolerating validation errors so
// that comparison can proceed against whatever state could be resolved.
func loadAndProcess(ctx context.Context, file *FileOrStdin) (*ledger.Ledger, error) {
	ldr := loader.New(loader.WithFollowIncludes())
	tree, err := file.LoadAST(ctx, ldr)
	if err != nil {
		return nil, err
	}

	l := ledger.New()
	if procErr := l.Process(ctx, tree); procErr != nil {
		var validationErrors *ledger.ValidationErrors
		if !stdErrors.As(procErr, &validationErrors) {
			return nil, procErr
		}
	}

	return l, nil
}

// diffLedgers compares the current balance of every account known to either
// ledger and reports mismatches.
func diffLedgers(got, want *ledger.Ledger) []balanceDiff {
	accounts := map[string]bool{}
	for name := range got.Accounts() {
		accounts[name] = true
	}
	for name := range want.Accounts() {
		accounts[name] = true
	}

	names := make([]string, 0, len(accounts))
	for name := range accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	var diffs []balanceDiff
	for _, name := range names {
		gotBalance := currentBalance(got, name)
		wantBalance := currentBalance(want, name)

		currencies := map[string]bool{}
		for _, c := range gotBalance.Currencies() {
			currencies[c] = true
		}
		for _, c := range wantBalance.Currencies() {
			currencies[c] = true
		}

		currencyNames := make([]string, 0, len(currencies))
		for c := range currencies {
			currencyNames = append(currencyNames, c)
		}
		sort.Strings(currencyNames)

		for _, currency := range currencyNames {
			g := gotBalance.Get(currency)
			w := wantBalance.Get(currency)
			if !g.Equal(w) {
				diffs = append(diffs, balanceDiff{account: name, currency: currency, got: g, want: w})
			}
		}
	}

	return diffs
}

func currentBalance(l *ledger.Ledger, accountName string) *ledger.Balance {
	account, ok := l.GetAccount(accountName)
	if !ok || account.Inventory == nil {
		return ledger.NewBalance()
	}

	balance := ledger.NewBalance()
	for _, currency := range account.Inventory.Currencies() {
		balance.Set(currency, account.Inventory.Get(currency))
	}
	return balance
}
