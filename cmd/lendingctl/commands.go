package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-lending-settlement/lending/core"
	"github.com/AntonStoeckl/book-lending-settlement/lending/service"
	"github.com/AntonStoeckl/book-lending-settlement/lending/statemachine"
)

const dateLayout = "2006-01-02"

var (
	ErrMissingCommand = errors.New("missing command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingFlag    = errors.New("missing required flag")
	ErrInvalidFlag    = errors.New("invalid flag value")
)

// command is a parsed sub command, ready to run against the wired app.
type command struct {
	name string
	run  func(ctx context.Context, a *app) (any, error)
}

func parseCommand(args []string, stderr io.Writer) (command, error) {
	if len(args) == 0 {
		return command{}, ErrMissingCommand
	}

	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	switch name {
	case "borrow", "return":
		return parseSettlementCommand(name, fs, rest)

	case "list":
		if err := fs.Parse(rest); err != nil {
			return command{}, err
		}

		return command{name: name, run: func(ctx context.Context, a *app) (any, error) {
			transactions, err := a.service.ListBorrowings(ctx)
			if err != nil {
				return nil, err
			}

			return transactionViewsOf(transactions), nil
		}}, nil

	case "get", "delete":
		id := fs.String("id", "", "transaction id")
		if err := fs.Parse(rest); err != nil {
			return command{}, err
		}

		txID, err := requiredUUID("id", *id)
		if err != nil {
			return command{}, err
		}

		return command{name: name, run: func(ctx context.Context, a *app) (any, error) {
			get := a.service.GetBorrowing
			if name == "delete" {
				get = a.service.DeleteBorrowing
			}

			tx, err := get(ctx, txID)
			if err != nil {
				return nil, err
			}

			return transactionViewOf(tx), nil
		}}, nil

	case "delete-all":
		if err := fs.Parse(rest); err != nil {
			return command{}, err
		}

		return command{name: name, run: func(ctx context.Context, a *app) (any, error) {
			deleted, err := a.service.DeleteAllBorrowings(ctx)
			if err != nil {
				return nil, err
			}

			return deletedView{Deleted: deleted}, nil
		}}, nil

	case "update":
		return parseUpdateCommand(fs, rest)

	default:
		return command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

func parseSettlementCommand(name string, fs *flag.FlagSet, args []string) (command, error) {
	isbn := fs.String("isbn", "", "ISBN of the item")
	email := fs.String("email", "", "email of the borrower")
	date := fs.String("date", "", "requested return date for borrow, actual return date for return (YYYY-MM-DD)")
	card := fs.String("card", "", "card number to settle with")
	currency := fs.String("currency", "EUR", "settlement currency")

	if err := fs.Parse(args); err != nil {
		return command{}, err
	}

	required := []struct{ name, value string }{
		{"isbn", *isbn}, {"email", *email}, {"date", *date}, {"card", *card},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return command{}, fmt.Errorf("%w: -%s", ErrMissingFlag, f.name)
		}
	}

	returnDate, err := parseDate("date", *date)
	if err != nil {
		return command{}, err
	}

	req := service.BorrowingRequest{
		ISBN:          *isbn,
		BorrowerEmail: *email,
		ReturnDate:    returnDate,
		CardNumber:    *card,
		Currency:      strings.ToUpper(*currency),
	}

	return command{name: name, run: func(ctx context.Context, a *app) (any, error) {
		settle := a.service.CreateBorrowing
		if name == "return" {
			settle = a.service.CreateReturn
		}

		tx, err := settle(ctx, req)
		if err != nil {
			return nil, err
		}

		return transactionViewOf(tx), nil
	}}, nil
}

func parseUpdateCommand(fs *flag.FlagSet, args []string) (command, error) {
	id := fs.String("id", "", "transaction id")
	email := fs.String("email", "", "email of the new borrower")
	borrowDate := fs.String("borrow-date", "", "new borrow date (YYYY-MM-DD)")
	returnDate := fs.String("return-date", "", "new requested return date (YYYY-MM-DD)")
	status := fs.String("status", "", "new status, BORROWED or RETURNED")

	if err := fs.Parse(args); err != nil {
		return command{}, err
	}

	txID, err := requiredUUID("id", *id)
	if err != nil {
		return command{}, err
	}

	var req statemachine.UpdateRequest

	if *borrowDate != "" {
		d, err := parseDate("borrow-date", *borrowDate)
		if err != nil {
			return command{}, err
		}
		req.BorrowDate = &d
	}

	if *returnDate != "" {
		d, err := parseDate("return-date", *returnDate)
		if err != nil {
			return command{}, err
		}
		req.ReturnDate = &d
	}

	if *status != "" {
		s := core.Status(strings.ToUpper(*status))
		if s != core.StatusBorrowed && s != core.StatusReturned {
			return command{}, fmt.Errorf("%w: -status %q", ErrInvalidFlag, *status)
		}
		req.Status = &s
	}

	newBorrowerEmail := *email

	return command{name: "update", run: func(ctx context.Context, a *app) (any, error) {
		if newBorrowerEmail != "" {
			borrower, err := a.directory.FindByEmail(ctx, newBorrowerEmail)
			if err != nil {
				return nil, err
			}
			req.BorrowerID = &borrower.ID
		}

		tx, err := a.service.UpdateBorrowing(ctx, txID, req)
		if err != nil {
			return nil, err
		}

		return transactionViewOf(tx), nil
	}}, nil
}

func requiredUUID(flagName, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%w: -%s", ErrMissingFlag, flagName)
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: -%s: %w", ErrInvalidFlag, flagName, err)
	}

	return id, nil
}

func parseDate(flagName, value string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: -%s: %w", ErrInvalidFlag, flagName, err)
	}

	return d, nil
}
