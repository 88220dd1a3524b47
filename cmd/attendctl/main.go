package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"attenddash/internal/backend"
	"attenddash/internal/export"
	"attenddash/internal/session"
	"attenddash/internal/view"
)

// Default backend base URL; can override with ATTENDDASH_BACKEND env var or
// --server flag.
var serverBaseURL = "http://localhost:8000"

const sessionID = "default"

func main() {
	cmd := flag.String("cmd", "records", "Command: login|logout|whoami|records|export")
	email := flag.String("email", "", "Admin email (for login)")
	filter := flag.String("filter", "", "Name filter applied to records output")
	out := flag.String("out", "attendance_report.csv", "Output file for export")
	format := flag.String("format", "csv", "Export format: csv|xlsx")
	serverFlag := flag.String("server", "", "Override backend base URL")
	flag.Parse()

	if env := os.Getenv("ATTENDDASH_BACKEND"); env != "" {
		serverBaseURL = strings.TrimRight(env, "/")
	}
	if *serverFlag != "" {
		serverBaseURL = strings.TrimRight(*serverFlag, "/")
	}

	store, err := session.NewFileStore("attendctl")
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	client := backend.New(serverBaseURL)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var runErr error
	switch *cmd {
	case "login":
		runErr = runLogin(ctx, client, store, *email)
	case "logout":
		runErr = store.Clear(ctx, sessionID)
		if runErr == nil {
			fmt.Println("Logged out.")
		}
	case "whoami":
		runErr = runWhoami(ctx, store)
	case "records":
		runErr = runRecords(ctx, client, store, *filter)
	case "export":
		runErr = runExport(ctx, client, store, *format, *out)
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Println("Error:", runErr)
		os.Exit(1)
	}
}

func runLogin(ctx context.Context, client *backend.Client, store *session.FileStore, email string) error {
	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		email = strings.TrimSpace(line)
	}
	fmt.Print("Password: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	password := strings.TrimSpace(line)

	cred, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, sessionID, cred); err != nil {
		return err
	}
	fmt.Println("Logged in as", cred.Admin)
	return nil
}

func runWhoami(ctx context.Context, store *session.FileStore) error {
	cred, ok, err := store.Read(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not logged in")
	}
	fmt.Println(cred.Admin)
	return nil
}

func runRecords(ctx context.Context, client *backend.Client, store *session.FileStore, filter string) error {
	cred, ok, err := store.Read(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not logged in; run -cmd login first")
	}

	records, err := client.ListRecords(ctx, cred.Token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			_ = store.Clear(ctx, sessionID)
			return errors.New("Unauthorized. Please log in again.")
		}
		return err
	}

	table := view.Build(records)
	if filter != "" {
		table = table.Filter(filter)
	}
	printTable(table)
	return nil
}

func runExport(ctx context.Context, client *backend.Client, store *session.FileStore, format, out string) error {
	exp := &export.Exporter{Backend: client, Store: store, SessionID: sessionID}

	var data []byte
	var err error
	switch format {
	case "xlsx":
		data, err = exp.XLSX(ctx)
	default:
		data, err = exp.CSV(ctx)
	}
	if err != nil {
		if errors.Is(err, export.ErrNotLoggedIn) {
			return errors.New("not logged in; run -cmd login first")
		}
		if errors.Is(err, backend.ErrUnauthorized) {
			_ = store.Clear(ctx, sessionID)
			return errors.New("Unauthorized. Please log in again.")
		}
		return fmt.Errorf("export failed: %w", err)
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Println("Report written to", out)
	return nil
}

func printTable(t view.Table) {
	if t.Empty {
		fmt.Println(view.EmptyMessage)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tID\tTIME\tSTATUS")
	for _, row := range t.Visible() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", row.Index, row.Name, row.ID, row.Time, row.Status)
	}
	w.Flush()
}
