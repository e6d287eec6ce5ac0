package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "book":
		handleBook(args)
	case "member":
		handleMember(args)
	case "circ":
		handleCirc(args)
	case "account":
		handleAccount(args)
	case "events":
		listEvents(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: circulate auth <login|logout|who>")
		return
	}

	switch args[0] {
	case "login":
		login(args[1:])
	case "logout":
		os.Remove(tokenFile())
		fmt.Println("✓ Logged out")
	case "who":
		token := loadToken()
		if token == "" {
			fmt.Println("Not logged in")
			return
		}
		fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleBook(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: circulate book <list|add|show|process>")
		return
	}

	switch args[0] {
	case "list":
		listBooks()
	case "add":
		addBook(args[1:])
	case "show":
		showOne("/books/", args[1:], "book id")
	case "process":
		processQueue(args[1:])
	default:
		fmt.Printf("unknown book command: %s\n", args[0])
	}
}

func handleMember(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: circulate member <list|register|show>")
		return
	}

	switch args[0] {
	case "list":
		listMembers()
	case "register":
		registerMember(args[1:])
	case "show":
		showOne("/members/", args[1:], "member id")
	default:
		fmt.Printf("unknown member command: %s\n", args[0])
	}
}

func handleCirc(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: circulate circ <borrow|return|reserve|cancel|renew|lost|damage>")
		return
	}

	paths := map[string]string{
		"borrow":  "/borrow",
		"return":  "/return",
		"reserve": "/reserve",
		"cancel":  "/reserve/cancel",
		"renew":   "/renew",
		"lost":    "/inventory/lost",
		"damage":  "/inventory/damage",
	}
	path, ok := paths[args[0]]
	if !ok {
		fmt.Printf("unknown circ command: %s\n", args[0])
		return
	}
	circAction(args[0], path, args[1:])
}

func handleAccount(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: circulate account <pay|repair>")
		return
	}

	switch args[0] {
	case "pay":
		payment("pay", "/fines/pay", args[1:])
	case "repair":
		payment("repair", "/credit/repair", args[1:])
	default:
		fmt.Printf("unknown account command: %s\n", args[0])
	}
}

func login(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "staff email")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := post("/login", map[string]any{"email": *email, "password": *password})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Login failed: %v\n", result)
		return
	}
	if token, ok := result["token"].(string); ok {
		saveToken(token)
		fmt.Printf("✓ Logged in as: %s\n", *email)
	}
}

func listBooks() {
	var books []map[string]any
	if err := get("/books", &books); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tAVAILABLE\tTOTAL\tQUEUE")
	for _, b := range books {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n",
			b["id"], b["title"], b["category"], b["availableCopies"], b["totalCopies"], b["reservations"])
	}
	w.Flush()
}

func addBook(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	id := fs.String("id", "", "book id")
	title := fs.String("title", "", "title")
	author := fs.String("author", "", "author")
	category := fs.String("category", "GENERAL", "GENERAL, JOURNAL or RARE")
	copies := fs.Int("copies", 1, "number of copies")
	fs.Parse(args)

	if *id == "" || *title == "" {
		fmt.Println("Error: id and title are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := post("/books", map[string]any{
		"id": *id, "title": *title, "author": *author, "category": *category, "copies": *copies,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusCreated {
		fmt.Printf("✗ Add failed: %v\n", result)
		return
	}
	fmt.Printf("✓ Book added: %s\n", *id)
}

func listMembers() {
	var members []map[string]any
	if err := get("/members", &members); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIER\tSTATUS\tCREDIT\tFINES\tLOANS")
	for _, m := range members {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\t%v\n",
			m["id"], m["name"], m["tier"], m["status"], m["creditScore"], m["fines"], m["openLoans"])
	}
	w.Flush()
}

func registerMember(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "member name")
	email := fs.String("email", "", "email (optional)")
	phone := fs.String("phone", "", "phone (optional)")
	tier := fs.String("tier", "REGULAR", "REGULAR or VIP")
	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	result, status, err := post("/members", map[string]any{
		"name": *name, "email": *email, "phone": *phone, "tier": *tier,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusCreated {
		fmt.Printf("✗ Registration failed: %v\n", result)
		return
	}
	fmt.Printf("✓ Member registered: %v\n", result["id"])
}

func showOne(prefix string, args []string, what string) {
	if len(args) < 1 {
		fmt.Printf("Error: %s is required\n", what)
		return
	}
	var out map[string]any
	if err := get(prefix+args[0], &out); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}

func processQueue(args []string) {
	if len(args) < 1 {
		fmt.Println("Error: book id is required")
		return
	}
	result, status, err := post("/books/"+args[0]+"/process", map[string]any{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ Processing failed: %v\n", result)
		return
	}
	fmt.Printf("✓ Queue processed for %s\n", args[0])
}

func circAction(name, path string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	user := fs.String("user", "", "member id")
	book := fs.String("book", "", "book id")
	fs.Parse(args)

	if *user == "" || *book == "" {
		fmt.Println("Error: user and book are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := post(path, map[string]any{"userId": *user, "bookId": *book})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status >= 300 {
		fmt.Printf("✗ %s failed: %v\n", name, result)
		return
	}
	fmt.Printf("✓ %s ok\n", name)
}

func payment(name, path string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	user := fs.String("user", "", "member id")
	amount := fs.Float64("amount", 0, "payment amount")
	fs.Parse(args)

	if *user == "" || *amount <= 0 {
		fmt.Println("Error: user and a positive amount are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := post(path, map[string]any{"userId": *user, "amount": *amount})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status != http.StatusOK {
		fmt.Printf("✗ %s failed: %v\n", name, result)
		return
	}
	fmt.Printf("✓ %s ok: credit=%v fines=%v status=%v\n", name, result["creditScore"], result["fines"], result["status"])
}

func listEvents(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	eventType := fs.String("type", "", "filter by event type")
	fs.Parse(args)

	path := "/events"
	if *eventType != "" {
		path += "?type=" + *eventType
	}

	var events []map[string]any
	if err := get(path, &events); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTYPE\tBOOK\tMEMBER\tMESSAGE")
	for _, e := range events {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", e["at"], e["type"], e["bookId"], e["userId"], e["message"])
	}
	w.Flush()
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("CIRCULATE_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func get(path string, out any) error {
	req, _ := http.NewRequest(http.MethodGet, getAPIURL()+path, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func post(path string, payload map[string]any) (map[string]any, int, error) {
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, getAPIURL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var result map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode, nil
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.circulate/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.circulate", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Circulate CLI

Usage:
  circulate <command> [options]

Commands:
  auth     Staff authentication (login, logout, who)
  book     Catalog operations (list, add, show, process)
  member   Member operations (list, register, show)
  circ     Circulation (borrow, return, reserve, cancel, renew, lost, damage)
  account  Payments (pay, repair)
  events   Recent circulation events
  help     Show this help message

Environment Variables:
  CIRCULATE_API    API endpoint (default: http://localhost:8080/api)

Examples:
  circulate auth login -email desk@openshelf.io -password desk-secret-1
  circulate book add -id B010 -title "Dune" -author Herbert -copies 2
  circulate circ borrow -user U001 -book B010
  circulate account pay -user U001 -amount 12.50
`)
}
