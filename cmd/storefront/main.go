package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"brewcart/internal/api"
	"brewcart/internal/cart"
	"brewcart/internal/catalog"
	"brewcart/internal/config"
	"brewcart/internal/guard"
	"brewcart/internal/localstore"
	"brewcart/internal/oauth"
	"brewcart/internal/session"
	"brewcart/internal/timeutil"
	"brewcart/internal/toast"
	"brewcart/internal/verify"
)

// app bundles the stores the command loop operates on.
type app struct {
	api      *api.Client
	sessions *session.Store
	cart     *cart.Store
	catalog  *catalog.Service
	guard    *guard.Guard
	toasts   *toast.Notifier
	google   *oauth.Google
	reader   *bufio.Reader
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	clock := timeutil.System()

	db, err := localstore.Open(cfg.StorageType, cfg.StoragePath, cfg.StorageURL)
	if err != nil {
		log.Fatalf("Failed to open local store: %v", err)
	}
	defer db.Close()

	local, err := localstore.NewStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize local store: %v", err)
	}

	sessions := session.NewStore(nil, local, []byte(cfg.DeviceSecret), clock)
	client := api.NewClient(cfg.APIBaseURL, api.WithTokenSource(sessions))
	sessions.SetAPI(client)

	basket := cart.NewStore(local)
	shop := catalog.NewService(client)
	gate := guard.New(sessions)
	toasts := toast.NewNotifier(clock, toast.DefaultTTL)
	google := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL, client)

	// A rejected credential tears the session down no matter which call
	// hit it, and cached catalog data dies with the identity.
	client.OnUnauthorized(sessions.HandleUnauthorized)
	sessions.OnClear(shop.Invalidate)
	sessions.OnClear(func() { toasts.Warning("Signed out", "Your session has ended. Please sign in again.") })

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	toasts.StartSweeper(sweepCtx, time.Minute)

	if err := sessions.Rehydrate(); err != nil {
		log.Fatalf("Failed to restore session: %v", err)
	}
	if err := basket.Load(); err != nil {
		log.Fatalf("Failed to restore cart: %v", err)
	}

	a := &app{
		api:      client,
		sessions: sessions,
		cart:     basket,
		catalog:  shop,
		guard:    gate,
		toasts:   toasts,
		google:   google,
		reader:   bufio.NewReader(os.Stdin),
	}
	a.run()
}

func (a *app) run() {
	fmt.Println("brewcart storefront. Type 'help' for commands.")
	if current := a.sessions.Current(); current != nil {
		fmt.Printf("Welcome back, %s.\n", current.Identity.Name)
	}

	for {
		a.drainToasts()
		fmt.Print("> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		ctx := context.Background()
		switch fields[0] {
		case "help":
			printHelp()
		case "login":
			a.login(ctx)
		case "register":
			a.register(ctx)
		case "verify":
			a.verifyEmail(ctx)
		case "forgot":
			a.forgotPassword(ctx)
		case "google":
			a.googleLogin(ctx)
		case "logout":
			a.logout()
		case "whoami":
			a.whoami()
		case "products":
			a.listProducts(ctx)
		case "testimonials":
			a.listTestimonials(ctx)
		case "add":
			a.addToCart(ctx, fields[1:])
		case "remove":
			a.removeFromCart(fields[1:])
		case "qty":
			a.setQuantity(fields[1:])
		case "cart":
			a.showCart()
		case "checkout":
			a.checkout()
		case "admins":
			a.listAdmins(ctx)
		case "quit", "exit":
			return
		default:
			fmt.Printf("Unknown command %q. Type 'help'.\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println(`Commands:
  login         sign in with email and password
  register      create an account
  verify        enter the emailed 6-digit verification code
  forgot        reset a forgotten password
  google        sign in with Google
  logout        sign out
  whoami        show the current session
  products      list the catalog
  testimonials  list customer testimonials
  add <id> [n]  add a product to the cart
  remove <id>   remove a product from the cart
  qty <id> <n>  change a line's quantity
  cart          show the cart
  checkout      review the order (requires sign in)
  admins        list admin accounts (super admin only)
  quit          exit`)
}

func (a *app) drainToasts() {
	for _, t := range a.toasts.Active() {
		fmt.Printf("[%s] %s", t.Severity, t.Title)
		if t.Body != "" {
			fmt.Printf(": %s", t.Body)
		}
		fmt.Println()
		a.toasts.Dismiss(t.ID)
	}
}

func (a *app) prompt(label string) string {
	fmt.Printf("%s: ", label)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (a *app) promptPassword(label string) string {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(raw)
}

func (a *app) login(ctx context.Context) {
	email := a.prompt("Email")
	if email == "" {
		if remembered, ok := a.sessions.RememberedEmail(); ok {
			email = remembered
			fmt.Printf("Using remembered email %s\n", email)
		}
	}
	password := a.promptPassword("Password")
	remember := strings.EqualFold(a.prompt("Remember me? (y/n)"), "y")

	if err := a.sessions.Login(ctx, email, password, remember); err != nil {
		a.toasts.Error("Login failed", api.UserMessage(err))
		return
	}
	a.toasts.Success("Signed in", a.sessions.Current().Identity.Name)
}

func (a *app) register(ctx context.Context) {
	name := a.prompt("Name")
	email := a.prompt("Email")
	password := a.promptPassword("Password")

	if err := a.sessions.Register(ctx, name, email, password, false); err != nil {
		a.toasts.Error("Registration failed", api.UserMessage(err))
		return
	}
	if pending, ok := a.sessions.PendingVerificationEmail(); ok {
		fmt.Printf("A verification code was sent to %s. Run 'verify' to confirm.\n", pending)
	}
}

// runCodeEntry drives a six digit flow until it succeeds, the user
// gives up, or the flow locks.
func (a *app) runCodeEntry(ctx context.Context, flow *verify.Flow) bool {
	fmt.Println("Enter the 6-digit code, 'resend' for a new one, or 'cancel'.")
	for {
		if flow.Locked() {
			fmt.Printf("Too many failed attempts. Locked for %s.\n", flow.LockRemaining().Round(1e9))
			return false
		}

		input := a.prompt(fmt.Sprintf("Code (%d attempts left)", flow.AttemptsRemaining()))
		switch input {
		case "cancel":
			return false
		case "resend":
			sent, err := flow.Resend(ctx)
			switch {
			case errors.Is(err, verify.ErrLocked):
				fmt.Printf("Locked for %s.\n", flow.LockRemaining().Round(1e9))
			case err != nil:
				a.toasts.Error("Resend failed", api.UserMessage(err))
			case sent:
				a.toasts.Info("Code sent", "Check your inbox.")
			default:
				fmt.Printf("Please wait %s before requesting another code.\n", flow.ResendRemaining().Round(1e9))
			}
			continue
		}

		err := flow.Paste(ctx, input)
		switch {
		case err == nil:
			return true
		case errors.Is(err, verify.ErrMalformedPaste):
			fmt.Println("That is not a 6-digit code.")
		case errors.Is(err, verify.ErrLocked):
			// handled at the top of the loop
		case errors.Is(err, api.ErrVerificationFailed):
			fmt.Printf("Wrong code. %d attempts remaining.\n", flow.AttemptsRemaining())
		default:
			a.toasts.Error("Verification failed", api.UserMessage(err))
		}
	}
}

func (a *app) verifyEmail(ctx context.Context) {
	email, ok := a.sessions.PendingVerificationEmail()
	if !ok {
		email = a.prompt("Email to verify")
	}
	if email == "" {
		return
	}

	flow := verify.NewFlow(verify.EmailVerification{Client: a.api}, email, timeutil.System())
	if !a.runCodeEntry(ctx, flow) {
		return
	}
	if err := a.sessions.CompleteVerification(); err != nil {
		log.Printf("Failed to record verification: %v", err)
	}
	a.toasts.Success("Email verified", "Your account is ready.")
}

func (a *app) forgotPassword(ctx context.Context) {
	email := a.prompt("Account email")
	if err := a.api.ForgotPassword(ctx, email); err != nil {
		a.toasts.Error("Reset failed", api.UserMessage(err))
		return
	}

	flow := verify.NewFlow(verify.PasswordReset{Client: a.api}, email, timeutil.System())
	if !a.runCodeEntry(ctx, flow) {
		return
	}

	password := a.promptPassword("New password")
	if err := a.api.ResetPassword(ctx, flow.Token(), password); err != nil {
		a.toasts.Error("Reset failed", api.UserMessage(err))
		return
	}
	a.toasts.Success("Password updated", "Sign in with your new password.")
}

func (a *app) googleLogin(ctx context.Context) {
	if !a.google.Configured() {
		fmt.Println("Google sign-in is not configured.")
		return
	}

	authURL, state := a.google.Begin()
	fmt.Printf("Open this URL and approve access:\n  %s\n", authURL)
	gotState := a.prompt("State from callback")
	code := a.prompt("Code from callback")

	result, err := a.google.Complete(ctx, state, gotState, code)
	if err != nil {
		a.toasts.Error("Google sign-in failed", api.UserMessage(err))
		return
	}
	if err := a.sessions.InstallExternal(result.Token, result.User); err != nil {
		a.toasts.Error("Google sign-in failed", api.UserMessage(err))
		return
	}
	if result.NeedsPassword {
		password := a.promptPassword("Choose a password for email sign-in")
		if err := a.api.GoogleSetPassword(ctx, password); err != nil {
			a.toasts.Error("Password not saved", api.UserMessage(err))
		}
	}
	a.toasts.Success("Signed in with Google", result.User.Name)
}

func (a *app) logout() {
	if err := a.sessions.Logout(); err != nil {
		log.Printf("Failed to sign out cleanly: %v", err)
	}
	fmt.Println("Signed out.")
}

func (a *app) whoami() {
	current := a.sessions.Current()
	if current == nil {
		fmt.Println("Not signed in.")
		return
	}
	fmt.Printf("%s <%s> role=%s verified=%v\n",
		current.Identity.Name, current.Identity.Email, current.Identity.Role, current.Identity.Verified)
}

func (a *app) listProducts(ctx context.Context) {
	products, err := a.catalog.Products(ctx)
	if err != nil {
		a.toasts.Error("Could not load products", api.UserMessage(err))
		return
	}
	for _, p := range products {
		fmt.Printf("  %-8s %-28s $%.2f  [%s]\n", p.ID, p.Name, p.Price, p.Category)
	}
}

func (a *app) listTestimonials(ctx context.Context) {
	quotes, err := a.catalog.Testimonials(ctx)
	if err != nil {
		a.toasts.Error("Could not load testimonials", api.UserMessage(err))
		return
	}
	for _, q := range quotes {
		fmt.Printf("  %q by %s (%d/5)\n", q.Quote, q.Author, q.Rating)
	}
}

func (a *app) addToCart(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Println("Usage: add <product-id> [n]")
		return
	}
	quantity := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			fmt.Println("Quantity must be a positive number.")
			return
		}
		quantity = n
	}
	product, err := a.catalog.Product(ctx, args[0])
	if err != nil {
		a.toasts.Error("Could not add to cart", api.UserMessage(err))
		return
	}
	if err := a.cart.Add(*product, quantity); err != nil {
		log.Printf("Failed to persist cart: %v", err)
		return
	}
	a.toasts.Success("Added to cart", product.Name)
}

func (a *app) removeFromCart(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: remove <product-id>")
		return
	}
	if err := a.cart.Remove(args[0]); err != nil {
		log.Printf("Failed to persist cart: %v", err)
	}
}

func (a *app) setQuantity(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: qty <product-id> <n>")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Println("Quantity must be a number.")
		return
	}
	if err := a.cart.SetQuantity(args[0], n); err != nil {
		log.Printf("Failed to persist cart: %v", err)
	}
}

func (a *app) showCart() {
	items := a.cart.Items()
	if len(items) == 0 {
		fmt.Println("Your cart is empty.")
		return
	}
	for _, item := range items {
		fmt.Printf("  %dx %-28s $%.2f\n", item.Quantity, item.Name, item.Subtotal())
	}
	fmt.Printf("  %d items, total $%.2f\n", a.cart.TotalCount(), a.cart.TotalPrice())
}

func (a *app) checkout() {
	decision := a.guard.Decide(guard.AuthOnly, "/checkout")
	if !a.enter(decision) {
		return
	}
	if a.cart.TotalCount() == 0 {
		fmt.Println("Your cart is empty.")
		return
	}
	fmt.Printf("Order for %s: %d items, $%.2f. (Payment happens on the website.)\n",
		a.sessions.Current().Identity.Email, a.cart.TotalCount(), a.cart.TotalPrice())
}

func (a *app) listAdmins(ctx context.Context) {
	decision := a.guard.Decide(guard.SuperAdminOnly, "/admin/users")
	if !a.enter(decision) {
		return
	}
	admins, err := a.api.ListAdmins(ctx)
	if err != nil {
		a.toasts.Error("Could not load admins", api.UserMessage(err))
		return
	}
	for _, admin := range admins {
		fmt.Printf("  %-28s %-10s %s\n", admin.Email, admin.Role, admin.Name)
	}
}

// enter applies a guard decision to the command loop.
func (a *app) enter(decision guard.Decision) bool {
	switch {
	case decision.Placeholder:
		fmt.Println("Still loading your session, try again in a moment.")
	case decision.Allow:
		return true
	case decision.Reason == guard.ReasonUnauthenticated:
		fmt.Printf("Please sign in first (wanted %s).\n", decision.From)
	case decision.Reason == guard.ReasonForbidden:
		fmt.Println("You do not have permission to do that.")
	default:
		fmt.Printf("Redirected to %s.\n", decision.RedirectTo)
	}
	return false
}
