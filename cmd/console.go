package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"user-service/internal/app"
	"user-service/internal/config"
	"user-service/internal/domain/user"
	"user-service/pkg/logger"

	"github.com/spf13/cobra"
)

var consoleBackend string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive user administration menu",
	Long: `Start an interactive menu on stdin/stdout that drives the user service
directly: create, list, find, search, update, delete and count users.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if consoleBackend != "" {
			cfg.Database.Backend = consoleBackend
		}

		application, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		return NewConsole(application.UserService, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().StringVar(&consoleBackend, "backend", "", "Persistence backend: gorm, sqlx or memory (overrides database.backend)")
}

// Console is a line-oriented menu over a UserService.
type Console struct {
	svc user.UserService
	in  *bufio.Scanner
	out io.Writer
}

func NewConsole(svc user.UserService, in io.Reader, out io.Writer) *Console {
	return &Console{svc: svc, in: bufio.NewScanner(in), out: out}
}

// Run loops until the user picks 0 or input ends.
func (c *Console) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		c.printMenu()
		choice, ok := c.readLine()
		if !ok {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}

		var err error
		switch strings.TrimSpace(choice) {
		case "1":
			err = c.createUser(ctx)
		case "2":
			err = c.listUsers(ctx)
		case "3":
			err = c.findByID(ctx)
		case "4":
			err = c.findByName(ctx)
		case "5":
			err = c.updateUser(ctx)
		case "6":
			err = c.deleteUser(ctx)
		case "7":
			err = c.statistics(ctx)
		case "0":
			fmt.Fprintln(c.out, "Bye.")
			return nil
		default:
			fmt.Fprintln(c.out, "Invalid choice, try again.")
		}

		if err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", describe(err))
			logger.Warn("Console operation failed: %v", err)
		}
	}
}

func (c *Console) printMenu() {
	fmt.Fprint(c.out, `
=== User Service ===
1. Create user
2. List all users
3. Find user by ID
4. Find users by name
5. Update user
6. Delete user
7. Statistics
0. Exit
Choose an action: `)
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimRight(c.in.Text(), "\r"), true
}

func (c *Console) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.readLine()
	return line
}

func (c *Console) promptID() (int64, error) {
	raw := strings.TrimSpace(c.prompt("User ID: "))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q", raw)
	}
	return id, nil
}

func parseAge(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid age %q", raw)
	}
	return &age, nil
}

func (c *Console) createUser(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- Create user ---")
	name := c.prompt("Name: ")
	email := c.prompt("Email: ")
	age, err := parseAge(c.prompt("Age (optional): "))
	if err != nil {
		return err
	}

	u, err := c.svc.CreateUser(ctx, &user.CreateUserRequest{Name: name, Email: email, Age: age})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "User created with ID %d\n", u.ID)
	return nil
}

func (c *Console) listUsers(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n--- All users ---")
	users, err := c.svc.ListUsers(ctx)
	if err != nil {
		return err
	}
	c.printUsers(users)
	return nil
}

func (c *Console) findByID(ctx context.Context) error {
	id, err := c.promptID()
	if err != nil {
		return err
	}
	u, err := c.svc.GetUser(ctx, id)
	if err != nil {
		return err
	}
	c.printUsers([]*user.User{u})
	return nil
}

func (c *Console) findByName(ctx context.Context) error {
	name := c.prompt("Name contains: ")
	users, err := c.svc.SearchUsersByName(ctx, name)
	if err != nil {
		return err
	}
	c.printUsers(users)
	return nil
}

// updateUser leaves a field unchanged when its input line is empty.
func (c *Console) updateUser(ctx context.Context) error {
	id, err := c.promptID()
	if err != nil {
		return err
	}
	current, err := c.svc.GetUser(ctx, id)
	if err != nil {
		return err
	}

	var req user.UpdateUserRequest
	if name := c.prompt(fmt.Sprintf("Name [%s]: ", current.Name)); strings.TrimSpace(name) != "" {
		req.Name = &name
	}
	if email := c.prompt(fmt.Sprintf("Email [%s]: ", current.Email)); strings.TrimSpace(email) != "" {
		req.Email = &email
	}
	age, err := parseAge(c.prompt(fmt.Sprintf("Age [%s]: ", formatAge(current.Age))))
	if err != nil {
		return err
	}
	req.Age = age

	u, err := c.svc.UpdateUser(ctx, id, &req)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "User %d updated\n", u.ID)
	return nil
}

func (c *Console) deleteUser(ctx context.Context) error {
	id, err := c.promptID()
	if err != nil {
		return err
	}
	if err := c.svc.DeleteUser(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "User %d deleted\n", id)
	return nil
}

func (c *Console) statistics(ctx context.Context) error {
	n, err := c.svc.CountUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Total users: %d\n", n)
	return nil
}

func (c *Console) printUsers(users []*user.User) {
	if len(users) == 0 {
		fmt.Fprintln(c.out, "No users found")
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tAGE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, formatAge(u.Age), u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
	fmt.Fprintf(c.out, "Total: %d\n", len(users))
}

func formatAge(age *int) string {
	if age == nil {
		return "-"
	}
	return strconv.Itoa(*age)
}

// describe hides persistence causes the same way the HTTP layer does.
func describe(err error) string {
	var svcErr *user.Error
	if errors.As(err, &svcErr) && svcErr.Kind == user.KindPersistence {
		return svcErr.Op + ": " + svcErr.Kind.String()
	}
	return err.Error()
}
