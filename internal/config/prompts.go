package config

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// readPassword is swapped out in tests; masked input needs a real terminal.
var readPassword = func() (string, error) {
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b), err
}

// Collect fills every empty field interactively. Fields already present from
// the answers file or environment are kept and shown, not re-asked.
func (c *Config) Collect(reader *bufio.Reader) error {
	fmt.Printf("\n%s\n", bold("Dockhand deployment setup"))
	fmt.Println("Answer the prompts below. Press Enter to accept defaults.")

	if c.RepoURL == "" {
		fmt.Printf("\n%s GitHub repository URL (e.g. %s):\n", cyan("›"), GitHubPrefix+"acme/app")
		c.RepoURL = readRequired(reader, "repository URL")
	} else {
		fmt.Printf("\n%s Repository: %s\n", cyan("›"), c.RepoURL)
	}
	c.RepoURL = strings.TrimRight(c.RepoURL, "/")

	if c.Token == "" && !c.LookupToken() {
		fmt.Printf("\n%s Personal Access Token (input hidden):\n", cyan("›"))
		tok, err := readPassword()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		c.Token = strings.TrimSpace(tok)
	}

	if err := c.collectTarget(reader); err != nil {
		return err
	}

	if c.AppPort == 0 {
		fmt.Printf("\n%s Application port inside the container (default: 3000)\n", cyan("›"))
		portStr := readWithDefault(reader, "3000")
		port, err := strconv.Atoi(strings.TrimSpace(portStr))
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", portStr, err)
		}
		c.AppPort = port
	}

	return nil
}

// CollectTarget gathers only the SSH connection inputs; cleanup mode uses it
// to avoid re-asking for the repository and port.
func (c *Config) CollectTarget(reader *bufio.Reader) error {
	fmt.Printf("\n%s\n", bold("Dockhand cleanup"))
	return c.collectTarget(reader)
}

func (c *Config) collectTarget(reader *bufio.Reader) error {
	if c.Host == "" {
		fmt.Printf("\n%s Server hostname or IP address:\n", cyan("›"))
		c.Host = readRequired(reader, "server host")
	}
	if c.User == "" {
		fmt.Printf("\n%s SSH username (default: root)\n", cyan("›"))
		c.User = readWithDefault(reader, "root")
	}
	if c.KeyPath == "" {
		fmt.Printf("\n%s Path to SSH private key (default: ~/.ssh/id_rsa)\n", cyan("›"))
		c.KeyPath = readWithDefault(reader, "~/.ssh/id_rsa")
	}
	c.ExpandKeyPath()
	return nil
}

// Summary prints the collected configuration before the run starts.
func (c *Config) Summary() {
	fmt.Printf("\n%s\n", bold("Deployment plan"))
	fmt.Printf("  Repository: %s\n", c.RepoURL)
	fmt.Printf("  Target:     %s@%s\n", c.User, c.Host)
	fmt.Printf("  SSH key:    %s\n", c.KeyPath)
	fmt.Printf("  App port:   %d\n", c.AppPort)
	fmt.Printf("  %s\n\n", yellow("Existing deployment state on the target will be replaced."))
}

func readRequired(reader *bufio.Reader, fieldName string) string {
	for {
		fmt.Printf("> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			return input
		}
		fmt.Printf("%s is required. Please enter a value.\n", fieldName)
	}
}

func readWithDefault(reader *bufio.Reader, defaultValue string) string {
	fmt.Printf("(default: %s) > ", defaultValue)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}
