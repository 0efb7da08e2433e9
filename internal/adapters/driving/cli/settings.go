package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the workspace, import behaviour, AI providers and
inbox directories.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsWorkspaceCmd = &cobra.Command{
	Use:   "workspace [dir]",
	Short: "Set the workspace directory",
	Long: `Set the directory filer organises imports into.
Recommendations are drawn from its existing folder tree.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsWorkspace,
}

var settingsAutoClassifyCmd = &cobra.Command{
	Use:   "auto-classify [on|off]",
	Short: "Save to the recommended directory without confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setToggle(cmd, "Auto-classify", args[0], func(v bool) error {
			return settingsService.SetAutoClassify(v)
		})
	},
}

var settingsAutoIngestCmd = &cobra.Command{
	Use:   "auto-ingest [on|off]",
	Short: "Index saved files into the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setToggle(cmd, "Auto-ingest", args[0], func(v bool) error {
			return settingsService.SetAutoIngest(v)
		})
	},
}

var settingsLocaleCmd = &cobra.Command{
	Use:   "locale [locale]",
	Short: "Set the language for generated descriptions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsLocale,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider for knowledge-base search.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure the LLM provider that recommends directories and describes images.
Choose a multimodal model to describe images.`,
	RunE: runSettingsLLM,
}

var settingsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage inbox directories",
	RunE:  runSettingsWatchList,
}

var settingsWatchAddCmd = &cobra.Command{
	Use:   "add [dir]",
	Short: "Watch an inbox directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsWatchAdd,
}

var settingsWatchRemoveCmd = &cobra.Command{
	Use:   "remove [dir]",
	Short: "Stop watching an inbox directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsWatchRemove,
}

func init() {
	settingsWatchCmd.AddCommand(settingsWatchAddCmd)
	settingsWatchCmd.AddCommand(settingsWatchRemoveCmd)

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsWorkspaceCmd)
	settingsCmd.AddCommand(settingsAutoClassifyCmd)
	settingsCmd.AddCommand(settingsAutoIngestCmd)
	settingsCmd.AddCommand(settingsLocaleCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsWatchCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettings() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Workspace]")
	if settings.Workspace.Root != "" {
		cmd.Printf("  Root: %s\n", settings.Workspace.Root)
	} else {
		cmd.Printf("  Root: (not set)\n")
	}
	cmd.Printf("  Auto-classify: %s\n", onOff(settings.Workspace.AutoClassify))
	cmd.Printf("  Auto-ingest: %s\n", onOff(settings.Workspace.AutoIngest))
	cmd.Printf("  Locale: %s\n", settings.Workspace.Locale)
	cmd.Printf("  Max file size: %d MB\n", settings.Workspace.MaxFileSizeMB)
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model, settings.LLM.BaseURL, settings.LLM.APIKey,
		settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model, settings.Embedding.BaseURL,
		settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Listen: %s\n", settings.Server.Listen)
	cmd.Println()

	cmd.Println("[Watch]")
	if len(settings.Watch.Dirs) == 0 {
		cmd.Println("  (none)")
	}
	for _, dir := range settings.Watch.Dirs {
		cmd.Printf("  %s\n", dir)
	}
	cmd.Println()

	switch {
	case settings.Workspace.Root == "":
		cmd.Println("Warning: no workspace set.")
		cmd.Println("Run 'filer settings wizard' to get started.")
	case !settings.LLM.IsConfigured():
		cmd.Println("Warning: no LLM configured; imports will need a directory chosen by hand.")
		cmd.Println("Run 'filer settings llm' to configure one.")
	default:
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}

	cmd.Println("Filer Settings Wizard")
	cmd.Println("=====================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Workspace
	cmd.Println("Step 1: Workspace Directory")
	cmd.Println("---------------------------")
	current, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	defaultRoot := current.Workspace.Root
	if defaultRoot == "" {
		defaultRoot, _ = os.Getwd() //nolint:errcheck // empty default is acceptable
	}
	cmd.Printf("Enter workspace directory [%s]: ", defaultRoot)
	root := readLine(reader)
	if root == "" {
		root = defaultRoot
	}
	if err := settingsService.SetWorkspaceRoot(root); err != nil {
		return fmt.Errorf("failed to set workspace: %w", err)
	}
	cmd.Printf("Workspace set to: %s\n\n", root)

	// Step 2: LLM Provider
	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("The LLM recommends where each file belongs and describes images.")
	cmd.Println()
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	// Step 3: Embedding Provider
	cmd.Println("Step 3: Knowledge Base (optional)")
	cmd.Println("---------------------------------")
	cmd.Print("Index saved files for semantic search? [Y/n]: ")
	if answer := strings.ToLower(readLine(reader)); answer == "n" || answer == "no" {
		if err := settingsService.SetAutoIngest(false); err != nil {
			return fmt.Errorf("failed to set auto-ingest: %w", err)
		}
		cmd.Println("Knowledge base disabled.")
		cmd.Println()
	} else {
		if err := configureEmbeddingProvider(cmd, reader); err != nil {
			return err
		}
		if err := settingsService.SetAutoIngest(true); err != nil {
			return fmt.Errorf("failed to set auto-ingest: %w", err)
		}
	}

	// Step 4: Confirmation
	cmd.Println("Step 4: Confirmation")
	cmd.Println("--------------------")
	cmd.Print("Save to the recommended directory without asking? [y/N]: ")
	answer := strings.ToLower(readLine(reader))
	auto := answer == "y" || answer == "yes"
	if err := settingsService.SetAutoClassify(auto); err != nil {
		return fmt.Errorf("failed to set auto-classify: %w", err)
	}
	cmd.Println()

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("Import a file with 'filer import <path>'.")

	return nil
}

func runSettingsWorkspace(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.SetWorkspaceRoot(args[0]); err != nil {
		return fmt.Errorf("failed to set workspace: %w", err)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	cmd.Printf("Workspace set to: %s\n", settings.Workspace.Root)
	return nil
}

func runSettingsLocale(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.SetLocale(strings.TrimSpace(args[0])); err != nil {
		return fmt.Errorf("failed to set locale: %w", err)
	}
	cmd.Printf("Locale set to: %s\n", args[0])
	return nil
}

func setToggle(cmd *cobra.Command, name, value string, set func(bool) error) error {
	if err := requireSettings(); err != nil {
		return err
	}
	enabled, err := parseToggle(value)
	if err != nil {
		return err
	}
	if err := set(enabled); err != nil {
		return fmt.Errorf("failed to update %s: %w", strings.ToLower(name), err)
	}
	cmd.Printf("%s: %s\n", name, onOff(enabled))
	return nil
}

func runSettingsWatchList(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if len(settings.Watch.Dirs) == 0 {
		cmd.Println("No inbox directories.")
		return nil
	}
	for _, dir := range settings.Watch.Dirs {
		cmd.Println(dir)
	}
	return nil
}

func runSettingsWatchAdd(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.AddWatchDir(args[0]); err != nil {
		return fmt.Errorf("failed to add watch directory: %w", err)
	}
	cmd.Printf("Watching: %s\n", args[0])
	return nil
}

func runSettingsWatchRemove(cmd *cobra.Command, args []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	if err := settingsService.RemoveWatchDir(args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%s is not watched", args[0])
		}
		return fmt.Errorf("failed to remove watch directory: %w", err)
	}
	cmd.Printf("Stopped watching: %s\n", args[0])
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := requireSettings(); err != nil {
		return err
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(reader *bufio.Reader) string {
	// Try to read password without echo
	if stdinIsTerminal() {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func parseToggle(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", value)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
