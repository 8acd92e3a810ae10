package setup

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/rotenaple/ns-fischer/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers raw wizard input.
type answers struct {
	name          string
	webhookURL    string
	nations       string
	userAgent     string
	mention       string
	noPing        bool
	checkSnapshot bool
	snapshotPath  string
	concurrency   string
	debug         bool
}

func defaultAnswers(target string) answers {
	return answers{
		name:          strings.TrimSuffix(filepath.Base(target), filepath.Ext(target)),
		checkSnapshot: true,
		snapshotPath:  config.DefaultSnapshotPath,
		concurrency:   strconv.Itoa(config.DefaultConcurrency),
	}
}

// RunTUI launches the terminal configuration wizard and writes the result to
// target. An existing file is only replaced after confirmation.
func RunTUI(target string) error {
	a := defaultAnswers(target)
	var confirm bool

	// step 1: webhook
	screen("STEP 1: WEBHOOK")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Where should auction reports be posted?\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Config name").
				Description("Shown in logs and the run journal").
				Value(&a.name),
			huh.NewInput().
				Title("Discord webhook URL").
				Value(&a.webhookURL).
				Validate(validateWebhook),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: nations
	screen("STEP 2: NATIONS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Nations to watch").
				Description("Comma separated (e.g. testlandia, the_rejected_realms)").
				Value(&a.nations).
				Validate(func(s string) error {
					if len(splitNations(s)) == 0 {
						return fmt.Errorf("list at least one nation")
					}
					return nil
				}),
			huh.NewInput().
				Title("User agent").
				Description("NationStates requires one that identifies you (e.g. your main nation)").
				Value(&a.userAgent).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("user agent cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: notifications
	screen("STEP 3: NOTIFICATIONS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Mention").
				Description("Pinged before each report, e.g. <@&1234> (empty disables pings)").
				Value(&a.mention),
			huh.NewConfirm().
				Title("Suppress the ping?").
				Value(&a.noPing),
			huh.NewConfirm().
				Title("Only report new orders?").
				Description("Compares each run with the previous snapshot").
				Value(&a.checkSnapshot),
			huh.NewInput().
				Title("Snapshot path").
				Value(&a.snapshotPath),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: advanced
	screen("STEP 4: ADVANCED")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Card lookups in flight").
				Description("Requests are rate limited regardless").
				Value(&a.concurrency).
				Validate(validateConcurrency),
			huh.NewConfirm().
				Title("Debug mode?").
				Description("Verbose logs and a debug message after each run").
				Value(&a.debug),
		),
	).Run()
	if err != nil {
		return err
	}

	tmp, err := a.toTmp()
	if err != nil {
		return err
	}

	// confirmation
	screen("FINAL CONFIRMATION")

	summary := fmt.Sprintf(
		"Name: %s\nNations: %s\nMention: %s\nNew orders only: %t\nTarget: %s\n",
		tmp.Name, strings.Join(tmp.Nations, ", "), tmp.Mention, tmp.CheckSnapshot, target,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	title := "Save Configuration?"
	if _, statErr := os.Stat(target); statErr == nil {
		title = fmt.Sprintf("%s exists. Overwrite it?", target)
	}

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := Write(target, tmp); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", target)))
	return nil
}

// Write encodes conf in the format of target's extension and writes it,
// creating parent directories.
func Write(target string, conf config.ConfigTmp) error {
	data, err := config.Encode([]config.ConfigTmp{conf}, target)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create config dir")
		}
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}

	return nil
}

func screen(step string) {
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("NS-FISCHER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

func (a answers) toTmp() (config.ConfigTmp, error) {
	concurrency, err := strconv.Atoi(strings.TrimSpace(a.concurrency))
	if err != nil {
		return config.ConfigTmp{}, errors.Wrap(err, "concurrency")
	}

	tmp := config.ConfigTmp{
		Name:          strings.TrimSpace(a.name),
		WebhookURL:    strings.TrimSpace(a.webhookURL),
		Nations:       splitNations(a.nations),
		UserAgent:     strings.TrimSpace(a.userAgent),
		DebugMode:     a.debug,
		Mention:       strings.TrimSpace(a.mention),
		NoPing:        a.noPing,
		CheckSnapshot: a.checkSnapshot,
		Concurrency:   concurrency,
	}
	if p := strings.TrimSpace(a.snapshotPath); p != config.DefaultSnapshotPath {
		tmp.SnapshotPath = p
	}

	return tmp, nil
}

func splitNations(s string) []string {
	var out []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func validateWebhook(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL")
	}
	return nil
}

func validateConcurrency(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}
