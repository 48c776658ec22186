package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/agentlens/agentlens"
	"github.com/agentlens/agentlens/a2a"
	"github.com/agentlens/agentlens/config"
	"github.com/agentlens/agentlens/discovery"
	"github.com/agentlens/agentlens/finding"
	"github.com/agentlens/agentlens/mcp"
	"github.com/agentlens/agentlens/rule"
	"github.com/agentlens/agentlens/scan"
	"github.com/agentlens/agentlens/serve"
	"github.com/agentlens/agentlens/ucp"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "validate":
		os.Exit(runCheck(os.Args[2:], true))
	case "scan":
		os.Exit(runCheck(os.Args[2:], false))
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "version":
		fmt.Println("agentlens", agentlens.Version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `agentlens - compliance validator and security scanner for agent protocols

Usage:
  agentlens validate --type {mcp|a2a|ucp} --url <target> [--auth <type> --token <value> --header <name>] [--timeout 10s] [--json]
  agentlens scan     --type {mcp|a2a}     --url <target> [--auth <type> --token <value> --header <name>] [--fail-on <severity>] [--no-probe] [--timeout 10s] [--json]
  agentlens serve    [--config agentlens.yaml] [--addr :8080]
  agentlens version

Exit codes: 0 ok, 1 findings at or above --fail-on (scan) or critical
non-compliance (validate), 2 invocation or connection error.
`)
}

type checkFlags struct {
	typ     string
	url     string
	auth    string
	token   string
	header  string
	failOn  string
	timeout time.Duration
	asJSON  bool
	noProbe bool
}

func parseCheckFlags(name string, args []string, withScanFlags bool) (*checkFlags, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cf := &checkFlags{}
	fs.StringVar(&cf.typ, "type", "", "Protocol: mcp, a2a, or ucp")
	fs.StringVar(&cf.url, "url", "", "Target URL")
	fs.StringVar(&cf.auth, "auth", "", "Credential type: bearer, basic, or apiKey")
	fs.StringVar(&cf.token, "token", "", "Credential value")
	fs.StringVar(&cf.header, "header", "", "Credential header name (default Authorization)")
	fs.DurationVar(&cf.timeout, "timeout", 30*time.Second, "Overall deadline for the run")
	fs.BoolVar(&cf.asJSON, "json", false, "Emit raw JSON instead of text")
	if withScanFlags {
		fs.StringVar(&cf.failOn, "fail-on", "", "Exit 1 when findings at or above this severity exist")
		fs.BoolVar(&cf.noProbe, "no-probe", false, "Skip the live unauthenticated probe (a2a only)")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cf.typ == "" || cf.url == "" {
		return nil, fmt.Errorf("--type and --url are required")
	}
	return cf, nil
}

func (cf *checkFlags) credential() (discovery.Credential, error) {
	if cf.auth == "" {
		return discovery.Credential{}, nil
	}
	cred := discovery.Credential{
		Type:       discovery.CredentialType(cf.auth),
		Value:      cf.token,
		HeaderName: cf.header,
	}
	if !cred.Type.IsValid() {
		return discovery.Credential{}, fmt.Errorf("unknown --auth type %q", cf.auth)
	}
	return cred, nil
}

// runCheck drives one validate or scan invocation. validateOnly selects
// the compliance path; otherwise the security path runs.
func runCheck(args []string, validateOnly bool) int {
	name := "scan"
	if validateOnly {
		name = "validate"
	}
	cf, err := parseCheckFlags(name, args, !validateOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "agentlens:", err)
		return 2
	}
	cred, err := cf.credential()
	if err != nil {
		fmt.Fprintln(os.Stderr, "agentlens:", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), cf.timeout)
	defer cancel()

	if validateOnly {
		return runValidate(ctx, cf, cred)
	}
	return runScan(ctx, cf, cred)
}

func runValidate(ctx context.Context, cf *checkFlags, cred discovery.Credential) int {
	var (
		report rule.Report
		err    error
	)
	switch cf.typ {
	case "mcp":
		report, err = mcp.Validate(ctx, cf.url, mcp.Options{Credential: cred})
	case "a2a":
		report, err = a2a.Validate(ctx, cf.url, a2a.Options{Credential: cred})
	case "ucp":
		report, err = ucp.Validate(ctx, cf.url, ucp.Options{Credential: cred})
	default:
		fmt.Fprintf(os.Stderr, "agentlens: unknown --type %q\n", cf.typ)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "agentlens:", err)
		return 2
	}

	if cf.asJSON {
		emitJSON(report)
	} else {
		printReport(report)
	}
	if !report.Compliant() {
		return 1
	}
	return 0
}

func runScan(ctx context.Context, cf *checkFlags, cred discovery.Credential) int {
	var (
		result scan.Result
		err    error
	)
	switch cf.typ {
	case "mcp":
		result, err = mcp.Scan(ctx, cf.url, mcp.Options{Credential: cred})
	case "a2a":
		result, err = a2a.Scan(ctx, cf.url, a2a.Options{Credential: cred, Probe: !cf.noProbe})
	case "ucp":
		fmt.Fprintln(os.Stderr, "agentlens: security scanning is not available for ucp targets")
		return 2
	default:
		fmt.Fprintf(os.Stderr, "agentlens: unknown --type %q\n", cf.typ)
		return 2
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "agentlens:", err)
		return 2
	}

	if cf.asJSON {
		emitJSON(result)
	} else {
		printFindings(result)
	}

	if cf.failOn != "" {
		threshold, perr := finding.ParseSeverity(cf.failOn)
		if perr != nil {
			fmt.Fprintln(os.Stderr, "agentlens:", perr)
			return 2
		}
		if finding.AtOrAbove(result.Findings, threshold) > 0 {
			return 1
		}
	}
	return 0
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to agentlens.yaml (optional)")
	addr := fs.String("addr", "", "Listen address override")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "agentlens:", err)
		return 2
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	server, err := serve.NewServer(cfg, logger, otel.Meter("agentlens"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "agentlens:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Error("server exited", "error", err)
		return 2
	}
	return 0
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func emitJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func printReport(report rule.Report) {
	fmt.Printf("Subject:  %s\n", report.Subject)
	if report.ResolvedLocation != "" && report.ResolvedLocation != report.Subject {
		fmt.Printf("Resolved: %s\n", report.ResolvedLocation)
	}
	fmt.Printf("Spec:     %s\n\n", report.SpecVersion)
	for _, res := range report.Results {
		mark := "PASS"
		if !res.Passed {
			mark = strings.ToUpper(res.Severity.String())
		}
		fmt.Printf("[%s] %-28s %s\n", mark, res.RuleID, res.Message)
	}
	fmt.Printf("\n%d passed, %d failed, %d warnings\n",
		report.PassedCount, report.FailedCount, report.WarningCount)
}

func printFindings(result scan.Result) {
	if len(result.Findings) == 0 {
		fmt.Println("No findings.")
		return
	}
	for _, f := range result.Findings {
		fmt.Printf("[%s] %s\n", strings.ToUpper(f.Severity.String()), f.Title)
		if f.Subject != "" {
			fmt.Printf("  subject:  %s\n", f.Subject)
		}
		fmt.Printf("  %s\n", f.Description)
		if f.Evidence != "" {
			fmt.Printf("  evidence: %s\n", f.Evidence)
		}
		if f.Recommendation != "" {
			fmt.Printf("  fix:      %s\n", f.Recommendation)
		}
	}
	s := result.Summary
	fmt.Printf("\n%d findings: %d critical, %d high, %d medium, %d low, %d info\n",
		s.Total, s.Critical, s.High, s.Medium, s.Low, s.Info)
}
