// accessctl is the operator tool for the access service: it exports the
// permission catalog, answers offline access checks and manages the
// session audit jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/rms-platform/rms-access/cmd/accessctl/cli"
	"github.com/rms-platform/rms-access/internal/rbac"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return nil
	}
	if err := rbac.ValidateCatalog(); err != nil {
		return err
	}
	switch args[0] {
	case "catalog":
		return runCatalog(args[1:], out)
	case "check":
		return runCheck(args[1:], out)
	case "jobs":
		return runJobs(args[1:], out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runCatalog(args []string, out io.Writer) error {
	var format string
	flagSet := pflag.NewFlagSet("catalog", pflag.ContinueOnError)
	flagSet.StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	return cli.WriteCatalog(out, format)
}

func runCheck(args []string, out io.Writer) error {
	var roles, permissions []string
	var requireAll bool
	flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
	flagSet.StringSliceVarP(&roles, "role", "r", nil, "role held by the principal (repeatable)")
	flagSet.StringSliceVarP(&permissions, "permission", "p", nil, "permission to test (repeatable)")
	flagSet.BoolVar(&requireAll, "all", false, "require every permission instead of any")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	result := cli.Check(roles, permissions, requireAll)
	mode := "any"
	if result.RequireAll {
		mode = "all"
	}
	verdict := "denied"
	if result.Allowed {
		verdict = "allowed"
	}
	_, err := fmt.Fprintf(out, "%s (mode=%s roles=%v permissions=%v)\n", verdict, mode, result.Roles, result.Permissions)
	return err
}

func runJobs(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("jobs: expected stats or trigger")
	}
	var redisAddr string
	var retention time.Duration
	flagSet := pflag.NewFlagSet("jobs", pflag.ContinueOnError)
	flagSet.StringVar(&redisAddr, "redis-addr", "", "redis address used by asynq (default $REDIS_ADDR)")
	flagSet.DurationVar(&retention, "retention", 90*24*time.Hour, "audit retention for the prune job")
	if err := flagSet.Parse(args[1:]); err != nil {
		return err
	}

	redisOpts, err := cli.RedisOptions(redisAddr)
	if err != nil {
		return err
	}
	jobsCLI, err := cli.NewJobsCLI(redisOpts)
	if err != nil {
		return err
	}
	defer jobsCLI.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return err
	case "trigger":
		rest := flagSet.Args()
		if len(rest) != 1 {
			return errors.New("jobs trigger: expected exactly one job name")
		}
		info, err := jobsCLI.Trigger(ctx, rest[0], retention)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return err
	default:
		return fmt.Errorf("jobs: unknown subcommand %q", args[0])
	}
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `accessctl manages the access service.

Usage:
  accessctl catalog [--format yaml|json]
  accessctl check --role ROLE [--role ROLE] --permission PERM [--permission PERM] [--all]
  accessctl jobs stats [--redis-addr ADDR]
  accessctl jobs trigger auth:session_audit_prune [--retention 2160h] [--redis-addr ADDR]
`)
}
