package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/revlauncher/internal/config"
	"github.com/dshills/revlauncher/internal/config/loader"
	"github.com/dshills/revlauncher/internal/settings/java"
	"github.com/dshills/revlauncher/internal/settings/jvm"
	"github.com/dshills/revlauncher/internal/settings/registry"
	versionpkg "github.com/dshills/revlauncher/internal/version"
)

// parseScope accepts a numeric scope id or "global".
func parseScope(s string) (int, error) {
	if strings.EqualFold(s, "global") {
		return registry.GlobalScope, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid scope %q: expected an integer or \"global\"", s)
	}
	return id, nil
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <scope> <item>",
		Short: "Print the effective value of a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(args[0])
			if err != nil {
				return err
			}
			reg, err := a.open()
			if err != nil {
				return err
			}
			value, err := reg.GetValue(scope, args[1])
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout()).JSON(value)
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <scope> <item> [values...]",
		Short: "Apply a change request to a setting",
		Long: `Apply a change request to a setting and persist it.

Changing an item a workspace scope has never changed first copies the current
global value into the scope, so the global store is never affected.

java values:
  <path>                   add (or re-probe) an installation
  add <path> [version]     add an installation, optionally with a known version
  remove <path>            remove an installation
  select <index|path>      choose the installation used for launching

memory values:
  <mb> | max <mb>          maximum heap size
  min <mb>                 initial heap size`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(args[0])
			if err != nil {
				return err
			}
			reg, err := a.open()
			if err != nil {
				return err
			}
			if err := reg.ChangeValue(scope, args[1], args[2:]); err != nil {
				return err
			}
			value, err := reg.GetValue(scope, args[1])
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout()).JSON(value)
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <scope> <item>",
		Short: "Drop a scope's override so the item follows the global value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(args[0])
			if err != nil {
				return err
			}
			reg, err := a.open()
			if err != nil {
				return err
			}
			if err := reg.Reset(scope, args[1]); err != nil {
				return err
			}
			value, err := reg.GetValue(scope, args[1])
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout()).JSON(value)
		},
	}
}

func newScopesCmd(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "scopes",
		Short: "List registered workspace scopes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.open()
			if err != nil {
				return err
			}
			if check {
				if err := reg.Preload(); err != nil {
					return err
				}
			}

			p := newPrinter(cmd.OutOrStdout())
			names := reg.Schema().Names()
			for _, e := range reg.Scopes() {
				var overridden []string
				if check {
					for _, name := range names {
						if ok, err := reg.Overridden(e.ID, name); err == nil && ok {
							overridden = append(overridden, name)
						}
					}
				}
				if len(overridden) > 0 {
					p.Line("%d\t%s\toverrides: %s", e.ID, e.Path, strings.Join(overridden, ","))
				} else {
					p.Line("%d\t%s", e.ID, e.Path)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "load every scope file and list overridden items")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register <id> <path>",
		Short: "Register a workspace scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid scope id %q", args[0])
			}
			dir, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			reg, err := a.open()
			if err != nil {
				return err
			}
			if err := reg.Register(id, dir); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).Line("%d\t%s", id, dir)
			return nil
		},
	}
}

func newLaunchArgsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "launch-args <scope>",
		Short: "Print the java command line a scope resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseScope(args[0])
			if err != nil {
				return err
			}
			reg, err := a.open()
			if err != nil {
				return err
			}

			raw, err := reg.GetValue(scope, java.Name)
			if err != nil {
				return err
			}
			versions, err := java.Read(raw)
			if err != nil {
				return err
			}
			inst, ok := versions.Selection()
			if !ok {
				return fmt.Errorf("no java installation selected for scope %s", args[0])
			}

			raw, err = reg.GetValue(scope, jvm.Name)
			if err != nil {
				return err
			}
			memory, err := jvm.Read(raw)
			if err != nil {
				return err
			}

			line := append([]string{inst.Path}, memory.Args()...)
			newPrinter(cmd.OutOrStdout()).Line("%s", strings.Join(line, " "))
			return nil
		},
	}
}

func newParseVersionCmd(_ *app) *cobra.Command {
	var (
		ignore string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "parse-version <text...>",
		Short: "Parse a free-form version string",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := versionpkg.Parse(strings.Join(args, " "), []rune(ignore)...)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			if asJSON {
				return p.Value(v)
			}
			p.Line("%s", v)
			return nil
		},
	}
	cmd.Flags().StringVar(&ignore, "ignore", "", "characters to skip while parsing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed components as JSON")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved launcher configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrinter(cmd.OutOrStdout())
			if a.cfg.File != "" {
				p.Line("# file: %s", a.cfg.File)
			}
			values := a.cfg.Values()
			for _, key := range config.Keys {
				v, _ := loader.GetPath(values, key)
				p.Line("%s = %v (%s)", key, v, a.cfg.Source(key))
			}
			return nil
		},
	}
}
