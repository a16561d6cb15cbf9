package haystack_solr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"pkt.systems/pslog"
)

const envPrefix = "HAYSTACK_SOLR"

// version is set at build time with -ldflags "-X ...haystack_solr.version=1.2.3".
var version = "dev"

// Run parses the command line and runs the haystack-solr command. It returns the
// process exit code.
//
// Commands are:
//
//	install [part...]          // copy the Solr tree and generate launchers
//	update [part...] [--watch] // re-apply configuration, keep installed trees
//	show <part>                // print normalized options and start command
//	version
//
// Without part names, every part listed in the buildout section's "parts" option that
// uses this recipe is processed.
func Run() int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvPrefix(envPrefix+"_LOG_"),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole, MinLevel: pslog.InfoLevel}),
		pslog.WithEnvWriter(os.Stderr),
	).With("app", "haystack-solr")
	SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(logger, NewTranslator())
	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		var userErr *UserError
		if errors.As(err, &userErr) {
			return 2
		}
		return 1
	}
	return 0
}

type cli struct {
	v          *viper.Viper
	logger     pslog.Logger
	translator *Translator
}

func newRootCommand(logger pslog.Logger, translator *Translator) *cobra.Command {
	c := &cli{v: viper.New(), logger: ensureLogger(logger), translator: translator}
	t := translator

	root := &cobra.Command{
		Use:           "haystack-solr",
		Short:         t.Get("cmd_short"),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.configure()
		},
	}
	persistent := root.PersistentFlags()
	persistent.StringP("config", "c", DefaultConfigFilename, t.Get("flag_config"))
	persistent.String("log-level", "", t.Get("flag_log_level"))
	persistent.String("lang", "", t.Get("flag_lang")+" ("+strings.Join(t.GetLanguages(), ", ")+")")

	install := &cobra.Command{
		Use:   "install [part...]",
		Short: t.Get("cmd_install_short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runParts(cmd, args, false)
		},
	}

	update := &cobra.Command{
		Use:   "update [part...]",
		Short: t.Get("cmd_update_short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.v.GetBool("watch") {
				return c.runParts(cmd, args, true)
			}
			return c.watch(cmd, args)
		},
	}
	update.Flags().Bool("watch", false, t.Get("flag_watch"))

	show := &cobra.Command{
		Use:   "show <part>",
		Short: t.Get("cmd_show_short"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.show(cmd, args[0])
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: t.Get("cmd_version_short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "haystack-solr %s\n", version)
			return err
		},
	}

	root.AddCommand(install, update, show, versionCmd)
	c.bindFlags(root.PersistentFlags(), update.Flags())
	return root
}

// bindFlags makes every flag available through viper, overridable with
// HAYSTACK_SOLR_<FLAG> environment variables.
func (c *cli) bindFlags(sets ...*pflag.FlagSet) {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	for _, set := range sets {
		set.VisitAll(func(f *pflag.Flag) {
			_ = c.v.BindPFlag(f.Name, f)
		})
	}
}

func (c *cli) configure() error {
	if lang := strings.TrimSpace(c.v.GetString("lang")); lang != "" {
		if err := c.translator.SetLanguage(lang); err != nil {
			return err
		}
	}
	if levelStr := strings.TrimSpace(c.v.GetString("log-level")); levelStr != "" {
		level, ok := pslog.ParseLevel(levelStr)
		if !ok {
			return fmt.Errorf("invalid log level %q", levelStr)
		}
		c.logger = c.logger.LogLevel(level)
	}
	return nil
}

func (c *cli) loadBuildout() (*Buildout, error) {
	path := c.v.GetString("config")
	b, err := LoadBuildout(path)
	if err != nil {
		return nil, err
	}
	withSubsystem(c.logger, "cli").Debug("loaded build file", "path", b.Path)
	return b, nil
}

// selectParts returns the named parts, or all recipe parts of the build file.
func (c *cli) selectParts(b *Buildout, names []string) ([]string, error) {
	if len(names) > 0 {
		for _, name := range names {
			options, ok := b.Section(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPart, name)
			}
			if !IsRecipe(options["recipe"]) {
				return nil, &UserError{Part: name, Message: c.translator.Format("err_not_recipe_part", StringMap{"part": name})}
			}
		}
		return names, nil
	}
	candidates := b.Parts()
	if len(candidates) == 0 {
		candidates = b.SectionNames()
	}
	var parts []string
	for _, name := range candidates {
		options, ok := b.Section(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPart, name)
		}
		if IsRecipe(options["recipe"]) {
			parts = append(parts, name)
		}
	}
	return parts, nil
}

func (c *cli) runParts(cmd *cobra.Command, names []string, update bool) error {
	b, err := c.loadBuildout()
	if err != nil {
		return err
	}
	parts, err := c.selectParts(b, names)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		cmd.Println(c.translator.Format("msg_no_parts", StringMap{"config": b.Path}))
		return nil
	}
	// Construct all recipes first, so a configuration error in any part stops the
	// run before the filesystem is touched.
	recipes := make([]*Recipe, 0, len(parts))
	for _, name := range parts {
		recipe, err := NewRecipeFromBuildout(b, name, WithLogger(c.logger))
		if err != nil {
			return err
		}
		recipes = append(recipes, recipe)
	}
	for _, recipe := range recipes {
		vars := StringMap{"part": recipe.Name, "script": recipe.Paths.Script}
		if update {
			cmd.Println(c.translator.Format("msg_updating", vars))
			_, err = recipe.Update()
		} else {
			cmd.Println(c.translator.Format("msg_installing", vars))
			_, err = recipe.Install(false)
		}
		if err != nil {
			return err
		}
		cmd.Println(c.translator.Format("msg_installed", vars))
	}
	return nil
}

func (c *cli) show(cmd *cobra.Command, name string) error {
	b, err := c.loadBuildout()
	if err != nil {
		return err
	}
	recipe, err := NewRecipeFromBuildout(b, name, WithLogger(c.logger))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s]\n", name)
	for _, key := range recipe.options.Keys() {
		value := strings.ReplaceAll(recipe.options[key], "\n", "\n    ")
		fmt.Fprintf(out, "%s = %s\n", key, value)
	}
	fmt.Fprintln(out)
	paths := map[string]string{
		"part":     recipe.Paths.PartDir,
		"data":     recipe.Paths.DataDir,
		"logs":     recipe.Paths.LogDir,
		"launcher": recipe.Paths.Script,
	}
	keys := make([]string, 0, len(paths))
	for k := range paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%-9s %s\n", k+":", paths[k])
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Join(recipe.StartCommand(), " "))
	return nil
}
