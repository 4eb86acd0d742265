package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"miam-planner/internal/acquisition"
	"miam-planner/internal/app"
	"miam-planner/internal/config"
	"miam-planner/internal/llm"
	"miam-planner/internal/logging"
	"miam-planner/internal/media"
	"miam-planner/internal/planner"
	"miam-planner/internal/recipe"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, cleanup, err := app.Bootstrap(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer cleanup()

	c := &cli{app: application}
	args := os.Args[2:]

	switch os.Args[1] {
	case "pantry":
		err = c.pantry(ctx, args)
	case "shop":
		err = c.shop(ctx, args)
	case "plan":
		err = c.plan(ctx, args)
	case "recipe":
		err = c.recipe(ctx, args)
	case "book":
		err = c.book(ctx, args)
	case "metrics":
		err = c.metrics(ctx, args)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(args)

		var affected int64
		if affected, err = application.CleanupMetrics(ctx, *days); err == nil {
			fmt.Printf("Successfully removed %d old metric records.\n", affected)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		cleanup()
		logger.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func printUsage() {
	fmt.Println("Usage: miam <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  pantry list|add <name> [-qty Q]|rm <id>          Manage the pantry")
	fmt.Println("  shop list|add <name>|toggle <id>|rm <id>|clear    Manage the shopping list")
	fmt.Println("  plan show|set <Jour> <lunch|dinner> <meal>        Show or edit the weekly plan")
	fmt.Println("  recipe search <query>|photo <file>|clip <url>     Generate a recipe")
	fmt.Println("  recipe manual -title T [-ingredients a;b] ...     Enter a recipe by hand")
	fmt.Println("      flags: -image 1K|2K|4K -video -save -publish -copy <file>")
	fmt.Println("  book list|show <id>|rm <id>|similar <query>       Browse saved recipes")
	fmt.Println("  book related <id> [-limit N]                      Saved recipes close to one")
	fmt.Println("  metrics [-days N]                                 Token usage and system health")
	fmt.Println("  metrics-cleanup [-days N]                         Remove old metric records")
}

type cli struct {
	app *app.App
}

func sub(args []string) (string, []string) {
	if len(args) == 0 {
		return "list", nil
	}
	return args[0], args[1:]
}

func (c *cli) pantry(ctx context.Context, args []string) error {
	cmd, rest := sub(args)
	switch cmd {
	case "list":
	case "add":
		fs := flag.NewFlagSet("pantry add", flag.ExitOnError)
		qty := fs.String("qty", "", "Quantity (default 1)")
		fs.Parse(reorderFlags(rest))
		item, err := c.app.Pantry.Add(ctx, strings.Join(fs.Args(), " "), *qty)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("pantry add: a name is required")
		}
	case "rm":
		if len(rest) != 1 {
			return fmt.Errorf("usage: pantry rm <id>")
		}
		if err := c.app.Pantry.Remove(ctx, rest[0]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown pantry command %q", cmd)
	}

	items, err := c.app.Pantry.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("Pantry is empty.")
	}
	for _, it := range items {
		fmt.Printf("%s  %s (%s)\n", it.ID, it.Name, it.Quantity)
	}
	return nil
}

func (c *cli) shop(ctx context.Context, args []string) error {
	cmd, rest := sub(args)
	var err error
	switch cmd {
	case "list":
	case "add":
		_, err = c.app.Shopping.Add(ctx, strings.Join(rest, " "))
	case "toggle", "rm":
		if len(rest) != 1 {
			return fmt.Errorf("usage: shop %s <id>", cmd)
		}
		if cmd == "toggle" {
			err = c.app.Shopping.Toggle(ctx, rest[0])
		} else {
			err = c.app.Shopping.Remove(ctx, rest[0])
		}
	case "clear":
		err = c.app.Shopping.ClearChecked(ctx)
	default:
		return fmt.Errorf("unknown shop command %q", cmd)
	}
	if err != nil {
		return err
	}

	items, err := c.app.Shopping.Items(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		box := "[ ]"
		if it.Checked {
			box = "[x]"
		}
		fmt.Printf("%s %s  %s\n", box, it.ID, it.Name)
	}
	remaining, err := c.app.Shopping.Remaining(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d item(s) left to buy.\n", remaining)
	return nil
}

func (c *cli) plan(ctx context.Context, args []string) error {
	cmd, rest := sub(args)
	var (
		plan planner.WeeklyPlan
		err  error
	)
	switch cmd {
	case "list", "show":
		plan, err = c.app.Planner.Get(ctx)
	case "set":
		if len(rest) < 2 {
			return fmt.Errorf("usage: plan set <Jour> <lunch|dinner> <meal>")
		}
		day, err := planner.ParseDay(rest[0])
		if err != nil {
			return err
		}
		meal, err := planner.ParseMealType(rest[1])
		if err != nil {
			return err
		}
		plan, err = c.app.Planner.UpdateMeal(ctx, day, meal, strings.Join(rest[2:], " "))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown plan command %q", cmd)
	}
	if err != nil {
		return err
	}

	for _, day := range planner.Days {
		meals := plan[day]
		fmt.Printf("%-9s midi: %-30s soir: %s\n", day, meals.Get(planner.Lunch), meals.Get(planner.Dinner))
	}
	return nil
}

func (c *cli) recipe(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: recipe search|photo|clip|manual ...")
	}
	mode := args[0]

	fs := flag.NewFlagSet("recipe "+mode, flag.ExitOnError)
	imageSize := fs.String("image", "", "Generate an image (1K, 2K or 4K)")
	video := fs.Bool("video", false, "Animate the generated image (requires -image)")
	save := fs.Bool("save", false, "Save the recipe to the recipe book")
	publish := fs.Bool("publish", false, "Publish the recipe to Ghost")
	copyTo := fs.String("copy", "", "Write the shareable text to this file")
	title := fs.String("title", "", "Manual recipe title")
	desc := fs.String("description", "", "Manual recipe description")
	ingredients := fs.String("ingredients", "", "Manual ingredients, separated by ';'")
	instructions := fs.String("instructions", "", "Manual instructions, separated by ';'")
	fs.Parse(reorderFlags(args[1:]))
	input := strings.Join(fs.Args(), " ")

	var size media.ImageSize
	if *imageSize != "" {
		s, err := media.ParseImageSize(*imageSize)
		if err != nil {
			return err
		}
		size = s
	}
	if *video && size == "" {
		return fmt.Errorf("-video requires -image")
	}

	var (
		r   *recipe.Recipe
		err error
	)
	switch mode {
	case "search":
		r, err = c.stream(ctx, llm.ModeSearch, func(onUpdate func(string)) (*recipe.Recipe, error) {
			return c.app.SearchRecipe(ctx, input, onUpdate)
		})
	case "clip":
		r, err = c.stream(ctx, llm.ModeClip, func(onUpdate func(string)) (*recipe.Recipe, error) {
			return c.app.RecipeFromURL(ctx, input, onUpdate)
		})
	case "photo":
		payload, perr := readImage(input)
		if perr != nil {
			return perr
		}
		r, err = c.stream(ctx, llm.ModeImage, func(onUpdate func(string)) (*recipe.Recipe, error) {
			return c.app.RecipeFromImage(ctx, payload, onUpdate)
		})
	case "manual":
		r, err = c.app.ManualRecipe(recipe.Manual{
			Title:        *title,
			Description:  *desc,
			Ingredients:  strings.ReplaceAll(*ingredients, ";", "\n"),
			Instructions: strings.ReplaceAll(*instructions, ";", "\n"),
		})
	default:
		return fmt.Errorf("unknown recipe mode %q", mode)
	}
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("recipe %s: nothing to do for empty input", mode)
	}
	current := *r

	// A failed media stage leaves the recipe as it was; it is still printed,
	// copied and saved.
	var stageErr error
	if size != "" {
		fmt.Fprintf(os.Stderr, "🖼  Generating %s image...\n", size)
		updated, err := c.app.GenerateImage(ctx, current, size)
		current, stageErr = applyStage(os.Stderr, "image", current, updated, err)
	}
	if *video && stageErr == nil {
		fmt.Fprintln(os.Stderr, "🎬 Animating (VEO)...")
		updated, err := c.app.AnimateVideo(ctx, current, func(elapsed time.Duration) {
			fmt.Fprintf(os.Stderr, "   still rendering (%s)\n", elapsed.Round(time.Second))
		})
		current, stageErr = applyStage(os.Stderr, "video", current, updated, err)
	}

	text := recipe.FormatText(current)
	fmt.Println(text)
	for _, s := range current.Sources {
		fmt.Printf("  source: %s <%s>\n", s.Title, s.URI)
	}
	if v, ok := current.Video(); ok {
		fmt.Printf("  video: %s\n", v.URI)
	}

	if *copyTo != "" {
		if err := os.WriteFile(*copyTo, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *copyTo, err)
		}
	}
	if *save {
		if err := c.app.SaveRecipe(ctx, current); err != nil {
			return err
		}
		fmt.Printf("Saved recipe %s.\n", current.ID)
	}
	if *publish {
		post, err := c.app.PublishRecipe(ctx, current)
		if err != nil {
			return err
		}
		fmt.Printf("Published: %s\n", post.URL)
	}
	return stageErr
}

// stream runs an acquisition, showing the loading status and then the
// recipe parts on stderr as they become readable.
func (c *cli) stream(ctx context.Context, mode llm.Mode, run func(onUpdate func(string)) (*recipe.Recipe, error)) (*recipe.Recipe, error) {
	status := acquisition.NewLoadingStatus(clockwork.NewRealClock())
	statusCtx, stopStatus := context.WithCancel(ctx)
	defer stopStatus()
	go status.Run(statusCtx, func(msg string) {
		if msg != acquisition.StreamingMessage {
			fmt.Fprintf(os.Stderr, "⏳ %s\n", msg)
		}
	})

	p := &progress{out: os.Stderr}
	r, err := run(func(buffer string) {
		status.MarkStreaming()
		p.show(recipe.TryParsePartial(buffer))
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", acquisition.AlertMessage(mode), err)
	}
	fmt.Fprintln(os.Stderr)
	return r, nil
}

func readImage(path string) (acquisition.ImagePayload, error) {
	if path == "" {
		return acquisition.ImagePayload{}, fmt.Errorf("usage: recipe photo <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return acquisition.ImagePayload{}, fmt.Errorf("failed to read image: %w", err)
	}
	img := recipe.Image{MIMEType: http.DetectContentType(data), Data: data}
	return acquisition.ImagePayload{DataURI: img.DataURI(), MIMEType: img.MIMEType}, nil
}

// reorderFlags moves flags ahead of positional arguments so that
// "search tarte -save" parses like "search -save tarte".
func reorderFlags(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || a == "-" {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		if !strings.Contains(a, "=") && takesValue(a) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, positional...)
}

// boolFlags are the flags that never consume the next argument.
var boolFlags = map[string]bool{"video": true, "save": true, "publish": true}

func takesValue(flagArg string) bool {
	return !boolFlags[strings.TrimLeft(flagArg, "-")]
}

func (c *cli) book(ctx context.Context, args []string) error {
	cmd, rest := sub(args)
	switch cmd {
	case "list":
		recipes, err := c.app.ListRecipes(ctx)
		if err != nil {
			return err
		}
		if len(recipes) == 0 {
			fmt.Println("No saved recipes.")
		}
		for _, r := range recipes {
			fmt.Printf("%s  %s\n", r.ID, r.Title)
		}
	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("usage: book show <id>")
		}
		r, err := c.app.GetRecipe(ctx, rest[0])
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("recipe %s not found", rest[0])
		}
		fmt.Println(recipe.FormatText(*r))
	case "rm":
		if len(rest) != 1 {
			return fmt.Errorf("usage: book rm <id>")
		}
		return c.app.DeleteRecipe(ctx, rest[0])
	case "similar":
		fs := flag.NewFlagSet("book similar", flag.ExitOnError)
		limit := fs.Int("limit", 5, "Maximum number of results")
		fs.Parse(reorderFlags(rest))
		query := strings.Join(fs.Args(), " ")
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("usage: book similar <query>")
		}
		results, err := c.app.FindSimilarRecipes(ctx, query, *limit)
		if err != nil {
			return err
		}
		printScored(results)
	case "related":
		fs := flag.NewFlagSet("book related", flag.ExitOnError)
		limit := fs.Int("limit", 5, "Maximum number of results")
		fs.Parse(reorderFlags(rest))
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: book related <id>")
		}
		results, err := c.app.RelatedRecipes(ctx, fs.Arg(0), *limit)
		if err != nil {
			return err
		}
		printScored(results)
	default:
		return fmt.Errorf("unknown book command %q", cmd)
	}
	return nil
}

func printScored(results []app.ScoredRecipe) {
	if len(results) == 0 {
		fmt.Println("No matching recipes.")
	}
	for _, s := range results {
		fmt.Printf("%.3f  %s  %s\n", s.Score, s.Recipe.ID, s.Recipe.Title)
	}
}

func (c *cli) metrics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	days := fs.Int("days", 7, "Number of days to report")
	fs.Parse(args)

	report, err := c.app.UsageReport(ctx, *days)
	if err != nil {
		return err
	}
	usage, health := report.Usage, report.Health
	fmt.Println("Recent LLM Activity")
	if len(usage) == 0 {
		fmt.Println("  No data yet")
	}
	for _, d := range usage {
		fmt.Printf("  %s: %d prompt + %d completion tokens (%d execs)\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
	}
	fmt.Println("System Health")
	fmt.Printf("  RAM: %dMB (Alloc) / %dMB (Sys), GC runs: %d\n", health.AllocMB, health.SysMB, health.NumGC)
	fmt.Printf("  Goroutines: %d\n", health.Goroutines)
	fmt.Printf("  Disk Data: %s\n", health.DataDiskSize)
	fmt.Printf("  Media: %s (%d files)\n", health.MediaDiskSize, health.MediaFiles)
	fmt.Printf("  Saved recipes: %d\n", report.SavedRecipes)
	return nil
}
