// Command clipforge drives the video production pipeline: narration
// synthesis, footage download, preview extraction, assembly, fact
// checking, thumbnails, and YouTube upload.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/time/rate"

	"clipforge/assemble"
	"clipforge/config"
	"clipforge/factcheck"
	"clipforge/footage"
	"clipforge/internal/batch"
	"clipforge/internal/httpx"
	"clipforge/internal/media"
	"clipforge/internal/retry"
	"clipforge/preview"
	"clipforge/script"
	"clipforge/thumbnail"
	"clipforge/tts"
	"clipforge/upload"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "audio":
		cmdAudio(ctx, args)
	case "footage":
		cmdFootage(ctx, args)
	case "preview":
		cmdPreview(ctx, args)
	case "assemble":
		cmdAssemble(ctx, args)
	case "check":
		cmdCheck(ctx, args)
	case "thumbnail":
		cmdThumbnail(ctx, args)
	case "upload":
		cmdUpload(ctx, args)
	case "status":
		cmdStatus(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `clipforge - themed video production pipeline

Usage:
  clipforge audio     --project <name>   Generate narration audio
  clipforge footage   --project <name>   Search and download stock footage
  clipforge preview   --project <name>   Extract preview frames from footage
  clipforge assemble  --project <name>   Render segments and build the final video
  clipforge check     --project <name>   Fact-check the script's claims
  clipforge thumbnail --project <name>   Generate the video thumbnail
  clipforge upload    --project <name>   Upload the final video to YouTube
  clipforge status    --project <name>   Show per-stage artifact status
  clipforge help                         Show this help message

Common flags:
  --workers N      Override the stage's worker count
  --sequential     Process segments one at a time, in order

For help on a specific command: clipforge <command> -h
`)
}

// fatal prints an error and exits, the shared failure path for every
// command.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatal("loading config: %v", err)
	}
	return cfg
}

// openProject opens the named project's script store and loads its
// script. Callers must Close the store.
func openProject(cfg *config.Config, name string) (script.Project, *script.Store, *script.Script) {
	if name == "" {
		fatal("--project is required")
	}
	project := script.NewProject(name, cfg.ProjectDir(name))

	store, err := script.NewStore(project)
	if err != nil {
		fatal("opening project %s: %v", name, err)
	}

	sc, err := store.Load()
	if err != nil {
		store.Close()
		fatal("loading script: %v", err)
	}
	return project, store, sc
}

// workerCount resolves the effective worker count for a stage from its
// config default and the shared flags.
func workerCount(configDefault, flagValue int, sequential bool) int {
	if sequential {
		return 1
	}
	if flagValue > 0 {
		return flagValue
	}
	return configDefault
}

func retryConfigFrom(cfg *config.Config) *retry.Config {
	return &retry.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Multiplier:     cfg.BackoffMultiplier,
		JitterFraction: 0.2,
	}
}

func proberFrom(cfg *config.Config) *media.Prober {
	return &media.Prober{Path: cfg.FFprobePath}
}

func encoderFrom(cfg *config.Config) *media.Encoder {
	return &media.Encoder{Path: cfg.FFmpegPath, Timeout: cfg.FFmpegTimeout}
}

// runStage executes a batch stage and renders its summary. Any failed
// job exits non-zero so automation can detect partial failure.
func runStage(ctx context.Context, stage string, jobs []batch.Job, workers int, pred batch.CachePredicate) batch.Summary {
	fmt.Fprintf(os.Stderr, "%s: %d segments, %d workers\n", stage, len(jobs), workers)

	result := batch.Run(ctx, jobs, workers, pred)
	summary := result.Summarize()
	summary.Render(os.Stderr, stage)

	if !summary.OK() {
		os.Exit(1)
	}
	return summary
}

func cmdAudio(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("audio", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	workers := fs.Int("workers", 0, "Worker count (default from config)")
	sequential := fs.Bool("sequential", false, "Process segments in order, one at a time")
	fs.Parse(args)

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	client := tts.NewClient(cfg.TTSAPIKey, cfg.VoiceID, cfg.TTSModelID)
	client.Stability = cfg.TTSStability
	client.Similarity = cfg.TTSSimilarity
	client.Limiter = rate.NewLimiter(rate.Limit(cfg.TTSRatePerSec), 4)
	client.RetryConfig = retryConfigFrom(cfg)
	client.HTTPClient = httpx.NewClient(2 * time.Minute)

	gen := tts.NewGenerator(client, proberFrom(cfg))

	n := workerCount(cfg.AudioWorkers, *workers, *sequential)
	runStage(ctx, "audio", gen.Jobs(project, sc), n, gen.CachePredicate(ctx))

	total := gen.TotalDuration(ctx, project, sc)
	if total > 0 {
		fmt.Fprintf(os.Stderr, "total narration: %.1fs\n", total)
	}
}

func cmdFootage(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("footage", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	workers := fs.Int("workers", 0, "Worker count (default from config)")
	sequential := fs.Bool("sequential", false, "Process segments in order, one at a time")
	segment := fs.Int("segment", -1, "Download for one segment only")
	url := fs.String("url", "", "Download this URL directly (requires --segment)")
	query := fs.String("query", "", "Override the segment's search query (requires --segment)")
	list := fs.Bool("list", false, "Show footage status without downloading")
	fs.Parse(args)

	if err := checkSegmentFlags(*segment, *url, *query); err != nil {
		fatal("%v", err)
	}

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	if *list {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SEGMENT\tSTATUS\tFILE\tQUERY")
		for _, st := range footage.Status(project, sc) {
			status := "missing"
			if st.Downloaded {
				status = "downloaded"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.SegmentID, status, st.Filename, st.Query)
		}
		w.Flush()
		return
	}

	ytdlp := footage.NewYtdlp()
	ytdlp.Path = cfg.YtdlpPath
	ytdlp.Timeout = cfg.YtdlpTimeout
	if err := ytdlp.CheckInstalled(ctx); err != nil {
		fatal("%v", err)
	}

	dl := footage.NewDownloader(ytdlp, proberFrom(cfg), store)
	dl.RetryConfig = retryConfigFrom(cfg)

	if *segment >= 0 {
		if *segment >= len(sc.Segments) {
			fatal("segment %d out of range (script has %d)", *segment, len(sc.Segments))
		}
		if *query != "" {
			sc.Segments[*segment].FootageQuery = *query
		}

		var err error
		if *url != "" {
			err = dl.DownloadDirect(ctx, project, sc, *segment, *url)
		} else {
			jobs := dl.Jobs(project, sc)
			err = jobs[*segment].Action(ctx)
		}
		if err != nil {
			fatal("segment %d: %v", *segment, err)
		}
		fmt.Fprintf(os.Stderr, "segment %d footage downloaded\n", *segment)
		return
	}

	n := workerCount(cfg.FootageWorkers, *workers, *sequential)
	runStage(ctx, "footage", dl.Jobs(project, sc), n, dl.CachePredicate(ctx))
}

// checkSegmentFlags rejects per-segment overrides without a segment to
// apply them to, instead of silently running the whole batch.
func checkSegmentFlags(segment int, url, query string) error {
	if segment >= 0 {
		return nil
	}
	if url != "" {
		return errors.New("--url requires --segment")
	}
	if query != "" {
		return errors.New("--query requires --segment")
	}
	return nil
}

func cmdPreview(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	workers := fs.Int("workers", 0, "Worker count (default from config)")
	sequential := fs.Bool("sequential", false, "Process segments in order, one at a time")
	interval := fs.Int("interval", 10, "Seconds between preview frames")
	fs.Parse(args)

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	ex := preview.NewExtractor(proberFrom(cfg), encoderFrom(cfg))
	ex.Interval = *interval

	n := workerCount(cfg.PreviewWorkers, *workers, *sequential)
	runStage(ctx, "preview", ex.Jobs(project, sc), n, ex.CachePredicate(project, sc))

	fmt.Fprintf(os.Stderr, "frames written to %s\n", project.PreviewDir())
}

func cmdAssemble(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	workers := fs.Int("workers", 0, "Worker count (default from config)")
	sequential := fs.Bool("sequential", false, "Process segments in order, one at a time")
	noMusic := fs.Bool("no-music", false, "Skip background music")
	noText := fs.Bool("no-text", false, "Skip burned-in captions")
	fs.Parse(args)

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	prober := proberFrom(cfg)
	encoder := encoderFrom(cfg)
	if err := encoder.CheckInstalled(ctx); err != nil {
		fatal("%v", err)
	}

	asm := assemble.NewAssembler(prober, encoder, cfg)
	asm.NoText = *noText

	n := workerCount(cfg.AssembleWorkers, *workers, *sequential)
	runStage(ctx, "assemble", asm.SegmentJobs(project, sc), n, asm.CachePredicate(ctx))

	if sc.LongForm {
		rendered, err := asm.RenderOutro(ctx, project)
		switch {
		case err != nil:
			fatal("outro: %v", err)
		case rendered:
			fmt.Fprintln(os.Stderr, "outro rendered")
		default:
			fmt.Fprintf(os.Stderr, "no outro audio at %s, skipping outro\n", cfg.OutroAudio())
		}
	}

	fmt.Fprintf(os.Stderr, "concatenating %d segments...\n", len(sc.Segments))
	if err := asm.Concat(ctx, project, sc); err != nil {
		fatal("concat: %v", err)
	}

	if *noMusic {
		if err := asm.SkipMusic(project); err != nil {
			fatal("finalize: %v", err)
		}
	} else {
		fmt.Fprintln(os.Stderr, "mixing background music...")
		if err := asm.AddMusic(ctx, project); err != nil {
			fatal("music mix: %v", err)
		}
	}

	if sc.LongForm {
		if err := assemble.WriteCaptions(ctx, prober, project, sc); err != nil {
			fatal("captions: %v", err)
		}
		fmt.Fprintf(os.Stderr, "captions written to %s\n", project.CaptionsPath())
	}

	video, audio, err := asm.Verify(ctx, project.FinalPath())
	if err != nil {
		fatal("verify: %v", err)
	}
	fmt.Fprintf(os.Stderr, "final video: %s (video %.1fs, audio %.1fs)\n",
		project.FinalPath(), video, audio)
}

func cmdCheck(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	workers := fs.Int("workers", 4, "Worker count")
	sequential := fs.Bool("sequential", false, "Process segments in order, one at a time")
	webSearch := fs.Bool("web-search", false, "Verify unknown claims through web search")
	strict := fs.Bool("strict", false, "Exit non-zero on unverified or disputed claims")
	validateRefs := fs.Bool("validate-refs", false, "Check reference coverage (long-form scripts)")
	saveJSON := fs.Bool("json", false, "Write results to fact_check_results.json")
	fs.Parse(args)

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	if *validateRefs {
		issues := factcheck.ValidateReferences(sc)
		fmt.Fprintf(os.Stderr, "references: %d segments cited, %d uncited, %d total citations\n",
			issues.SegmentsWithRefs, issues.SegmentsWithoutRefs, issues.TotalReferences)
		for _, id := range issues.MissingReferences {
			fmt.Fprintf(os.Stderr, "  segment %d has no references\n", id)
		}
		for _, inc := range issues.IncompleteReferences {
			fmt.Fprintf(os.Stderr, "  segment %d has a reference missing source or url\n", inc.SegmentID)
		}
	}

	var web *factcheck.WebSearcher
	if *webSearch {
		if cfg.SerpAPIKey == "" {
			fatal("--web-search requires SERPAPI_KEY")
		}
		web = factcheck.NewWebSearcher(cfg.SerpAPIKey)
		web.HTTPClient = httpx.NewClient(10 * time.Second)
	}

	checker := factcheck.NewChecker(factcheck.DefaultKnowledgeBase(), web)
	n := workerCount(4, *workers, *sequential)
	runStage(ctx, "check", checker.Jobs(sc), n, nil)

	report := checker.Report(*projectName)
	for _, r := range report.Results {
		fmt.Printf("[segment %d] %s\n", r.SegmentID, r.Verdict)
		for _, c := range r.Claims {
			fmt.Printf("  %-10s %s\n", c.Verdict, c.Claim)
			if c.Notes != "" {
				fmt.Printf("             %s\n", c.Notes)
			}
		}
	}
	fmt.Printf("verified %d, partial %d, unverified %d, disputed %d, no claims %d\n",
		report.Stats[factcheck.VerdictVerified],
		report.Stats[factcheck.VerdictPartiallyVerified],
		report.Stats[factcheck.VerdictUnverified],
		report.Stats[factcheck.VerdictDisputed],
		report.Stats[factcheck.VerdictNoClaims])

	if *saveJSON {
		if err := report.Write(project.FactCheckPath()); err != nil {
			fatal("%v", err)
		}
		fmt.Fprintf(os.Stderr, "results saved to %s\n", project.FactCheckPath())
	}

	if *strict {
		if code := report.StrictExitCode(); code != 0 {
			fmt.Fprintln(os.Stderr, "strict mode: unverified or disputed claims found")
			os.Exit(code)
		}
	}
}

func cmdThumbnail(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("thumbnail", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	text := fs.String("text", "", "Override the auto-generated headline")
	color := fs.String("color", "", "Color scheme (default: auto-detect)")
	fs.Parse(args)

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	gen := thumbnail.NewGenerator(proberFrom(cfg), encoderFrom(cfg), cfg)
	if err := gen.Generate(ctx, project, sc, *text, *color); err != nil {
		fatal("%v", err)
	}
	fmt.Fprintf(os.Stderr, "thumbnail written to %s\n", project.ThumbnailPath())
}

func cmdUpload(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	privacy := fs.String("privacy", "private", "Privacy: public, unlisted, or private")
	title := fs.String("title", "", "Override the auto-generated title")
	dryRun := fs.Bool("dry-run", false, "Show metadata without uploading")
	withThumbnail := fs.Bool("thumbnail", true, "Set the generated thumbnail after upload")
	withCaptions := fs.Bool("captions", true, "Attach SRT captions (long-form only)")
	fs.Parse(args)

	switch *privacy {
	case "public", "unlisted", "private":
	default:
		fatal("invalid --privacy %q (use public, unlisted, or private)", *privacy)
	}

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	videoPath := project.FinalPath()
	if !batch.ExistsNonEmpty(videoPath) {
		fatal("final video not found at %s (run assemble first)", videoPath)
	}

	prober := proberFrom(cfg)
	durations := make([]float64, len(sc.Segments))
	for i := range sc.Segments {
		if d, err := prober.Duration(ctx, project.AudioPath(i)); err == nil {
			durations[i] = d
		}
	}

	md := upload.GenerateMetadata(sc, *privacy, durations)
	if *title != "" {
		md.Title = *title
	}

	fmt.Fprintf(os.Stderr, "title:   %s\n", md.Title)
	fmt.Fprintf(os.Stderr, "privacy: %s\n", md.Privacy)
	fmt.Fprintf(os.Stderr, "tags:    %v\n", md.Tags)
	fmt.Fprintf(os.Stderr, "description:\n%s\n", md.Description)

	if *dryRun {
		fmt.Fprintln(os.Stderr, "[dry run - no upload performed]")
		return
	}

	auth := upload.NewAuthenticator(cfg.ClientSecrets, cfg.TokenFile)
	_, ts, err := auth.Client(ctx)
	if err != nil {
		fatal("authenticate: %v", err)
	}

	uploader, err := upload.NewUploader(ctx, ts)
	if err != nil {
		fatal("%v", err)
	}

	videoID, err := uploader.Upload(ctx, videoPath, md)
	if err != nil {
		fatal("%v", err)
	}
	fmt.Fprintf(os.Stderr, "\nuploaded: %s\n", upload.WatchURL(videoID, sc.LongForm))

	if *withThumbnail && batch.ExistsNonEmpty(project.ThumbnailPath()) {
		if err := uploader.SetThumbnail(ctx, videoID, project.ThumbnailPath()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if *withCaptions && sc.LongForm && batch.ExistsNonEmpty(project.CaptionsPath()) {
		if err := uploader.UploadCaptions(ctx, videoID, project.CaptionsPath()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	if err := store.SaveUploadRecord(upload.Record(videoID, md, sc.LongForm)); err != nil {
		fatal("save upload record: %v", err)
	}
}

func cmdStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	projectName := fs.String("project", "", "Project name")
	fs.Parse(args)

	cfg := loadConfig()
	project, store, sc := openProject(cfg, *projectName)
	defer store.Close()

	count := func(path func(int) string) int {
		n := 0
		for i := range sc.Segments {
			if batch.ExistsNonEmpty(path(i)) {
				n++
			}
		}
		return n
	}

	audio := count(project.AudioPath)
	footageCount := 0
	for _, st := range footage.Status(project, sc) {
		if st.Downloaded {
			footageCount++
		}
	}
	previews := count(func(i int) string { return project.PreviewPath(i, 0) })
	rendered := count(project.SegmentVideoPath)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "project\t%s\n", project.Name)
	fmt.Fprintf(w, "segments\t%d\n", len(sc.Segments))
	fmt.Fprintf(w, "audio\t%d/%d\n", audio, len(sc.Segments))
	fmt.Fprintf(w, "footage\t%d/%d\n", footageCount, len(sc.Segments))
	fmt.Fprintf(w, "previews\t%d/%d\n", previews, len(sc.Segments))
	fmt.Fprintf(w, "rendered\t%d/%d\n", rendered, len(sc.Segments))
	fmt.Fprintf(w, "final\t%v\n", batch.ExistsNonEmpty(project.FinalPath()))
	fmt.Fprintf(w, "thumbnail\t%v\n", batch.ExistsNonEmpty(project.ThumbnailPath()))
	w.Flush()
}
