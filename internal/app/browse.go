package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/hitoshi/cinelist/internal/apiclient"
	"github.com/hitoshi/cinelist/internal/config"
	"github.com/hitoshi/cinelist/internal/liststate"
	"github.com/hitoshi/cinelist/internal/logger"
	"github.com/hitoshi/cinelist/internal/model"
	"github.com/hitoshi/cinelist/internal/scroll"
	"github.com/hitoshi/cinelist/internal/urlsync"
)

// defaultBrowsePages はbrowseで表示する既定のページ数（初期ウィンドウを含む）。
const defaultBrowsePages = 3

// runBrowse はAPIクライアントとして一覧を取得し、ページ単位で表示する。
// 引数は `browse "<query string>" [maxPages]`。
func runBrowse(w io.Writer, args []string) error {
	logger.SetupDefault(os.Stderr, os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("failed to load client config: %w", err)
	}

	query := ""
	if len(args) > 0 {
		query = args[0]
	}
	maxPages := defaultBrowsePages
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page count %q", args[1])
		}
		maxPages = n
	}

	client := apiclient.NewClient(
		&http.Client{Timeout: cfg.Timeout},
		cfg.APIURL,
		apiclient.NewSession(cfg.APIToken),
		slog.Default(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return browse(ctx, w, client, query, maxPages)
}

// browseAPI はbrowseが利用するAPIクライアントの操作。
type browseAPI interface {
	liststate.MovieAPI
	liststate.CategoryAPI
}

// browse はクエリ文字列を履歴に積み、初期ウィンドウと続きのページを順に表示する。
// 番兵要素の可視化はManualObserverで再現する。
func browse(ctx context.Context, w io.Writer, api browseAPI, query string, maxPages int) error {
	log := slog.Default()

	categories := liststate.NewCategoryStore(api, log)
	if _, apiErr := categories.Load(ctx, false); apiErr != nil {
		if apiErr.Kind == apiclient.KindUnauthorized {
			return fmt.Errorf("failed to load categories: %s", apiErr.Message)
		}
		log.Warn("カテゴリ名なしで表示します", slog.String("code", apiErr.Code))
	}

	engine := liststate.NewEngine(api, log)
	observer := scroll.NewManualObserver()
	trigger := scroll.NewTrigger(engine, observer, log)
	trigger.Start(ctx)
	defer trigger.Stop()

	syncer := urlsync.NewSyncer(urlsync.NewHistory(query), engine, trigger, log)
	res := syncer.Start(ctx)
	defer syncer.Stop()
	if res.Err != nil {
		return fmt.Errorf("failed to load movies: %s", res.Err.Message)
	}

	sel := engine.Selection()
	fmt.Fprintf(w, "# %s\n", describeSelection(sel, categories))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	var rows int
	printed := printMovies(tw, engine.Snapshot().Items, 0, &rows, categories)

	for page := 1; page < maxPages && trigger.HasMore(); page++ {
		observer.SetRatio(1)
		trigger.Wait()
		observer.SetRatio(0)

		s := engine.Snapshot()
		if s.Error != "" {
			tw.Flush()
			return fmt.Errorf("failed to load more movies: %s", s.Error)
		}
		if len(s.Items) == printed {
			break
		}
		printed = printMovies(tw, s.Items, printed, &rows, categories)
	}

	if !trigger.HasMore() {
		fmt.Fprintln(tw, "-- end of list --")
	}
	return tw.Flush()
}

// printMovies はitems[from:]を出力し、処理済みの件数を返す。
// ポスターのない映画は表示しない。rowsは表示した行数で、行番号に使う。
func printMovies(w io.Writer, items []model.Movie, from int, rows *int, categories *liststate.CategoryStore) int {
	for i := from; i < len(items); i++ {
		m := items[i]
		if m.PosterPath == "" {
			continue
		}
		*rows++
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			*rows, m.Title, releaseYear(m.ReleaseDate), statusLabel(m.Status), categoryLabel(m.Category, categories))
	}
	return len(items)
}

func describeSelection(sel liststate.Selection, categories *liststate.CategoryStore) string {
	category := "all categories"
	if sel.Category != nil {
		category = categoryLabel(model.IntOf(*sel.Category), categories)
	}
	status := "all"
	switch sel.Status {
	case int(model.StatusWantToWatch):
		status = "want to watch"
	case int(model.StatusWatched):
		status = "watched"
	}
	direction := "desc"
	if sel.Sort.Ascending {
		direction = "asc"
	}
	return fmt.Sprintf("%s / %s / %s %s", category, status, sel.Sort.Key, direction)
}

func releaseYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return "-"
}

func statusLabel(status model.OptionalInt) string {
	if !status.Valid {
		return "-"
	}
	switch status.Value {
	case model.StatusWantToWatch:
		return "want"
	case model.StatusWatched:
		return "watched"
	}
	return "-"
}

func categoryLabel(category model.OptionalInt, categories *liststate.CategoryStore) string {
	if !category.Valid {
		return "-"
	}
	if name, ok := categories.Name(category.Value); ok {
		return name
	}
	return "#" + strconv.FormatInt(category.Value, 10)
}
