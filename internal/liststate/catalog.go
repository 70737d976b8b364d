package liststate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hitoshi/cinelist/internal/apiclient"
	"github.com/hitoshi/cinelist/internal/model"
)

// CatalogAPI はCatalogPagerが利用する外部カタログの操作。
type CatalogAPI interface {
	SearchCatalog(ctx context.Context, query string, page int) (*model.CatalogPage, error)
	ListCatalog(ctx context.Context, list model.CatalogList, page int) (*model.CatalogPage, error)
}

// CatalogSource はカタログの取得元。QueryとListのどちらか一方を指定する。
type CatalogSource struct {
	Query string
	List  model.CatalogList
}

// SearchSource はタイトル検索の取得元を返す。
func SearchSource(query string) CatalogSource {
	return CatalogSource{Query: strings.TrimSpace(query)}
}

// ListSource は定番一覧の取得元を返す。
func ListSource(list model.CatalogList) CatalogSource {
	return CatalogSource{List: list}
}

func (s CatalogSource) empty() bool {
	return s.Query == "" && s.List == ""
}

// CatalogResult はカタログ1ページ分の取得結果。
type CatalogResult struct {
	Results []model.CatalogMovie
	Err     *apiclient.Error
	Stale   bool
	Skipped bool
	// Done はこれ以上のページがないことを示す。
	Done bool
}

// CatalogPager はページ番号ベースでカタログの結果を蓄積する。
// 取得元が変わると新しいエポックになり、古い応答は破棄される。
type CatalogPager struct {
	api    CatalogAPI
	logger *slog.Logger

	mu         sync.Mutex
	source     CatalogSource
	epoch      uint64
	page       int
	totalPages int
	results    []model.CatalogMovie
	inflight   bool
	errMsg     string
	cancel     context.CancelFunc
}

// NewCatalogPager はCatalogPagerを生成する。
func NewCatalogPager(api CatalogAPI, logger *slog.Logger) *CatalogPager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogPager{api: api, logger: logger, cancel: func() {}}
}

// SetSource は取得元を切り替え、蓄積済みの結果を破棄する。
func (p *CatalogPager) SetSource(src CatalogSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if src == p.source && p.epoch > 0 {
		return
	}
	p.cancel()
	p.cancel = func() {}
	p.source = src
	p.epoch++
	p.page = 0
	p.totalPages = 0
	p.results = nil
	p.inflight = false
	p.errMsg = ""
}

// HasMore は次のページが存在する可能性があればtrueを返す。
func (p *CatalogPager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMoreLocked()
}

func (p *CatalogPager) hasMoreLocked() bool {
	return !p.source.empty() && (p.page == 0 || p.page < p.totalPages)
}

// Results は蓄積済みの結果を返す。
func (p *CatalogPager) Results() []model.CatalogMovie {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CatalogMovie(nil), p.results...)
}

// Error は直近の取得失敗のメッセージを返す。
func (p *CatalogPager) Error() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errMsg
}

// Next は次のページを取得して結果に追記する。
func (p *CatalogPager) Next(ctx context.Context) CatalogResult {
	p.mu.Lock()
	if p.inflight {
		p.mu.Unlock()
		return CatalogResult{Skipped: true}
	}
	if !p.hasMoreLocked() {
		p.mu.Unlock()
		return CatalogResult{Skipped: true, Done: true}
	}
	src := p.source
	epoch := p.epoch
	page := p.page + 1
	p.inflight = true
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	var (
		out *model.CatalogPage
		err error
	)
	if src.Query != "" {
		out, err = p.api.SearchCatalog(fetchCtx, src.Query, page)
	} else {
		out, err = p.api.ListCatalog(fetchCtx, src.List, page)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		p.logger.Debug("古いカタログ応答を破棄しました", slog.Int("page", page))
		return CatalogResult{Stale: true}
	}
	p.inflight = false

	if err != nil {
		apiErr := apiclient.AsError(err)
		p.errMsg = apiErr.Message
		return CatalogResult{Err: apiErr}
	}

	p.page = page
	p.totalPages = out.TotalPages
	p.results = append(p.results, out.Results...)
	p.errMsg = ""
	return CatalogResult{Results: out.Results, Done: !p.hasMoreLocked()}
}
