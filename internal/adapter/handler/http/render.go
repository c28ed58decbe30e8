package http

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"nft-storefront/internal/domain/entity"

	"github.com/valyala/fasthttp"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageHome        = "home"
	pageCollections = "collections"
	pageMints       = "mints"
)

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"floor": func(c entity.Collection) string {
		price, symbol, ok := c.FloorPrice()
		if !ok {
			return "-"
		}
		return formatAmount(price, symbol)
	},
	"volume": func(c entity.Collection, key entity.VolumeKey) string {
		return strconv.FormatFloat(c.VolumeFor(key), 'f', 2, 64)
	},
	"price": func(p *entity.Price) string {
		if p == nil || p.Amount == nil {
			return "-"
		}
		if p.Amount.Decimal == 0 {
			return "Free"
		}
		symbol := ""
		if p.Currency != nil {
			symbol = p.Currency.Symbol
		}
		return formatAmount(p.Amount.Decimal, symbol)
	},
}

func formatAmount(v float64, symbol string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if symbol == "" {
		return s
	}
	return s + " " + symbol
}

// parsePages builds one template set per page, each sharing the layout.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{pageHome, pageCollections, pageMints} {
		t, err := template.New(name).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s page template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

type chainLink struct {
	Name   string
	Href   string
	Active bool
}

// pageView is the part of every page the layout renders.
type pageView struct {
	Title               string
	Chain               entity.NetworkDescriptor
	Chains              []chainLink
	IsTestnetDeployment bool
	FeedURL             string
}

// option is one entry of a sort or period selector.
type option struct {
	Param    string
	Value    string
	Label    string
	Href     string
	Selected bool
}

type collectionsTable struct {
	Rows      []entity.Collection
	VolumeKey entity.VolumeKey
}

type homeView struct {
	Page               pageView
	SSR                entity.HomeRankings
	Home               entity.HomeRankings
	Tab                string
	CollectionsTabHref string
	MintsTabHref       string
	SortOptions        []option
	PeriodOptions      []option
	CollectionsTable   collectionsTable
	SeeMoreHref        string
}

type collectionsView struct {
	Page             pageView
	SSR              entity.CollectionsPayload
	SortOptions      []option
	CollectionsTable collectionsTable
	NextHref         string
}

type mintsView struct {
	Page          pageView
	SSR           entity.MintsPayload
	Payload       entity.MintsPayload
	PeriodOptions []option
}

// href appends the non-empty key/value pairs of kv to path as a query string.
func href(path string, kv ...string) string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			args.Add(kv[i], kv[i+1])
		}
	}
	if args.Len() == 0 {
		return path
	}
	return path + "?" + args.String()
}

func chainPath(chain entity.NetworkDescriptor, suffix string) string {
	return "/" + chain.RoutePrefix + suffix
}

func sortOptions(path string, selected entity.SortBy, extra ...string) []option {
	opts := make([]option, 0, len(entity.SortByOptions))
	for _, s := range entity.SortByOptions {
		opts = append(opts, option{
			Param:    "sortBy",
			Value:    string(s),
			Label:    s.Label(),
			Href:     href(path, append([]string{"sortBy", string(s)}, extra...)...),
			Selected: s == selected,
		})
	}
	return opts
}

func periodOptions(path string, selected entity.MintPeriod, extra ...string) []option {
	opts := make([]option, 0, len(entity.MintPeriodOptions))
	for _, p := range entity.MintPeriodOptions {
		opts = append(opts, option{
			Param:    "period",
			Value:    string(p),
			Label:    string(p),
			Href:     href(path, append([]string{"period", string(p)}, extra...)...),
			Selected: p == selected,
		})
	}
	return opts
}
