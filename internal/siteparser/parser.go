package siteparser

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/recipecrawl/internal/fetcher"
	"github.com/nao1215/recipecrawl/internal/model"
)

const (
	jsonLDSelector    = "script[type='application/ld+json']"
	microdataSelector = "[itemtype*='schema.org/Recipe']"
	recipeType        = "Recipe"
)

// PageFetcher retrieves and parses a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error)
}

// Parser extracts recipes with goquery.
type Parser struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Parser that retrieves pages through f.
func New(f PageFetcher, opts ...Option) *Parser {
	p := &Parser{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract fetches pageURL and returns its recipe. It returns nil and no
// error when the page carries no recipe data or the recipe has no title.
// Fetch failures are returned as extraction errors.
func (p *Parser) Extract(ctx context.Context, pageURL string) (*model.Recipe, error) {
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, model.NewCrawlError(model.KindExtraction, pageURL, err)
	}
	return p.ExtractPage(page), nil
}

// ExtractPage returns the recipe carried by an already fetched page.
func (p *Parser) ExtractPage(page *fetcher.Page) *model.Recipe {
	doc := goquery.NewDocumentFromNode(page.Root)

	recipe, ok := fromJSONLD(doc)
	if !ok {
		recipe, ok = fromMicrodata(doc)
	}
	if !ok {
		p.logger.Debug("no recipe data", "url", page.URL)
		return nil
	}

	if !model.HasTitle(recipe.Title) {
		recipe.Title = pageTitle(doc)
	}
	if !model.HasTitle(recipe.Title) {
		return nil
	}
	recipe.SourceURL = page.URL
	return recipe
}

// Links fetches pageURL and returns every link on it.
func (p *Parser) Links(ctx context.Context, pageURL string) ([]string, error) {
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return p.PageLinks(page), nil
}

// PageLinks returns the absolute URLs of every anchor on page, in document
// order, without repeats.
func (p *Parser) PageLinks(page *fetcher.Page) []string {
	doc := goquery.NewDocumentFromNode(page.Root)

	links := make([]string, 0)
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved := page.Resolve(href)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	})
	return links
}

// fromJSONLD returns the first schema.org Recipe found in the page's JSON-LD.
func fromJSONLD(doc *goquery.Document) (*model.Recipe, bool) {
	var found *model.Recipe
	doc.Find(jsonLDSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}

		var data any
		if err := json.Unmarshal([]byte(text), &data); err != nil {
			return true
		}

		if obj := findRecipeObject(data); obj != nil {
			found = &model.Recipe{
				Title:        cleanText(stringValue(obj["name"])),
				Ingredients:  ingredientList(obj["recipeIngredient"], obj["ingredients"]),
				Instructions: instructionText(obj["recipeInstructions"]),
			}
			return false
		}
		return true
	})
	return found, found != nil
}

// findRecipeObject walks a decoded JSON-LD value looking for a node typed Recipe.
func findRecipeObject(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if obj := findRecipeObject(item); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if hasType(node["@type"], recipeType) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findRecipeObject(graph)
		}
	}
	return nil
}

// hasType reports whether a JSON-LD @type value, a string or an array of
// strings, names want.
func hasType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

// ingredientList decodes recipeIngredient, falling back to the legacy
// ingredients property.
func ingredientList(values ...any) []string {
	for _, v := range values {
		var items []string
		switch t := v.(type) {
		case string:
			items = []string{t}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					items = append(items, s)
				}
			}
		}

		cleaned := make([]string, 0, len(items))
		for _, item := range items {
			if c := cleanText(item); c != "" {
				cleaned = append(cleaned, c)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return []string{}
}

// instructionText flattens recipeInstructions into newline-separated steps.
// It accepts a plain string, a list of strings, HowToStep objects and
// HowToSection objects holding further steps.
func instructionText(v any) string {
	steps := make([]string, 0)

	var collect func(any)
	collect = func(v any) {
		switch t := v.(type) {
		case string:
			if c := cleanText(t); c != "" {
				steps = append(steps, c)
			}
		case []any:
			for _, item := range t {
				collect(item)
			}
		case map[string]any:
			if items, ok := t["itemListElement"]; ok {
				collect(items)
				return
			}
			if text, ok := t["text"]; ok {
				collect(text)
				return
			}
			collect(t["name"])
		}
	}
	collect(v)

	return strings.Join(steps, "\n")
}

// fromMicrodata reads a Recipe itemscope.
func fromMicrodata(doc *goquery.Document) (*model.Recipe, bool) {
	scope := doc.Find(microdataSelector).First()
	if scope.Length() == 0 {
		return nil, false
	}

	recipe := &model.Recipe{
		Title:       cleanText(ownProps(scope, "[itemprop='name']").First().Text()),
		Ingredients: make([]string, 0),
	}

	ownProps(scope, "[itemprop='recipeIngredient'], [itemprop='ingredients']").Each(func(_ int, s *goquery.Selection) {
		if c := cleanText(s.Text()); c != "" {
			recipe.Ingredients = append(recipe.Ingredients, c)
		}
	})

	steps := make([]string, 0)
	ownProps(scope, "[itemprop='recipeInstructions']").Each(func(_ int, s *goquery.Selection) {
		items := s.Find("li")
		if items.Length() == 0 {
			if c := cleanText(s.Text()); c != "" {
				steps = append(steps, c)
			}
			return
		}
		items.Each(func(_ int, li *goquery.Selection) {
			if c := cleanText(li.Text()); c != "" {
				steps = append(steps, c)
			}
		})
	})
	recipe.Instructions = strings.Join(steps, "\n")

	return recipe, true
}

// ownProps returns the elements matching selector whose nearest enclosing
// item is scope. Properties of nested items such as an author are skipped.
func ownProps(scope *goquery.Selection, selector string) *goquery.Selection {
	root := scope.Get(0)
	return scope.Find(selector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		owner := s.Parent().Closest("[itemscope], [itemtype]")
		return owner.Length() > 0 && owner.Get(0) == root
	})
}

// pageTitle returns the first <h1>, or the document title.
func pageTitle(doc *goquery.Document) string {
	if h1 := cleanText(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return cleanText(doc.Find("title").First().Text())
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// cleanText collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
