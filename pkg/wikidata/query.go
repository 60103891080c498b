package wikidata

import (
	"fmt"
	"strings"
	"text/template"

	"warshipfetch/pkg/config"
)

// Defaults for the warship query.
const (
	DefaultEndpoint  = "https://query.wikidata.org/sparql"
	DefaultClass     = "Q31146" // warship
	DefaultLanguages = config.AutoLanguage + ",en"
	DefaultLimit     = 100
	MaxLimit         = config.MaxLimit
)

// Variables selected by WarshipQuery. Transform projects exactly these names, so the
// template and the projection must change together.
const (
	VarShip         = "ship"
	VarShipLabel    = "shipLabel"
	VarImage        = "image"
	VarLength       = "length"
	VarDisplacement = "displacement"
)

// Properties used by the query.
const (
	PropInstanceOf   = "P31"
	PropSubclassOf   = "P279"
	PropImage        = "P18"
	PropLength       = "P2043"
	PropDisplacement = "P2109"
)

// QueryParams parameterizes WarshipQuery.
type QueryParams struct {
	Class     string   // Item the ships are instances of, transitively
	Languages []string // Label service fallback chain
	Limit     int      // Server-side result cap
}

// DefaultQueryParams returns the parameters of the stock query.
func DefaultQueryParams() QueryParams {
	return QueryParams{
		Class:     DefaultClass,
		Languages: strings.Split(DefaultLanguages, ","),
		Limit:     DefaultLimit,
	}
}

// Image first: anchoring on P18 keeps the class walk small enough for the 60s budget.
// Every extra image, length or displacement value yields another row for the same ship,
// and DISTINCT does not collapse them. LIMIT counts those rows, so Dedupe can return
// fewer ships than Limit.
const warshipQueryText = `SELECT DISTINCT ?{{.Ship}} ?{{.Label}} ?{{.Image}} ?{{.Length}} ?{{.Displacement}} WHERE {
  ?{{.Ship}} wdt:{{.PImage}} ?{{.Image}} .
  ?{{.Ship}} wdt:{{.PInstance}}/wdt:{{.PSubclass}}* wd:{{.Class}} .
  OPTIONAL { ?{{.Ship}} wdt:{{.PLength}} ?{{.Length}} . }
  OPTIONAL { ?{{.Ship}} wdt:{{.PDisplacement}} ?{{.Displacement}} . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "{{.Languages}}". }
}
LIMIT {{.Limit}}
`

// WarshipQuery is the query template; see BuildQuery.
var WarshipQuery = template.Must(template.New("warships").Parse(warshipQueryText))

// BuildQuery renders WarshipQuery for p after validating it.
func BuildQuery(p QueryParams) (string, error) {
	if !config.ValidClass(p.Class) {
		return "", fmt.Errorf("%w: class %q is not an item id", ErrInvalidQuery, p.Class)
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return "", fmt.Errorf("%w: limit %d out of range 1..%d", ErrInvalidQuery, p.Limit, MaxLimit)
	}
	if len(p.Languages) == 0 {
		return "", fmt.Errorf("%w: no label languages", ErrInvalidQuery)
	}
	for _, l := range p.Languages {
		if err := config.ValidLanguage(l); err != nil {
			return "", fmt.Errorf("%w: label language %q: %v", ErrInvalidQuery, l, err)
		}
	}

	data := map[string]any{
		"Ship":          VarShip,
		"Label":         VarShipLabel,
		"Image":         VarImage,
		"Length":        VarLength,
		"Displacement":  VarDisplacement,
		"PImage":        PropImage,
		"PInstance":     PropInstanceOf,
		"PSubclass":     PropSubclassOf,
		"PLength":       PropLength,
		"PDisplacement": PropDisplacement,
		"Class":         p.Class,
		"Languages":     strings.Join(p.Languages, ","),
		"Limit":         p.Limit,
	}

	var sb strings.Builder
	if err := WarshipQuery.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render query: %w", err)
	}
	return sb.String(), nil
}
