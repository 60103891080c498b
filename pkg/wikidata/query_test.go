package wikidata

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warshipfetch/pkg/config"
)

func TestBuildQuery_Default(t *testing.T) {
	q, err := BuildQuery(DefaultQueryParams())
	require.NoError(t, err)

	wantFragments := []string{
		"SELECT DISTINCT ?ship ?shipLabel ?image ?length ?displacement WHERE {",
		"?ship wdt:P18 ?image .",
		"?ship wdt:P31/wdt:P279* wd:Q31146 .",
		"OPTIONAL { ?ship wdt:P2043 ?length . }",
		"OPTIONAL { ?ship wdt:P2109 ?displacement . }",
		`SERVICE wikibase:label { bd:serviceParam wikibase:language "[AUTO_LANGUAGE],en". }`,
		"LIMIT 100",
	}
	for _, f := range wantFragments {
		assert.Contains(t, q, f)
	}
}

func TestBuildQuery_SelectsProjectedVariables(t *testing.T) {
	q, err := BuildQuery(DefaultQueryParams())
	require.NoError(t, err)

	selectLine := strings.SplitN(q, "\n", 2)[0]
	for _, v := range []string{VarShip, VarShipLabel, VarImage, VarLength, VarDisplacement} {
		assert.Contains(t, selectLine, "?"+v+" ", "projection variable %s missing from SELECT", v)
	}
}

func TestBuildQuery_Params(t *testing.T) {
	tests := []struct {
		name    string
		params  QueryParams
		want    string
		wantErr bool
	}{
		{
			name:   "CustomClassAndLimit",
			params: QueryParams{Class: "Q2811", Languages: []string{"de", "en"}, Limit: 25},
			want:   "wd:Q2811",
		},
		{
			name:   "RegionalLanguage",
			params: QueryParams{Class: "Q31146", Languages: []string{"pt-BR"}, Limit: 1},
			want:   `wikibase:language "pt-BR"`,
		},
		{name: "EmptyClass", params: QueryParams{Languages: []string{"en"}, Limit: 1}, wantErr: true},
		{name: "NotAnItem", params: QueryParams{Class: "P31", Languages: []string{"en"}, Limit: 1}, wantErr: true},
		{name: "Injection", params: QueryParams{Class: "Q1 } DELETE", Languages: []string{"en"}, Limit: 1}, wantErr: true},
		{name: "ZeroLimit", params: QueryParams{Class: "Q1", Languages: []string{"en"}, Limit: 0}, wantErr: true},
		{name: "HugeLimit", params: QueryParams{Class: "Q1", Languages: []string{"en"}, Limit: MaxLimit + 1}, wantErr: true},
		{name: "NoLanguages", params: QueryParams{Class: "Q1", Limit: 10}, wantErr: true},
		{name: "QuotedLanguage", params: QueryParams{Class: "Q1", Languages: []string{`en"`}, Limit: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := BuildQuery(tt.params)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidQuery))
				return
			}
			require.NoError(t, err)
			assert.Contains(t, q, tt.want)
		})
	}
}

func TestDefaultQueryParams_MatchConfigDefaults(t *testing.T) {
	q := config.DefaultConfig().Query
	p := DefaultQueryParams()

	assert.Equal(t, DefaultEndpoint, q.Endpoint)
	assert.Equal(t, p.Class, q.Class)
	assert.Equal(t, p.Languages, q.Languages)
	assert.Equal(t, p.Limit, q.Limit)
}

func TestBuildQuery_AgreesWithConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		params QueryParams
	}{
		{"Defaults", DefaultQueryParams()},
		{"RegionTag", QueryParams{Class: "Q2811", Languages: []string{"pt-BR"}, Limit: 1}},
		{"MaxLimit", QueryParams{Class: "Q1", Languages: []string{"en"}, Limit: MaxLimit}},
		{"OverLimit", QueryParams{Class: "Q1", Languages: []string{"en"}, Limit: MaxLimit + 1}},
		{"LeadingZero", QueryParams{Class: "Q01", Languages: []string{"en"}, Limit: 5}},
		{"Property", QueryParams{Class: "P31", Languages: []string{"en"}, Limit: 5}},
		{"BadTag", QueryParams{Class: "Q1", Languages: []string{"not a tag"}, Limit: 5}},
		{"NoLanguages", QueryParams{Class: "Q1", Limit: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Query.Class = tt.params.Class
			cfg.Query.Languages = tt.params.Languages
			cfg.Query.Limit = tt.params.Limit

			_, buildErr := BuildQuery(tt.params)
			cfgErr := cfg.Validate()
			assert.Equal(t, cfgErr == nil, buildErr == nil, "config: %v, query: %v", cfgErr, buildErr)
		})
	}
}

func TestBuildQuery_OptionalClauses(t *testing.T) {
	q, err := BuildQuery(DefaultQueryParams())
	require.NoError(t, err)
	assert.Contains(t, q, "OPTIONAL { ?ship wdt:P2043 ?length . }")
	assert.Contains(t, q, "OPTIONAL { ?ship wdt:P2109 ?displacement . }")
}
